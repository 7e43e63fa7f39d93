package store

import (
	"context"
	"testing"

	"hotelops/internal/board"
	"hotelops/internal/common"
	"hotelops/internal/database"
	"hotelops/internal/extraction"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, database.Seed(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func staffID(t *testing.T, s *TaskStore, name string) string {
	t.Helper()
	staff, err := s.ActiveStaff(context.Background())
	require.NoError(t, err)
	for _, st := range staff {
		if st.Name == name {
			return st.ID
		}
	}
	t.Fatalf("no staff member %q", name)
	return ""
}

func taskByTitle(t *testing.T, s *TaskStore, title string) board.Task {
	t.Helper()
	tasks, err := s.ListTasks(context.Background(), board.Filter{})
	require.NoError(t, err)
	for _, task := range tasks {
		if task.Title == title {
			return task
		}
	}
	t.Fatalf("no task %q", title)
	return board.Task{}
}

func TestMenuStore_DuplicateCheckFailureStopsInsert(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	db.Callback().RowQuery().Before("gorm:row_query").Register("test:fail_menu_count", func(scope *gorm.Scope) {
		if scope.TableName() != "menu_items" {
			return
		}
		result, ok := scope.InstanceGet("row_query_result")
		if !ok {
			return
		}
		result.(*gorm.RowQueryResult).Row = scope.SQLDB().QueryRow("SELECT count(*) FROM missing_table")
		scope.SkipLeft()
	})
	s := NewMenuStore(db)

	_, err := s.CreateMenuItem(ctx, extraction.Candidate{NameEnglish: "Yellow Rice", Price: 650, Category: "rice"})
	require.Error(t, err)

	items, err := s.ListMenuItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMenuStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := NewMenuStore(setupDB(t))

	id, err := s.CreateMenuItem(ctx, extraction.Candidate{
		NameEnglish: "Yellow Rice",
		Price:       650,
		Category:    "rice",
		Ingredients: []string{"basmati", "turmeric"},
		DietaryTags: []string{"Vegan"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.CreateMenuItem(ctx, extraction.Candidate{NameEnglish: "Margherita", Price: 1800, Category: "Pizza"})
	require.NoError(t, err)

	items, err := s.ListMenuItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	byName := map[string]MenuItem{}
	for _, it := range items {
		byName[it.NameEnglish] = it
	}
	assert.Equal(t, "Rice", byName["Yellow Rice"].Category)
	assert.Equal(t, []string{"basmati", "turmeric"}, byName["Yellow Rice"].Ingredients)
	assert.Equal(t, "Main Course", byName["Margherita"].Category)
	assert.Equal(t, []string{}, byName["Margherita"].DietaryTags)
}

func TestMenuStore_Rejects(t *testing.T) {
	ctx := context.Background()
	s := NewMenuStore(setupDB(t))

	_, err := s.CreateMenuItem(ctx, extraction.Candidate{NameEnglish: "  ", Price: 10})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.CreateMenuItem(ctx, extraction.Candidate{NameEnglish: "Tea", Price: 150})
	require.NoError(t, err)
	_, err = s.CreateMenuItem(ctx, extraction.Candidate{NameEnglish: "tea", Price: 200})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, `an item named "tea" already exists`, common.Message(err))
}

func TestMenuStore_Categories(t *testing.T) {
	cats, err := NewMenuStore(setupDB(t)).ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, len(database.DefaultCategories))
	assert.Equal(t, "Appetizers", cats[0].Name)
	assert.True(t, cats[len(cats)-1].IsBeverage)
}

func TestTaskStore_ListAndFilter(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(setupDB(t))

	tasks, err := s.ListTasks(ctx, board.Filter{})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Deep clean room 204", tasks[0].Title)
	require.Len(t, tasks[0].RecommendedStaff, 2)
	assert.Equal(t, "Anura Perera", tasks[0].RecommendedStaff[0].Name)
	assert.Equal(t, 94.0, tasks[0].RecommendedStaff[0].MatchScore)
	assert.True(t, tasks[1].IsWorkflowTask)
	assert.Equal(t, board.ColumnAwaitingAssignment, tasks[1].Column())

	tasks, err = s.ListTasks(ctx, board.Filter{Department: "housekeeping"})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	tasks, err = s.ListTasks(ctx, board.Filter{Search: "BUFFET"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, board.DepartmentKitchen, tasks[0].Department)

	tasks, err = s.ListTasks(ctx, board.Filter{Priority: "urgent", Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestTaskStore_AssignAndCancel(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(setupDB(t))
	task := taskByTitle(t, s, "Deep clean room 204")
	anura := staffID(t, s, "Anura Perera")

	require.NoError(t, s.AssignTask(ctx, task.ID, anura))
	task = taskByTitle(t, s, "Deep clean room 204")
	assert.Equal(t, "Assigned", task.Status)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, "Anura Perera", task.AssignedTo.Name)
	assert.Equal(t, board.ColumnInProgress, task.Column())

	require.NoError(t, s.CancelTask(ctx, task.ID, "guest declined"))
	task = taskByTitle(t, s, "Deep clean room 204")
	assert.Equal(t, "Cancelled", task.Status)
	assert.Nil(t, task.AssignedTo)

	err := s.AssignTask(ctx, task.ID, anura)
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, "task is cancelled", common.Message(err))

	events, err := s.Events(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "assigned", events[0].Type)
	assert.Equal(t, "cancelled", events[1].Type)
	assert.Equal(t, "guest declined", events[1].Reason)
}

func TestTaskStore_AssignErrors(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(setupDB(t))
	task := taskByTitle(t, s, "Restock breakfast buffet")

	assert.ErrorIs(t, s.AssignTask(ctx, "999", staffID(t, s, "Saman Kumara")), common.ErrNotFound)
	assert.ErrorIs(t, s.AssignTask(ctx, task.ID, "999"), common.ErrValidation)
	assert.ErrorIs(t, s.AssignTask(ctx, "abc", "1"), common.ErrNotFound)
	assert.ErrorIs(t, s.CancelTask(ctx, "999", ""), common.ErrNotFound)
}

func TestTaskStore_CreateRanksByWorkload(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(setupDB(t))
	busy := taskByTitle(t, s, "Deep clean room 204")
	require.NoError(t, s.AssignTask(ctx, busy.ID, staffID(t, s, "Anura Perera")))

	created, err := s.CreateTask(ctx, board.NewTask{Title: "Turn down 101", Department: "Housekeeping"})
	require.NoError(t, err)
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, board.PriorityMedium, created.Priority)
	assert.Equal(t, board.DepartmentCleaning, created.Department)
	require.Len(t, created.RecommendedStaff, 2)
	assert.Equal(t, "Dilani Silva", created.RecommendedStaff[0].Name)
	assert.Equal(t, 86.0, created.RecommendedStaff[0].MatchScore)
	assert.Equal(t, "Anura Perera", created.RecommendedStaff[1].Name)
	assert.Equal(t, 82.0, created.RecommendedStaff[1].MatchScore)

	_, err = s.CreateTask(ctx, board.NewTask{Title: " "})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, "title is required", common.Message(err))

	_, err = s.CreateTask(ctx, board.NewTask{Title: "x", Priority: "asap"})
	assert.ErrorIs(t, err, common.ErrValidation)

	spa, err := s.CreateTask(ctx, board.NewTask{Title: "Book massage", Department: "spa"})
	require.NoError(t, err)
	assert.Equal(t, board.DepartmentGeneral, spa.Department)
	assert.Empty(t, spa.RecommendedStaff)
}

func TestTaskStore_BoardEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore(setupDB(t))
	b := board.NewBoard(s, board.NewEngine(s, board.WithRoster(s)), nil)

	res, snap := b.AutoAssign(ctx, board.Filter{})
	assert.Equal(t, board.AutoAssignAllSucceeded, res.Status)
	require.NotNil(t, snap)
	require.Len(t, res.Success, 1)
	assert.Equal(t, "Anura Perera", res.Success[0].HandlerName)
	assert.Len(t, snap.Columns[board.ColumnInProgress], 1)
	assert.Len(t, snap.Columns[board.ColumnAwaitingAssignment], 1)
	assert.Len(t, snap.Columns[board.ColumnPending], 1)

	kitchen := snap.Columns[board.ColumnPending][0]
	cands, err := b.Candidates(ctx, kitchen.ID)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.True(t, cands[0].Heuristic)
	assert.Equal(t, "Saman Kumara", cands[0].Name)
}
