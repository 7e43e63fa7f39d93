package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"hotelops/internal/board"
	"hotelops/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
)

// maxRecommendations is how many ranked staff are stored per new task.
const maxRecommendations = 3

// TaskStore is the gorm-backed task source and staff roster.
type TaskStore struct {
	db       *gorm.DB
	validate *validator.Validate
	now      func() time.Time
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db, validate: validator.New(), now: time.Now}
}

// ListTasks returns tasks matching f in creation order.
func (s *TaskStore) ListTasks(ctx context.Context, f board.Filter) ([]board.Task, error) {
	q := s.db.Preload("AssignedStaff").
		Preload("Recommendations", func(db *gorm.DB) *gorm.DB { return db.Order("rank asc") }).
		Preload("Recommendations.Staff")

	if f.Status != "" {
		q = q.Where("lower(status) = ?", strings.ToLower(strings.TrimSpace(f.Status)))
	}
	if f.Department != "" {
		q = q.Where("department = ?", board.NormalizeDepartment(f.Department))
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", string(board.NormalizePriority(f.Priority)))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("lower(title) LIKE ? OR lower(description) LIKE ?", like, like)
	}

	var rows []models.Task
	if err := q.Order("id asc").Find(&rows).Error; err != nil {
		return nil, dbError("list tasks", err)
	}
	out := make([]board.Task, 0, len(rows))
	for i := range rows {
		out = append(out, toBoardTask(&rows[i]))
	}
	return out, nil
}

// AssignTask gives an open task to an active staff member.
func (s *TaskStore) AssignTask(ctx context.Context, taskID, staffID string) error {
	tid, err := parseID("task", taskID)
	if err != nil {
		return err
	}
	sid, err := parseID("staff member", staffID)
	if err != nil {
		return err
	}

	tx := s.db.Begin()
	var task models.Task
	if err := tx.First(&task, tid).Error; err != nil {
		tx.Rollback()
		return dbError("task", err)
	}
	if err := checkOpen(task); err != nil {
		tx.Rollback()
		return err
	}
	var staff models.Staff
	if err := tx.Where("id = ? AND active = ?", sid, true).First(&staff).Error; err != nil {
		tx.Rollback()
		if gorm.IsRecordNotFoundError(err) {
			return invalid("staff member not found or inactive")
		}
		return dbError("staff member", err)
	}

	if err := tx.Model(&task).Updates(map[string]interface{}{
		"assigned_staff_id": staff.ID,
		"status":            string(models.TaskStatusAssigned),
	}).Error; err != nil {
		tx.Rollback()
		return dbError("assign task", err)
	}
	if err := tx.Create(&models.TaskEvent{TaskID: task.ID, Type: models.TaskEventAssigned, StaffID: &staff.ID}).Error; err != nil {
		tx.Rollback()
		return dbError("record task event", err)
	}
	return tx.Commit().Error
}

// CancelTask cancels an open task and clears its assignee.
func (s *TaskStore) CancelTask(ctx context.Context, taskID, reason string) error {
	tid, err := parseID("task", taskID)
	if err != nil {
		return err
	}

	tx := s.db.Begin()
	var task models.Task
	if err := tx.First(&task, tid).Error; err != nil {
		tx.Rollback()
		return dbError("task", err)
	}
	if err := checkOpen(task); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&task).Updates(map[string]interface{}{
		"assigned_staff_id": gorm.Expr("NULL"),
		"status":            string(models.TaskStatusCancelled),
	}).Error; err != nil {
		tx.Rollback()
		return dbError("cancel task", err)
	}
	if err := tx.Create(&models.TaskEvent{TaskID: task.ID, Type: models.TaskEventCancelled, StaffID: task.AssignedStaffID, Reason: reason}).Error; err != nil {
		tx.Rollback()
		return dbError("record task event", err)
	}
	return tx.Commit().Error
}

func taskFieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	}
	return field + " is invalid"
}

func checkOpen(t models.Task) error {
	switch board.Classify(t.Status, false) {
	case board.ColumnCompleted:
		return conflict("task is already completed")
	case board.ColumnExcluded:
		return conflict("task is cancelled")
	}
	return nil
}

// CreateTask validates nt, stores it as pending and ranks staff for it.
func (s *TaskStore) CreateTask(ctx context.Context, nt board.NewTask) (board.Task, error) {
	nt.Title = strings.TrimSpace(nt.Title)
	nt.Priority = strings.ToLower(strings.TrimSpace(nt.Priority))
	if err := s.validate.Struct(nt); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return board.Task{}, invalid(taskFieldMessage(verrs[0]))
		}
		return board.Task{}, invalid(err.Error())
	}

	task := models.Task{
		Title:          nt.Title,
		Description:    strings.TrimSpace(nt.Description),
		Department:     board.NormalizeDepartment(nt.Department),
		Priority:       string(board.NormalizePriority(nt.Priority)),
		Status:         string(models.TaskStatusPending),
		IsWorkflowTask: nt.IsWorkflowTask,
		DueDate:        nt.DueDate,
	}

	recs, err := s.rank(task)
	if err != nil {
		return board.Task{}, err
	}
	task.Recommendations = recs

	tx := s.db.Begin()
	if err := tx.Create(&task).Error; err != nil {
		tx.Rollback()
		return board.Task{}, dbError("create task", err)
	}
	if err := tx.Create(&models.TaskEvent{TaskID: task.ID, Type: models.TaskEventCreated}).Error; err != nil {
		tx.Rollback()
		return board.Task{}, dbError("record task event", err)
	}
	if err := tx.Commit().Error; err != nil {
		return board.Task{}, dbError("create task", err)
	}

	var saved models.Task
	if err := s.db.Preload("Recommendations", func(db *gorm.DB) *gorm.DB { return db.Order("rank asc") }).
		Preload("Recommendations.Staff").First(&saved, task.ID).Error; err != nil {
		return board.Task{}, dbError("task", err)
	}
	return toBoardTask(&saved), nil
}

// rank scores active staff in the task's department, lighter workloads first.
func (s *TaskStore) rank(task models.Task) ([]models.TaskRecommendation, error) {
	var staff []models.Staff
	if err := s.db.Where("active = ? AND department = ?", true, task.Department).Find(&staff).Error; err != nil {
		return nil, dbError("list staff", err)
	}
	if len(staff) == 0 {
		return nil, nil
	}

	type loadRow struct {
		AssignedStaffID uint
		OpenCount       int
	}
	var loads []loadRow
	if err := s.db.Model(&models.Task{}).
		Select("assigned_staff_id, count(*) as open_count").
		Where("assigned_staff_id IS NOT NULL AND status IN (?)", []string{string(models.TaskStatusAssigned), string(models.TaskStatusInProgress)}).
		Group("assigned_staff_id").
		Scan(&loads).Error; err != nil {
		return nil, dbError("staff workload", err)
	}
	open := make(map[uint]int, len(loads))
	for _, l := range loads {
		open[l.AssignedStaffID] = l.OpenCount
	}

	base := board.HeuristicScore(board.Priority(task.Priority), task.DueDate, s.now())
	sort.SliceStable(staff, func(i, j int) bool {
		if open[staff[i].ID] != open[staff[j].ID] {
			return open[staff[i].ID] < open[staff[j].ID]
		}
		return staff[i].Name < staff[j].Name
	})
	if len(staff) > maxRecommendations {
		staff = staff[:maxRecommendations]
	}

	recs := make([]models.TaskRecommendation, 0, len(staff))
	for i, st := range staff {
		score := base - 4*float64(open[st.ID])
		if score < 0 {
			score = 0
		}
		recs = append(recs, models.TaskRecommendation{StaffID: st.ID, Rank: i + 1, MatchScore: score})
	}
	return recs, nil
}

// ActiveStaff lists the roster ordered by name.
func (s *TaskStore) ActiveStaff(ctx context.Context) ([]board.Staff, error) {
	var rows []models.Staff
	if err := s.db.Where("active = ?", true).Order("name asc").Find(&rows).Error; err != nil {
		return nil, dbError("list staff", err)
	}
	out := make([]board.Staff, 0, len(rows))
	for _, r := range rows {
		out = append(out, board.Staff{ID: formatID(r.ID), Name: r.Name, Role: r.Role, Department: r.Department})
	}
	return out, nil
}

// Events returns the audit trail for a task, oldest first.
func (s *TaskStore) Events(ctx context.Context, taskID string) ([]models.TaskEvent, error) {
	tid, err := parseID("task", taskID)
	if err != nil {
		return nil, err
	}
	var events []models.TaskEvent
	if err := s.db.Where("task_id = ?", tid).Order("id asc").Find(&events).Error; err != nil {
		return nil, dbError("list task events", err)
	}
	return events, nil
}

func toBoardTask(t *models.Task) board.Task {
	out := board.Task{
		ID:               formatID(t.ID),
		Title:            t.Title,
		Description:      t.Description,
		Department:       board.NormalizeDepartment(t.Department),
		Priority:         board.NormalizePriority(t.Priority),
		Status:           t.Status,
		IsWorkflowTask:   t.IsWorkflowTask,
		DueDate:          t.DueDate,
		RecommendedStaff: make([]board.Recommendation, 0, len(t.Recommendations)),
		CreatedAt:        t.CreatedAt,
	}
	if t.AssignedStaff != nil && t.AssignedStaff.ID != 0 {
		out.AssignedTo = &board.StaffRef{ID: formatID(t.AssignedStaff.ID), Name: t.AssignedStaff.Name}
	}
	for _, r := range t.Recommendations {
		out.RecommendedStaff = append(out.RecommendedStaff, board.Recommendation{
			StaffID:    formatID(r.StaffID),
			Name:       r.Staff.Name,
			Role:       r.Staff.Role,
			MatchScore: r.MatchScore,
		})
	}
	return out
}
