package board

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

type assignCall struct {
	TaskID  string
	StaffID string
}

type fakeSource struct {
	mu        sync.Mutex
	tasks     []Task
	failFor   map[string]error
	listErr   error
	lists     int
	assigns   []assignCall
	cancels   map[string]string
	lastQuery Filter

	// byDepartment makes ListTasks honour Filter.Department.
	byDepartment bool
}

func newFakeSource(tasks ...Task) *fakeSource {
	return &fakeSource{tasks: tasks, failFor: map[string]error{}, cancels: map[string]string{}}
}

func (f *fakeSource) ListTasks(ctx context.Context, q Filter) ([]Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	f.lastQuery = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if f.byDepartment && q.Department != "" && t.Department != q.Department {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeSource) AssignTask(ctx context.Context, taskID, staffID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigns = append(f.assigns, assignCall{TaskID: taskID, StaffID: staffID})
	if err := f.failFor[taskID]; err != nil {
		return err
	}
	for i := range f.tasks {
		if f.tasks[i].ID == taskID {
			f.tasks[i].Status = "Assigned"
			f.tasks[i].AssignedTo = &StaffRef{ID: staffID}
		}
	}
	return nil
}

func (f *fakeSource) CancelTask(ctx context.Context, taskID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[taskID]; err != nil {
		return err
	}
	f.cancels[taskID] = reason
	for i := range f.tasks {
		if f.tasks[i].ID == taskID {
			f.tasks[i].Status = "Cancelled"
		}
	}
	return nil
}

func (f *fakeSource) CreateTask(ctx context.Context, nt NewTask) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if nt.Title == "" {
		return Task{}, errors.New("title is required")
	}
	t := Task{
		ID:         "new-" + strconv.Itoa(len(f.tasks)+1),
		Title:      nt.Title,
		Department: NormalizeDepartment(nt.Department),
		Priority:   NormalizePriority(nt.Priority),
		Status:     "Pending",
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

type fakeRoster struct {
	staff []Staff
	err   error
}

func (r fakeRoster) ActiveStaff(ctx context.Context) ([]Staff, error) {
	return r.staff, r.err
}

func pendingTask(id string, recs ...Recommendation) Task {
	return Task{ID: id, Title: "Task " + id, Status: "Pending", Priority: PriorityMedium, RecommendedStaff: recs}
}

func rec(staffID, name string, score float64) Recommendation {
	return Recommendation{StaffID: staffID, Name: name, Role: "Attendant", MatchScore: score}
}
