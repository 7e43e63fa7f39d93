package board

import (
	"context"
	"strings"
	"time"
)

// Priority of a task. Unknown values normalize to PriorityMedium.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func NormalizePriority(raw string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityUrgent:
		return PriorityUrgent
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	}
	return PriorityMedium
}

// Known departments, spelled the way the backend stores them.
const (
	DepartmentCleaning    = "cleaning"
	DepartmentMaintenance = "Maintenance"
	DepartmentService     = "service"
	DepartmentKitchen     = "Kitchen"
	DepartmentGeneral     = "General"
)

var departmentAliases = map[string]string{
	"cleaning":     DepartmentCleaning,
	"housekeeping": DepartmentCleaning,
	"maintenance":  DepartmentMaintenance,
	"engineering":  DepartmentMaintenance,
	"service":      DepartmentService,
	"room service": DepartmentService,
	"front desk":   DepartmentService,
	"kitchen":      DepartmentKitchen,
	"food":         DepartmentKitchen,
	"general":      DepartmentGeneral,
}

// NormalizeDepartment maps free text onto the known department set.
func NormalizeDepartment(raw string) string {
	key := strings.Join(strings.Fields(strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(raw))), " ")
	if d, ok := departmentAliases[key]; ok {
		return d
	}
	return DepartmentGeneral
}

// StaffRef identifies the person a task is assigned to.
type StaffRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Recommendation is one server-ranked handler for a task.
type Recommendation struct {
	StaffID    string  `json:"staff_id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	MatchScore float64 `json:"match_score"`
}

// Task is a unit of work as listed by the task source.
type Task struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Department       string           `json:"department"`
	Priority         Priority         `json:"priority"`
	Status           string           `json:"status"`
	IsWorkflowTask   bool             `json:"is_workflow_task"`
	AssignedTo       *StaffRef        `json:"assigned_to,omitempty"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
	RecommendedStaff []Recommendation `json:"recommended_staff"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Column is recomputed on every call; it is never stored.
func (t Task) Column() Column {
	return Classify(t.Status, t.IsWorkflowTask)
}

// NewTask is the payload for creating a task.
type NewTask struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Description    string     `json:"description" validate:"max=2000"`
	Department     string     `json:"department"`
	Priority       string     `json:"priority" validate:"omitempty,oneof=urgent high medium low"`
	DueDate        *time.Time `json:"due_date"`
	IsWorkflowTask bool       `json:"is_workflow_task"`
}

// Filter narrows a task listing. Empty fields do not filter.
type Filter struct {
	Status     string `json:"status" form:"status"`
	Department string `json:"department" form:"department"`
	Priority   string `json:"priority" form:"priority"`
	Search     string `json:"search" form:"search"`
}

// Staff is an active member of the roster.
type Staff struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// TaskSource is the backend that owns task state.
type TaskSource interface {
	ListTasks(ctx context.Context, f Filter) ([]Task, error)
	AssignTask(ctx context.Context, taskID, staffID string) error
	CancelTask(ctx context.Context, taskID, reason string) error
	CreateTask(ctx context.Context, t NewTask) (Task, error)
}

// Roster lists the staff available for heuristic ranking.
type Roster interface {
	ActiveStaff(ctx context.Context) ([]Staff, error)
}

// Metrics receives board events.
type Metrics interface {
	ObserveAssignment(mode, result string)
	ObserveAutoAssign(outcome string, succeeded, failed int)
	ObserveBoardLoad(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAssignment(string, string)   {}
func (nopMetrics) ObserveAutoAssign(string, int, int) {}
func (nopMetrics) ObserveBoardLoad(time.Duration)     {}
