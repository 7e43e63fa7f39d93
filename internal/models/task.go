package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// TaskStatus is the status string stored for a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusAssigned   TaskStatus = "Assigned"
	TaskStatusInProgress TaskStatus = "In-Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusCancelled  TaskStatus = "Cancelled"
)

// Task is an operational work item for a department.
type Task struct {
	gorm.Model
	Title           string `gorm:"not null"`
	Description     string `gorm:"type:text"`
	Department      string `gorm:"index"`
	Priority        string `gorm:"index"`
	Status          string `gorm:"index"`
	IsWorkflowTask  bool
	AssignedStaffID *uint
	AssignedStaff   *Staff `gorm:"foreignkey:AssignedStaffID"`
	DueDate         *time.Time
	Recommendations []TaskRecommendation `gorm:"foreignkey:TaskID"`
}

// TableName sets the table name for Task
func (Task) TableName() string {
	return "tasks"
}

// TaskRecommendation is one ranked staff suggestion for a task, lower Rank first.
type TaskRecommendation struct {
	gorm.Model
	TaskID     uint `gorm:"index"`
	StaffID    uint
	Staff      Staff `gorm:"foreignkey:StaffID"`
	Rank       int
	MatchScore float64
}

// TableName sets the table name for TaskRecommendation
func (TaskRecommendation) TableName() string {
	return "task_recommendations"
}

// TaskEvent types.
const (
	TaskEventCreated   = "created"
	TaskEventAssigned  = "assigned"
	TaskEventCancelled = "cancelled"
)

// TaskEvent is the audit trail of task changes.
type TaskEvent struct {
	gorm.Model
	TaskID  uint `gorm:"index"`
	Type    string
	StaffID *uint
	Reason  string
}

// TableName sets the table name for TaskEvent
func (TaskEvent) TableName() string {
	return "task_events"
}
