package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Table(t *testing.T) {
	tests := []struct {
		status   string
		workflow bool
		want     Column
	}{
		{"Pending", false, ColumnPending},
		{"Pending", true, ColumnAwaitingAssignment},
		{"Assigned", false, ColumnInProgress},
		{"Assigned", true, ColumnInProgress},
		{"In-Progress", false, ColumnInProgress},
		{"In-Progress", true, ColumnInProgress},
		{"Completed", false, ColumnCompleted},
		{"Completed", true, ColumnCompleted},
		{"Cancelled", false, ColumnExcluded},
		{"Cancelled", true, ColumnExcluded},
		{"weird-unknown-value", false, ColumnPending},
		{"weird-unknown-value", true, ColumnPending},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.status, tt.workflow), "%s workflow=%v", tt.status, tt.workflow)
	}
}

func TestClassify_Normalization(t *testing.T) {
	assert.Equal(t, ColumnInProgress, Classify("  in   progress ", false))
	assert.Equal(t, ColumnInProgress, Classify("IN_PROGRESS", false))
	assert.Equal(t, ColumnExcluded, Classify("canceled", true))
	assert.Equal(t, ColumnPending, Classify("", false))
	assert.Equal(t, ColumnAwaitingAssignment, Classify("PENDING", true))
}

func TestNormalizeDepartmentAndPriority(t *testing.T) {
	assert.Equal(t, DepartmentCleaning, NormalizeDepartment("Housekeeping"))
	assert.Equal(t, DepartmentMaintenance, NormalizeDepartment("maintenance"))
	assert.Equal(t, DepartmentService, NormalizeDepartment("room_service"))
	assert.Equal(t, DepartmentKitchen, NormalizeDepartment(" KITCHEN "))
	assert.Equal(t, DepartmentGeneral, NormalizeDepartment("spa"))

	assert.Equal(t, PriorityUrgent, NormalizePriority("URGENT"))
	assert.Equal(t, PriorityMedium, NormalizePriority(""))
	assert.Equal(t, PriorityMedium, NormalizePriority("whenever"))
}
