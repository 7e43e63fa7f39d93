package board

import "strings"

// Column is a board lane.
type Column string

const (
	ColumnPending            Column = "pending"
	ColumnAwaitingAssignment Column = "awaitingAssignment"
	ColumnInProgress         Column = "inProgress"
	ColumnCompleted          Column = "completed"
	// ColumnExcluded marks tasks that must not be shown at all.
	ColumnExcluded Column = "excluded"
)

// Columns lists the visible lanes in display order.
var Columns = []Column{ColumnPending, ColumnAwaitingAssignment, ColumnInProgress, ColumnCompleted}

var statusReplacer = strings.NewReplacer("-", " ", "_", " ")

func normalizeStatus(raw string) string {
	return strings.Join(strings.Fields(statusReplacer.Replace(strings.ToLower(raw))), " ")
}

// Classify maps a raw backend status to a column. Unknown statuses land in
// pending so a task is never dropped silently.
func Classify(rawStatus string, isWorkflowTask bool) Column {
	switch normalizeStatus(rawStatus) {
	case "cancelled", "canceled":
		return ColumnExcluded
	case "pending":
		if isWorkflowTask {
			return ColumnAwaitingAssignment
		}
		return ColumnPending
	case "assigned", "in progress":
		return ColumnInProgress
	case "completed":
		return ColumnCompleted
	}
	return ColumnPending
}
