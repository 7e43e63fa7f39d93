package board

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Candidate is a handler that could take a task, best first.
type Candidate struct {
	HandlerID  string  `json:"handler_id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	MatchScore float64 `json:"match_score"`
	// Heuristic is set when the score was computed locally rather than by the server.
	Heuristic bool `json:"heuristic"`
}

const (
	minHeuristicScore = 55
	maxHeuristicScore = 99
	// offDepartmentPenalty applies when no staff member works in the task's department.
	offDepartmentPenalty = 10
)

var priorityBase = map[Priority]float64{
	PriorityUrgent: 96,
	PriorityHigh:   92,
	PriorityMedium: 86,
	PriorityLow:    82,
}

// HeuristicScore is the fallback match score for a task without a server ranking.
func HeuristicScore(p Priority, due *time.Time, now time.Time) float64 {
	base, ok := priorityBase[p]
	if !ok {
		base = priorityBase[PriorityMedium]
	}
	return clampScore(base + dueBoost(due, now))
}

func dueBoost(due *time.Time, now time.Time) float64 {
	if due == nil {
		return 0
	}
	left := due.Sub(now)
	switch {
	case left < 0:
		return 8
	case left < 2*time.Hour:
		return 6
	case left < 24*time.Hour:
		return 3
	}
	return 0
}

func clampScore(s float64) float64 {
	if s < minHeuristicScore {
		return minHeuristicScore
	}
	if s > maxHeuristicScore {
		return maxHeuristicScore
	}
	return s
}

// serverRanked returns the server list verbatim, in server order.
func serverRanked(t Task) []Candidate {
	out := make([]Candidate, 0, len(t.RecommendedStaff))
	for _, r := range t.RecommendedStaff {
		out = append(out, Candidate{HandlerID: r.StaffID, Name: r.Name, Role: r.Role, MatchScore: r.MatchScore})
	}
	return out
}

// heuristicRanked scores the roster for t. Staff in the task's department are
// preferred; when there are none everyone is ranked with a penalty.
func heuristicRanked(t Task, staff []Staff, now time.Time) []Candidate {
	score := HeuristicScore(t.Priority, t.DueDate, now)

	pool := make([]Staff, 0, len(staff))
	for _, s := range staff {
		if strings.EqualFold(s.Department, t.Department) {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		pool = staff
		score = clampScore(score - offDepartmentPenalty)
	}

	out := make([]Candidate, 0, len(pool))
	for _, s := range pool {
		out = append(out, Candidate{HandlerID: s.ID, Name: s.Name, Role: s.Role, MatchScore: score, Heuristic: true})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// RankCandidates lists handlers for t, best first. A server-supplied ranking
// is used verbatim; otherwise the roster is scored locally.
func (e *Engine) RankCandidates(ctx context.Context, t Task) ([]Candidate, error) {
	if len(t.RecommendedStaff) > 0 {
		return serverRanked(t), nil
	}
	if e.roster == nil {
		return []Candidate{}, nil
	}
	staff, err := e.roster.ActiveStaff(ctx)
	if err != nil {
		return nil, err
	}
	return heuristicRanked(t, staff, e.now()), nil
}
