package api

import (
	"net/http"

	"hotelops/internal/board"
	"hotelops/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type boardResponse struct {
	Outcome common.Outcome  `json:"outcome"`
	Board   *board.Snapshot `json:"board,omitempty"`
}

// queryFilter reads the caller's board view from the query string.
func queryFilter(c *gin.Context) (board.Filter, bool) {
	var f board.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err.Error())
		return f, false
	}
	return f, true
}

// GetBoard loads the board with the query filter and returns the columns.
func (s *Server) GetBoard(c *gin.Context) {
	f, ok := queryFilter(c)
	if !ok {
		return
	}
	snap, err := s.deps.Board.Load(c.Request.Context(), f)
	if err != nil {
		out := board.OutcomeFor(err, "")
		c.JSON(statusFor(out.Kind), boardResponse{Outcome: out})
		return
	}
	c.JSON(http.StatusOK, boardResponse{Outcome: board.OutcomeFor(nil, "Board loaded"), Board: &snap})
}

func (s *Server) GetCandidates(c *gin.Context) {
	candidates, err := s.deps.Board.Candidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		out := board.OutcomeFor(err, "")
		c.JSON(statusFor(out.Kind), gin.H{"outcome": out})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

func (s *Server) BoardAssign(c *gin.Context) {
	f, ok := queryFilter(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res := s.deps.Board.Assign(c.Request.Context(), c.Param("id"), req.StaffID, f)
	s.replyBoard(c, "board.assign", res)
}

func (s *Server) BoardUnassign(c *gin.Context) {
	f, ok := queryFilter(c)
	if !ok {
		return
	}
	var req cancelRequest
	_ = c.ShouldBindJSON(&req)
	res := s.deps.Board.Unassign(c.Request.Context(), c.Param("id"), req.Reason, f)
	s.replyBoard(c, "board.unassign", res)
}

func (s *Server) BoardCreateTask(c *gin.Context) {
	f, ok := queryFilter(c)
	if !ok {
		return
	}
	var nt board.NewTask
	if err := c.ShouldBindJSON(&nt); err != nil {
		badRequest(c, err.Error())
		return
	}
	task, res := s.deps.Board.CreateTask(c.Request.Context(), nt, f)
	s.publish("board.create_task", res.Outcome)
	if res.Outcome.IsError() {
		c.JSON(statusFor(res.Outcome.Kind), boardResponse{Outcome: res.Outcome, Board: res.Snapshot})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task, "outcome": res.Outcome, "board": res.Snapshot})
}

// AutoAssign runs the bulk sweep over the tasks matching the query filter.
// A partial or failed sweep still answers 200; the result lists every
// success and failure.
func (s *Server) AutoAssign(c *gin.Context) {
	f, ok := queryFilter(c)
	if !ok {
		return
	}
	result, snap := s.deps.Board.AutoAssign(c.Request.Context(), f)
	s.publish("board.auto_assign", result.Outcome)
	s.log.Info("board.auto_assign",
		zap.String("status", string(result.Status)),
		zap.Int("succeeded", len(result.Success)),
		zap.Int("failed", len(result.Failed)),
	)
	c.JSON(http.StatusOK, gin.H{"result": result, "board": snap})
}

func (s *Server) replyBoard(c *gin.Context, topic string, res board.Result) {
	s.publish(topic, res.Outcome)
	c.JSON(statusFor(res.Outcome.Kind), boardResponse{Outcome: res.Outcome, Board: res.Snapshot})
}
