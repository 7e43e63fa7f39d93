package api

import (
	"net/http"

	"hotelops/internal/board"

	"github.com/gin-gonic/gin"
)

type assignRequest struct {
	StaffID string `json:"staff_id"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// ListTasks is the raw backend listing; filters are query parameters.
func (s *Server) ListTasks(c *gin.Context) {
	var f board.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err.Error())
		return
	}
	tasks, err := s.deps.Tasks.ListTasks(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) CreateTask(c *gin.Context) {
	var nt board.NewTask
	if err := c.ShouldBindJSON(&nt); err != nil {
		badRequest(c, err.Error())
		return
	}
	task, err := s.deps.Tasks.CreateTask(c.Request.Context(), nt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (s *Server) AssignTask(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.StaffID == "" {
		badRequest(c, "staff_id is required")
		return
	}
	if err := s.deps.Tasks.AssignTask(c.Request.Context(), c.Param("id"), req.StaffID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task assigned"})
}

func (s *Server) CancelTask(c *gin.Context) {
	var req cancelRequest
	// the body is optional
	_ = c.ShouldBindJSON(&req)
	if err := s.deps.Tasks.CancelTask(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task cancelled"})
}

func (s *Server) ListTaskEvents(c *gin.Context) {
	events, err := s.deps.Tasks.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) ListStaff(c *gin.Context) {
	staff, err := s.deps.Tasks.ActiveStaff(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}
