package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"hotelops/internal/common"
	"hotelops/internal/extraction"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sessionResponse struct {
	Session extraction.View          `json:"session"`
	Outcome *common.Outcome          `json:"outcome,omitempty"`
	Commit  *extraction.CommitResult `json:"commit,omitempty"`
}

type urlRequest struct {
	URL string `json:"url"`
}

// CreateSession starts a wizard run. Categories are loaded once so the
// normalizer resolves against what the backend knows right now.
func (s *Server) CreateSession(c *gin.Context) {
	cats, err := s.deps.Menu.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	sess := extraction.NewSession(uuid.NewString(), s.deps.Extractor, extraction.NewNormalizer(cats), extraction.Options{
		Limits:        s.deps.UploadLimits,
		LowConfidence: s.deps.LowConfidence,
		Metrics:       s.deps.Metrics,
		Logger:        s.deps.Logger.Named("extraction"),
	})
	s.sessions.Put(sess)
	c.JSON(http.StatusCreated, sessionResponse{Session: sess.Snapshot()})
}

func (s *Server) session(c *gin.Context) (*extraction.Session, bool) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "extraction session not found"})
		return nil, false
	}
	return sess, true
}

func (s *Server) index(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "index must be a number")
		return 0, false
	}
	return i, true
}

// reply writes the session view with the outcome for err.
func (s *Server) reply(c *gin.Context, sess *extraction.Session, topic string, err error, successMessage string) {
	out := extraction.OutcomeFor(err, successMessage)
	if topic != "" {
		s.publish(topic, out)
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(out.Kind)
	}
	c.JSON(status, sessionResponse{Session: sess.Snapshot(), Outcome: &out})
}

func (s *Server) GetSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: sess.Snapshot()})
}

func (s *Server) DeleteSession(c *gin.Context) {
	if !s.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "extraction session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitImage reads the multipart "file" field. Reading stops one byte past
// the limit so oversize uploads are still reported as too large.
func (s *Server) SubmitImage(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		s.reply(c, sess, "", &extraction.ValidationError{Field: "file", Message: "select an image to upload"}, "")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	limit := s.deps.UploadLimits.MaxBytes
	if limit <= 0 {
		limit = extraction.DefaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		respondError(c, err)
		return
	}

	err = sess.SubmitImage(c.Request.Context(), extraction.ImageInput{FileName: fh.Filename, Data: data})
	s.reply(c, sess, "extraction.submit", err, extractedMessage(sess))
}

func (s *Server) SubmitURL(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	err := sess.SubmitURL(c.Request.Context(), req.URL)
	s.reply(c, sess, "extraction.submit", err, extractedMessage(sess))
}

func extractedMessage(sess *extraction.Session) string {
	n := len(sess.Snapshot().Candidates)
	if n == 1 {
		return "Found 1 menu item"
	}
	return "Found " + strconv.Itoa(n) + " menu items"
}

func (s *Server) ToggleCandidate(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	i, ok := s.index(c)
	if !ok {
		return
	}
	s.reply(c, sess, "", sess.Toggle(i), "Selection updated")
}

func (s *Server) SelectAll(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	s.reply(c, sess, "", sess.SelectAll(), "All items selected")
}

func (s *Server) SelectNone(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	s.reply(c, sess, "", sess.SelectNone(), "Selection cleared")
}

func (s *Server) StartEdit(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	i, ok := s.index(c)
	if !ok {
		return
	}
	s.reply(c, sess, "", sess.StartEdit(i), "Editing item")
}

func (s *Server) CancelEdit(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	s.reply(c, sess, "", sess.CancelEdit(), "Edit cancelled")
}

func (s *Server) SaveEdit(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	i, ok := s.index(c)
	if !ok {
		return
	}
	var patch extraction.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			s.reply(c, sess, "", extraction.FieldErrors{{Field: typeErr.Field, Message: "has the wrong type"}}, "")
			return
		}
		badRequest(c, err.Error())
		return
	}
	s.reply(c, sess, "", sess.SaveEdit(i, patch), "Item updated")
}

func (s *Server) DeleteCandidate(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	i, ok := s.index(c)
	if !ok {
		return
	}
	s.reply(c, sess, "", sess.Delete(i), "Item removed")
}

func (s *Server) Regenerate(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	err := sess.Regenerate(c.Request.Context())
	s.reply(c, sess, "extraction.regenerate", err, extractedMessage(sess))
}

// Commit saves the selection. A batch where nothing saved still answers 200
// with a failure outcome; the per-record reasons are in the result.
func (s *Server) Commit(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	result, err := sess.Commit(c.Request.Context(), s.batcher)
	if err != nil {
		s.reply(c, sess, "", err, "")
		return
	}
	out := result.Outcome()
	s.publish("menu.commit", out)
	s.log.Info("extraction.commit", zap.String("session_id", sess.ID()), zap.String("outcome", string(out.Kind)))
	c.JSON(http.StatusOK, sessionResponse{Session: sess.Snapshot(), Outcome: &out, Commit: &result})
}

func (s *Server) RetryFailed(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	s.reply(c, sess, "", sess.RetryFailed(), "Failed items are back in review")
}

func (s *Server) ResetSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.Reset()
	s.reply(c, sess, "", nil, "Started over")
}
