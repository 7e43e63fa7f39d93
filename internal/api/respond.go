package api

import (
	"errors"
	"net/http"

	"hotelops/internal/common"

	"github.com/gin-gonic/gin"
)

// statusFor maps an outcome kind to the HTTP status returned with it.
func statusFor(kind common.OutcomeKind) int {
	switch kind {
	case common.OutcomeValidationError:
		return http.StatusBadRequest
	case common.OutcomeServiceError:
		return http.StatusBadGateway
	case common.OutcomeBusy, common.OutcomeStale, common.OutcomeRejected:
		return http.StatusConflict
	case common.OutcomeFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}

// errorStatus maps backend errors for the raw task and menu routes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	body := gin.H{"error": common.Message(err)}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body["code"] = appErr.Code
	}
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		c.Error(err)
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
