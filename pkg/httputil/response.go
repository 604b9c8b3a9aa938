package httputil

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/riveravet/clinic-api/pkg/errors"
	clinicvalidator "github.com/riveravet/clinic-api/pkg/validator"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response wraps all successful API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// ErrorResponse wraps all failed API responses
type ErrorResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = clinicvalidator.Messages()

// RespondWithSuccess sends a 200 success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: StatusSuccess, Data: data})
}

// RespondWithCreated sends a 201 success response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Status: StatusSuccess, Data: data})
}

// RespondWithMessage sends a success response that carries only a message.
func RespondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Status: StatusSuccess, Message: message})
}

// RespondWithError maps err to a status code and sends an error response.
// Errors that are not AppErrors are hidden behind a generic message and
// attached to the context for the request logger.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Status:  StatusError,
			Message: "internal server error",
		})
		return
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Status: StatusError, Message: appErr.Message})
}

// RespondWithBindError reports a request that failed to bind or validate.
func RespondWithBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Status:  StatusError,
			Message: "invalid request body",
		})
		return
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		fields = append(fields, FieldError{Field: fe.Field(), Message: msg})
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Status:  StatusError,
		Message: fmt.Sprintf("%s: %s", fields[0].Field, fields[0].Message),
		Errors:  fields,
	})
}

// Abort sends an error response with an explicit status.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Status: StatusError, Message: message})
}
