package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freewheels/service-rides/internal/domain"
)

// envelope is the uniform response body.
type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error *errBody    `json:"error,omitempty"`
}

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type paginatedEnvelope struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Data: data})
}

// NoContent writes a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a 200 response with paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, paginatedEnvelope{Data: items, Total: total, Page: page, Limit: limit})
}

// BadRequest writes a 400 response with a validation message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Error: &errBody{
		Code:    string(domain.CodeValidation),
		Message: message,
	}})
}

// Error maps an application error onto an HTTP response. Unknown errors
// surface as opaque 500s so internal details never leak.
func Error(c *gin.Context, err error) {
	if appErr, ok := domain.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus(), envelope{Error: &errBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
		}})
		return
	}
	c.JSON(http.StatusInternalServerError, envelope{Error: &errBody{
		Code:    string(domain.CodeInternal),
		Message: "internal server error",
	}})
}
