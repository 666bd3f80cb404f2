package util

import (
	"errors"
	"net/http"

	"trilha_edu_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// RespondError maps the engine error taxonomy onto HTTP statuses.
// Unknown errors are treated as opaque storage failures.
func RespondError(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "validation failed",
			Data:    gin.H{"violations": ve.Violations},
		})
	case errors.Is(err, ErrTrilhaNotFound),
		errors.Is(err, ErrConteudoNotFound),
		errors.Is(err, ErrNoQuestions),
		errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrNotEnrolled):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotSessionOwner):
		Forbidden(c)
	case errors.Is(err, ErrSessionTimeout):
		// Not a system fault: the specific request failed because the
		// session's window elapsed.
		Error(c, http.StatusGone, err.Error())
	case IsTerminalRejection(err), errors.Is(err, ErrInvalidState):
		Conflict(c, err.Error())
	case errors.Is(err, ErrSessionConflict), errors.Is(err, ErrAlreadyEnrolled):
		Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Unauthorized(c)
	default:
		LogInternalError(c, err)
	}
}
