package response

import (
	"github.com/gin-gonic/gin"
)

// ContextRequestID là gin context key do middleware.RequestID set
const ContextRequestID = "request_id"

type Response struct {
	Success   bool        `json:"success"`
	RequestID string      `json:"request_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *Error      `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
}

type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type Meta struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
	Total int `json:"total,omitempty"`
}

// write gắn request_id vào mọi response để client đối chiếu với log
func write(c *gin.Context, statusCode int, resp Response) {
	resp.RequestID = c.GetString(ContextRequestID)
	c.JSON(statusCode, resp)
}

// Success responses
func Success(c *gin.Context, statusCode int, data interface{}) {
	write(c, statusCode, Response{Success: true, Data: data})
}

func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *Meta) {
	write(c, statusCode, Response{Success: true, Data: data, Meta: meta})
}

// Error responses
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	ErrorWithDetails(c, statusCode, code, message, nil)
}

func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, details interface{}) {
	write(c, statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Common error responses
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, 400, "BAD_REQUEST", message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, 401, "UNAUTHORIZED", message)
}

func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, 403, "FORBIDDEN", message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, 404, "NOT_FOUND", message)
}

func Conflict(c *gin.Context, message string) {
	ErrorResponse(c, 409, "CONFLICT", message)
}

func PayloadTooLarge(c *gin.Context, message string) {
	ErrorResponse(c, 413, "PAYLOAD_TOO_LARGE", message)
}

func UnsupportedMediaType(c *gin.Context, message string) {
	ErrorResponse(c, 415, "UNSUPPORTED_MEDIA_TYPE", message)
}

func UnprocessableEntity(c *gin.Context, message string, details interface{}) {
	ErrorWithDetails(c, 422, "UNPROCESSABLE_ENTITY", message, details)
}
