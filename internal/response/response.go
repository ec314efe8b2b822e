package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the flat failure envelope shared by every endpoint.
// Success bodies are the endpoint's own model type carrying success=true.
type ErrorBody struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Code      ErrCode           `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// Success sends a successful JSON response with the given status code and body.
func Success(c *gin.Context, statusCode int, body any) {
	c.JSON(statusCode, body)
}

// OK sends {"success": true, "message": msg}.
func OK(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, gin.H{"success": true, "message": msg})
}

// Fail sends an error response with an error code and no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, buildError(c, code, nil))
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, buildError(c, code, fields))
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, buildError(c, code, nil))
}

func buildError(c *gin.Context, code ErrCode, fields map[string]string) ErrorBody {
	return ErrorBody{
		Success:   false,
		Message:   GetMessage(code),
		Code:      code,
		Fields:    fields,
		RequestID: RequestID(c),
	}
}
