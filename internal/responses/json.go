package responses

import "github.com/gin-gonic/gin"

// APIResponse is the envelope of every JSON endpoint. Code is a stable,
// machine-readable reason for failures the client tells apart.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

const (
	CodeUserNotFound       = "user_not_found"
	CodeInvalidCredentials = "invalid_credentials"
	CodePasswordRequired   = "password_required"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNoCommentAccess    = "no_comment_access"
	CodeInvalidRequest     = "invalid_request"
	CodeRateLimited        = "rate_limited"
	CodeNotFound           = "not_found"
	CodeBackendUnavailable = "backend_unavailable"
)

func Success(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func FailCode(c *gin.Context, statusCode int, code string, err error, message string) {
	c.JSON(statusCode, failure(code, err, message))
}

// Abort writes a failure envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, code string, err error, message string) {
	c.AbortWithStatusJSON(statusCode, failure(code, err, message))
}

func failure(code string, err error, message string) APIResponse {
	resp := APIResponse{
		Status:  "error",
		Message: message,
		Code:    code,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
