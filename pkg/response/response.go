package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ErrCodeSuccess       = 2000 // Success
	ErrCodeParamInvalid  = 4003 // Request parameters invalid
	ErrCodeUnauthorized  = 4010 // Missing or invalid token
	ErrCodeTooManyReqs   = 4290 // Rate limited
	ErrCodeUnavailable   = 5030 // Optional dependency not configured
	ErrCodeInternalError = 5000 // Unexpected failure
)

// message
var msg = map[int]string{
	ErrCodeSuccess:       "success",
	ErrCodeParamInvalid:  "invalid parameters",
	ErrCodeUnauthorized:  "unauthorized",
	ErrCodeTooManyReqs:   "too many requests",
	ErrCodeUnavailable:   "service unavailable",
	ErrCodeInternalError: "internal error",
}

// Message returns the default text for code.
func Message(code int) string {
	return msg[code]
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Abort writes an error response and stops the handler chain.
func Abort(c *gin.Context, status, code int, details string) {
	c.AbortWithStatusJSON(status, ErrorBody{Code: code, Error: Message(code), Details: details})
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}
