// Package validation provides request binding helpers for gin handlers
package validation

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON shape written for rejected requests.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

// BindJSON decodes the request body into dst and runs tag validation. On
// failure it writes a 400 response and returns false; the handler should
// simply return. dst must be a pointer to a struct carrying validate tags.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
		})
		return false
	}
	return validateBound(c, dst)
}

// BindQuery decodes query parameters into dst and runs tag validation, with
// the same contract as BindJSON.
func BindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid query parameters: " + err.Error(),
		})
		return false
	}
	return validateBound(c, dst)
}

func validateBound(c *gin.Context, dst any) bool {
	err := ValidateWithPlayground(dst)
	if err == nil {
		return true
	}
	resp := ErrorResponse{Error: "validation failed"}
	if errors, ok := err.(ValidationErrors); ok {
		resp.Details = errors
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
	return false
}
