// Package httpx renders the JSON envelope every endpoint answers with.
package httpx

import (
	"sync"

	"foodshare-api/apperror"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Envelope is {success, message, data} on success and
// {success: false, message, errors} on failure.
type Envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Count   *int                  `json:"count,omitempty"`
	Data    any                   `json:"data,omitempty"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
}

// JSON writes a successful envelope.
func JSON(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// List writes a successful envelope with a count next to the data.
func List(c *gin.Context, status int, data any, count int) {
	c.JSON(status, Envelope{Success: true, Count: &count, Data: data})
}

// Error records err on the context for the request logger and aborts with
// the matching status. Errors outside the taxonomy become a generic 500.
func Error(c *gin.Context, err error) {
	ae, ok := apperror.As(err)
	if !ok {
		ae = apperror.Internal(err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ae.Status(), Envelope{
		Success: false,
		Message: ae.Message,
		Errors:  ae.Fields,
	})
}

// Bind decodes and validates the JSON body into dst, rendering the failure
// itself. It reports whether the handler should continue.
func Bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Error(c, apperror.FromBinding(err))
		return false
	}
	return true
}

var fieldNamesOnce sync.Once

// UseJSONFieldNames makes gin's validator report fields by their JSON keys,
// so binding errors name "food_type" rather than "FoodType".
func UseJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(apperror.JSONFieldName)
		}
	})
}
