package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quizbank/internal/validator"
	"github.com/gin-gonic/gin"
)

// bindAndValidate decodes the JSON body into req and runs struct validation.
// On failure it writes a 400 response and returns false.
func bindAndValidate(c *gin.Context, v *validator.Validator, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	if err := v.Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err,
		})
		return false
	}
	return true
}
