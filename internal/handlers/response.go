package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponseEnvelope is the canonical response shape for the API.
type ResponseEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, ResponseEnvelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	c.JSON(status, ResponseEnvelope{
		Success: false,
		Message: message,
		Error:   errMsg,
	})
}

func respondValidationError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "validation failed", err)
}
