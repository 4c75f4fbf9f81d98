package server

import (
	"github.com/gin-gonic/gin"
)

// errorBody is the failure envelope every endpoint shares.
type errorBody struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}

func failWithDetails(c *gin.Context, status int, msg, details string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg, Details: details})
}
