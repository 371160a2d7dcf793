// Package respond writes the canonical JSON success and error bodies.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload as the response body with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes payload with a 200 status.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}
