package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Data writes a 200 OK response wrapping the payload under "data", the shape
// the coach clients consume.
func Data(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, gin.H{"data": payload})
}
