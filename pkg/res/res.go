package res

import (
	"github.com/gin-gonic/gin"
)

// Json writes a JSON response with the given status code.
func Json(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error writes a JSON error envelope {"error": message}.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// AbortError writes an error envelope and aborts the handler chain.
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
