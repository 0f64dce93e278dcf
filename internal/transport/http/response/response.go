package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes the payload as-is; the endpoint contracts define flat bodies.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Detail writes the error body shape every failure path shares:
// a single human-readable detail string, no structured error codes.
func Detail(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, gin.H{"detail": detail})
}
