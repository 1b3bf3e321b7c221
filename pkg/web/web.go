package web

import (
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// Error writes the uniform error envelope every service speaks.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// Health registers the per-service health endpoint. It is for manual
// checks only; the gateway does not route on it.
func Health(r *gin.Engine, serviceName string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func RequestLog(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		log.Printf("[%s] %d %-7s %s (%v)", serviceName, c.Writer.Status(), c.Request.Method, path, time.Since(start))
	}
}

func Recovery(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[%s] panic: %v\n%s", serviceName, err, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// NewEngine builds the standard gin engine all services share.
func NewEngine(serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(RequestLog(serviceName), Recovery(serviceName))
	Health(r, serviceName)
	return r
}
