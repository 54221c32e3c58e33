package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"career-constellation/internal/transport/http/response"
)

// Initializer is satisfied by app.RAGService.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// EnsureInitialized loads the corpus on first use when it was not loaded at
// start. Requests fail with 503 while the data cannot be loaded.
func EnsureInitialized(svc Initializer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Initialize(c.Request.Context()); err != nil {
			log.Printf("initialize on request failed: %v", err)
			response.Error(c, http.StatusServiceUnavailable, response.CodeNotInitialized, "service data is not available")
			c.Abort()
			return
		}
		c.Next()
	}
}
