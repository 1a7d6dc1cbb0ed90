package middleware

import (
	"fmt"
	"net/http"

	"github.com/duynhne/sut-service/internal/logger"
	"github.com/gin-gonic/gin"
)

// InternalError writes the generic 500 body used for unexpected failures.
func InternalError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal Server Error",
		"message": err.Error(),
	})
}

// RecoveryMiddleware turns a panic in any handler into the 500 JSON body.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("%v", recovered)
		}
		logger.FromContext(c.Request.Context()).Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("Recovered from panic")
		InternalError(c, err)
	})
}
