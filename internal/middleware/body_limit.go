package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimitMiddleware caps the size of request bodies to the configured upload limit.
func (m Middleware) BodyLimitMiddleware(ctx *gin.Context) {
	limit := m.app.Config.MaxUploadBytes()
	if limit > 0 && ctx.Request.Body != nil {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
	}
	ctx.Next()
}
