package middleware

import (
	"fmt"
	"math"
	"net/http"

	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/gin-gonic/gin"
)

func (m Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	if m.rateLimiter == nil || !m.app.Config.RateLimiter.Enabled {
		ctx.Next()
		return
	}

	ok, retryAfter := m.rateLimiter.Allow(ctx.ClientIP())
	if !ok {
		seconds := int(math.Ceil(retryAfter.Seconds()))
		ctx.Header("Retry-After", fmt.Sprintf("%d", seconds))
		util.ResponseFailed(ctx, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded, retry after %d seconds", seconds), nil, nil)
		return
	}

	ctx.Next()
}
