package route

import (
	"github.com/SeakMengs/BasicPDF/internal/controller"
	"github.com/SeakMengs/BasicPDF/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts every route of the api on a gin engine.
func NewRouter(_controller *controller.Controller, _middleware *middleware.Middleware) *gin.Engine {
	r := gin.Default()

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Page-Count", "X-Preview-Width", "X-Preview-Height", "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")

	V1_AutoFirma(rApi, _controller.AutoFirma)
	V1_Tools(rApi, _controller.Tools, _middleware)
	V1_Sessions(rApi, _controller.Session, _middleware)

	return r
}
