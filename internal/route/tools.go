package route

import (
	"github.com/SeakMengs/BasicPDF/internal/controller"
	"github.com/SeakMengs/BasicPDF/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Tools(r *gin.RouterGroup, toolsController *controller.ToolsController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/tools")
	v1.Use(middleware.BodyLimitMiddleware)
	{
		v1.POST("/split", toolsController.Split)
		v1.POST("/merge", toolsController.Merge)
	}
}
