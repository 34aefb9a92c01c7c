package route

import (
	"github.com/SeakMengs/BasicPDF/internal/controller"
	"github.com/SeakMengs/BasicPDF/internal/middleware"
	"github.com/gin-gonic/gin"
)

func V1_Sessions(r *gin.RouterGroup, sc *controller.SessionController, middleware *middleware.Middleware) {
	r.POST("/v1/sessions", sc.CreateSession)

	v1 := r.Group("/v1/sessions/:sessionId")
	v1.Use(middleware.SessionMiddleware, middleware.BodyLimitMiddleware)
	{
		v1.GET("", sc.GetSession)
		v1.DELETE("", sc.ResetSession)
		v1.POST("/document", sc.UploadDocument)
		v1.POST("/signature", sc.UploadSignature)
		v1.POST("/certificate", sc.UploadCertificate)
		v1.POST("/certificate/validate", sc.ValidateCertificate)
		v1.PUT("/pages", sc.SetPages)
		v1.POST("/pages/:page/toggle", sc.TogglePage)
		v1.GET("/pages/:page/preview", sc.Preview)
		v1.PUT("/pages/:page/placement", sc.SetPlacement)
		v1.PATCH("/settings", sc.UpdateSettings)
		v1.POST("/pointer", sc.Pointer)
		v1.POST("/advance", sc.Advance)
		v1.POST("/back", sc.Back)
		v1.POST("/finalize", sc.Finalize)
	}
}
