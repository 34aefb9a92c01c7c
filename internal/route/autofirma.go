package route

import (
	"github.com/SeakMengs/BasicPDF/internal/controller"
	"github.com/gin-gonic/gin"
)

func V1_AutoFirma(r *gin.RouterGroup, autoFirmaController *controller.AutoFirmaController) {
	v1 := r.Group("/v1/autofirma")
	{
		v1.GET("", autoFirmaController.GetLinks)
	}
}
