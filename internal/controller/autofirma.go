package controller

import (
	"net/http"

	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"github.com/gin-gonic/gin"
)

type AutoFirmaController struct {
	*baseController
}

// GetLinks returns the AutoFirma download links for the caller's platform.
// The platform query overrides the User-Agent detection.
func (ac AutoFirmaController) GetLinks(ctx *gin.Context) {
	type Request struct {
		Platform basicpdf.Platform `form:"platform" binding:"omitempty,oneof=desktop android ios"`
	}
	var params Request

	if err := ctx.ShouldBindQuery(&params); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "platform"), nil)
		return
	}

	platform := params.Platform
	if platform == "" {
		platform = basicpdf.DetectPlatform(ctx.GetHeader("User-Agent"))
	}

	util.ResponseSuccess(ctx, basicpdf.NewAutoFirmaLinks(platform))
}
