package controller

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"github.com/gin-gonic/gin"
)

const (
	ErrFileMustBePdf = "only PDF files are supported"
)

type ToolsController struct {
	*baseController
}

// Split extracts the listed pages of the uploaded PDF into a new document.
func (tc ToolsController) Split(ctx *gin.Context) {
	type Request struct {
		File  *multipart.FileHeader `form:"file" binding:"required"`
		Pages string                `form:"pages" binding:"required,strNotEmpty,cmax=2048"`
	}
	var body Request

	if err := ctx.ShouldBind(&body); err != nil {
		invalidRequest(ctx, err, "file")
		return
	}

	if !util.HasExtension(body.File.Filename, ".pdf") {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid file", util.GenerateErrorMessages(errors.New(ErrFileMustBePdf), "file"), nil)
		return
	}

	name, data, err := readFormFile(body.File)
	if err != nil {
		tc.fail(ctx, "Failed to read file", err, "file")
		return
	}

	pageCount, err := tc.app.Toolkit.PageCount(ctx, data)
	if err != nil {
		tc.fail(ctx, "Failed to load document", err, "file")
		return
	}

	pages, err := parsePageList(body.Pages, pageCount)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid pages", util.GenerateErrorMessages(err, "pages"), nil)
		return
	}

	out, err := tc.app.Toolkit.Split(ctx, name, data, pages)
	if err != nil {
		tc.fail(ctx, "Failed to split document", err, "file")
		return
	}

	tc.sendOutput(ctx, out)
}

// Merge concatenates the uploaded PDFs in the order they were sent.
func (tc ToolsController) Merge(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		invalidRequest(ctx, err, "files")
		return
	}

	files := form.File["files"]
	list := basicpdf.NewMergeList()
	for _, fh := range files {
		if !util.HasExtension(fh.Filename, ".pdf") {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid file", util.GenerateErrorMessages(errors.New(ErrFileMustBePdf), fh.Filename), nil)
			return
		}

		name, data, err := readFormFile(fh)
		if err != nil {
			tc.fail(ctx, "Failed to read file", err, fh.Filename)
			return
		}
		if _, err := list.Add(name, data); err != nil {
			tc.fail(ctx, "Invalid file", err, fh.Filename)
			return
		}
	}

	out, err := tc.app.Toolkit.Merge(ctx, list)
	if err != nil {
		tc.fail(ctx, "Failed to merge documents", err, "files")
		return
	}

	tc.sendOutput(ctx, out)
}
