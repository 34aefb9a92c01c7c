package controller

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/SeakMengs/BasicPDF/internal/constant"
	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"github.com/gin-gonic/gin"
)

type SessionController struct {
	*baseController
}

type uploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
}

// session resolves the session set by the session middleware, answering the
// request itself when it is missing.
func (sc SessionController) session(ctx *gin.Context) (*basicpdf.Session, bool) {
	sess, err := sc.getSession(ctx)
	if err != nil {
		sc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err, "session"), nil)
		return nil, false
	}
	return sess, true
}

func (sc SessionController) readUpload(ctx *gin.Context) (string, []byte, bool) {
	var body uploadRequest
	if err := ctx.ShouldBind(&body); err != nil {
		invalidRequest(ctx, err, "file")
		return "", nil, false
	}

	name, data, err := readFormFile(body.File)
	if err != nil {
		sc.fail(ctx, "Failed to read file", err, "file")
		return "", nil, false
	}
	return name, data, true
}

func (sc SessionController) respondSnapshot(ctx *gin.Context, sess *basicpdf.Session) {
	util.ResponseSuccess(ctx, gin.H{
		"session": sess.Snapshot(),
	})
}

// CreateSession starts a signing session and returns the token that grants access to it.
func (sc SessionController) CreateSession(ctx *gin.Context) {
	type Request struct {
		Variant basicpdf.Variant `json:"variant" form:"variant" binding:"required,variant"`
	}
	var body Request

	if err := ctx.ShouldBind(&body); err != nil {
		invalidRequest(ctx, err, "variant")
		return
	}

	id, sess := sc.app.Sessions.Create(body.Variant)
	token, err := sc.app.JWTService.GenerateSessionToken(id, body.Variant)
	if err != nil {
		sc.app.Sessions.Delete(id)
		sc.fail(ctx, "Failed to generate session token", err, "token")
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"sessionId": id,
		"token":     token,
		"session":   sess.Snapshot(),
	})
}

func (sc SessionController) GetSession(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	sc.respondSnapshot(ctx, sess)
}

// ResetSession drops the session data and goes back to the upload step.
func (sc SessionController) ResetSession(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	sess.Reset()
	sc.app.Logger.Debugf("Reset session %s", ctx.GetString(constant.CTX_SESSION_ID))
	sc.respondSnapshot(ctx, sess)
}

func (sc SessionController) UploadDocument(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	name, data, ok := sc.readUpload(ctx)
	if !ok {
		return
	}
	if !util.HasExtension(name, ".pdf") {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid file", util.GenerateErrorMessages(errors.New(ErrFileMustBePdf), "file"), nil)
		return
	}

	if err := sess.LoadDocument(ctx, name, data); err != nil {
		sc.fail(ctx, "Failed to load document", err, "file")
		return
	}

	sc.respondSnapshot(ctx, sess)
}

// UploadSignature stores the hand-drawn signature exported as PNG.
func (sc SessionController) UploadSignature(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	_, data, ok := sc.readUpload(ctx)
	if !ok {
		return
	}

	if err := sess.CaptureSignature(data); err != nil {
		sc.fail(ctx, "Failed to capture signature", err, "file")
		return
	}

	sc.respondSnapshot(ctx, sess)
}

// UploadCertificate stores a .p12 or .pfx container until its password is validated.
func (sc SessionController) UploadCertificate(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	name, data, ok := sc.readUpload(ctx)
	if !ok {
		return
	}
	if !util.HasExtension(name, ".p12", ".pfx") {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid file", util.GenerateErrorMessages(errors.New("only .p12 and .pfx containers are supported"), "file"), nil)
		return
	}

	if err := sess.SetCertificateContainer(name, data); err != nil {
		sc.fail(ctx, "Failed to store certificate", err, "file")
		return
	}

	sc.respondSnapshot(ctx, sess)
}

func (sc SessionController) ValidateCertificate(ctx *gin.Context) {
	type Request struct {
		Password string `json:"password" form:"password" binding:"cmax=1024"`
	}
	var body Request

	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBind(&body); err != nil {
		invalidRequest(ctx, err, "password")
		return
	}

	info, err := sess.ValidateCertificate(ctx, body.Password)
	if err != nil {
		sc.fail(ctx, "Failed to validate certificate", err, "password")
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"certificate": info,
		"session":     sess.Snapshot(),
	})
}

// SetPages replaces the selection. All selects every page, an empty list clears it.
func (sc SessionController) SetPages(ctx *gin.Context) {
	type Request struct {
		Pages []int `json:"pages" binding:"omitempty,dive,gte=0"`
		All   bool  `json:"all"`
	}
	var body Request

	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx, err, "pages")
		return
	}

	var err error
	switch {
	case body.All:
		_, err = sess.SelectAll()
	case len(body.Pages) == 0:
		err = sess.ClearSelection()
	default:
		_, err = sess.SetSelection(body.Pages)
	}
	if err != nil {
		sc.fail(ctx, "Failed to update selection", err, "pages")
		return
	}

	sc.respondSnapshot(ctx, sess)
}

func (sc SessionController) TogglePage(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	page, err := pageParam(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid page", util.GenerateErrorMessages(err, "page"), nil)
		return
	}

	if _, err := sess.TogglePage(page); err != nil {
		sc.fail(ctx, "Failed to toggle page", err, "page")
		return
	}

	sc.respondSnapshot(ctx, sess)
}

// UpdateSettings switches the placement mode and the output mode. Omitted fields are kept.
func (sc SessionController) UpdateSettings(ctx *gin.Context) {
	type Request struct {
		SharedPlacement *bool `json:"sharedPlacement"`
		SubsetOutput    *bool `json:"subsetOutput"`
	}
	var body Request

	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx, err, "settings")
		return
	}

	if body.SubsetOutput != nil {
		if err := sess.SetSubsetOutput(*body.SubsetOutput); err != nil {
			sc.fail(ctx, "Failed to update output mode", err, "subsetOutput")
			return
		}
	}
	if body.SharedPlacement != nil {
		if err := sess.SetSharedPlacement(ctx, *body.SharedPlacement); err != nil {
			sc.fail(ctx, "Failed to update placement mode", err, "sharedPlacement")
			return
		}
	}

	sc.respondSnapshot(ctx, sess)
}

func (sc SessionController) Advance(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	if _, err := sess.Advance(ctx); err != nil {
		sc.fail(ctx, "Failed to advance", err, "step")
		return
	}

	sc.respondSnapshot(ctx, sess)
}

func (sc SessionController) Back(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	if _, err := sess.Back(); err != nil {
		sc.fail(ctx, "Failed to go back", err, "step")
		return
	}

	sc.respondSnapshot(ctx, sess)
}

// Preview serves the rendered bitmap of a displayed page.
func (sc SessionController) Preview(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	page, err := pageParam(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid page", util.GenerateErrorMessages(err, "page"), nil)
		return
	}

	preview, err := sess.Preview(page)
	if err != nil {
		sc.fail(ctx, "Preview not available", err, "page")
		return
	}

	ctx.Header("X-Preview-Width", strconv.FormatFloat(preview.Width, 'f', -1, 64))
	ctx.Header("X-Preview-Height", strconv.FormatFloat(preview.Height, 'f', -1, 64))
	ctx.Data(http.StatusOK, "image/png", preview.Image)
}

// SetPlacement stores a rectangle in preview pixels, it is clamped into the page.
func (sc SessionController) SetPlacement(ctx *gin.Context) {
	type Request struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width" binding:"gt=0"`
		Height float64 `json:"height" binding:"gt=0"`
	}
	var body Request

	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	page, err := pageParam(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid page", util.GenerateErrorMessages(err, "page"), nil)
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx, err, "rect")
		return
	}

	rect, err := sess.SetPlacement(page, basicpdf.NewRect(body.X, body.Y, body.Width, body.Height))
	if err != nil {
		sc.fail(ctx, "Failed to update placement", err, "page")
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"page": page,
		"rect": rect,
	})
}

// Pointer feeds one pointer event of the placement editor. When the preview is shown
// scaled, displayWidth and displayHeight carry its on-screen size and x, y are measured
// on it.
func (sc SessionController) Pointer(ctx *gin.Context) {
	type Request struct {
		Type          basicpdf.PointerEventType `json:"type" binding:"required,oneof=down move up leave"`
		Page          int                       `json:"page" binding:"gte=0"`
		Target        basicpdf.PointerTarget    `json:"target" binding:"omitempty,oneof=body handle none"`
		X             float64                   `json:"x"`
		Y             float64                   `json:"y"`
		DisplayWidth  float64                   `json:"displayWidth" binding:"omitempty,gt=0"`
		DisplayHeight float64                   `json:"displayHeight" binding:"omitempty,gt=0"`
	}
	var body Request

	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx, err, "event")
		return
	}

	ev := basicpdf.PointerEvent{
		Type:   body.Type,
		Page:   body.Page,
		Target: body.Target,
		X:      body.X,
		Y:      body.Y,
	}

	var (
		rect    basicpdf.Rect
		changed bool
		err     error
	)
	if body.DisplayWidth > 0 || body.DisplayHeight > 0 {
		rect, changed, err = sess.PointerOnDisplay(ev, basicpdf.Size{Width: body.DisplayWidth, Height: body.DisplayHeight})
	} else {
		rect, changed, err = sess.Pointer(ev)
	}
	if err != nil {
		sc.fail(ctx, "Failed to handle pointer event", err, "event")
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"rect":        rect,
		"changed":     changed,
		"interaction": sess.Interaction().Mode.String(),
	})
}

// Finalize stamps the selected pages and returns the signed document.
func (sc SessionController) Finalize(ctx *gin.Context) {
	sess, ok := sc.session(ctx)
	if !ok {
		return
	}

	out, err := sess.Finalize(ctx)
	if err != nil {
		sc.fail(ctx, "Failed to sign document", err, "document")
		return
	}

	sc.app.Logger.Infof("Session %s produced %s with %d pages", ctx.GetString(constant.CTX_SESSION_ID), out.Name, out.PageCount)
	sc.sendOutput(ctx, out)
}
