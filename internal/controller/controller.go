package controller

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	appcontext "github.com/SeakMengs/BasicPDF/internal/app_context"
	"github.com/SeakMengs/BasicPDF/internal/constant"
	"github.com/SeakMengs/BasicPDF/internal/session"
	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"github.com/gin-gonic/gin"
)

const (
	ErrSessionNotInCtx   = "session not found in context"
	ErrInvalidPageNumber = "page must be a non-negative integer, but got %q"
	ErrInvalidPageList   = "pages must be a comma separated list of page indexes or ranges, but got %q"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index     *IndexController
	AutoFirma *AutoFirmaController
	Tools     *ToolsController
	Session   *SessionController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:     &IndexController{baseController: bc},
		AutoFirma: &AutoFirmaController{baseController: bc},
		Tools:     &ToolsController{baseController: bc},
		Session:   &SessionController{baseController: bc},
	}
}

func (b *baseController) getSession(ctx *gin.Context) (*basicpdf.Session, error) {
	value, exists := ctx.Get(constant.CTX_SESSION)
	if !exists {
		return nil, errors.New(ErrSessionNotInCtx)
	}

	sess, ok := value.(*basicpdf.Session)
	if !ok {
		return nil, errors.New(ErrSessionNotInCtx)
	}

	return sess, nil
}

// readFormFile returns the base name and content of one uploaded file.
func readFormFile(fh *multipart.FileHeader) (string, []byte, error) {
	src, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", nil, err
	}

	return fh.Filename, data, nil
}

func pageParam(ctx *gin.Context) (int, error) {
	raw := ctx.Params.ByName("page")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0, fmt.Errorf(ErrInvalidPageNumber, raw)
	}
	return page, nil
}

// parsePageList reads 0-based page indexes such as "0,2,4-6". Every index must be
// below pageCount, ranges are checked before they are expanded.
func parsePageList(raw string, pageCount int) ([]int, error) {
	var pages []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		from, to, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil || first < 0 {
			return nil, fmt.Errorf(ErrInvalidPageList, raw)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(strings.TrimSpace(to))
			if err != nil || last < first {
				return nil, fmt.Errorf(ErrInvalidPageList, raw)
			}
		}
		if last >= pageCount {
			return nil, fmt.Errorf("page %d of %d: %w", last, pageCount, basicpdf.ErrPageOutOfRange)
		}

		for page := first; page <= last; page++ {
			pages = append(pages, page)
		}
	}
	return pages, nil
}

// statusOf maps a domain error to the HTTP status returned to the client.
func statusOf(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, basicpdf.ErrCertificateAuth):
		return http.StatusUnprocessableEntity
	case errors.Is(err, basicpdf.ErrBusy),
		errors.Is(err, basicpdf.ErrStaleResult),
		errors.Is(err, basicpdf.ErrWrongStep),
		errors.Is(err, basicpdf.ErrInvalidTransition),
		errors.Is(err, basicpdf.ErrPageNotDisplayed):
		return http.StatusConflict
	case errors.Is(err, basicpdf.ErrInvalidDocument),
		errors.Is(err, basicpdf.ErrMissingDocument),
		errors.Is(err, basicpdf.ErrMissingStamp),
		errors.Is(err, basicpdf.ErrEmptySignature),
		errors.Is(err, basicpdf.ErrNoCertificate),
		errors.Is(err, basicpdf.ErrPageOutOfRange),
		errors.Is(err, basicpdf.ErrDuplicatePage),
		errors.Is(err, basicpdf.ErrNoTargets),
		errors.Is(err, basicpdf.ErrEmptySelection),
		errors.Is(err, basicpdf.ErrPageNotSelected),
		errors.Is(err, basicpdf.ErrPlacementTooSmall),
		errors.Is(err, basicpdf.ErrTooFewFiles):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (b *baseController) fail(ctx *gin.Context, message string, err error, field string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		b.app.Logger.Error(err)
	} else {
		b.app.Logger.Debugf("%s: %s", message, util.GenerateErrorMessagesAsString(err, nil))
	}
	util.ResponseFailed(ctx, status, message, util.GenerateErrorMessages(err, field), nil)
}

// invalidRequest answers a request whose body could not be read or bound.
func invalidRequest(ctx *gin.Context, err error, field string) {
	status := http.StatusBadRequest
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		status = http.StatusRequestEntityTooLarge
	}
	util.ResponseFailed(ctx, status, "Invalid request", util.GenerateErrorMessages(err, field), nil)
}

// sendOutput stores the finished document when an output store is configured,
// otherwise it streams the PDF back as an attachment.
func (b *baseController) sendOutput(ctx *gin.Context, out *basicpdf.Output) {
	if b.app.Outputs != nil {
		stored, err := b.app.Outputs.Put(ctx, out.Name, out.Data)
		if err != nil {
			b.fail(ctx, "Failed to store output", err, "output")
			return
		}

		util.ResponseSuccess(ctx, gin.H{
			"name":      out.Name,
			"key":       stored.Key,
			"url":       stored.URL,
			"pageCount": out.PageCount,
			"stamps":    out.Stamps,
		})
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Name))
	ctx.Header("X-Page-Count", strconv.Itoa(out.PageCount))
	ctx.Data(http.StatusOK, constant.CONTENT_TYPE_PDF, out.Data)
}
