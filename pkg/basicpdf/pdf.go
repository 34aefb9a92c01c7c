package basicpdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"go.uber.org/zap"
)

/*
 * pdfcpu has no drawing API, every primitive is queued per page and turned into a
 * watermark on save. Watermarks are anchored with "pos:bl" so the offset is the
 * lower-left corner of the primitive in document space.
 */

func newPdfcpuConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PdfcpuEngine is the Engine backed by pdfcpu.
type PdfcpuEngine struct {
	cfg    *Config
	logger *zap.SugaredLogger
}

func NewPdfcpuEngine(cfg *Config, logger *zap.SugaredLogger) *PdfcpuEngine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PdfcpuEngine{cfg: cfg, logger: logger}
}

func (e *PdfcpuEngine) Load(ctx context.Context, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrMissingDocument
	}

	// pdfcpu may retain the buffer, keep our own copy
	data = slices.Clone(data)

	dims, err := api.PageDims(bytes.NewReader(data), newPdfcpuConfiguration())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidDocument)
	}

	sizes := make([]Size, len(dims))
	for i, d := range dims {
		sizes[i] = Size{Width: d.Width, Height: d.Height}
	}

	return &pdfcpuDocument{
		engine: e,
		data:   data,
		sizes:  sizes,
		ops:    make(map[int][]*model.Watermark),
	}, nil
}

func (e *PdfcpuEngine) Merge(ctx context.Context, docs [][]byte) ([]byte, error) {
	if len(docs) < 2 {
		return nil, ErrTooFewFiles
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, data := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := api.PageCount(bytes.NewReader(data), newPdfcpuConfiguration()); err != nil {
			return nil, fmt.Errorf("file %d: %w: %v", i+1, ErrInvalidDocument, err)
		}
		readers[i] = bytes.NewReader(data)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, newPdfcpuConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to merge documents: %w", err)
	}

	e.logger.Debugf("Merged %d documents, output %d bytes", len(docs), out.Len())
	return out.Bytes(), nil
}

type pdfcpuDocument struct {
	engine   *PdfcpuEngine
	data     []byte
	sizes    []Size
	ops      map[int][]*model.Watermark
	tmpFiles []string
}

type pdfcpuImage struct {
	img image.Image
}

func (i *pdfcpuImage) Size() Size {
	b := i.img.Bounds()
	return Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

func (d *pdfcpuDocument) PageCount() int { return len(d.sizes) }

func (d *pdfcpuDocument) checkPage(index int) error {
	if index < 0 || index >= len(d.sizes) {
		return fmt.Errorf("page %d of %d: %w", index, len(d.sizes), ErrPageOutOfRange)
	}
	return nil
}

func (d *pdfcpuDocument) PageSize(index int) (Size, error) {
	if err := d.checkPage(index); err != nil {
		return Size{}, err
	}
	return d.sizes[index], nil
}

// pageSelection converts zero-based indices to pdfcpu's one-based page selection.
func pageSelection(indices []int) []string {
	selected := make([]string, len(indices))
	for i, idx := range indices {
		selected[i] = strconv.Itoa(idx + 1)
	}
	return selected
}

func (d *pdfcpuDocument) Subset(indices []int) (Document, error) {
	if len(d.ops) > 0 {
		return nil, fmt.Errorf("subset must be taken before drawing")
	}
	if len(indices) == 0 {
		return nil, ErrEmptySelection
	}
	for _, idx := range indices {
		if err := d.checkPage(idx); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	if err := api.Collect(bytes.NewReader(d.data), &out, pageSelection(indices), newPdfcpuConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to collect pages: %w", err)
	}

	return d.engine.Load(context.Background(), out.Bytes())
}

func (d *pdfcpuDocument) EmbedImage(data []byte) (ImageRef, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	return &pdfcpuImage{img: img}, nil
}

func (d *pdfcpuDocument) queue(index int, wm *model.Watermark) {
	// pdfcpu pages are one-based
	d.ops[index+1] = append(d.ops[index+1], wm)
}

func watermarkPlacement(at Position, scale float64) string {
	return fmt.Sprintf("pos:bl, off:%.3f %.3f, scale:%.4f abs, rot:0, op:1", at.X, at.Y, scale)
}

func (d *pdfcpuDocument) DrawImage(index int, ref ImageRef, r DocumentRect) error {
	if err := d.checkPage(index); err != nil {
		return err
	}
	img, ok := ref.(*pdfcpuImage)
	if !ok {
		return fmt.Errorf("image was not embedded by this engine")
	}

	// pdfcpu draws one pixel per point at scale 1, resample at a higher resolution and scale back down
	res := d.engine.cfg.stampResolution()
	png, err := resizeImage(img.img, r.Width*res, r.Height*res)
	if err != nil {
		return err
	}

	wm, err := api.ImageWatermarkForReader(bytes.NewReader(png), watermarkPlacement(r.Position, 1/res), true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to build image stamp: %w", err)
	}
	d.queue(index, wm)
	return nil
}

func (d *pdfcpuDocument) DrawText(index int, text string, at Position, style TextStyle) error {
	if err := d.checkPage(index); err != nil {
		return err
	}
	font := style.Font
	if font == "" {
		font = FontCourier
	}
	points := int(style.Size + 0.5)
	if points < 1 {
		points = 1
	}

	desc := fmt.Sprintf("fontname:%s, points:%d, fillcolor:%s, mode:0, %s",
		font, points, hexColor(style.Color), watermarkPlacement(at, 1))
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to build text stamp: %w", err)
	}
	d.queue(index, wm)
	return nil
}

// DrawRectangle renders the box with canvas into a one-page PDF and stamps that page.
func (d *pdfcpuDocument) DrawRectangle(index int, r DocumentRect, style RectStyle) error {
	if err := d.checkPage(index); err != nil {
		return err
	}
	if !r.valid() {
		return fmt.Errorf("invalid rectangle %vx%v", r.Width, r.Height)
	}

	tmp, err := os.CreateTemp(d.engine.cfg.tmpDir(), "basicpdf_rect_*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmp.Close()
	d.tmpFiles = append(d.tmpFiles, tmp.Name())

	if err := renderRectangle(tmp.Name(), r.Size, style); err != nil {
		return err
	}

	wm, err := api.PDFWatermark(tmp.Name()+":1", watermarkPlacement(r.Position, 1), true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to build rectangle stamp: %w", err)
	}
	d.queue(index, wm)
	return nil
}

// tdewolff/canvas uses mm as the unit of measurement
func ptToMM(pt float64) float64 {
	return pt * 25.4 / DPI
}

const DPI = 72

func renderRectangle(output string, size Size, style RectStyle) error {
	c := canvas.New(ptToMM(size.Width), ptToMM(size.Height))
	ctx := canvas.NewContext(c)

	if style.Fill != nil {
		ctx.SetFillColor(*style.Fill)
	} else {
		ctx.SetFillColor(canvas.Transparent)
	}

	inset := 0.0
	if style.Border != nil && style.BorderWidth > 0 {
		ctx.SetStrokeColor(*style.Border)
		ctx.SetStrokeWidth(ptToMM(style.BorderWidth))
		// keep the stroke inside the box
		inset = ptToMM(style.BorderWidth) / 2
	} else {
		ctx.SetStrokeColor(canvas.Transparent)
	}

	w := c.W - 2*inset
	h := c.H - 2*inset
	ctx.DrawPath(inset, inset, canvas.Rectangle(w, h))

	if err := renderers.Write(output, c); err != nil {
		return fmt.Errorf("failed to write rectangle PDF: %w", err)
	}
	return nil
}

func (d *pdfcpuDocument) Save(ctx context.Context) ([]byte, error) {
	defer d.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(d.ops) == 0 {
		return slices.Clone(d.data), nil
	}

	var out bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(d.data), &out, d.ops, newPdfcpuConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to write stamps: %w", err)
	}

	d.engine.logger.Debugf("Stamped %d page(s), output %d bytes", len(d.ops), out.Len())
	return out.Bytes(), nil
}

// Close removes the temporary files created for rectangle stamps.
func (d *pdfcpuDocument) Close() error {
	for _, f := range d.tmpFiles {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			d.engine.logger.Warnf("Failed to remove temporary file %s: %v", f, err)
		}
	}
	d.tmpFiles = nil
	return nil
}
