package basicpdf

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// Preview is a rasterized page. Width and Height are the bitmap's native pixel size.
type Preview struct {
	PageIndex int     `json:"pageIndex"`
	Image     []byte  `json:"-"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

func (p *Preview) Size() Size {
	return Size{Width: p.Width, Height: p.Height}
}

// Rasterizer renders one page of a PDF to a PNG bitmap.
type Rasterizer interface {
	RenderPage(ctx context.Context, data []byte, pageIndex int, scale float64) (*Preview, error)
}

var (
	outlinePaper  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineBorder = color.RGBA{R: 203, G: 213, B: 225, A: 255}
)

// OutlineRasterizer draws a blank sheet with the exact proportions of the page.
// It is used when no content renderer is wired: placement only depends on page geometry.
type OutlineRasterizer struct {
	engine Engine
}

func NewOutlineRasterizer(engine Engine) *OutlineRasterizer {
	return &OutlineRasterizer{engine: engine}
}

func (r *OutlineRasterizer) RenderPage(ctx context.Context, data []byte, pageIndex int, scale float64) (*Preview, error) {
	if scale <= 0 {
		scale = 1
	}

	doc, err := r.engine.Load(ctx, data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	size, err := doc.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width := float64(int(size.Width*scale + 0.5))
	height := float64(int(size.Height*scale + 0.5))

	// one canvas unit per pixel
	c := canvas.New(width, height)
	cctx := canvas.NewContext(c)
	cctx.SetFillColor(outlinePaper)
	cctx.SetStrokeColor(outlineBorder)
	cctx.SetStrokeWidth(1)
	cctx.DrawPath(0.5, 0.5, canvas.Rectangle(width-1, height-1))

	img := rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &Preview{
		PageIndex: pageIndex,
		Image:     buf.Bytes(),
		Width:     width,
		Height:    height,
	}, nil
}
