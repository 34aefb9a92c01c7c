package basicpdf

import (
	"context"
	"image/color"
)

// Engine loads documents. Implementations must not keep references to data.
type Engine interface {
	Load(ctx context.Context, data []byte) (Document, error)
}

// Merger concatenates whole documents in the given order.
type Merger interface {
	Merge(ctx context.Context, docs [][]byte) ([]byte, error)
}

// Document is an in-memory PDF being edited. Page indices are zero-based.
type Document interface {
	PageCount() int
	PageSize(index int) (Size, error)
	// Subset builds a new document holding only the given pages, in the given order.
	Subset(indices []int) (Document, error)
	EmbedImage(data []byte) (ImageRef, error)
	DrawImage(index int, img ImageRef, r DocumentRect) error
	DrawText(index int, text string, at Position, style TextStyle) error
	DrawRectangle(index int, r DocumentRect, style RectStyle) error
	Save(ctx context.Context) ([]byte, error)
	// Close releases resources held by the document. It is safe to call more than once.
	Close() error
}

// ImageRef is an image embedded into a specific document.
type ImageRef interface {
	Size() Size
}

type TextStyle struct {
	// One of the 14 standard PDF fonts, e.g. Courier or Courier-Bold
	Font  string
	Size  float64
	Color color.RGBA
}

type RectStyle struct {
	Fill        *color.RGBA
	Border      *color.RGBA
	BorderWidth float64
}

const (
	FontCourier     = "Courier"
	FontCourierBold = "Courier-Bold"
)

// rgb mirrors the 0..1 float color notation used by PDF drawing APIs.
func rgb(r, g, b float64) color.RGBA {
	return color.RGBA{R: uint8(r*255 + 0.5), G: uint8(g*255 + 0.5), B: uint8(b*255 + 0.5), A: 255}
}
