// Package basicpdftest provides in-memory fakes of the document engine, rasterizer and
// certificate parser. Fake documents are JSON, so tests can decode what was drawn.
package basicpdftest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"slices"
	"sync"

	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
)

type Draw struct {
	Kind string                `json:"kind"`
	Rect basicpdf.DocumentRect `json:"rect"`
	Text string                `json:"text,omitempty"`
	At   basicpdf.Position     `json:"at"`
	Font string                `json:"font,omitempty"`
}

type Page struct {
	// Index of the page in the document the fake was first built from
	Source int     `json:"source"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Draws  []Draw  `json:"draws,omitempty"`
}

type File struct {
	Magic string `json:"magic"`
	Pages []Page `json:"pages"`
}

const magic = "basicpdftest"

// NewPDF builds a fake document with one page per size.
func NewPDF(sizes ...basicpdf.Size) []byte {
	f := File{Magic: magic}
	for i, s := range sizes {
		f.Pages = append(f.Pages, Page{Source: i, Width: s.Width, Height: s.Height})
	}
	data, _ := json.Marshal(f)
	return data
}

// Letter builds a fake document of n US Letter pages.
func Letter(n int) []byte {
	sizes := make([]basicpdf.Size, n)
	for i := range sizes {
		sizes[i] = basicpdf.Size{Width: 612, Height: 792}
	}
	return NewPDF(sizes...)
}

func Decode(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil || f.Magic != magic {
		return nil, basicpdf.ErrInvalidDocument
	}
	return &f, nil
}

// Engine is a fake basicpdf.Engine and basicpdf.Merger.
type Engine struct {
	mu      sync.Mutex
	loads   int
	open    int
	SaveErr error
}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Load(ctx context.Context, data []byte) (basicpdf.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, basicpdf.ErrMissingDocument
	}
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.loads++
	e.open++
	e.mu.Unlock()
	return &document{engine: e, file: f}, nil
}

func (e *Engine) Merge(ctx context.Context, docs [][]byte) ([]byte, error) {
	if len(docs) < 2 {
		return nil, basicpdf.ErrTooFewFiles
	}
	out := File{Magic: magic}
	for _, data := range docs {
		f, err := Decode(data)
		if err != nil {
			return nil, err
		}
		out.Pages = append(out.Pages, f.Pages...)
	}
	return json.Marshal(out)
}

// Loads counts successful Load calls.
func (e *Engine) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

// Open counts documents loaded and not closed yet.
func (e *Engine) Open() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

type document struct {
	engine *Engine
	file   *File
	closed bool
}

type imageRef struct {
	size basicpdf.Size
}

func (i imageRef) Size() basicpdf.Size { return i.size }

func (d *document) PageCount() int { return len(d.file.Pages) }

func (d *document) page(index int) (*Page, error) {
	if index < 0 || index >= len(d.file.Pages) {
		return nil, fmt.Errorf("page %d of %d: %w", index, len(d.file.Pages), basicpdf.ErrPageOutOfRange)
	}
	return &d.file.Pages[index], nil
}

func (d *document) PageSize(index int) (basicpdf.Size, error) {
	p, err := d.page(index)
	if err != nil {
		return basicpdf.Size{}, err
	}
	return basicpdf.Size{Width: p.Width, Height: p.Height}, nil
}

func (d *document) Subset(indices []int) (basicpdf.Document, error) {
	out := &File{Magic: magic}
	for _, idx := range indices {
		p, err := d.page(idx)
		if err != nil {
			return nil, err
		}
		cp := *p
		cp.Draws = slices.Clone(p.Draws)
		out.Pages = append(out.Pages, cp)
	}

	d.engine.mu.Lock()
	d.engine.open++
	d.engine.mu.Unlock()
	return &document{engine: d.engine, file: out}, nil
}

func (d *document) EmbedImage(data []byte) (basicpdf.ImageRef, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return imageRef{size: basicpdf.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}}, nil
}

func (d *document) DrawImage(index int, _ basicpdf.ImageRef, r basicpdf.DocumentRect) error {
	p, err := d.page(index)
	if err != nil {
		return err
	}
	p.Draws = append(p.Draws, Draw{Kind: "image", Rect: r})
	return nil
}

func (d *document) DrawText(index int, text string, at basicpdf.Position, style basicpdf.TextStyle) error {
	p, err := d.page(index)
	if err != nil {
		return err
	}
	p.Draws = append(p.Draws, Draw{Kind: "text", Text: text, At: at, Font: style.Font})
	return nil
}

func (d *document) DrawRectangle(index int, r basicpdf.DocumentRect, _ basicpdf.RectStyle) error {
	p, err := d.page(index)
	if err != nil {
		return err
	}
	p.Draws = append(p.Draws, Draw{Kind: "rect", Rect: r})
	return nil
}

func (d *document) Save(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.engine.SaveErr != nil {
		return nil, d.engine.SaveErr
	}
	return json.Marshal(d.file)
}

func (d *document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine.mu.Lock()
	d.engine.open--
	d.engine.mu.Unlock()
	return nil
}
