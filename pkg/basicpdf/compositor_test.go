package basicpdf_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf/basicpdftest"
)

// signaturePNG draws a diagonal stroke on a transparent canvas.
func signaturePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < min(w, h); i++ {
		img.Set(i, i, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func blankPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func newSignature(t *testing.T) *basicpdf.SignatureStamp {
	t.Helper()
	s, err := basicpdf.NewSignatureStamp(signaturePNG(t, 200, 100))
	if err != nil {
		t.Fatalf("NewSignatureStamp() failed: %v", err)
	}
	return s
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestCompositorSubsetScenario(t *testing.T) {
	engine := basicpdftest.NewEngine()
	c := basicpdf.NewCompositor(engine, nil)

	preview := basicpdf.Size{Width: 120, Height: 150}
	rect := basicpdf.NewRect(100, 100, 50, 30)
	targets := []basicpdf.Target{
		{PageIndex: 4, Rect: rect, Preview: preview},
		{PageIndex: 0, Rect: rect, Preview: preview},
		{PageIndex: 2, Rect: rect, Preview: preview},
	}

	res, err := c.Apply(context.Background(), basicpdftest.Letter(5), newSignature(t), targets, basicpdf.OutputSubset)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if res.PageCount != 3 {
		t.Fatalf("PageCount = %d, want 3", res.PageCount)
	}

	out, err := basicpdftest.Decode(res.Data)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Pages) != 3 {
		t.Fatalf("output has %d pages, want 3", len(out.Pages))
	}

	for i, source := range []int{0, 2, 4} {
		page := out.Pages[i]
		if page.Source != source {
			t.Errorf("output page %d comes from page %d, want %d", i, page.Source, source)
		}
		if len(page.Draws) != 1 || page.Draws[0].Kind != "image" {
			t.Fatalf("output page %d draws = %+v", i, page.Draws)
		}
		r := page.Draws[0].Rect
		if !near(r.X, 510) || !near(r.Y, 105.6) || !near(r.Width, 255) || !near(r.Height, 158.4) {
			t.Errorf("output page %d stamp at %+v, want {510 105.6 255 158.4}", i, r)
		}
		if res.Stamps[i].SourcePage != source || res.Stamps[i].OutputPage != i {
			t.Errorf("Stamps[%d] = %+v", i, res.Stamps[i])
		}
	}

	if engine.Open() != 0 {
		t.Errorf("%d documents left open", engine.Open())
	}
}

func TestCompositorFullDocument(t *testing.T) {
	engine := basicpdftest.NewEngine()
	c := basicpdf.NewCompositor(engine, nil)

	// pages of different sizes must be mapped with their own dimensions
	data := basicpdftest.NewPDF(
		basicpdf.Size{Width: 612, Height: 792},
		basicpdf.Size{Width: 595, Height: 842},
		basicpdf.Size{Width: 842, Height: 595},
	)
	preview := basicpdf.Size{Width: 100, Height: 100}
	rect := basicpdf.NewRect(0, 0, 10, 10)
	targets := []basicpdf.Target{
		{PageIndex: 1, Rect: rect, Preview: preview},
		{PageIndex: 2, Rect: rect, Preview: preview},
	}

	res, err := c.Apply(context.Background(), data, newSignature(t), targets, basicpdf.OutputFull)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	out, _ := basicpdftest.Decode(res.Data)
	if len(out.Pages) != 3 {
		t.Fatalf("output has %d pages, want 3", len(out.Pages))
	}
	if len(out.Pages[0].Draws) != 0 {
		t.Errorf("page 0 was stamped")
	}

	a4 := out.Pages[1].Draws[0].Rect
	if !near(a4.Width, 59.5) || !near(a4.Y, 842-84.2) {
		t.Errorf("A4 portrait stamp at %+v", a4)
	}
	landscape := out.Pages[2].Draws[0].Rect
	if !near(landscape.Width, 84.2) || !near(landscape.Y, 595-59.5) {
		t.Errorf("A4 landscape stamp at %+v", landscape)
	}
}

func TestCompositorFailsAtomically(t *testing.T) {
	preview := basicpdf.Size{Width: 100, Height: 100}
	rect := basicpdf.NewRect(10, 10, 20, 10)
	sig := newSignature(t)

	tests := []struct {
		name    string
		data    []byte
		stamp   basicpdf.Stamp
		targets []basicpdf.Target
		want    error
	}{
		{
			name:    "Page out of range",
			data:    basicpdftest.Letter(2),
			stamp:   sig,
			targets: []basicpdf.Target{{PageIndex: 0, Rect: rect, Preview: preview}, {PageIndex: 2, Rect: rect, Preview: preview}},
			want:    basicpdf.ErrPageOutOfRange,
		},
		{
			name:    "Negative page",
			data:    basicpdftest.Letter(2),
			stamp:   sig,
			targets: []basicpdf.Target{{PageIndex: -1, Rect: rect, Preview: preview}},
			want:    basicpdf.ErrPageOutOfRange,
		},
		{
			name:    "Duplicate page",
			data:    basicpdftest.Letter(2),
			stamp:   sig,
			targets: []basicpdf.Target{{PageIndex: 1, Rect: rect, Preview: preview}, {PageIndex: 1, Rect: rect, Preview: preview}},
			want:    basicpdf.ErrDuplicatePage,
		},
		{
			name:  "No targets",
			data:  basicpdftest.Letter(2),
			stamp: sig,
			want:  basicpdf.ErrNoTargets,
		},
		{
			name:    "Missing document",
			stamp:   sig,
			targets: []basicpdf.Target{{PageIndex: 0, Rect: rect, Preview: preview}},
			want:    basicpdf.ErrMissingDocument,
		},
		{
			name:    "Missing stamp",
			data:    basicpdftest.Letter(2),
			targets: []basicpdf.Target{{PageIndex: 0, Rect: rect, Preview: preview}},
			want:    basicpdf.ErrMissingStamp,
		},
		{
			name:    "Unreadable document",
			data:    []byte("%PDF-garbage"),
			stamp:   sig,
			targets: []basicpdf.Target{{PageIndex: 0, Rect: rect, Preview: preview}},
			want:    basicpdf.ErrInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := basicpdftest.NewEngine()
			c := basicpdf.NewCompositor(engine, nil)
			for _, mode := range []basicpdf.OutputMode{basicpdf.OutputFull, basicpdf.OutputSubset} {
				res, err := c.Apply(context.Background(), tt.data, tt.stamp, tt.targets, mode)
				if !errors.Is(err, tt.want) {
					t.Errorf("Apply() error = %v, want %v", err, tt.want)
				}
				if res != nil {
					t.Errorf("Apply() returned output %+v on failure", res)
				}
			}
			if engine.Open() != 0 {
				t.Errorf("%d documents left open", engine.Open())
			}
		})
	}
}

func TestCompositorCertificateStamp(t *testing.T) {
	engine := basicpdftest.NewEngine()
	c := basicpdf.NewCompositor(engine, nil)

	stamp := basicpdf.NewCertificateStamp(basicpdftest.DefaultCertificate, time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), false)
	preview := basicpdf.Size{Width: 612, Height: 792}
	targets := []basicpdf.Target{{PageIndex: 0, Rect: basicpdf.NewRect(100, 600, 250, 100), Preview: preview}}

	res, err := c.Apply(context.Background(), basicpdftest.Letter(1), stamp, targets, basicpdf.OutputFull)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	out, _ := basicpdftest.Decode(res.Data)
	draws := out.Pages[0].Draws

	var rects, texts int
	for _, d := range draws {
		switch d.Kind {
		case "rect":
			rects++
		case "text":
			texts++
		}
	}
	if rects != 2 || texts != 7 {
		t.Errorf("certificate stamp drew %d rectangles and %d texts, want 2 and 7", rects, texts)
	}
	if draws[0].Rect.X != 100 || draws[0].Rect.Y != 92 {
		t.Errorf("background at %+v, want origin {100 92}", draws[0].Rect)
	}
}
