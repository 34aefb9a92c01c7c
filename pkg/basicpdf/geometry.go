package basicpdf

import "math"

/*
 * Two coordinate systems are in play:
 *  - preview space: pixels of a rasterized page, origin top-left, y grows downward
 *  - document space: PDF user space in points, origin bottom-left, y grows upward
 */

type Position struct {
	X float64 `json:"x" form:"x"`
	Y float64 `json:"y" form:"y"`
}

type Size struct {
	Width  float64 `json:"width" form:"width"`
	Height float64 `json:"height" form:"height"`
}

func (s Size) valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Rect is a placement rectangle in preview space.
type Rect struct {
	Position
	Size
}

// DocumentRect is a rectangle in document space.
type DocumentRect struct {
	Position
	Size
}

func NewRect(x, y, width, height float64) Rect {
	return Rect{Position: Position{X: x, Y: y}, Size: Size{Width: width, Height: height}}
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether the point lies inside the rectangle, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// Within reports whether r satisfies the containment invariant for a preview of the given size.
func (r Rect) Within(bounds Size) bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= bounds.Width && r.Bottom() <= bounds.Height
}

// ToDocumentSpace converts a preview rectangle into document space of a page.
// The conversion is exact, clamping is the placement model's job.
func ToDocumentSpace(r Rect, preview Size, page Size) DocumentRect {
	scaleX := page.Width / preview.Width
	scaleY := page.Height / preview.Height

	return DocumentRect{
		Position: Position{
			X: r.X * scaleX,
			// flip the vertical axis, the document origin is the bottom-left corner
			Y: page.Height - (r.Y * scaleY) - (r.Height * scaleY),
		},
		Size: Size{
			Width:  r.Width * scaleX,
			Height: r.Height * scaleY,
		},
	}
}

// ToPreviewSpace is the inverse of ToDocumentSpace.
func ToPreviewSpace(d DocumentRect, preview Size, page Size) Rect {
	scaleX := preview.Width / page.Width
	scaleY := preview.Height / page.Height

	return Rect{
		Position: Position{
			X: d.X * scaleX,
			Y: (page.Height - d.Y - d.Height) * scaleY,
		},
		Size: Size{
			Width:  d.Width * scaleX,
			Height: d.Height * scaleY,
		},
	}
}

// PointerToPreview translates a pointer offset measured on the displayed element into
// native preview pixels. A zero display size leaves the offset untouched.
func PointerToPreview(offset Position, displayed Size, native Size) Position {
	p := offset
	if displayed.Width > 0 {
		p.X = offset.X * (native.Width / displayed.Width)
	}
	if displayed.Height > 0 {
		p.Y = offset.Y * (native.Height / displayed.Height)
	}
	return p
}

// PlacementPolicy decides where a rectangle lands the first time a page is displayed.
type PlacementPolicy struct {
	// Rectangle width as a fraction of the preview width
	WidthRatio float64
	// Width divided by height
	AspectRatio float64
}

var (
	SignaturePlacementPolicy   = PlacementPolicy{WidthRatio: 0.25, AspectRatio: 2.0}
	CertificatePlacementPolicy = PlacementPolicy{WidthRatio: 0.40, AspectRatio: 2.5}
)

// DefaultPlacement centers the rectangle horizontally and leaves one rectangle height
// of margin below it.
func (p PlacementPolicy) DefaultPlacement(preview Size) Rect {
	widthRatio := p.WidthRatio
	if widthRatio <= 0 || widthRatio > 1 {
		widthRatio = SignaturePlacementPolicy.WidthRatio
	}
	aspect := p.AspectRatio
	if aspect <= 0 {
		aspect = SignaturePlacementPolicy.AspectRatio
	}

	width := preview.Width * widthRatio
	height := width / aspect
	if height > preview.Height {
		height = preview.Height
		width = height * aspect
	}

	r := NewRect(preview.Width/2-width/2, preview.Height-2*height, width, height)
	return clampRect(r, preview)
}

// clampRect caps the size at the bounds and then pulls the origin inside.
func clampRect(r Rect, bounds Size) Rect {
	r.Width = math.Min(r.Width, bounds.Width)
	r.Height = math.Min(r.Height, bounds.Height)
	r.X = clamp(r.X, 0, bounds.Width-r.Width)
	r.Y = clamp(r.Y, 0, bounds.Height-r.Height)
	return r
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(v, hi))
}
