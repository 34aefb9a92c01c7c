package basicpdf

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
)

// writeBlankPDF renders a one-page PDF of the given size in points.
func writeBlankPDF(t *testing.T, size Size) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blank.pdf")

	c := canvas.New(ptToMM(size.Width), ptToMM(size.Height))
	ctx := canvas.NewContext(c)
	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(c.W, c.H))
	if err := renderers.Write(path, c); err != nil {
		t.Fatalf("Failed to write PDF: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read PDF: %v", err)
	}
	return data
}

func testEngine(t *testing.T) *PdfcpuEngine {
	t.Helper()
	return NewPdfcpuEngine(&Config{TmpDir: t.TempDir(), StampResolution: 1}, nil)
}

func TestPdfcpuEngineLoad(t *testing.T) {
	e := testEngine(t)
	data := writeBlankPDF(t, Size{Width: 612, Height: 792})

	doc, err := e.Load(context.Background(), data)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer doc.Close()

	if doc.PageCount() != 1 {
		t.Fatalf("PageCount() = %d, want 1", doc.PageCount())
	}
	size, err := doc.PageSize(0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(size.Width-612) > 1 || math.Abs(size.Height-792) > 1 {
		t.Errorf("PageSize(0) = %+v, want about 612x792", size)
	}
	if _, err := doc.PageSize(1); err == nil {
		t.Errorf("PageSize(1) succeeded on a one-page document")
	}
}

func TestPdfcpuEngineRejectsGarbage(t *testing.T) {
	if _, err := testEngine(t).Load(context.Background(), []byte("hello")); err == nil {
		t.Fatal("Load() accepted a non-PDF buffer")
	}
}

func TestPdfcpuEngineMergeSubsetAndStamp(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	letter := writeBlankPDF(t, Size{Width: 612, Height: 792})
	a4 := writeBlankPDF(t, Size{Width: 595, Height: 842})

	merged, err := e.Merge(ctx, [][]byte{letter, a4, letter})
	if err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}

	doc, err := e.Load(ctx, merged)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()
	if doc.PageCount() != 3 {
		t.Fatalf("merged PageCount() = %d, want 3", doc.PageCount())
	}

	subset, err := doc.Subset([]int{1, 2})
	if err != nil {
		t.Fatalf("Subset() failed: %v", err)
	}
	defer subset.Close()
	if subset.PageCount() != 2 {
		t.Fatalf("subset PageCount() = %d, want 2", subset.PageCount())
	}
	if size, _ := subset.PageSize(0); math.Abs(size.Height-842) > 1 {
		t.Errorf("first subset page is %+v, want the A4 page", size)
	}

	sig := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		sig.Set(x, 10, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, sig); err != nil {
		t.Fatal(err)
	}

	ref, err := subset.EmbedImage(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	r := DocumentRect{Position: Position{X: 50, Y: 50}, Size: Size{Width: 120, Height: 60}}
	if err := subset.DrawImage(0, ref, r); err != nil {
		t.Fatalf("DrawImage() failed: %v", err)
	}
	if err := subset.DrawText(1, "FIRMADO", Position{X: 60, Y: 60}, TextStyle{Font: FontCourierBold, Size: 9}); err != nil {
		t.Fatalf("DrawText() failed: %v", err)
	}
	if err := subset.DrawRectangle(1, r, RectStyle{Fill: &certificateBackground, Border: &certificateAccent, BorderWidth: 1.5}); err != nil {
		t.Fatalf("DrawRectangle() failed: %v", err)
	}

	out, err := subset.Save(ctx)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	stamped, err := e.Load(ctx, out)
	if err != nil {
		t.Fatalf("stamped output does not load: %v", err)
	}
	defer stamped.Close()
	if stamped.PageCount() != 2 {
		t.Errorf("stamped PageCount() = %d, want 2", stamped.PageCount())
	}

	x, y, bbox := imageStampPlacement(t, out, 1)
	if x != 50 || y != 50 {
		t.Errorf("image stamp translated to (%v, %v), want (50, 50)", x, y)
	}
	if len(bbox) != 4 || bbox[0] != 0 || bbox[1] != 0 || bbox[2] != 120 || bbox[3] != 60 {
		t.Errorf("image stamp BBox = %v, want [0 0 120 60]", bbox)
	}
}

var stampMatrix = regexp.MustCompile(`q 1\.00000 0\.00000 -?0\.00000 1\.00000 (-?[\d.]+) (-?[\d.]+) cm /\w+ gs /(\w+) Do Q`)

// imageStampPlacement reads the translation of the first stamp drawn on a one-based page
// and the bounding box of the form it paints.
func imageStampPlacement(t *testing.T, data []byte, pageNr int) (float64, float64, []float64) {
	t.Helper()

	pctx, err := api.ReadContext(bytes.NewReader(data), newPdfcpuConfiguration())
	if err != nil {
		t.Fatalf("ReadContext() failed: %v", err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		t.Fatal(err)
	}
	pageDict, _, _, err := pctx.PageDict(pageNr, true)
	if err != nil {
		t.Fatalf("PageDict(%d) failed: %v", pageNr, err)
	}
	content, err := pctx.PageContent(pageDict)
	if err != nil {
		t.Fatalf("PageContent() failed: %v", err)
	}

	m := stampMatrix.FindSubmatch(content)
	if m == nil {
		t.Fatalf("no stamp in page content:\n%s", content)
	}
	x, _ := strconv.ParseFloat(string(m[1]), 64)
	y, _ := strconv.ParseFloat(string(m[2]), 64)

	res, err := pctx.DereferenceDict(pageDict["Resources"])
	if err != nil || res == nil {
		t.Fatalf("page has no resources: %v", err)
	}
	xobjects, err := pctx.DereferenceDict(res["XObject"])
	if err != nil || xobjects == nil {
		t.Fatalf("page has no XObjects: %v", err)
	}
	form, _, err := pctx.DereferenceStreamDict(xobjects[string(m[3])])
	if err != nil || form == nil {
		t.Fatalf("form %s not found: %v", m[3], err)
	}
	arr, err := pctx.DereferenceArray(form.Dict["BBox"])
	if err != nil {
		t.Fatalf("form %s has no BBox: %v", m[3], err)
	}

	var bbox []float64
	for _, o := range arr {
		switch v := o.(type) {
		case types.Float:
			bbox = append(bbox, v.Value())
		case types.Integer:
			bbox = append(bbox, float64(v.Value()))
		}
	}
	return x, y, bbox
}

func TestPdfcpuEngineMergeNeedsTwoFiles(t *testing.T) {
	if _, err := testEngine(t).Merge(context.Background(), [][]byte{writeBlankPDF(t, Size{Width: 100, Height: 100})}); err != ErrTooFewFiles {
		t.Errorf("Merge() of one file = %v, want ErrTooFewFiles", err)
	}
}

func TestOutlineRasterizer(t *testing.T) {
	e := testEngine(t)
	r := NewOutlineRasterizer(e)

	p, err := r.RenderPage(context.Background(), writeBlankPDF(t, Size{Width: 200, Height: 300}), 0, 0.5)
	if err != nil {
		t.Fatalf("RenderPage() failed: %v", err)
	}
	if p.Width != 100 || p.Height != 150 {
		t.Errorf("preview is %vx%v, want 100x150", p.Width, p.Height)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(p.Image))
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 150 {
		t.Errorf("bitmap is %dx%d, want 100x150", cfg.Width, cfg.Height)
	}
}
