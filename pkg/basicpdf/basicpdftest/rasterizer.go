package basicpdftest

import (
	"context"
	"sync"
	"time"

	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
)

// Rasterizer renders fake previews whose size is the page size times scale.
// When Gate is set every render blocks until a value is received from it.
type Rasterizer struct {
	Engine *Engine
	// Preview size overrides the page size when set
	Preview basicpdf.Size
	Gate    chan struct{}
	// Started receives the page index when a render begins, if set
	Started chan int

	mu       sync.Mutex
	rendered []int
	inFlight int
	maxCalls int
}

func (r *Rasterizer) RenderPage(ctx context.Context, data []byte, pageIndex int, scale float64) (*basicpdf.Preview, error) {
	r.mu.Lock()
	r.inFlight++
	r.maxCalls = max(r.maxCalls, r.inFlight)
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	if r.Started != nil {
		r.Started <- pageIndex
	}
	if r.Gate != nil {
		select {
		case <-r.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	doc, err := r.Engine.Load(ctx, data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	size, err := doc.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	if r.Preview.Width > 0 && r.Preview.Height > 0 {
		size = r.Preview
	} else {
		size = basicpdf.Size{Width: size.Width * scale, Height: size.Height * scale}
	}

	r.mu.Lock()
	r.rendered = append(r.rendered, pageIndex)
	r.mu.Unlock()
	return &basicpdf.Preview{PageIndex: pageIndex, Width: size.Width, Height: size.Height}, nil
}

// Rendered lists the pages rendered so far, in call order.
func (r *Rasterizer) Rendered() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.rendered...)
}

// MaxConcurrent is the highest number of renders seen running at once.
func (r *Rasterizer) MaxConcurrent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxCalls
}

// Certificates is a fake parser accepting a single password.
type Certificates struct {
	Password string
	Info     basicpdf.CertificateInfo
}

func (c *Certificates) Parse(ctx context.Context, data []byte, password string) (*basicpdf.CertificateInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, basicpdf.ErrNoCertificate
	}
	if password != c.Password {
		return nil, basicpdf.ErrCertificateAuth
	}
	info := c.Info
	return &info, nil
}

// DefaultCertificate is a plausible certificate for stamps in tests.
var DefaultCertificate = basicpdf.CertificateInfo{
	SubjectName:  "Juan Espanol Espanol",
	IssuerName:   "AC FNMT Usuarios",
	ValidFrom:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	ValidTo:      time.Date(2028, 1, 15, 0, 0, 0, 0, time.UTC),
	SerialNumber: "0123456789ABCDEF0123456789ABCDEF",
	Fingerprint:  "AB12CD34",
}

// NewToolkit wires the fakes together.
func NewToolkit() (*basicpdf.Toolkit, *Engine, *Rasterizer) {
	engine := NewEngine()
	rasterizer := &Rasterizer{Engine: engine}
	tk := &basicpdf.Toolkit{
		Engine:       engine,
		Merger:       engine,
		Rasterizer:   rasterizer,
		Certificates: &Certificates{Password: "secret", Info: DefaultCertificate},
		Config:       &basicpdf.Config{PreviewScale: 1, StampResolution: 1},
		Now:          func() time.Time { return time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC) },
	}
	return tk, engine, rasterizer
}
