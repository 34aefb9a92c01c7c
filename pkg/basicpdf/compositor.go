package basicpdf

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Target is one page a stamp is applied to, with the placement measured on its preview.
type Target struct {
	PageIndex int  `json:"pageIndex"`
	Rect      Rect `json:"rect"`
	Preview   Size `json:"preview"`
}

type OutputMode int

const (
	// OutputFull keeps every page of the original document
	OutputFull OutputMode = iota
	// OutputSubset keeps only the stamped pages, in ascending original order
	OutputSubset
)

// AppliedStamp records where a stamp landed in the output document.
type AppliedStamp struct {
	SourcePage int          `json:"sourcePage"`
	OutputPage int          `json:"outputPage"`
	Rect       DocumentRect `json:"rect"`
}

type CompositeResult struct {
	Data      []byte         `json:"-"`
	PageCount int            `json:"pageCount"`
	Stamps    []AppliedStamp `json:"stamps"`
}

type Compositor struct {
	engine Engine
	logger *zap.SugaredLogger
}

func NewCompositor(engine Engine, logger *zap.SugaredLogger) *Compositor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Compositor{engine: engine, logger: logger}
}

// Apply writes stamp onto every target page. It either returns a complete document or
// an error, never a partially stamped file.
func (c *Compositor) Apply(ctx context.Context, data []byte, stamp Stamp, targets []Target, mode OutputMode) (*CompositeResult, error) {
	if len(data) == 0 {
		return nil, ErrMissingDocument
	}
	if stamp == nil {
		return nil, ErrMissingStamp
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	targets = slices.Clone(targets)
	slices.SortStableFunc(targets, func(a, b Target) int { return a.PageIndex - b.PageIndex })
	for i := 1; i < len(targets); i++ {
		if targets[i].PageIndex == targets[i-1].PageIndex {
			return nil, fmt.Errorf("page %d: %w", targets[i].PageIndex, ErrDuplicatePage)
		}
	}
	for _, t := range targets {
		if !t.Preview.valid() {
			return nil, fmt.Errorf("page %d: invalid preview size %vx%v", t.PageIndex, t.Preview.Width, t.Preview.Height)
		}
	}

	doc, err := c.engine.Load(ctx, data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	// validate every index before touching anything
	for _, t := range targets {
		if t.PageIndex < 0 || t.PageIndex >= doc.PageCount() {
			return nil, fmt.Errorf("page %d of %d: %w", t.PageIndex, doc.PageCount(), ErrPageOutOfRange)
		}
	}

	// outputPage maps a target to the page index in the document being written
	outputPage := func(i int) int { return targets[i].PageIndex }
	if mode == OutputSubset {
		indices := make([]int, len(targets))
		for i, t := range targets {
			indices[i] = t.PageIndex
		}
		subset, err := doc.Subset(indices)
		if err != nil {
			return nil, fmt.Errorf("failed to build subset document: %w", err)
		}
		defer subset.Close()
		doc = subset
		outputPage = func(i int) int { return i }
	}

	paint, err := stamp.Bind(doc)
	if err != nil {
		return nil, err
	}

	applied := make([]AppliedStamp, 0, len(targets))
	for i, t := range targets {
		dst := outputPage(i)
		// pages may differ in size, always read the destination page
		pageSize, err := doc.PageSize(dst)
		if err != nil {
			return nil, err
		}

		rect := ToDocumentSpace(t.Rect, t.Preview, pageSize)
		if err := paint(dst, rect); err != nil {
			return nil, fmt.Errorf("failed to stamp page %d: %w", t.PageIndex, err)
		}
		applied = append(applied, AppliedStamp{SourcePage: t.PageIndex, OutputPage: dst, Rect: rect})
	}

	out, err := doc.Save(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Debugf("Applied %s stamp to %d page(s)", stamp.Kind(), len(applied))
	return &CompositeResult{Data: out, PageCount: doc.PageCount(), Stamps: applied}, nil
}
