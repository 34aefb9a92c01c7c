package basicpdf

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Step string

const (
	StepUpload               Step = "upload"
	StepCapture              Step = "capture"
	StepConfigureCertificate Step = "configure_certificate"
	StepSelectPages          Step = "select_pages"
	StepPlace                Step = "place"
)

type Variant string

const (
	VariantHandwritten Variant = "handwritten"
	VariantCertificate Variant = "certificate"
)

func (v Variant) Valid() bool {
	return v == VariantHandwritten || v == VariantCertificate
}

// stampStep is the step where the variant's stamp gets captured.
func (v Variant) stampStep() Step {
	if v == VariantCertificate {
		return StepConfigureCertificate
	}
	return StepCapture
}

func (v Variant) policy() PlacementPolicy {
	if v == VariantCertificate {
		return CertificatePlacementPolicy
	}
	return SignaturePlacementPolicy
}

// Toolkit bundles the collaborators shared by every session.
type Toolkit struct {
	Engine       Engine
	Merger       Merger
	Rasterizer   Rasterizer
	Certificates CertificateParser
	Config       *Config
	Logger       *zap.SugaredLogger
	Now          func() time.Time
}

// NewToolkit wires the pdfcpu engine, the outline rasterizer and the PKCS#12 parser.
func NewToolkit(cfg *Config, logger *zap.SugaredLogger) *Toolkit {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	engine := NewPdfcpuEngine(cfg, logger)
	return &Toolkit{
		Engine:       engine,
		Merger:       engine,
		Rasterizer:   NewOutlineRasterizer(engine),
		Certificates: NewPKCS12Parser(),
		Config:       cfg,
		Logger:       logger,
		Now:          time.Now,
	}
}

func (t *Toolkit) logger() *zap.SugaredLogger {
	if t.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return t.Logger
}

func (t *Toolkit) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

// Output is a finished document ready to download.
type Output struct {
	Name      string         `json:"name"`
	Data      []byte         `json:"-"`
	PageCount int            `json:"pageCount"`
	Stamps    []AppliedStamp `json:"stamps"`
}

// Session is one editing session: document, stamp, selection, previews and placements.
// All methods are safe for concurrent use. Only one blocking operation runs at a time,
// others fail with ErrBusy until it finishes.
type Session struct {
	mu      sync.Mutex
	toolkit *Toolkit
	variant Variant

	step       Step
	busy       bool
	generation uint64

	documentName string
	document     []byte
	pageCount    int

	containerName string
	container     []byte
	certificate   *CertificateInfo
	stamp         Stamp

	selection []int
	shared    bool
	subset    bool

	previews    map[int]*Preview
	placements  *PlacementModel
	interaction *InteractionController
}

func NewSession(toolkit *Toolkit, variant Variant) *Session {
	s := &Session{toolkit: toolkit, variant: variant}
	s.teardown()
	return s
}

// teardown drops every piece of session data and returns to the upload step.
func (s *Session) teardown() {
	s.step = StepUpload
	s.busy = false
	s.documentName = ""
	s.document = nil
	s.pageCount = 0
	s.containerName = ""
	s.container = nil
	s.certificate = nil
	s.stamp = nil
	s.selection = []int{0}
	s.shared = true
	s.subset = false
	s.dropPlacements()
}

func (s *Session) dropPlacements() {
	s.previews = make(map[int]*Preview)
	s.placements = nil
	s.interaction = nil
}

func (s *Session) Variant() Variant { return s.variant }

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Generation changes every time the session is reset.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// begin marks the session busy. Caller must hold the lock.
func (s *Session) begin(steps ...Step) (uint64, error) {
	if s.busy {
		return 0, ErrBusy
	}
	if err := s.requireStep(steps...); err != nil {
		return 0, err
	}
	s.busy = true
	return s.generation, nil
}

// finish clears the busy flag unless the session was reset meanwhile.
// Caller must hold the lock.
func (s *Session) finish(gen uint64) error {
	if gen != s.generation {
		return ErrStaleResult
	}
	s.busy = false
	return nil
}

func (s *Session) requireStep(steps ...Step) error {
	if slices.Contains(steps, s.step) {
		return nil
	}
	return fmt.Errorf("%s: %w", s.step, ErrWrongStep)
}

func (s *Session) requireIdle(steps ...Step) error {
	if s.busy {
		return ErrBusy
	}
	return s.requireStep(steps...)
}

// LoadDocument reads the page count of data and keeps it as the session document.
// A new upload replaces the previous one.
func (s *Session) LoadDocument(ctx context.Context, name string, data []byte) error {
	if len(data) == 0 {
		return ErrMissingDocument
	}

	s.mu.Lock()
	gen, err := s.begin(StepUpload)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	pageCount, loadErr := s.pageCountOf(ctx, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finish(gen); err != nil {
		s.toolkit.logger().Debugf("Discarded document load of %s: session was reset", name)
		return err
	}
	if loadErr != nil {
		return loadErr
	}

	s.documentName = baseName(name)
	s.document = slices.Clone(data)
	s.pageCount = pageCount
	s.selection = []int{0}
	return nil
}

func (s *Session) pageCountOf(ctx context.Context, data []byte) (int, error) {
	doc, err := s.toolkit.Engine.Load(ctx, data)
	if err != nil {
		return 0, err
	}
	defer doc.Close()

	if doc.PageCount() == 0 {
		return 0, fmt.Errorf("document has no pages: %w", ErrInvalidDocument)
	}
	return doc.PageCount(), nil
}

// CaptureSignature stores a hand-drawn signature. Blank drawings are rejected.
func (s *Session) CaptureSignature(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.variant != VariantHandwritten {
		return fmt.Errorf("%s session: %w", s.variant, ErrWrongStep)
	}
	if err := s.requireIdle(StepCapture); err != nil {
		return err
	}

	stamp, err := NewSignatureStamp(data)
	if err != nil {
		return err
	}
	s.stamp = stamp
	return nil
}

// SetCertificateContainer stores a PKCS#12 container. It must be validated with a
// password before the session can advance.
func (s *Session) SetCertificateContainer(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.variant != VariantCertificate {
		return fmt.Errorf("%s session: %w", s.variant, ErrWrongStep)
	}
	if err := s.requireIdle(StepConfigureCertificate); err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrNoCertificate
	}

	s.containerName = baseName(name)
	s.container = slices.Clone(data)
	s.certificate = nil
	s.stamp = nil
	return nil
}

// ValidateCertificate decrypts the stored container. On failure the container is kept
// so the password can be retried without uploading it again.
func (s *Session) ValidateCertificate(ctx context.Context, password string) (*CertificateInfo, error) {
	s.mu.Lock()
	if s.variant != VariantCertificate {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s session: %w", s.variant, ErrWrongStep)
	}
	gen, err := s.begin(StepConfigureCertificate)
	if err == nil && len(s.container) == 0 {
		s.busy = false
		err = ErrNoCertificate
	}
	container := s.container
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	info, parseErr := s.toolkit.Certificates.Parse(ctx, container, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finish(gen); err != nil {
		s.toolkit.logger().Debug("Discarded certificate validation: session was reset")
		return nil, err
	}
	if parseErr != nil {
		s.certificate = nil
		s.stamp = nil
		return nil, parseErr
	}

	s.certificate = info
	s.stamp = NewCertificateStamp(*info, s.toolkit.now(), s.toolkit.Config != nil && s.toolkit.Config.CertificateQRCode)
	return info, nil
}

func (s *Session) checkPage(page int) error {
	if page < 0 || page >= s.pageCount {
		return fmt.Errorf("page %d of %d: %w", page, s.pageCount, ErrPageOutOfRange)
	}
	return nil
}

// TogglePage adds or removes page from the selection. The certificate variant keeps at
// least one page selected.
func (s *Session) TogglePage(page int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdle(StepSelectPages); err != nil {
		return nil, err
	}
	if err := s.checkPage(page); err != nil {
		return nil, err
	}

	if i, found := slices.BinarySearch(s.selection, page); found {
		if s.variant == VariantCertificate && len(s.selection) == 1 {
			return slices.Clone(s.selection), ErrEmptySelection
		}
		s.selection = slices.Delete(s.selection, i, i+1)
	} else {
		s.selection = slices.Insert(s.selection, i, page)
	}
	return slices.Clone(s.selection), nil
}

func (s *Session) SelectAll() ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdle(StepSelectPages); err != nil {
		return nil, err
	}
	s.selection = make([]int, s.pageCount)
	for i := range s.selection {
		s.selection[i] = i
	}
	return slices.Clone(s.selection), nil
}

func (s *Session) ClearSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdle(StepSelectPages); err != nil {
		return err
	}
	s.selection = []int{}
	return nil
}

// SetSelection replaces the selection. Indices are sorted and de-duplicated.
func (s *Session) SetSelection(pages []int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdle(StepSelectPages); err != nil {
		return nil, err
	}
	for _, page := range pages {
		if err := s.checkPage(page); err != nil {
			return nil, err
		}
	}
	s.selection = normalizePages(pages)
	return slices.Clone(s.selection), nil
}

// SetSubsetOutput chooses whether the output holds only the stamped pages.
func (s *Session) SetSubsetOutput(subset bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdle(StepSelectPages, StepPlace); err != nil {
		return err
	}
	s.subset = subset
	return nil
}

// SetSharedPlacement switches the placement mode. In the place step, turning shared mode
// off renders and seeds the pages that were never displayed.
func (s *Session) SetSharedPlacement(ctx context.Context, shared bool) error {
	s.mu.Lock()
	if err := s.requireIdle(StepSelectPages, StepPlace); err != nil {
		s.mu.Unlock()
		return err
	}
	s.shared = shared
	if s.step != StepPlace {
		s.mu.Unlock()
		return nil
	}

	s.placements.SetShared(shared)
	s.interaction.Reset()
	pending := s.undisplayedPages()
	if len(pending) == 0 {
		s.mu.Unlock()
		return nil
	}
	gen, _ := s.begin(StepPlace)
	data := s.document
	s.mu.Unlock()

	err := s.renderPreviews(ctx, gen, data, pending)

	s.mu.Lock()
	defer s.mu.Unlock()
	if finishErr := s.finish(gen); finishErr != nil {
		return finishErr
	}
	return err
}

func (s *Session) undisplayedPages() []int {
	var pending []int
	for _, page := range s.placements.VisiblePages() {
		if _, ok := s.previews[page]; !ok {
			pending = append(pending, page)
		}
	}
	return pending
}

// renderPreviews rasterizes pages one after the other and registers them with the
// placement model. The lock is not held while rendering.
func (s *Session) renderPreviews(ctx context.Context, gen uint64, data []byte, pages []int) error {
	scale := s.toolkit.Config.previewScale()
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}

		preview, err := s.toolkit.Rasterizer.RenderPage(ctx, data, page, scale)

		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			s.toolkit.logger().Debugf("Discarded preview of page %d: session was reset", page)
			return ErrStaleResult
		}
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to render page %d: %w", page, err)
		}
		preview.PageIndex = page
		if _, err := s.placements.Display(page, preview.Size()); err != nil {
			s.mu.Unlock()
			return err
		}
		s.previews[page] = preview
		s.mu.Unlock()
	}
	return nil
}

// Advance moves to the next step once the current one is complete.
func (s *Session) Advance(ctx context.Context) (Step, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return "", ErrBusy
	}

	switch s.step {
	case StepUpload:
		defer s.mu.Unlock()
		if len(s.document) == 0 {
			return s.step, ErrMissingDocument
		}
		s.step = s.variant.stampStep()
		return s.step, nil

	case StepCapture, StepConfigureCertificate:
		defer s.mu.Unlock()
		if s.stamp == nil {
			return s.step, ErrMissingStamp
		}
		s.step = StepSelectPages
		return s.step, nil

	case StepSelectPages:
		if len(s.selection) == 0 {
			s.mu.Unlock()
			return StepSelectPages, ErrEmptySelection
		}
		s.placements = NewPlacementModel(s.selection, s.shared, s.variant.policy())
		s.interaction = NewInteractionController(s.placements)
		s.previews = make(map[int]*Preview)
		pages := s.placements.VisiblePages()
		gen, _ := s.begin(StepSelectPages)
		data := s.document
		s.mu.Unlock()

		err := s.renderPreviews(ctx, gen, data, pages)

		s.mu.Lock()
		defer s.mu.Unlock()
		if finishErr := s.finish(gen); finishErr != nil {
			return StepUpload, finishErr
		}
		if err != nil {
			s.dropPlacements()
			return s.step, err
		}
		s.step = StepPlace
		return s.step, nil

	default:
		defer s.mu.Unlock()
		return s.step, fmt.Errorf("%s: %w", s.step, ErrInvalidTransition)
	}
}

// Back returns to the previous step and drops the data the skipped step produced.
func (s *Session) Back() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return s.step, ErrBusy
	}

	switch s.step {
	case StepPlace:
		s.dropPlacements()
		s.step = StepSelectPages
	case StepSelectPages:
		s.stamp = nil
		s.certificate = nil
		s.step = s.variant.stampStep()
	case StepCapture, StepConfigureCertificate:
		s.generation++
		s.teardown()
	default:
		return s.step, fmt.Errorf("%s: %w", s.step, ErrInvalidTransition)
	}
	return s.step, nil
}

// Reset drops everything and returns to the upload step. Results of operations still
// running are discarded when they complete.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.teardown()
}

// Preview returns the rendered bitmap of a displayed page.
func (s *Session) Preview(page int) (*Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStep(StepPlace); err != nil {
		return nil, err
	}
	return s.previewOf(page)
}

func (s *Session) previewOf(page int) (*Preview, error) {
	p, ok := s.previews[page]
	if !ok {
		if _, err := s.placements.resolve(page); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("page %d: %w", page, ErrPageNotDisplayed)
	}
	return p, nil
}

// Pointer feeds one pointer event to the interaction controller.
func (s *Session) Pointer(ev PointerEvent) (Rect, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdle(StepPlace); err != nil {
		return Rect{}, false, err
	}
	r, changed := s.interaction.Dispatch(ev)
	return r, changed, nil
}

// PointerOnDisplay feeds a pointer event whose offset was measured on the preview
// shown at the displayed size. The offset is scaled to native preview pixels first.
func (s *Session) PointerOnDisplay(ev PointerEvent, displayed Size) (Rect, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdle(StepPlace); err != nil {
		return Rect{}, false, err
	}
	p, err := s.previewOf(ev.Page)
	if err != nil {
		return Rect{}, false, err
	}
	pos := PointerToPreview(Position{X: ev.X, Y: ev.Y}, displayed, p.Size())
	ev.X, ev.Y = pos.X, pos.Y
	r, changed := s.interaction.Dispatch(ev)
	return r, changed, nil
}

func (s *Session) Interaction() InteractionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interaction == nil {
		return InteractionState{}
	}
	return s.interaction.State()
}

// SetPlacement stores a rectangle for page, clamped into its preview.
func (s *Session) SetPlacement(page int, r Rect) (Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdle(StepPlace); err != nil {
		return Rect{}, err
	}
	if r.Width < MinPlacementSize || r.Height < MinPlacementSize {
		return Rect{}, fmt.Errorf("%vx%v, minimum is %v: %w", r.Width, r.Height, MinPlacementSize, ErrPlacementTooSmall)
	}
	return s.placements.SetRect(page, r)
}

// Finalize composites the stamp onto the selected pages. On failure the session stays
// in the place step so the user can retry.
func (s *Session) Finalize(ctx context.Context) (*Output, error) {
	s.mu.Lock()
	gen, err := s.begin(StepPlace)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	targets, missing := s.placements.Placements()
	data, stamp, subset, name := s.document, s.stamp, s.subset, s.documentName
	s.interaction.Reset()
	s.mu.Unlock()

	var result *CompositeResult
	if len(missing) > 0 {
		err = fmt.Errorf("pages %v: %w", missing, ErrPageNotDisplayed)
	} else {
		mode := OutputFull
		if subset {
			mode = OutputSubset
		}
		result, err = NewCompositor(s.toolkit.Engine, s.toolkit.logger()).Apply(ctx, data, stamp, targets, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if finishErr := s.finish(gen); finishErr != nil {
		s.toolkit.logger().Debug("Discarded finalized document: session was reset")
		return nil, finishErr
	}
	if err != nil {
		return nil, err
	}

	return &Output{
		Name:      OutputName(stamp.Kind(), subset, name),
		Data:      result.Data,
		PageCount: result.PageCount,
		Stamps:    result.Stamps,
	}, nil
}

type PlacementSnapshot struct {
	PageIndex int  `json:"pageIndex"`
	Rect      Rect `json:"rect"`
	Preview   Size `json:"preview"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	Variant       Variant             `json:"variant"`
	Step          Step                `json:"step"`
	Busy          bool                `json:"busy"`
	Generation    uint64              `json:"generation"`
	DocumentName  string              `json:"documentName,omitempty"`
	PageCount     int                 `json:"pageCount"`
	HasStamp      bool                `json:"hasStamp"`
	ContainerName string              `json:"containerName,omitempty"`
	Certificate   *CertificateInfo    `json:"certificate,omitempty"`
	Selection     []int               `json:"selection"`
	Shared        bool                `json:"shared"`
	Subset        bool                `json:"subset"`
	Displayed     []int               `json:"displayed"`
	Placements    []PlacementSnapshot `json:"placements"`
	Interaction   string              `json:"interaction"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Variant:       s.variant,
		Step:          s.step,
		Busy:          s.busy,
		Generation:    s.generation,
		DocumentName:  s.documentName,
		PageCount:     s.pageCount,
		HasStamp:      s.stamp != nil,
		ContainerName: s.containerName,
		Certificate:   s.certificate,
		Selection:     slices.Clone(s.selection),
		Shared:        s.shared,
		Subset:        s.subset,
		Displayed:     []int{},
		Placements:    []PlacementSnapshot{},
		Interaction:   InteractionIdle.String(),
	}
	for page := range s.previews {
		snap.Displayed = append(snap.Displayed, page)
	}
	slices.Sort(snap.Displayed)

	if s.placements != nil {
		targets, _ := s.placements.Placements()
		for _, t := range targets {
			snap.Placements = append(snap.Placements, PlacementSnapshot(t))
		}
	}
	if s.interaction != nil {
		snap.Interaction = s.interaction.State().Mode.String()
	}
	return snap
}

// IsStale reports whether err only means the session was reset under the operation.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResult)
}
