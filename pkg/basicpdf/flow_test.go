package basicpdf_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf/basicpdftest"
)

// placeSession drives a handwritten session up to the place step.
func placeSession(t *testing.T, tk *basicpdf.Toolkit, pages int, selection []int) *basicpdf.Session {
	t.Helper()
	ctx := context.Background()
	s := basicpdf.NewSession(tk, basicpdf.VariantHandwritten)

	if err := s.LoadDocument(ctx, "contrato.pdf", basicpdftest.Letter(pages)); err != nil {
		t.Fatalf("LoadDocument() failed: %v", err)
	}
	if _, err := s.Advance(ctx); err != nil {
		t.Fatalf("Advance() from upload failed: %v", err)
	}
	if err := s.CaptureSignature(signaturePNG(t, 300, 150)); err != nil {
		t.Fatalf("CaptureSignature() failed: %v", err)
	}
	if _, err := s.Advance(ctx); err != nil {
		t.Fatalf("Advance() from capture failed: %v", err)
	}
	if _, err := s.SetSelection(selection); err != nil {
		t.Fatalf("SetSelection() failed: %v", err)
	}
	if step, err := s.Advance(ctx); err != nil || step != basicpdf.StepPlace {
		t.Fatalf("Advance() from select pages = %s, %v", step, err)
	}
	return s
}

func TestFlowGating(t *testing.T) {
	ctx := context.Background()
	tk, _, _ := basicpdftest.NewToolkit()
	s := basicpdf.NewSession(tk, basicpdf.VariantHandwritten)

	if _, err := s.Advance(ctx); !errors.Is(err, basicpdf.ErrMissingDocument) {
		t.Errorf("Advance() without document = %v, want ErrMissingDocument", err)
	}
	if err := s.LoadDocument(ctx, "doc.pdf", []byte("not a pdf")); !errors.Is(err, basicpdf.ErrInvalidDocument) {
		t.Errorf("LoadDocument() with garbage = %v, want ErrInvalidDocument", err)
	}
	if s.Step() != basicpdf.StepUpload {
		t.Fatalf("Step() = %s after failed upload", s.Step())
	}

	if err := s.LoadDocument(ctx, "doc.pdf", basicpdftest.Letter(3)); err != nil {
		t.Fatal(err)
	}
	if step, _ := s.Advance(ctx); step != basicpdf.StepCapture {
		t.Fatalf("Advance() = %s, want capture", step)
	}

	if _, err := s.Advance(ctx); !errors.Is(err, basicpdf.ErrMissingStamp) {
		t.Errorf("Advance() without signature = %v, want ErrMissingStamp", err)
	}
	if err := s.CaptureSignature(blankPNG(t, 300, 150)); !errors.Is(err, basicpdf.ErrEmptySignature) {
		t.Errorf("CaptureSignature() with a blank drawing = %v, want ErrEmptySignature", err)
	}
	if _, err := s.Advance(ctx); !errors.Is(err, basicpdf.ErrMissingStamp) {
		t.Errorf("Advance() after blank signature = %v, want ErrMissingStamp", err)
	}

	if err := s.CaptureSignature(signaturePNG(t, 300, 150)); err != nil {
		t.Fatal(err)
	}
	if step, _ := s.Advance(ctx); step != basicpdf.StepSelectPages {
		t.Fatalf("Advance() = %s, want select pages", step)
	}

	if err := s.ClearSelection(); err != nil {
		t.Fatal(err)
	}
	if step, err := s.Advance(ctx); !errors.Is(err, basicpdf.ErrEmptySelection) || step != basicpdf.StepSelectPages {
		t.Errorf("Advance() with empty selection = %s, %v", step, err)
	}
	if _, err := s.TogglePage(3); !errors.Is(err, basicpdf.ErrPageOutOfRange) {
		t.Errorf("TogglePage(3) = %v, want ErrPageOutOfRange", err)
	}

	// steps only accept their own operations
	if err := s.CaptureSignature(signaturePNG(t, 10, 10)); !errors.Is(err, basicpdf.ErrWrongStep) {
		t.Errorf("CaptureSignature() on select pages = %v, want ErrWrongStep", err)
	}
	if _, err := s.Finalize(ctx); !errors.Is(err, basicpdf.ErrWrongStep) {
		t.Errorf("Finalize() on select pages = %v, want ErrWrongStep", err)
	}
}

func TestFlowSelection(t *testing.T) {
	ctx := context.Background()
	tk, _, _ := basicpdftest.NewToolkit()
	s := placeSession(t, tk, 4, []int{0})
	if _, err := s.Back(); err != nil {
		t.Fatal(err)
	}

	got, err := s.TogglePage(2)
	if err != nil || !slices.Equal(got, []int{0, 2}) {
		t.Errorf("TogglePage(2) = %v, %v", got, err)
	}
	got, _ = s.TogglePage(0)
	if !slices.Equal(got, []int{2}) {
		t.Errorf("TogglePage(0) = %v, want [2]", got)
	}
	got, _ = s.SelectAll()
	if !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("SelectAll() = %v", got)
	}
	got, _ = s.SetSelection([]int{3, 1, 3})
	if !slices.Equal(got, []int{1, 3}) {
		t.Errorf("SetSelection() = %v, want [1 3]", got)
	}
	if _, err := s.Advance(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestFlowPlaceAndFinalize(t *testing.T) {
	ctx := context.Background()
	tk, engine, rasterizer := basicpdftest.NewToolkit()
	rasterizer.Preview = basicpdf.Size{Width: 120, Height: 150}
	s := placeSession(t, tk, 5, []int{0, 2, 4})

	// shared mode only needs the first selected page
	if got := rasterizer.Rendered(); !slices.Equal(got, []int{0}) {
		t.Errorf("rendered %v, want [0]", got)
	}
	if _, err := s.Preview(2); !errors.Is(err, basicpdf.ErrPageNotDisplayed) {
		t.Errorf("Preview(2) = %v, want ErrPageNotDisplayed", err)
	}
	if _, err := s.Preview(1); !errors.Is(err, basicpdf.ErrPageNotSelected) {
		t.Errorf("Preview(1) = %v, want ErrPageNotSelected", err)
	}

	if _, err := s.SetPlacement(0, basicpdf.NewRect(50, 100, 50, 30)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSubsetOutput(true); err != nil {
		t.Fatal(err)
	}

	out, err := s.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if out.Name != "firmado_solo_paginas_contrato.pdf" {
		t.Errorf("Name = %q", out.Name)
	}
	if out.PageCount != 3 || len(out.Stamps) != 3 {
		t.Fatalf("output has %d pages and %d stamps, want 3 and 3", out.PageCount, len(out.Stamps))
	}
	for _, st := range out.Stamps {
		// 50 * 612/120 and 792 - 100*5.28 - 30*5.28
		if !near(st.Rect.X, 255) || !near(st.Rect.Y, 105.6) || !near(st.Rect.Width, 255) {
			t.Errorf("stamp on page %d at %+v", st.SourcePage, st.Rect)
		}
	}

	// the session stays in place and can finalize again
	if s.Step() != basicpdf.StepPlace {
		t.Errorf("Step() = %s after finalize", s.Step())
	}
	if engine.Open() != 0 {
		t.Errorf("%d documents left open", engine.Open())
	}
}

func TestFlowIndependentPlacement(t *testing.T) {
	ctx := context.Background()
	tk, _, rasterizer := basicpdftest.NewToolkit()
	s := placeSession(t, tk, 3, []int{0, 1, 2})

	template, err := s.SetPlacement(0, basicpdf.NewRect(10, 10, 100, 50))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetSharedPlacement(ctx, false); err != nil {
		t.Fatalf("SetSharedPlacement(false) failed: %v", err)
	}
	if got := rasterizer.Rendered(); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("rendered %v, want [0 1 2]", got)
	}
	if rasterizer.MaxConcurrent() != 1 {
		t.Errorf("previews rendered %d at a time, want 1", rasterizer.MaxConcurrent())
	}

	snap := s.Snapshot()
	for _, p := range snap.Placements {
		if p.Rect != template {
			t.Errorf("page %d seeded with %+v, want %+v", p.PageIndex, p.Rect, template)
		}
	}

	// drag page 1 only
	s.Pointer(basicpdf.PointerEvent{Type: basicpdf.PointerDown, Page: 1, X: 20, Y: 20})
	if s.Interaction().Mode != basicpdf.InteractionDragging {
		t.Fatalf("Interaction() = %+v, want dragging", s.Interaction())
	}
	moved, changed, err := s.Pointer(basicpdf.PointerEvent{Type: basicpdf.PointerMove, Page: 1, X: 220, Y: 320})
	if err != nil || !changed {
		t.Fatalf("Pointer(move) = %+v, %v, %v", moved, changed, err)
	}
	s.Pointer(basicpdf.PointerEvent{Type: basicpdf.PointerUp, Page: 1})

	snap = s.Snapshot()
	if snap.Placements[0].Rect != template || snap.Placements[2].Rect != template {
		t.Errorf("dragging page 1 moved other pages: %+v", snap.Placements)
	}
	if snap.Placements[1].Rect != moved {
		t.Errorf("page 1 at %+v, want %+v", snap.Placements[1].Rect, moved)
	}

	out, err := s.Finalize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if out.Name != "firmado_contrato.pdf" || out.PageCount != 3 {
		t.Errorf("Finalize() = %q with %d pages", out.Name, out.PageCount)
	}
}

func TestFlowSetPlacementMinimumSize(t *testing.T) {
	tk, _, _ := basicpdftest.NewToolkit()
	s := placeSession(t, tk, 1, []int{0})
	before := s.Snapshot().Placements[0].Rect

	tests := []struct {
		name string
		rect basicpdf.Rect
		err  error
	}{
		{"Sub-pixel width", basicpdf.NewRect(10, 10, 0.2, 50), basicpdf.ErrPlacementTooSmall},
		{"Sub-pixel height", basicpdf.NewRect(10, 10, 100, 0.2), basicpdf.ErrPlacementTooSmall},
		{"Just below the minimum", basicpdf.NewRect(10, 10, basicpdf.MinPlacementSize-0.1, 50), basicpdf.ErrPlacementTooSmall},
		{"Exactly the minimum", basicpdf.NewRect(10, 10, basicpdf.MinPlacementSize, basicpdf.MinPlacementSize), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SetPlacement(0, tt.rect)
			if !errors.Is(err, tt.err) {
				t.Fatalf("SetPlacement(%+v) = %v, want %v", tt.rect, err, tt.err)
			}
			if tt.err != nil && s.Snapshot().Placements[0].Rect != before {
				t.Errorf("rejected rectangle replaced %+v", before)
			}
		})
	}

	if _, err := s.Finalize(context.Background()); err != nil {
		t.Errorf("Finalize() with a minimum size placement failed: %v", err)
	}
}

func TestFlowCompositingFailureStaysInPlace(t *testing.T) {
	tk, engine, _ := basicpdftest.NewToolkit()
	s := placeSession(t, tk, 2, []int{1})

	engine.SaveErr = errors.New("disk full")
	if _, err := s.Finalize(context.Background()); err == nil {
		t.Fatal("Finalize() succeeded with a failing engine")
	}
	if s.Step() != basicpdf.StepPlace {
		t.Errorf("Step() = %s after failed finalize, want place", s.Step())
	}

	engine.SaveErr = nil
	if _, err := s.Finalize(context.Background()); err != nil {
		t.Errorf("retry of Finalize() failed: %v", err)
	}
}

func TestFlowCertificateWrongPassword(t *testing.T) {
	ctx := context.Background()
	tk, _, _ := basicpdftest.NewToolkit()
	s := basicpdf.NewSession(tk, basicpdf.VariantCertificate)

	if err := s.LoadDocument(ctx, "factura.pdf", basicpdftest.Letter(2)); err != nil {
		t.Fatal(err)
	}
	if step, _ := s.Advance(ctx); step != basicpdf.StepConfigureCertificate {
		t.Fatalf("Advance() = %s, want configure certificate", step)
	}
	if err := s.CaptureSignature(signaturePNG(t, 10, 10)); !errors.Is(err, basicpdf.ErrWrongStep) {
		t.Errorf("CaptureSignature() in a certificate session = %v", err)
	}

	if err := s.SetCertificateContainer("firma.p12", []byte("container")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateCertificate(ctx, "wrong"); !errors.Is(err, basicpdf.ErrCertificateAuth) {
		t.Fatalf("ValidateCertificate(wrong) = %v, want ErrCertificateAuth", err)
	}
	if _, err := s.Advance(ctx); !errors.Is(err, basicpdf.ErrMissingStamp) {
		t.Errorf("Advance() after failed validation = %v, want ErrMissingStamp", err)
	}
	if snap := s.Snapshot(); snap.ContainerName != "firma.p12" {
		t.Fatalf("container dropped after wrong password: %+v", snap)
	}

	// retry without uploading the container again
	info, err := s.ValidateCertificate(ctx, "secret")
	if err != nil {
		t.Fatalf("ValidateCertificate(secret) failed: %v", err)
	}
	if info.SubjectName != basicpdftest.DefaultCertificate.SubjectName {
		t.Errorf("SubjectName = %q", info.SubjectName)
	}
	if step, err := s.Advance(ctx); err != nil || step != basicpdf.StepSelectPages {
		t.Fatalf("Advance() = %s, %v", step, err)
	}

	// the last selected page cannot be toggled off
	if got, err := s.TogglePage(0); !errors.Is(err, basicpdf.ErrEmptySelection) || !slices.Equal(got, []int{0}) {
		t.Errorf("TogglePage(0) = %v, %v", got, err)
	}

	if _, err := s.Advance(ctx); err != nil {
		t.Fatal(err)
	}
	out, err := s.Finalize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if out.Name != "firmado_digital_factura.pdf" {
		t.Errorf("Name = %q", out.Name)
	}
}

func TestFlowResetDuringPreview(t *testing.T) {
	ctx := context.Background()
	tk, _, rasterizer := basicpdftest.NewToolkit()
	s := placeSession(t, tk, 3, []int{0})
	if _, err := s.Back(); err != nil {
		t.Fatal(err)
	}

	rasterizer.Gate = make(chan struct{})
	rasterizer.Started = make(chan int)

	done := make(chan error, 1)
	go func() {
		_, err := s.Advance(ctx)
		done <- err
	}()

	<-rasterizer.Started
	if _, err := s.Advance(ctx); !errors.Is(err, basicpdf.ErrBusy) {
		t.Errorf("second Advance() = %v, want ErrBusy", err)
	}

	s.Reset()
	close(rasterizer.Gate)

	select {
	case err := <-done:
		if !basicpdf.IsStale(err) {
			t.Errorf("Advance() after reset = %v, want a stale result", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Advance() did not return")
	}

	snap := s.Snapshot()
	if snap.Step != basicpdf.StepUpload || snap.Busy || snap.PageCount != 0 || len(snap.Displayed) != 0 || len(snap.Placements) != 0 {
		t.Errorf("session after reset = %+v", snap)
	}

	// the fresh session works normally
	rasterizer.Gate, rasterizer.Started = nil, nil
	if err := s.LoadDocument(ctx, "otro.pdf", basicpdftest.Letter(1)); err != nil {
		t.Errorf("LoadDocument() after reset failed: %v", err)
	}
}

func TestFlowBack(t *testing.T) {
	ctx := context.Background()
	tk, _, _ := basicpdftest.NewToolkit()
	s := placeSession(t, tk, 2, []int{0, 1})

	step, err := s.Back()
	if err != nil || step != basicpdf.StepSelectPages {
		t.Fatalf("Back() = %s, %v", step, err)
	}
	if snap := s.Snapshot(); len(snap.Placements) != 0 || len(snap.Displayed) != 0 || !snap.HasStamp {
		t.Errorf("Back() to select pages left %+v", snap)
	}

	step, _ = s.Back()
	if step != basicpdf.StepCapture || s.Snapshot().HasStamp {
		t.Errorf("Back() to capture = %s with stamp %v", step, s.Snapshot().HasStamp)
	}

	step, _ = s.Back()
	if step != basicpdf.StepUpload || s.Snapshot().PageCount != 0 {
		t.Errorf("Back() to upload kept the document")
	}
	if _, err := s.Back(); !errors.Is(err, basicpdf.ErrInvalidTransition) {
		t.Errorf("Back() from upload = %v, want ErrInvalidTransition", err)
	}
	if _, err := s.Advance(ctx); !errors.Is(err, basicpdf.ErrMissingDocument) {
		t.Errorf("Advance() after going back to upload = %v", err)
	}
}

func TestFlowCertificateBackKeepsContainer(t *testing.T) {
	ctx := context.Background()
	tk, _, _ := basicpdftest.NewToolkit()
	s := basicpdf.NewSession(tk, basicpdf.VariantCertificate)
	_ = s.LoadDocument(ctx, "a.pdf", basicpdftest.Letter(1))
	_, _ = s.Advance(ctx)
	_ = s.SetCertificateContainer("firma.pfx", []byte("container"))
	if _, err := s.ValidateCertificate(ctx, "secret"); err != nil {
		t.Fatal(err)
	}
	_, _ = s.Advance(ctx)

	if _, err := s.Back(); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.Step != basicpdf.StepConfigureCertificate || snap.HasStamp || snap.Certificate != nil {
		t.Errorf("Back() left %+v", snap)
	}
	if snap.ContainerName != "firma.pfx" {
		t.Errorf("Back() dropped the certificate container")
	}
	if _, err := s.ValidateCertificate(ctx, "secret"); err != nil {
		t.Errorf("ValidateCertificate() after Back() failed: %v", err)
	}
}
