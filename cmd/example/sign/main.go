package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
)

// Stamps a hand-drawn signature on the first and last page of a document.
func main() {
	pdfFilePath := "basicpdf_tmp/contrato.pdf"
	signaturePath := "basicpdf_tmp/firma.png"
	outputDir := "basicpdf_tmp/out"

	ctx := context.Background()
	logger := util.NewLogger("")
	tk := basicpdf.NewToolkit(basicpdf.NewDefaultConfig(), logger)
	s := basicpdf.NewSession(tk, basicpdf.VariantHandwritten)

	document, err := os.ReadFile(pdfFilePath)
	if err != nil {
		panic(err)
	}
	signature, err := os.ReadFile(signaturePath)
	if err != nil {
		panic(err)
	}

	if err := s.LoadDocument(ctx, filepath.Base(pdfFilePath), document); err != nil {
		panic(err)
	}
	if _, err := s.Advance(ctx); err != nil {
		panic(err)
	}
	if err := s.CaptureSignature(signature); err != nil {
		panic(err)
	}
	if _, err := s.Advance(ctx); err != nil {
		panic(err)
	}

	last := s.Snapshot().PageCount - 1
	if _, err := s.SetSelection([]int{0, last}); err != nil {
		panic(err)
	}
	if _, err := s.Advance(ctx); err != nil {
		panic(err)
	}

	out, err := s.Finalize(ctx)
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		panic(err)
	}
	output := filepath.Join(outputDir, out.Name)
	if err := os.WriteFile(output, out.Data, 0644); err != nil {
		panic(err)
	}

	for _, st := range out.Stamps {
		logger.Infof("Stamped page %d at %+v", st.SourcePage, st.Rect)
	}
	fmt.Printf("Signed document written to %s\n", output)
}
