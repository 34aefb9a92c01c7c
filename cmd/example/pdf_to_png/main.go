package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
)

func main() {
	pdfFilePath := "basicpdf_tmp/contrato.pdf"
	outputDir := "basicpdf_tmp/tmp"

	data, err := os.ReadFile(pdfFilePath)
	if err != nil {
		panic(err)
	}

	engine := basicpdf.NewPdfcpuEngine(basicpdf.NewDefaultConfig(), nil)
	preview, err := basicpdf.NewOutlineRasterizer(engine).RenderPage(context.Background(), data, 0, 1.0)
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		panic(err)
	}
	output := filepath.Join(outputDir, "page_0.png")
	if err := os.WriteFile(output, preview.Image, 0644); err != nil {
		panic(err)
	}

	fmt.Printf("PDF to PNG conversion successful. Output file: %s (%.0fx%.0f)\n", output, preview.Width, preview.Height)
}
