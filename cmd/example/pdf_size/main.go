package main

import (
	"context"
	"fmt"
	"os"

	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
)

func main() {
	pdfFilePath := "basicpdf_tmp/contrato.pdf"

	data, err := os.ReadFile(pdfFilePath)
	if err != nil {
		panic(err)
	}

	engine := basicpdf.NewPdfcpuEngine(basicpdf.NewDefaultConfig(), nil)
	doc, err := engine.Load(context.Background(), data)
	if err != nil {
		panic(err)
	}
	defer doc.Close()

	if doc.PageCount() < 1 {
		panic("pdf has no pages")
	}
	fmt.Printf("PDF Page Count: %d\n", doc.PageCount())
	for i := 0; i < doc.PageCount(); i++ {
		size, err := doc.PageSize(i)
		if err != nil {
			panic(err)
		}
		fmt.Printf("Page %d Size: %.2f x %.2f pt\n", i, size.Width, size.Height)
	}
}
