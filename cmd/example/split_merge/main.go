package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SeakMengs/BasicPDF/internal/util"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
)

// Extracts the first page of a document and appends it to a second one.
func main() {
	first := "basicpdf_tmp/contrato.pdf"
	second := "basicpdf_tmp/anexo.pdf"
	outputDir := "basicpdf_tmp/out"

	ctx := context.Background()
	tk := basicpdf.NewToolkit(basicpdf.NewDefaultConfig(), util.NewLogger(""))

	firstData, err := os.ReadFile(first)
	if err != nil {
		panic(err)
	}
	secondData, err := os.ReadFile(second)
	if err != nil {
		panic(err)
	}

	cover, err := tk.Split(ctx, filepath.Base(first), firstData, []int{0})
	if err != nil {
		panic(err)
	}

	list := basicpdf.NewMergeList()
	if _, err := list.Add(filepath.Base(second), secondData); err != nil {
		panic(err)
	}
	if _, err := list.Add(cover.Name, cover.Data); err != nil {
		panic(err)
	}

	merged, err := tk.Merge(ctx, list)
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		panic(err)
	}
	for _, out := range []*basicpdf.Output{cover, merged} {
		path := filepath.Join(outputDir, out.Name)
		if err := os.WriteFile(path, out.Data, 0644); err != nil {
			panic(err)
		}
		fmt.Printf("%s: %d pages\n", path, out.PageCount)
	}
}
