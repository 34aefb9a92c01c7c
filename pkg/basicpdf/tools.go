package basicpdf

import (
	"context"
	"fmt"
	"slices"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Split extracts pages into a new document. Pages keep their ascending original order
// whatever order they are given in.
func (t *Toolkit) Split(ctx context.Context, name string, data []byte, pages []int) (*Output, error) {
	if len(data) == 0 {
		return nil, ErrMissingDocument
	}
	pages = normalizePages(pages)
	if len(pages) == 0 {
		return nil, ErrEmptySelection
	}

	doc, err := t.Engine.Load(ctx, data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	for _, page := range pages {
		if page < 0 || page >= doc.PageCount() {
			return nil, fmt.Errorf("page %d of %d: %w", page, doc.PageCount(), ErrPageOutOfRange)
		}
	}

	subset, err := doc.Subset(pages)
	if err != nil {
		return nil, err
	}
	defer subset.Close()

	out, err := subset.Save(ctx)
	if err != nil {
		return nil, err
	}

	t.logger().Debugf("Extracted pages %v from %s", pages, name)
	return &Output{Name: SplitOutputName(name), Data: out, PageCount: len(pages)}, nil
}

// Merge concatenates the files in list order.
func (t *Toolkit) Merge(ctx context.Context, list *MergeList) (*Output, error) {
	if list == nil || list.Len() < 2 {
		return nil, ErrTooFewFiles
	}
	if t.Merger == nil {
		return nil, fmt.Errorf("no merger configured")
	}

	docs := make([][]byte, 0, list.Len())
	for _, f := range list.Files() {
		docs = append(docs, f.Data)
	}

	out, err := t.Merger.Merge(ctx, docs)
	if err != nil {
		return nil, err
	}

	count, err := t.PageCount(ctx, out)
	if err != nil {
		return nil, err
	}

	t.logger().Debugf("Merged %d files into %d pages", list.Len(), count)
	return &Output{Name: MergeOutputName, Data: out, PageCount: count}, nil
}

// PageCount loads data and reports how many pages it has.
func (t *Toolkit) PageCount(ctx context.Context, data []byte) (int, error) {
	doc, err := t.Engine.Load(ctx, data)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.PageCount(), nil
}

type MergeFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Data []byte `json:"-"`
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// MergeList is the ordered list of files waiting to be merged.
type MergeList struct {
	files []MergeFile
}

func NewMergeList() *MergeList {
	return &MergeList{}
}

// Add appends a file and returns its id.
func (l *MergeList) Add(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrMissingDocument
	}
	id, err := gonanoid.New(9)
	if err != nil {
		return "", err
	}
	l.files = append(l.files, MergeFile{ID: id, Name: baseName(name), Data: slices.Clone(data)})
	return id, nil
}

// Remove drops the file with id. Unknown ids are ignored.
func (l *MergeList) Remove(id string) {
	l.files = slices.DeleteFunc(l.files, func(f MergeFile) bool { return f.ID == id })
}

// Move swaps the file at index with its neighbour. Moves past either end do nothing.
func (l *MergeList) Move(index int, dir Direction) bool {
	var target int
	switch dir {
	case DirectionUp:
		target = index - 1
	case DirectionDown:
		target = index + 1
	default:
		return false
	}
	if index < 0 || index >= len(l.files) || target < 0 || target >= len(l.files) {
		return false
	}
	l.files[index], l.files[target] = l.files[target], l.files[index]
	return true
}

func (l *MergeList) Len() int { return len(l.files) }

func (l *MergeList) Files() []MergeFile { return slices.Clone(l.files) }
