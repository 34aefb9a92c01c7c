package basicpdf

import (
	"fmt"
	"slices"
)

// PlacementModel keeps the stamp rectangle of every displayed page.
//
// In shared mode the rectangle of the first selected page acts as a template: reads for
// any selected page resolve to it and writes always land on it. Independent pages are
// seeded lazily from the template when they are displayed for the first time.
type PlacementModel struct {
	selected []int
	shared   bool
	policy   PlacementPolicy
	rects    map[int]Rect
	bounds   map[int]Size
}

func NewPlacementModel(selected []int, shared bool, policy PlacementPolicy) *PlacementModel {
	return &PlacementModel{
		selected: normalizePages(selected),
		shared:   shared,
		policy:   policy,
		rects:    make(map[int]Rect),
		bounds:   make(map[int]Size),
	}
}

func (m *PlacementModel) Shared() bool { return m.shared }

func (m *PlacementModel) Selected() []int { return slices.Clone(m.selected) }

// SetShared switches between shared and independent mode. No rectangle is dropped.
func (m *PlacementModel) SetShared(shared bool) { m.shared = shared }

// VisiblePages lists the pages that need a preview: only the template page in shared
// mode, every selected page otherwise.
func (m *PlacementModel) VisiblePages() []int {
	if len(m.selected) == 0 {
		return nil
	}
	if m.shared {
		return []int{m.selected[0]}
	}
	return slices.Clone(m.selected)
}

// resolve returns the key that owns the rectangle for page.
func (m *PlacementModel) resolve(page int) (int, error) {
	if _, found := slices.BinarySearch(m.selected, page); !found {
		return 0, fmt.Errorf("page %d: %w", page, ErrPageNotSelected)
	}
	if m.shared {
		return m.selected[0], nil
	}
	return page, nil
}

// Display registers the preview size of a page and makes sure it owns a rectangle.
// A page shown for the first time is seeded with a copy of the template when one
// exists, with the default placement otherwise.
func (m *PlacementModel) Display(page int, preview Size) (Rect, error) {
	if !preview.valid() {
		return Rect{}, fmt.Errorf("page %d: invalid preview size %vx%v", page, preview.Width, preview.Height)
	}
	key, err := m.resolve(page)
	if err != nil {
		return Rect{}, err
	}

	if _, ok := m.bounds[key]; !ok {
		m.bounds[key] = preview
	}
	// keep the size of the page itself too, the template may be read through it later
	m.bounds[page] = preview

	if r, ok := m.rects[key]; ok {
		return r, nil
	}

	var seed Rect
	if tpl, ok := m.rects[m.selected[0]]; ok && key != m.selected[0] {
		seed = tpl
	} else {
		seed = m.policy.DefaultPlacement(m.bounds[key])
	}

	seed = clampRect(seed, m.bounds[key])
	m.rects[key] = seed
	return seed, nil
}

// Rect returns the effective rectangle for page, false when the page has none yet.
func (m *PlacementModel) Rect(page int) (Rect, bool) {
	key, err := m.resolve(page)
	if err != nil {
		return Rect{}, false
	}
	r, ok := m.rects[key]
	return r, ok
}

// Bounds returns the preview size the effective rectangle of page is measured against.
func (m *PlacementModel) Bounds(page int) (Size, bool) {
	key, err := m.resolve(page)
	if err != nil {
		return Size{}, false
	}
	s, ok := m.bounds[key]
	return s, ok
}

// SetRect stores a rectangle for page, clamped into the page's preview bounds.
func (m *PlacementModel) SetRect(page int, r Rect) (Rect, error) {
	key, err := m.resolve(page)
	if err != nil {
		return Rect{}, err
	}
	bounds, ok := m.bounds[key]
	if !ok {
		return Rect{}, fmt.Errorf("page %d: %w", page, ErrPageNotDisplayed)
	}

	r = clampRect(r, bounds)
	m.rects[key] = r
	return r, nil
}

// Placements returns the effective rectangle of every selected page, in selection order.
// Pages without a rectangle are reported through missing.
func (m *PlacementModel) Placements() (targets []Target, missing []int) {
	for _, page := range m.selected {
		r, ok := m.Rect(page)
		bounds, hasBounds := m.Bounds(page)
		if !ok || !hasBounds {
			missing = append(missing, page)
			continue
		}
		targets = append(targets, Target{PageIndex: page, Rect: r, Preview: bounds})
	}
	return targets, missing
}

// normalizePages sorts and de-duplicates page indices.
func normalizePages(pages []int) []int {
	out := slices.Clone(pages)
	slices.Sort(out)
	return slices.Compact(out)
}
