package basicpdf

type InteractionMode int

const (
	InteractionIdle InteractionMode = iota
	InteractionDragging
	InteractionResizing
)

func (m InteractionMode) String() string {
	switch m {
	case InteractionDragging:
		return "dragging"
	case InteractionResizing:
		return "resizing"
	default:
		return "idle"
	}
}

type PointerEventType string

const (
	PointerDown  PointerEventType = "down"
	PointerMove  PointerEventType = "move"
	PointerUp    PointerEventType = "up"
	PointerLeave PointerEventType = "leave"
)

// PointerTarget tells which part of the rectangle received a pointer-down.
// TargetAuto lets the controller hit-test the position itself.
type PointerTarget string

const (
	TargetAuto   PointerTarget = ""
	TargetBody   PointerTarget = "body"
	TargetHandle PointerTarget = "handle"
	TargetNone   PointerTarget = "none"
)

const (
	// Side of the square resize handle sitting on the bottom-right corner, in preview px
	ResizeHandleSize = 12.0
	// Smallest width or height a placement may have, in preview px
	MinPlacementSize = 8.0
)

// PointerEvent is expressed in preview space of the page it happened on.
type PointerEvent struct {
	Type   PointerEventType `json:"type"`
	Page   int              `json:"page"`
	Target PointerTarget    `json:"target"`
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
}

type InteractionState struct {
	Mode InteractionMode `json:"-"`
	Page int             `json:"page"`
	// pointer offset from the top-left corner when the drag started
	grab Position
	// width / height when the resize started
	aspect float64
}

func (s InteractionState) Active() bool { return s.Mode != InteractionIdle }

// InteractionController turns pointer events into placement mutations.
type InteractionController struct {
	model *PlacementModel
	state InteractionState
}

func NewInteractionController(model *PlacementModel) *InteractionController {
	return &InteractionController{model: model}
}

func (c *InteractionController) State() InteractionState { return c.state }

// Reset drops any interaction in progress.
func (c *InteractionController) Reset() { c.state = InteractionState{} }

// Dispatch applies one pointer event. It returns the rectangle of the event's page after
// the event and whether the placement changed.
func (c *InteractionController) Dispatch(ev PointerEvent) (Rect, bool) {
	switch ev.Type {
	case PointerDown:
		c.pointerDown(ev)
		return c.current(ev.Page), false
	case PointerMove:
		return c.pointerMove(ev)
	case PointerUp, PointerLeave:
		c.state = InteractionState{}
		return c.current(ev.Page), false
	default:
		return c.current(ev.Page), false
	}
}

func (c *InteractionController) current(page int) Rect {
	r, _ := c.model.Rect(page)
	return r
}

func (c *InteractionController) pointerDown(ev PointerEvent) {
	if c.state.Active() {
		return
	}
	r, ok := c.model.Rect(ev.Page)
	if !ok {
		return
	}

	target := ev.Target
	if target == TargetAuto {
		target = hitTest(r, ev.X, ev.Y)
	}

	switch target {
	case TargetHandle:
		if r.Height <= 0 {
			return
		}
		c.state = InteractionState{
			Mode:   InteractionResizing,
			Page:   ev.Page,
			aspect: r.Width / r.Height,
		}
	case TargetBody:
		c.state = InteractionState{
			Mode: InteractionDragging,
			Page: ev.Page,
			grab: Position{X: ev.X - r.X, Y: ev.Y - r.Y},
		}
	}
}

func (c *InteractionController) pointerMove(ev PointerEvent) (Rect, bool) {
	if !c.state.Active() || ev.Page != c.state.Page {
		return c.current(ev.Page), false
	}
	r, ok := c.model.Rect(ev.Page)
	if !ok {
		return Rect{}, false
	}

	switch c.state.Mode {
	case InteractionDragging:
		moved := r
		moved.X = ev.X - c.state.grab.X
		moved.Y = ev.Y - c.state.grab.Y
		updated, err := c.model.SetRect(ev.Page, moved)
		if err != nil {
			return r, false
		}
		return updated, updated != r
	case InteractionResizing:
		bounds, ok := c.model.Bounds(ev.Page)
		if !ok {
			return r, false
		}
		resized := r
		resized.Width = ev.X - r.X
		resized.Height = resized.Width / c.state.aspect
		if resized.Width < MinPlacementSize || resized.Height < MinPlacementSize || !resized.Within(bounds) {
			return r, false
		}
		updated, err := c.model.SetRect(ev.Page, resized)
		if err != nil {
			return r, false
		}
		return updated, updated != r
	}
	return r, false
}

// hitTest checks the handle first so it wins over the body on the corner.
func hitTest(r Rect, x, y float64) PointerTarget {
	half := ResizeHandleSize / 2
	if x >= r.Right()-half && x <= r.Right()+half && y >= r.Bottom()-half && y <= r.Bottom()+half {
		return TargetHandle
	}
	if r.Contains(x, y) {
		return TargetBody
	}
	return TargetNone
}
