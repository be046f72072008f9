package services

import (
	"sync"

	"hazardlens/internal/core/domain"
	"hazardlens/pkg/geometry"

	"go.uber.org/zap"
)

type EditorState string

const (
	EditorIdle    EditorState = "idle"
	EditorDrawing EditorState = "drawing"
)

// ClosingRadius is the unit-square distance within which a placement click
// near the first vertex closes the polygon instead of appending.
const ClosingRadius = 0.03

// ZoneEditor captures operator-drawn hazard zones. All coordinates are in the
// unit square; device pixels are converted by the caller via pkg/geometry
// before they reach the editor.
type ZoneEditor struct {
	mu          sync.Mutex
	state       EditorState
	vertices    []geometry.Point
	pendingType domain.ZoneType

	logger *zap.SugaredLogger
}

func NewZoneEditor(logger *zap.SugaredLogger) *ZoneEditor {
	return &ZoneEditor{
		state:  EditorIdle,
		logger: logger,
	}
}

// Begin starts a new drawing with an empty vertex sequence. Beginning while
// already drawing discards the in-progress polygon.
func (e *ZoneEditor) Begin(zoneType domain.ZoneType) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = EditorDrawing
	e.vertices = nil
	e.pendingType = zoneType
}

// PlaceVertex handles a placement click. It appends the point unless the
// polygon already has enough vertices and the click lands within the closing
// radius of the first vertex, in which case the polygon closes. A non-nil
// draft means the polygon completed.
func (e *ZoneEditor) PlaceVertex(p geometry.Point) *domain.ZoneDraft {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != EditorDrawing {
		return nil
	}

	if len(e.vertices) >= domain.MinZoneVertices && geometry.Distance(p, e.vertices[0]) <= ClosingRadius {
		return e.close()
	}

	e.vertices = append(e.vertices, p)
	return nil
}

// Close closes the polygon immediately (double-click or equivalent). With
// fewer than three vertices it is a no-op.
func (e *ZoneEditor) Close() *domain.ZoneDraft {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != EditorDrawing || len(e.vertices) < domain.MinZoneVertices {
		return nil
	}
	return e.close()
}

// Cancel discards the in-progress polygon and returns to idle.
func (e *ZoneEditor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = EditorIdle
	e.vertices = nil
}

func (e *ZoneEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *ZoneEditor) PendingType() domain.ZoneType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingType
}

// Vertices returns a copy of the in-progress vertex sequence for rendering
// the dashed preview path.
func (e *ZoneEditor) Vertices() []geometry.Point {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]geometry.Point, len(e.vertices))
	copy(out, e.vertices)
	return out
}

// close emits the draft and resets to idle. Caller holds the lock.
func (e *ZoneEditor) close() *domain.ZoneDraft {
	draft := &domain.ZoneDraft{
		Type:     e.pendingType,
		Vertices: e.vertices,
	}
	e.state = EditorIdle
	e.vertices = nil

	e.logger.Debugw("polygon closed", "type", draft.Type, "vertices", len(draft.Vertices))
	return draft
}
