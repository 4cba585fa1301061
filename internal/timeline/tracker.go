package timeline

import "time"

// TrackerState is the state of the active scene tracker.
type TrackerState int

const (
	// Unpinned follows the viewport heuristic.
	Unpinned TrackerState = iota
	// Pinned holds an explicit author selection.
	Pinned
)

func (s TrackerState) String() string {
	if s == Pinned {
		return "pinned"
	}
	return "unpinned"
}

// BlockPosition is the rendered top edge of one scene block, in pixels
// relative to the top of the viewport.
type BlockPosition struct {
	SceneID string `json:"scene_id"`
	Top     int    `json:"top"`
}

// TrackerConfig tunes the heuristic and the pin hysteresis.
type TrackerConfig struct {
	ReferenceOffset int
	QuietPeriod     time.Duration
	ReleaseDistance int
}

// DefaultTrackerConfig returns the tuning used by the editor.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		ReferenceOffset: 120,
		QuietPeriod:     1200 * time.Millisecond,
		ReleaseDistance: 600,
	}
}

// Tracker decides which scene is the active AI context.
//
// Unpinned, every scroll recomputes the block nearest ReferenceOffset.
// Selecting a scene pins it. A pin is released only once scrolling has been
// quiet for QuietPeriod and the pinned block sits further than
// ReleaseDistance from the reference offset.
type Tracker struct {
	cfg        TrackerConfig
	state      TrackerState
	active     string
	blocks     []BlockPosition
	lastScroll time.Time
}

// NewTracker creates an unpinned tracker with no active scene.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// State returns the current state.
func (t *Tracker) State() TrackerState {
	return t.state
}

// Active returns the active scene id, empty when none.
func (t *Tracker) Active() string {
	return t.active
}

// Scroll records new block positions.
func (t *Tracker) Scroll(blocks []BlockPosition, now time.Time) string {
	t.blocks = append(t.blocks[:0], blocks...)
	t.lastScroll = now
	if t.state == Unpinned {
		t.active = t.nearest()
	}
	return t.active
}

// Select pins sceneID, replacing any earlier pin.
func (t *Tracker) Select(sceneID string, now time.Time) {
	t.state = Pinned
	t.active = sceneID
	t.lastScroll = now
}

// Settle is called once scrolling may have gone quiet. It releases the pin
// when both hysteresis conditions hold and reports whether it did.
func (t *Tracker) Settle(now time.Time) bool {
	if t.state != Pinned {
		return false
	}
	if now.Sub(t.lastScroll) < t.cfg.QuietPeriod {
		return false
	}
	top, ok := t.topOf(t.active)
	if ok && abs(top-t.cfg.ReferenceOffset) <= t.cfg.ReleaseDistance {
		return false
	}
	t.state = Unpinned
	t.active = t.nearest()
	return true
}

// Forget drops a scene that no longer exists.
func (t *Tracker) Forget(sceneID string) {
	kept := t.blocks[:0]
	for _, b := range t.blocks {
		if b.SceneID != sceneID {
			kept = append(kept, b)
		}
	}
	t.blocks = kept
	if t.active != sceneID {
		return
	}
	t.state = Unpinned
	t.active = t.nearest()
}

func (t *Tracker) nearest() string {
	best := ""
	bestDist := 0
	for _, b := range t.blocks {
		d := abs(b.Top - t.cfg.ReferenceOffset)
		if best == "" || d < bestDist {
			best = b.SceneID
			bestDist = d
		}
	}
	return best
}

func (t *Tracker) topOf(sceneID string) (int, bool) {
	for _, b := range t.blocks {
		if b.SceneID == sceneID {
			return b.Top, true
		}
	}
	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
