package alert

import (
	"sort"
	"time"

	"github.com/ayusman/facemesh/internal/heuristic"
)

// Tracker remembers the flags of each face index from the previous frame
// and reports the ones that changed. Face indices follow detector order.
type Tracker struct {
	session string
	prev    map[int]heuristic.Result
	now     func() time.Time
}

// NewTracker creates a tracker whose events carry the given session ID.
func NewTracker(session string) *Tracker {
	return &Tracker{
		session: session,
		prev:    make(map[int]heuristic.Result),
		now:     time.Now,
	}
}

// Update compares results with the previous frame and returns the
// transitions, ordered by face then kind. A face seen for the first time
// reports its active flags; a face that disappeared reports its active
// flags as cleared.
func (t *Tracker) Update(frame int64, results []heuristic.Result) []Event {
	var events []Event
	ts := t.now()

	emit := func(face int, kind Kind, active bool, res heuristic.Result) {
		events = append(events, Event{
			Kind:    kind,
			Active:  active,
			Session: t.session,
			Frame:   frame,
			Face:    face,
			Result:  res,
			Time:    ts,
		})
	}

	for i, cur := range results {
		old, seen := t.prev[i]
		switch {
		case !seen:
			if cur.EyesClosed {
				emit(i, KindEyesClosed, true, cur)
			}
			if cur.Smile {
				emit(i, KindSmile, true, cur)
			} else {
				emit(i, KindDanger, true, cur)
			}
		default:
			if cur.EyesClosed != old.EyesClosed {
				emit(i, KindEyesClosed, cur.EyesClosed, cur)
			}
			if cur.Smile != old.Smile {
				emit(i, KindSmile, cur.Smile, cur)
				emit(i, KindDanger, !cur.Smile, cur)
			}
		}
		t.prev[i] = cur
	}

	var gone []int
	for i := range t.prev {
		if i >= len(results) {
			gone = append(gone, i)
		}
	}
	sort.Ints(gone)

	for _, i := range gone {
		old := t.prev[i]
		if old.EyesClosed {
			emit(i, KindEyesClosed, false, old)
		}
		if old.Smile {
			emit(i, KindSmile, false, old)
		} else {
			emit(i, KindDanger, false, old)
		}
		delete(t.prev, i)
	}

	return events
}

// Reset forgets all faces.
func (t *Tracker) Reset() {
	t.prev = make(map[int]heuristic.Result)
}
