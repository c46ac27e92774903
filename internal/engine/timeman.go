package engine

import (
	"time"

	"github.com/hailam/chessengine/internal/board"
)

// UCILimits contains UCI time control parameters.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move) -- unused, see Init
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	Infinite  bool             // search until stopped
	Ponder    bool             // ponder mode
}

// defaultMovesToGo is used whenever the controller doesn't receive an
// explicit movestogo (sudden-death time controls).
const defaultMovesToGo = 40

// TimeManager computes a single time budget for the current move: a fixed
// fraction of the remaining clock. It does not try to estimate game phase,
// move stability, or any other heuristic beyond the simple division the
// design calls for.
type TimeManager struct {
	maximumTime time.Duration
	startTime   time.Time
	infinite    bool
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init initializes the time manager for a new search.
func (tm *TimeManager) Init(limits UCILimits, us board.Color) {
	tm.startTime = time.Now()

	if limits.Infinite {
		tm.infinite = true
		return
	}

	if limits.MoveTime > 0 {
		tm.maximumTime = limits.MoveTime
		return
	}

	if limits.Time[us] == 0 {
		tm.infinite = true
		return
	}

	movesToGo := limits.MovesToGo
	if movesToGo <= 0 {
		movesToGo = defaultMovesToGo
	}

	tm.maximumTime = limits.Time[us] / time.Duration(movesToGo+2)
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// MaximumTime returns the time budget for this move. Infinite searches never
// return a finite budget; the caller must rely on an explicit stop instead.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// ShouldStop returns true if the time budget has been exceeded.
func (tm *TimeManager) ShouldStop() bool {
	if tm.infinite {
		return false
	}
	return tm.Elapsed() >= tm.maximumTime
}
