// Package engine implements the chess AI search engine.
package engine

import (
	"sync"
	"time"

	"github.com/hailam/chessengine/internal/board"
)

// SearchLimits controls a single go command's stopping conditions.
type SearchLimits struct {
	UCI      UCILimits
	Infinite bool
}

// Engine is the controller half of the concurrency model described in §5:
// it owns the authoritative Position and history, and runs at most one
// search worker at a time over a by-value snapshot of both. It never shares
// mutable state with the worker beyond the stop and info channels.
type Engine struct {
	mu     sync.Mutex
	stopCh chan controlSignal
	doneCh chan struct{}

	rootPosHashes []uint64

	// OnInfo is invoked from the controller's goroutine for every message
	// drained off the worker's info channel, in FIFO order, with Done sent
	// last.
	OnInfo func(SearchInfo)
}

// NewEngine creates a new controller.
func NewEngine() *Engine {
	return &Engine{}
}

// SetPositionHistory records the Zobrist hash of every ply played so far in
// the current game, indexed by ply. The next search's worker snapshot is
// seeded from this.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rootPosHashes = append([]uint64(nil), hashes...)
}

// SearchWithLimits runs a search to a fixed depth or node budget and returns
// the best move found once the worker terminates. Depth 0 means unlimited
// depth (bounded only by MaxDepth).
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	stopDepth := limits.UCI.Depth
	if stopDepth <= 0 || stopDepth > MaxDepth-1 {
		stopDepth = MaxDepth - 1
	}

	tm := NewTimeManager()
	if limits.Infinite || limits.UCI.Infinite {
		tm.infinite = true
	} else {
		tm.Init(limits.UCI, pos.SideToMove)
	}

	return e.runSearch(pos, stopDepth, limits.UCI.Nodes, tm)
}

// runSearch spawns the single search worker goroutine, forwards its info
// messages to OnInfo, and enforces the time budget by enqueueing Stop when it
// is exceeded (§5's "controller enqueues Stop" time-budget rule).
func (e *Engine) runSearch(pos *board.Position, stopDepth int, nodeLimit uint64, tm *TimeManager) board.Move {
	snapshot := pos.Copy()

	e.mu.Lock()
	// Fresh channels per search, so no stale Stop from a previous search
	// can reach this one.
	stopCh := make(chan controlSignal, 4)
	infoCh := make(chan SearchInfo, 64)
	e.stopCh = stopCh
	doneCh := make(chan struct{})
	e.doneCh = doneCh
	history := e.rootPosHashes
	e.mu.Unlock()

	searcher := NewSearcher(stopCh, infoCh)
	searcher.SetPositionHistory(history)

	go func() {
		searcher.IterativeDeepen(snapshot, stopDepth, nodeLimit)
		close(infoCh)
	}()

	if !tm.infinite {
		go func() {
			for {
				if tm.ShouldStop() {
					select {
					case stopCh <- SignalStop:
					default:
					}
					return
				}
				select {
				case <-doneCh:
					return
				case <-time.After(5 * time.Millisecond):
				}
			}
		}()
	}

	var best board.Move
	for info := range infoCh {
		if e.OnInfo != nil {
			e.OnInfo(info)
		}
		if info.Kind == InfoDone {
			best = info.BestMove
		}
	}
	close(doneCh)

	return best
}

// Stop cancels the in-progress search, if any.
func (e *Engine) Stop() {
	e.mu.Lock()
	ch := e.stopCh
	e.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- SignalStop:
	default:
	}
}

// Perft counts leaf nodes at the given depth via recursive pseudo-legal
// generation plus the post-hoc legality filter, the same make/unmake path
// the search itself uses.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var nodes uint64
	moves := pos.GeneratePseudoLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		if !undo.Valid {
			continue
		}
		moverSq := pos.KingSquare[pos.SideToMove.Other()]
		if !pos.IsSquareAttacked(moverSq, pos.SideToMove) {
			nodes += e.Perft(pos, depth-1)
		}
		pos.UnmakeMove(move, undo)
	}
	return nodes
}

// Evaluate returns the static evaluation of pos, from the side-to-move's
// perspective.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// ScoreToString renders a centipawn or mate score in UCI form ("cp N" or
// "mate K").
func ScoreToString(score int) string {
	if isMateScore(score) {
		pliesToMate := CHECKMATE - abs(score)
		mateIn := (pliesToMate + 1) / 2
		if score < 0 {
			mateIn = -mateIn
		}
		return "mate " + itoa(mateIn)
	}
	return "cp " + itoa(score)
}

// itoa converts an int to a string without pulling in strconv/fmt, matching
// the rest of the package's avoidance of those imports on the hot path.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
