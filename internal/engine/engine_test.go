package engine

import (
	"testing"
	"time"

	"github.com/hailam/chessengine/internal/board"
)

func TestSearchBasicDepth(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine()

	var lastFull SearchInfo
	eng.OnInfo = func(info SearchInfo) {
		if info.Kind == InfoFull {
			lastFull = info
		}
	}

	move := eng.SearchWithLimits(pos, SearchLimits{UCI: UCILimits{Depth: 3}})
	if move == board.NoMove {
		t.Fatal("search returned NoMove for starting position")
	}

	legal := pos.GenerateLegalMoves()
	found := false
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i) == move {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("search returned %s, which is not a legal move", move.String())
	}

	if lastFull.Depth != 3 {
		t.Errorf("expected a completed Full info at depth 3, got depth %d", lastFull.Depth)
	}
	if abs(lastFull.Score) >= CHECKMATE-3 {
		t.Errorf("score %d is not bounded by CHECKMATE - depth", lastFull.Score)
	}
}

func TestSearchMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/4K3/8/8/8/8/7R w - -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	eng := NewEngine()
	var lastFull SearchInfo
	eng.OnInfo = func(info SearchInfo) {
		if info.Kind == InfoFull {
			lastFull = info
		}
	}

	move := eng.SearchWithLimits(pos, SearchLimits{UCI: UCILimits{Depth: 2}})
	if move.String() != "h1h8" {
		t.Errorf("expected bestmove h1h8, got %s", move.String())
	}
	if lastFull.Score != CHECKMATE-1 {
		t.Errorf("expected mate-in-1 score %d, got %d", CHECKMATE-1, lastFull.Score)
	}
}

func TestSearchStalemateReturnsNoMove(t *testing.T) {
	// Black to move, no legal moves, not in check.
	pos, err := board.ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if !pos.IsStalemate() {
		t.Fatal("test position is not actually a stalemate; fix the FEN")
	}

	eng := NewEngine()
	move := eng.SearchWithLimits(pos, SearchLimits{UCI: UCILimits{Depth: 3}})
	if move != board.NoMove {
		t.Errorf("expected bestmove None (NoMove) for stalemate, got %s", move.String())
	}
}

func TestSearchRespectsNodeLimit(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine()

	move := eng.SearchWithLimits(pos, SearchLimits{UCI: UCILimits{Nodes: 1000, Depth: MaxDepth - 1}})
	if move == board.NoMove {
		t.Error("search with a node limit returned NoMove for starting position")
	}
}

func TestStopCancelsInProgressSearch(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine()

	done := make(chan board.Move, 1)
	go func() {
		done <- eng.SearchWithLimits(pos, SearchLimits{UCI: UCILimits{Depth: MaxDepth - 1}})
	}()

	time.Sleep(20 * time.Millisecond)
	eng.Stop()

	select {
	case move := <-done:
		if move == board.NoMove {
			t.Error("stopped search returned NoMove; expected the last completed iteration's best move")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("search did not stop within 5s of Stop()")
	}
}

func TestPerftStartingPosition(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine()

	want := []uint64{1, 20, 400, 8902, 197281}
	for depth, w := range want {
		if got := eng.Perft(pos, depth); got != w {
			t.Errorf("perft(%d) = %d, want %d", depth, got, w)
		}
	}
}

func TestPawnHashTable(t *testing.T) {
	pt := NewPawnTable(1) // 1MB

	pos := board.NewPosition()

	if _, _, found := pt.Probe(pos.PawnKey); found {
		t.Error("expected cache miss on first probe")
	}

	pt.Store(pos.PawnKey, -15, -20)

	mg, eg, found := pt.Probe(pos.PawnKey)
	if !found {
		t.Error("expected cache hit after store")
	}
	if mg != -15 || eg != -20 {
		t.Errorf("wrong values: got mg=%d, eg=%d, want -15, -20", mg, eg)
	}

	oldKey := pos.PawnKey
	move := board.NewMove(board.E2, board.E4)
	undo := pos.MakeMove(move)
	if pos.PawnKey == oldKey {
		t.Error("PawnKey should change when a pawn moves")
	}

	pos.UnmakeMove(move, undo)
	if pos.PawnKey != oldKey {
		t.Error("PawnKey should be restored on unmake")
	}
}
