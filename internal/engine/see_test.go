package engine

import (
	"testing"

	"github.com/hailam/chessengine/internal/board"
)

func seeMove(t *testing.T, from, to string) board.Move {
	t.Helper()
	f, err := board.ParseSquare(from)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", from, err)
	}
	tt, err := board.ParseSquare(to)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", to, err)
	}
	return board.NewMove(f, tt)
}

func TestSEERookTakesPawnWins(t *testing.T) {
	pos, err := board.ParseFEN("1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	m := seeMove(t, "e1", "e5")
	if got := SEE(pos, m); got != 100 {
		t.Errorf("SEE(Re1xe5) = %d, want 100", got)
	}
}

func TestSEEKnightTakesPawnLoses(t *testing.T) {
	pos, err := board.ParseFEN("1k1r3q/1ppn3p/p4b2/4p3/8/P2N2P1/1PP1R1BP/2K1Q3 w - -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	m := seeMove(t, "d3", "e5")
	if got := SEE(pos, m); got != -220 {
		t.Errorf("SEE(Nd3xe5) = %d, want -220", got)
	}
}

func TestSEEQueenTakesBishopLoses(t *testing.T) {
	pos, err := board.ParseFEN("r1bq1r1k/p1pn1pp1/1p2p3/6b1/3PB3/8/PPPQ1PPP/2KR3R w - -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	m := seeMove(t, "d2", "g5")
	if got := SEE(pos, m); got != -570 {
		t.Errorf("SEE(Qd2xg5) = %d, want -570", got)
	}
}
