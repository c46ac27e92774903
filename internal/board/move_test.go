package board

import "testing"

func TestMoveKindQuiet(t *testing.T) {
	pos := NewPosition()
	m := NewMove(G1, F3)
	if got := m.Kind(pos).Tag; got != QuietKind {
		t.Errorf("Ng1f3.Kind() = %v, want QuietKind", got)
	}
}

func TestMoveKindDoublePawnPush(t *testing.T) {
	pos := NewPosition()
	m := NewMove(E2, E4)
	if got := m.Kind(pos).Tag; got != DoublePawnPushKind {
		t.Errorf("e2e4.Kind() = %v, want DoublePawnPushKind", got)
	}
}

func TestMoveKindCapture(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/4p3/3P4/8/8/4K3 w - -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	m := NewMove(D4, E5)
	kind := m.Kind(pos)
	if kind.Tag != CaptureKind {
		t.Fatalf("d4e5.Kind() = %v, want CaptureKind", kind.Tag)
	}
	if kind.Captured.Type() != Pawn {
		t.Errorf("captured piece type = %v, want Pawn", kind.Captured.Type())
	}
}

func TestMoveKindEnPassant(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/3pP3/8/8/8/4K3 w - d6")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	m := NewEnPassant(E5, D6)
	if got := m.Kind(pos).Tag; got != EnPassantKind {
		t.Errorf("e5d6 e.p. Kind() = %v, want EnPassantKind", got)
	}
}

func TestMoveKindCastling(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/4K2R w K -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	m := NewCastling(E1, G1)
	kind := m.Kind(pos)
	if kind.Tag != CastlingKind {
		t.Fatalf("e1g1 castle Kind() = %v, want CastlingKind", kind.Tag)
	}
	if kind.Castle != WhiteKingSideCastle {
		t.Errorf("Castle = %v, want WhiteKingSideCastle", kind.Castle)
	}
}

func TestMoveKindPromotionAndPromotionCapture(t *testing.T) {
	pos, err := ParseFEN("3n4/4P3/8/8/8/8/8/4K2k w - -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	push := NewPromotion(E7, E8, Queen)
	pushKind := push.Kind(pos)
	if pushKind.Tag != PromotionKind {
		t.Fatalf("e7e8=q Kind() = %v, want PromotionKind", pushKind.Tag)
	}
	if pushKind.Promoted != Queen {
		t.Errorf("Promoted = %v, want Queen", pushKind.Promoted)
	}

	capture := NewPromotion(E7, D8, Queen)
	captureKind := capture.Kind(pos)
	if captureKind.Tag != PromotionCaptureKind {
		t.Fatalf("e7xd8=q Kind() = %v, want PromotionCaptureKind", captureKind.Tag)
	}
	if captureKind.Captured.Type() != Knight {
		t.Errorf("Captured = %v, want Knight", captureKind.Captured.Type())
	}
	if captureKind.Promoted != Queen {
		t.Errorf("Promoted = %v, want Queen", captureKind.Promoted)
	}
}
