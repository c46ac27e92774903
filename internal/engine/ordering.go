package engine

import (
	"github.com/hailam/chessengine/internal/board"
)

// Move ordering priorities.
const (
	PVFollowBonus = 100 // bonus for continuing the previous iteration's PV
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) table.
// Row = victim kind, column = attacker kind; values 0..30 per the design spec.
var mvvLva = [6][6]int{
	//       P   N   B   R   Q   K  (attacker)
	/* P */ {6, 5, 4, 3, 2, 1},
	/* N */ {12, 11, 10, 9, 8, 7},
	/* B */ {18, 17, 16, 15, 14, 13},
	/* R */ {24, 23, 22, 21, 20, 19},
	/* Q */ {30, 29, 28, 27, 26, 25},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// MoveOrderer scores a move list so the strongest candidates are tried first.
// Ordering consists of only two signals: whether the move continues the
// previous iteration's principal variation, and MVV-LVA for captures.
type MoveOrderer struct{}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// ScoreMoves assigns ordering scores to every move in the list. pvMove is the
// move that continues the previous iteration's PV at this ply (NoMove if the
// current branch has already diverged from it).
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, pvMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), pvMove)
	}
	return scores
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, pvMove board.Move) int {
	score := 0
	if m == pvMove {
		score += PVFollowBonus
	}

	attackerPiece := pos.PieceAt(m.From())
	if attackerPiece == board.NoPiece {
		return score
	}
	attacker := attackerPiece.Type()

	var victim board.PieceType
	switch kind := m.Kind(pos); kind.Tag {
	case board.CaptureKind, board.PromotionCaptureKind:
		victim = kind.Captured.Type()
	case board.EnPassantKind:
		victim = board.Pawn
	default:
		return score
	}

	if victim > board.King || attacker > board.King {
		return score
	}

	return score + mvvLva[victim][attacker]
}

// SortMoves sorts moves by their scores, descending.
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best remaining move starting at index and swaps it
// into place. Lets the search truncate iteration after an early cutoff
// without paying for a full sort.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}
