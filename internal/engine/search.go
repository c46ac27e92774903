package engine

import (
	"time"

	"github.com/hailam/chessengine/internal/board"
)

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// Search constants.
const (
	// CHECKMATE is the fixed mate score; actual mate scores are offset by
	// ply so that shorter mates are preferred (-CHECKMATE+ply).
	CHECKMATE = 1_000_000
	// STALEMATE is the score for a drawn (stalemate, repetition, 50-move) position.
	STALEMATE = 0
	// unravelSentinel is returned by a frame that was cancelled mid-search.
	// It must exceed any legitimate score (|score| <= CHECKMATE).
	unravelSentinel = CHECKMATE + 1

	// MaxDepth bounds the triangular PV table and the per-ply stacks.
	MaxDepth = 128

	// nodesPerPoll is how often (in nodes) the stop channel is polled.
	nodesPerPoll = 10000

	// maxQuiescencePly caps quiescence recursion to guard against
	// pathological check-evasion chains.
	maxQuiescencePly = 64

	// bigDelta is the quiescence stand-pat cutoff margin (a queen's value).
	bigDelta = QueenValue

	// deltaMargin is the additional per-move delta-pruning margin in quiescence.
	deltaMargin = 200

	// historyCapacity bounds the repetition-detection hash history. It must
	// hold every ply of the game, not just the search horizon.
	historyCapacity = 1024
)

// isMateScore reports whether score is a legitimate mate score (not the
// unravel sentinel or anything larger).
func isMateScore(score int) bool {
	return score > CHECKMATE-MaxDepth && score <= CHECKMATE
}

// pvTable is the triangular principal-variation table: a single flat buffer
// of MaxDepth*(MaxDepth+1)/2 moves. Row ply begins at rowStart(ply) and holds
// stride(ply) entries; a child's row is hoisted into the parent's row at
// offset +1 on every alpha raise. Row 0, once the iteration completes, is the
// reportable PV.
type pvTable struct {
	moves [MaxDepth * (MaxDepth + 1) / 2]board.Move
}

func rowStart(ply int) int {
	return ply*MaxDepth - ply*(ply-1)/2
}

func stride(ply int) int {
	return MaxDepth - ply
}

// hoist copies the child's PV row (beginning at childIdx) into the parent's
// row at pvIdx+1, stopping at the first NoMove.
func (pv *pvTable) hoist(pvIdx, childIdx int, move board.Move) {
	pv.moves[pvIdx] = move
	for i := 0; ; i++ {
		if pvIdx+1+i >= len(pv.moves) || childIdx+i >= len(pv.moves) {
			break
		}
		m := pv.moves[childIdx+i]
		pv.moves[pvIdx+1+i] = m
		if m == board.NoMove {
			break
		}
	}
}

// line returns the PV starting at row 0, up to the first NoMove.
func (pv *pvTable) line() []board.Move {
	var out []board.Move
	start := rowStart(0)
	for i := 0; i < stride(0); i++ {
		m := pv.moves[start+i]
		if m == board.NoMove {
			break
		}
		out = append(out, m)
	}
	return out
}

// clearRow resets the PV row for ply so stale entries from a previous
// iteration can't leak into the reported line.
func (pv *pvTable) clearRow(ply int) {
	start := rowStart(ply)
	for i := 0; i < stride(ply); i++ {
		pv.moves[start+i] = board.NoMove
	}
}

// controlSignal is sent on the stop/control channel, controller to worker.
type controlSignal int

const (
	// SignalStop cancels the in-progress search.
	SignalStop controlSignal = iota
	// SignalPonderHit is reserved; the core does not implement pondering.
	SignalPonderHit
)

// InfoKind tags the variant of a message sent on the info channel.
type InfoKind int

const (
	// InfoFull reports a completed iteration: depth, seldepth, score,
	// nodes, elapsed time, and PV.
	InfoFull InfoKind = iota
	// InfoCurrMove reports root-move search progress.
	InfoCurrMove
	// InfoDone is sent exactly once, last, carrying the best move (or
	// NoMove if no legal move exists).
	InfoDone
)

// SearchInfo is a message sent from the worker to the controller over the
// info channel. Only the fields relevant to Kind are populated.
type SearchInfo struct {
	Kind InfoKind

	// InfoFull fields.
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	ElapsedMs int64
	PV       []board.Move

	// InfoCurrMove fields.
	CurrMove       board.Move
	CurrMoveNumber int

	// InfoDone fields.
	BestMove board.Move
	HasMove  bool
}

// Searcher runs iterative-deepening negamax over a single position snapshot.
// It is the sole mutator of its Position for the lifetime of one search; the
// controller never shares mutable state with it beyond the two channels.
type Searcher struct {
	pos       *board.Position
	orderer   *MoveOrderer
	pawnTable *PawnTable

	nodes    uint64
	seldepth int

	pv       pvTable
	prevLine []board.Move // previous iteration's full PV, for the follow bonus

	// current_branch[ply] is the move played to reach ply from the root in
	// this iteration's search so far.
	currentBranch [MaxDepth]board.Move

	// history holds Zobrist hashes indexed by ply for repetition detection.
	// Populated from the root's game history up to pos.Ply, then extended
	// by the search itself as it descends.
	history [historyCapacity]uint64

	stopCh  <-chan controlSignal
	infoCh  chan<- SearchInfo
	stopped bool

	// depth is the top-level iteration depth currently in progress; node
	// polling only happens once depth > 1; see §5.
	depth int
}

// NewSearcher creates a searcher. stopCh and infoCh may be nil for
// synchronous use (e.g. tests, perft-style probing) where no cancellation or
// progress reporting is required.
func NewSearcher(stopCh <-chan controlSignal, infoCh chan<- SearchInfo) *Searcher {
	return &Searcher{
		orderer:   NewMoveOrderer(),
		pawnTable: NewPawnTable(1),
		stopCh:    stopCh,
		infoCh:    infoCh,
	}
}

// evaluate scores the current position from the side-to-move's perspective,
// using the searcher's pawn-structure cache.
func (s *Searcher) evaluate() int {
	return EvaluateWithPawnTable(s.pos, s.pawnTable)
}

// SetPositionHistory seeds the repetition-detection history with the hashes
// of every ply played so far in the game, indexed by ply.
func (s *Searcher) SetPositionHistory(hashes []uint64) {
	for i, h := range hashes {
		if i >= len(s.history) {
			break
		}
		s.history[i] = h
	}
}

func (s *Searcher) sendInfo(info SearchInfo) {
	if s.infoCh == nil {
		return
	}
	s.infoCh <- info
}

// pollStop drains the stop channel non-blockingly. Returns true the first
// time a Stop is observed in this search.
func (s *Searcher) pollStop() bool {
	if s.stopped {
		return true
	}
	if s.stopCh == nil {
		return false
	}
	select {
	case sig := <-s.stopCh:
		if sig == SignalStop {
			s.stopped = true
		}
	default:
	}
	return s.stopped
}

// IterativeDeepen runs negamax at increasing depths until stopDepth, a stop
// signal, or a forced mate is found. It always reports the best move from the
// last fully completed iteration.
func (s *Searcher) IterativeDeepen(pos *board.Position, stopDepth int, nodeLimit uint64) {
	s.pos = pos
	s.nodes = 0
	s.stopped = false
	// Drain any stale Stop left over from a previous search.
	if s.stopCh != nil {
		for {
			select {
			case <-s.stopCh:
				continue
			default:
			}
			break
		}
	}

	startTime := nowMs()
	var bestMove board.Move
	haveMove := false

	for depth := 1; depth <= stopDepth; depth++ {
		s.depth = depth
		s.seldepth = 0
		s.pv.clearRow(0)

		score := s.negamax(-CHECKMATE, CHECKMATE, depth, 0, rowStart(0))

		if score >= unravelSentinel || score <= -unravelSentinel {
			// Aborted iteration: its Full info is discarded, and the best
			// move stays whatever the last completed iteration produced.
			break
		}

		line := s.pv.line()
		if len(line) > 0 {
			bestMove = line[0]
			haveMove = true
		}
		s.prevLine = line

		s.sendInfo(SearchInfo{
			Kind:      InfoFull,
			Depth:     depth,
			SelDepth:  s.seldepth,
			Score:     score,
			Nodes:     s.nodes,
			ElapsedMs: nowMs() - startTime,
			PV:        line,
		})

		if s.pollStop() {
			break
		}
		if nodeLimit > 0 && s.nodes >= nodeLimit {
			break
		}
		if isMateScore(score) && CHECKMATE-abs(score) <= depth {
			break
		}
	}

	s.sendInfo(SearchInfo{Kind: InfoDone, BestMove: bestMove, HasMove: haveMove})
}

// negamax implements alpha-beta negamax with a triangular PV and
// sentinel-based cancellation. pvIdx is the offset into the flat PV buffer
// for this frame's row.
func (s *Searcher) negamax(alpha, beta, depth, ply, pvIdx int) int {
	if s.depth > 1 && s.nodes%nodesPerPoll == 0 && s.pollStop() {
		return unravelSentinel
	}
	if ply > s.seldepth {
		s.seldepth = ply
	}

	// Terminal test: 50-move rule.
	if s.pos.HalfMoveClock >= 100 {
		return STALEMATE
	}

	// Terminal test: repetition.
	if s.isRepetition(ply) {
		return STALEMATE
	}

	// Horizon: drop to quiescence.
	if depth == 0 {
		return s.quiescence(alpha, beta, ply)
	}

	moves := s.pos.GeneratePseudoLegalMoves()

	var pvMove board.Move
	if s.followsPV(ply) {
		pvMove = s.prevLine[ply]
	}
	scores := s.orderer.ScoreMoves(s.pos, moves, pvMove)

	inCheck := s.pos.InCheck()
	legalCount := 0

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		prevHash := s.pos.Hash
		prevPly := s.pos.Ply

		undo := s.pos.MakeMove(move)
		if !undo.Valid {
			continue
		}

		// Legality filter: if the side that just moved is now in check,
		// the move was illegal; undo and skip.
		moverSq := s.pos.KingSquare[s.pos.SideToMove.Other()]
		if s.pos.IsSquareAttacked(moverSq, s.pos.SideToMove) {
			s.pos.UnmakeMove(move, undo)
			continue
		}
		legalCount++

		s.currentBranch[ply] = move
		if prevPly < len(s.history) {
			s.history[prevPly] = prevHash
		}

		if ply == 0 {
			s.sendInfo(SearchInfo{Kind: InfoCurrMove, CurrMove: move, CurrMoveNumber: legalCount})
		}

		nextPvIdx := pvIdx + MaxDepth - ply
		score := -s.negamax(-beta, -alpha, depth-1, ply+1, nextPvIdx)

		s.pos.UnmakeMove(move, undo)

		if score >= unravelSentinel || score <= -unravelSentinel {
			return unravelSentinel
		}
		s.nodes++

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
			s.pv.hoist(pvIdx, nextPvIdx, move)
		}
	}

	if legalCount == 0 {
		if inCheck {
			return -CHECKMATE + ply
		}
		return STALEMATE
	}

	return alpha
}

// followsPV reports whether the branch explored so far (current_branch[0:ply])
// matches the previous iteration's PV at every prior ply, and that PV has a
// move defined at ply.
func (s *Searcher) followsPV(ply int) bool {
	if ply >= len(s.prevLine) {
		return false
	}
	for i := 0; i < ply; i++ {
		if s.currentBranch[i] != s.prevLine[i] {
			return false
		}
	}
	return true
}

// isRepetition implements §4.6: the engine draws on the second occurrence of
// the current hash within the irreversible window away from the root
// (ply >= 2, one prior match suffices), and requires two prior occurrences at
// the root, preserving the engine's option not to force a repetition as its
// first action in a winning position. The window is the closed interval
// [last_irreversible_ply, ply] stepped by two, since only same-side plies can
// repeat the same hash.
func (s *Searcher) isRepetition(ply int) bool {
	lip := s.pos.LastIrreversiblePly
	if s.pos.Ply-lip < 4 {
		return false
	}
	threshold := 1
	if ply < 2 {
		threshold = 2
	}
	count := 0
	for p := lip; p <= s.pos.Ply; p += 2 {
		if p < 0 || p >= len(s.history) {
			continue
		}
		if s.history[p] == s.pos.Hash {
			count++
			if count >= threshold {
				return true
			}
		}
	}
	return false
}

// quiescence searches only captures (plus en passant and promotions) past the nominal
// horizon to avoid the tactical blind spot a hard depth cutoff would create.
func (s *Searcher) quiescence(alpha, beta, ply int) int {
	if depthPollsQuiescence(s.depth) && s.nodes%nodesPerPoll == 0 && s.pollStop() {
		return unravelSentinel
	}
	if ply > s.seldepth {
		s.seldepth = ply
	}
	if ply >= maxQuiescencePly {
		return s.evaluate()
	}

	standingPat := s.evaluate()
	if standingPat >= beta {
		return beta
	}
	if standingPat > alpha {
		alpha = standingPat
	}
	if standingPat+bigDelta < alpha {
		return alpha
	}

	captures := s.pos.GenerateCaptures()
	scores := s.orderer.ScoreMoves(s.pos, captures, board.NoMove)

	for i := 0; i < captures.Len(); i++ {
		PickMove(captures, scores, i)
		move := captures.Get(i)

		capturedValue := capturedPieceValue(s.pos, move)

		if SEE(s.pos, move) < 0 {
			continue
		}
		if standingPat+capturedValue+deltaMargin <= alpha {
			continue
		}

		undo := s.pos.MakeMove(move)
		if !undo.Valid {
			continue
		}

		score := -s.quiescence(-beta, -alpha, ply+1)
		s.pos.UnmakeMove(move, undo)

		if score >= unravelSentinel || score <= -unravelSentinel {
			return unravelSentinel
		}
		s.nodes++

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}

// depthPollsQuiescence mirrors negamax's "only when depth > 1" stop-poll
// gate for the top-level iteration depth.
func depthPollsQuiescence(depth int) bool {
	return depth > 1
}

// capturedPieceValue returns the material value of the piece a capture move
// removes, used for quiescence delta pruning.
func capturedPieceValue(pos *board.Position, m board.Move) int {
	if m.IsEnPassant() {
		return PawnValue
	}
	captured := pos.PieceAt(m.To())
	if captured == board.NoPiece {
		return 0
	}
	value := pieceValues[captured.Type()]
	if m.IsPromotion() {
		value += pieceValues[m.Promotion()] - PawnValue
	}
	return value
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
