// Package uci implements the Universal Chess Interface protocol loop that
// drives the engine over stdin/stdout.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chessengine/internal/board"
	"github.com/hailam/chessengine/internal/engine"
)

const currmoveWaitTime = 3000 * time.Millisecond

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	// positionHashes records the Zobrist hash of every ply played so far in
	// the current game, for the engine's repetition-detection history.
	positionHashes []uint64

	debug bool

	searching  bool
	searchDone chan struct{}

	searchStart      time.Time
	currMoveBuffered *engine.SearchInfo
}

// New creates a new UCI protocol handler.
func New(eng *engine.Engine) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
	}
}

// Run starts the UCI main loop, reading commands from stdin until EOF or
// "quit". No stdin (immediate EOF) exits cleanly.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "debug":
			u.handleDebug(args)
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleQuit()
			return
		case "print", "d":
			u.handlePrint()
		case "perft":
			u.handlePerft(args)
		case "eval":
			u.handleEval()
		case "move":
			u.handleMove(args)
		case "setoption", "ponderhit":
			// Parsed and accepted; no configurable options or pondering are
			// implemented, so both are no-ops.
		}
	}
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	fmt.Println("id name Chessengine")
	fmt.Println("id author Chessengine Contributors")
	fmt.Println("uciok")
}

// handleDebug toggles the debug flag per "debug on|off".
func (u *UCI) handleDebug(args []string) {
	if len(args) == 0 {
		return
	}
	u.debug = args[0] == "on"
	board.DebugMoveValidation = u.debug
}

// handleNewGame resets the position to an empty board, per §6.
func (u *UCI) handleNewGame() {
	u.position.Clear()
	u.positionHashes = []uint64{u.position.Hash}
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var moveStart int

	switch args[0] {
	case "startpos":
		u.position = board.NewPosition()
		moveStart = findMoves(args, 1)
	case "fen":
		fenEnd := len(args)
		for i := 1; i < len(args); i++ {
			if args[i] == "moves" {
				fenEnd = i
				break
			}
		}
		fenStr := strings.Trim(strings.Join(args[1:fenEnd], " "), `"`)
		pos, err := board.ParseFEN(fenStr)
		if err != nil {
			fmt.Printf("info string Error parsing FEN: %v\n", err)
			return
		}
		u.position = pos
		moveStart = findMoves(args, fenEnd)
	default:
		return
	}

	// Index the hashes by ply: a FEN position can start at a nonzero ply.
	u.positionHashes = nil
	if u.position.Ply >= 0 {
		u.positionHashes = make([]uint64, u.position.Ply+1)
		u.positionHashes[u.position.Ply] = u.position.Hash
	}

	for _, moveStr := range args[moveStart:] {
		move := u.parseMove(moveStr)
		if move == board.NoMove {
			// Illegal user move: silently ignored, no further moves applied.
			return
		}
		u.position.MakeMove(move)
		u.positionHashes = append(u.positionHashes, u.position.Hash)
	}

	if u.debug {
		fmt.Fprintf(os.Stderr, "info string debug position hash=%016x ply=%d inCheck=%v\n",
			u.position.Hash, u.position.Ply, u.position.InCheck())
	}
}

// findMoves returns the index of the first token following "moves", starting
// the search at from, or len(args) if "moves" is absent.
func findMoves(args []string, from int) int {
	for i := from; i < len(args); i++ {
		if args[i] == "moves" {
			return i + 1
		}
	}
	return len(args)
}

// parseMove converts a UCI long-algebraic move string to a board.Move,
// matching it against the position's legal moves.
func (u *UCI) parseMove(moveStr string) board.Move {
	if len(moveStr) < 4 {
		return board.NoMove
	}

	fromFile := int(moveStr[0] - 'a')
	fromRank := int(moveStr[1] - '1')
	toFile := int(moveStr[2] - 'a')
	toRank := int(moveStr[3] - '1')

	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 ||
		toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return board.NoMove
	}

	from := board.NewSquare(fromFile, fromRank)
	to := board.NewSquare(toFile, toRank)

	var promo board.PieceType
	if len(moveStr) == 5 {
		switch moveStr[4] {
		case 'q':
			promo = board.Queen
		case 'r':
			promo = board.Rook
		case 'b':
			promo = board.Bishop
		case 'n':
			promo = board.Knight
		}
	}

	moves := u.position.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if promo != 0 {
			if m.IsPromotion() && m.Promotion() == promo {
				return m
			}
		} else if !m.IsPromotion() {
			return m
		}
	}

	return board.NoMove
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
	Mate      int
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	if !u.position.HasLegalMoves() {
		fmt.Println("bestmove None")
		return
	}

	opts := u.parseGoOptions(args)

	u.engine.SetPositionHistory(u.positionHashes)

	u.searchStart = time.Now()
	u.currMoveBuffered = nil
	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(info)
	}

	limits := u.calculateLimits(opts)

	u.searching = true
	u.searchDone = make(chan struct{})

	pos := u.position.Copy()

	go func() {
		defer close(u.searchDone)

		bestMove := u.engine.SearchWithLimits(pos, limits)
		u.searching = false

		if bestMove == board.NoMove {
			fmt.Println("bestmove None")
			return
		}
		fmt.Printf("bestmove %s\n", bestMove.String())
	}()
}

// parseGoOptions parses "go" command arguments.
func (u *UCI) parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				n, _ := strconv.ParseUint(args[i+1], 10, 64)
				opts.Nodes = n
				i++
			}
		case "mate":
			if i+1 < len(args) {
				opts.Mate, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits. mate n is
// honored as a depth bound (mate search cannot exceed 2n plies of looking).
func (u *UCI) calculateLimits(opts GoOptions) engine.SearchLimits {
	if opts.Infinite {
		return engine.SearchLimits{Infinite: true}
	}

	uciLimits := engine.UCILimits{
		Depth:     opts.Depth,
		Nodes:     opts.Nodes,
		MoveTime:  opts.MoveTime,
		MovesToGo: opts.MovesToGo,
	}
	if opts.Mate > 0 && (uciLimits.Depth == 0 || opts.Mate*2 < uciLimits.Depth) {
		uciLimits.Depth = opts.Mate * 2
	}
	if opts.MoveTime == 0 {
		uciLimits.Time[board.White] = opts.WTime
		uciLimits.Time[board.Black] = opts.BTime
	}

	return engine.SearchLimits{UCI: uciLimits}
}

// sendInfo outputs search info in UCI format, applying the currmove
// rate-limiting rule from §5: CurrMove messages within the first
// currmoveWaitTime of the search are buffered, and the first one after the
// threshold flushes the buffer. A Full message clears any pending buffer.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	switch info.Kind {
	case engine.InfoCurrMove:
		if time.Since(u.searchStart) < currmoveWaitTime {
			u.currMoveBuffered = &info
			return
		}
		if u.currMoveBuffered != nil {
			u.printCurrMove(*u.currMoveBuffered)
			u.currMoveBuffered = nil
		}
		u.printCurrMove(info)
	case engine.InfoFull:
		u.currMoveBuffered = nil
		u.printFull(info)
	}
}

func (u *UCI) printCurrMove(info engine.SearchInfo) {
	fmt.Printf("info currmove %s currmovenumber %d\n", info.CurrMove.String(), info.CurrMoveNumber)
}

func (u *UCI) printFull(info engine.SearchInfo) {
	var parts []string
	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	parts = append(parts, fmt.Sprintf("seldepth %d", info.SelDepth))
	parts = append(parts, "score "+engine.ScoreToString(info.Score))
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))

	elapsed := time.Duration(info.ElapsedMs) * time.Millisecond
	if elapsed > 0 {
		nps := uint64(float64(info.Nodes) / elapsed.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	parts = append(parts, fmt.Sprintf("time %d", info.ElapsedMs))

	if len(info.PV) > 0 {
		moveStrs := make([]string, len(info.PV))
		for i, m := range info.PV {
			moveStrs[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(moveStrs, " "))
	}

	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for it to finish.
func (u *UCI) handleStop() {
	if u.searching {
		u.engine.Stop()
		<-u.searchDone
	}
}

// handleQuit stops any in-progress search and exits cleanly.
func (u *UCI) handleQuit() {
	u.handleStop()
	os.Exit(0)
}

// handlePrint prints the board, its FEN, and the legal moves in this
// position (in algebraic notation, for human readability), per "print".
func (u *UCI) handlePrint() {
	fmt.Println(u.position.String())
	fmt.Println(u.position.ToFEN())

	legal := u.position.GenerateLegalMoves()
	moves := make([]board.Move, legal.Len())
	for i := 0; i < legal.Len(); i++ {
		moves[i] = legal.Get(i)
	}
	fmt.Println("legal moves:", strings.Join(board.MovesToSAN(u.position, moves), " "))
}

// handleEval prints the static evaluation of the current position.
func (u *UCI) handleEval() {
	fmt.Printf("eval %s\n", engine.ScoreToString(u.engine.Evaluate(u.position)))
}

// handleMove applies a single move to the current position.
func (u *UCI) handleMove(args []string) {
	if len(args) == 0 {
		return
	}
	move := u.parseMove(args[0])
	if move == board.NoMove {
		// Illegal user move: silently ignored, per protocol.
		return
	}
	u.position.MakeMove(move)
	u.positionHashes = append(u.positionHashes, u.position.Hash)
}

// handlePerft runs a divide perft to the given depth.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	var total uint64
	moves := u.position.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := u.position.MakeMove(move)
		var n uint64
		if depth > 1 {
			n = u.engine.Perft(u.position, depth-1)
		} else {
			n = 1
		}
		u.position.UnmakeMove(move, undo)
		total += n
		fmt.Printf("%s: %d\n", move.String(), n)
	}
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", total)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(total) / elapsed.Seconds()
		fmt.Printf("NPS: %.0f\n", nps)
	}
}
