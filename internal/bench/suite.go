package bench

import (
	"fmt"
	"time"

	"github.com/hailam/chessengine/internal/board"
	"github.com/hailam/chessengine/internal/engine"
)

// Suite is a fixed perft-plus-search workload whose node counts and nps are
// comparable run over run.
type Suite struct {
	Name        string
	PerftFEN    string // "" means the standard starting position
	PerftDepth  int
	SearchFEN   string // "" means the standard starting position
	SearchDepth int
}

// DefaultSuite is the suite the `-bench` CLI flag runs.
var DefaultSuite = Suite{
	Name:        "startpos",
	PerftDepth:  5,
	SearchDepth: 6,
}

func suiteStartPos(fen string) *board.Position {
	if fen == "" {
		return board.NewPosition()
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return board.NewPosition()
	}
	return pos
}

// Run executes suite once against a fresh Engine, persists the result into
// store under {suite name, revision, nodes, elapsed, nps, timestamp}, and
// returns it alongside the immediately preceding run for the same suite, if
// one exists.
func Run(store *Store, suite Suite, revision string, now time.Time) (Run, *Run, error) {
	eng := engine.NewEngine()

	perftStart := time.Now()
	perftNodes := eng.Perft(suiteStartPos(suite.PerftFEN), suite.PerftDepth)
	perftElapsed := time.Since(perftStart)

	var searchNodes uint64
	eng.OnInfo = func(info engine.SearchInfo) {
		if info.Kind == engine.InfoFull {
			searchNodes = info.Nodes
		}
	}
	searchStart := time.Now()
	eng.SearchWithLimits(suiteStartPos(suite.SearchFEN), engine.SearchLimits{
		UCI: engine.UCILimits{Depth: suite.SearchDepth},
	})
	searchElapsed := time.Since(searchStart)

	totalNodes := perftNodes + searchNodes
	totalElapsed := perftElapsed + searchElapsed

	var nps float64
	if totalElapsed > 0 {
		nps = float64(totalNodes) / totalElapsed.Seconds()
	}

	run := Run{
		Suite:     suite.Name,
		Revision:  revision,
		Nodes:     totalNodes,
		Elapsed:   totalElapsed,
		NPS:       nps,
		Timestamp: now,
	}

	previous, err := store.Record(run)
	if err != nil {
		return run, nil, err
	}
	return run, previous, nil
}

// FormatComparison renders current against previous (if any) for display.
func FormatComparison(current Run, previous *Run) string {
	if previous == nil {
		return fmt.Sprintf("bench %s (%s): %d nodes in %v (%.0f nps) — no prior run to compare",
			current.Suite, current.Revision, current.Nodes, current.Elapsed, current.NPS)
	}
	deltaNodes := int64(current.Nodes) - int64(previous.Nodes)
	deltaNPS := current.NPS - previous.NPS
	return fmt.Sprintf("bench %s (%s): %d nodes in %v (%.0f nps) vs %s (%s): %d nodes (%.0f nps) [%+d nodes, %+.0f nps]",
		current.Suite, current.Revision, current.Nodes, current.Elapsed, current.NPS,
		previous.Revision, previous.Timestamp.Format(time.RFC3339), previous.Nodes, previous.NPS,
		deltaNodes, deltaNPS)
}
