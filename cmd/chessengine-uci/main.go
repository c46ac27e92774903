// Command chessengine-uci runs the engine's UCI protocol loop over stdin/stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/hailam/chessengine/internal/bench"
	"github.com/hailam/chessengine/internal/engine"
	"github.com/hailam/chessengine/internal/uci"
)

func main() {
	cpuprofile := flag.String("cpuprofile", "", "write a CPU profile to the given file")
	runBench := flag.Bool("bench", false, "run the fixed benchmark suite and record it instead of entering the UCI loop")
	revision := flag.String("revision", "dev", "engine revision label recorded with -bench")
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	if *runBench {
		runBenchmark(*revision)
		return
	}

	eng := engine.NewEngine()
	protocol := uci.New(eng)
	protocol.Run()
}

func runBenchmark(revision string) {
	store, err := bench.Open()
	if err != nil {
		log.Fatal("bench: opening history store: ", err)
	}
	defer store.Close()

	current, previous, err := bench.Run(store, bench.DefaultSuite, revision, time.Now())
	if err != nil {
		log.Fatal("bench: ", err)
	}
	fmt.Println(bench.FormatComparison(current, previous))
}
