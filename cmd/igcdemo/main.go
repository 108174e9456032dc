// Command igcdemo drives a synthetic mutator against the collector so its
// behavior can be observed outside of the test suite: a fixed-size
// ambiguous root full of cons cells, allocated once up front, with
// stats printed after every cycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/movingc/igc"
	"github.com/movingc/igc/api"
	"github.com/movingc/igc/internal/observe"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr, os.Args[1:]))
}

// doMain is separated from main for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, args []string) int {
	flags := flag.NewFlagSet("igcdemo", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	var (
		cells     int
		cycles    int
		nursery   string
		old       string
		verbose   bool
		telemetry bool
	)
	flags.IntVar(&cells, "cells", 2000, "number of live cons cells kept reachable from the stress root")
	flags.IntVar(&cycles, "cycles", 20, "number of OnIdle calls to drive")
	flags.StringVar(&nursery, "nursery", "64 KB", "nursery generation capacity")
	flags.StringVar(&old, "old", "512 KB", "old generation capacity")
	flags.BoolVar(&verbose, "v", false, "log root registration and finalizer events")
	flags.BoolVar(&telemetry, "telemetry", false, "enable the Prometheus telemetry channel")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	cfg, err := igc.NewConfig().WithGenerations(
		igc.GenerationSpec{Name: "nursery", Capacity: nursery, Mortality: 0.8},
		igc.GenerationSpec{Name: "old", Capacity: old, Mortality: 0.4},
	)
	if err != nil {
		fmt.Fprintln(stdErr, "igcdemo:", err)
		return 1
	}
	cfg = cfg.WithTelemetry(telemetry)

	rt, err := igc.Init(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(stdErr, "igcdemo:", err)
		return 1
	}
	defer rt.Close()

	if verbose {
		rt.WithLogging(stdErr, observe.ScopeAll)
	}

	live := make([]uint64, 0, cells)
	for i := 0; i < cells; i++ {
		v, err := rt.MakeCons(api.EncodeFixnum(int64(i)), api.EncodeFixnum(0))
		if err != nil {
			fmt.Fprintln(stdErr, "igcdemo: allocating stress cells:", err)
			return 1
		}
		live = append(live, uint64(v))
	}

	h, err := rt.MemInsert(0, uint64(len(live))*8, live)
	if err != nil {
		fmt.Fprintln(stdErr, "igcdemo: registering stress root:", err)
		return 1
	}
	defer rt.MemDelete(h)

	for i := 0; i < cycles; i++ {
		start := time.Now()
		rt.OnIdle()
		snap := rt.Stats()
		fmt.Fprintf(stdOut, "cycle %2d: took=%v cycles=%d bytesCopied=%d objectsForwarded=%d finalizersDrained=%d\n",
			i, time.Since(start), snap.Cycles, snap.BytesCopied, snap.ObjectsForwarded, snap.FinalizersDrained)
	}

	for _, word := range live {
		if api.Value(word).Tag() != api.TagCons {
			fmt.Fprintln(stdErr, "igcdemo: stress root corrupted after relocation")
			return 1
		}
	}

	fmt.Fprintln(stdOut, "ok:", cells, "cells survived", cycles, "cycles")
	return 0
}
