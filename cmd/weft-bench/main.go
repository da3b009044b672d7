// weft-bench is a benchmark and stress test for the weft engine. It
// measures sequential and random-position edits, property writes over
// many small spans, and boundary scans across a fragmented interval tree.
package main

import (
	"fmt"
	"math/rand"
	"runtime"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/phroun/weft"
)

// CLI defines the command-line interface for weft-bench.
var CLI struct {
	Chars     int   `name:"chars" help:"Buffer size in characters." default:"1000000"`
	Edits     int   `name:"edits" help:"Number of random edits." default:"10000"`
	Spans     int   `name:"spans" help:"Number of property spans." default:"10000"`
	Seed      int64 `name:"seed" help:"Random seed." default:"1"`
	Threshold int   `name:"balance-threshold" help:"Rebalance threshold (percent)." default:"20"`
}

type benchResult struct {
	name     string
	duration time.Duration
	ops      int
}

func (r benchResult) String() string {
	if r.ops > 0 {
		opsPerSec := float64(r.ops) / r.duration.Seconds()
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.name, r.duration.Round(time.Millisecond), r.ops, opsPerSec)
	}
	return fmt.Sprintf("%-40s %12v", r.name, r.duration.Round(time.Millisecond))
}

func main() {
	kong.Parse(&CLI,
		kong.Name("weft-bench"),
		kong.Description("Benchmark and stress test for the weft text-storage engine."))

	fmt.Println("weft benchmark")
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("Buffer size: %d chars\n\n", CLI.Chars)

	rng := rand.New(rand.NewSource(CLI.Seed))
	registry := weft.NewRegistry(weft.RegistryOptions{BalanceThreshold: CLI.Threshold})
	b := registry.GetBufferCreate("bench")

	// Sequential fill at point.
	chunk := strings.Repeat("abcdefghij\n", 100)
	start := time.Now()
	inserted := 0
	for inserted < CLI.Chars {
		if err := b.InsertAtPoint(chunk); err != nil {
			panic(err)
		}
		inserted += len(chunk)
	}
	report(benchResult{"sequential insert at point", time.Since(start), inserted / len(chunk)})

	// Random-position small edits: gap relocation dominates.
	start = time.Now()
	for i := 0; i < CLI.Edits; i++ {
		pos := 1 + rng.Intn(b.PointMax()-1)
		if err := b.Insert(pos, "x"); err != nil {
			panic(err)
		}
	}
	report(benchResult{"random single-char inserts", time.Since(start), CLI.Edits})

	start = time.Now()
	for i := 0; i < CLI.Edits; i++ {
		pos := 1 + rng.Intn(b.PointMax()-2)
		if err := b.Delete(pos, pos+1); err != nil {
			panic(err)
		}
	}
	report(benchResult{"random single-char deletes", time.Since(start), CLI.Edits})

	// Fragment the interval tree with alternating property spans.
	total := b.PointMax() - 1
	span := total / CLI.Spans
	if span < 1 {
		span = 1
	}
	start = time.Now()
	for i := 0; i < CLI.Spans; i++ {
		s := 1 + i*span
		e := s + span/2
		if e > b.PointMax() {
			break
		}
		if _, err := b.AddTextProperties(s, e, "face", i%7); err != nil {
			panic(err)
		}
	}
	report(benchResult{"property spans added", time.Since(start), CLI.Spans})

	// Scan across every boundary.
	start = time.Now()
	scans := 0
	pos := 1
	for {
		next, ok, err := b.NextPropertyChange(pos)
		if err != nil {
			panic(err)
		}
		if !ok {
			break
		}
		pos = next
		scans++
	}
	report(benchResult{"boundary scan over buffer", time.Since(start), scans})

	// Random property reads, including the end-of-object clamp.
	start = time.Now()
	for i := 0; i < CLI.Edits; i++ {
		pos := 1 + rng.Intn(b.PointMax())
		if _, err := b.TextPropertiesAt(min(pos, b.PointMax())); err != nil {
			panic(err)
		}
	}
	report(benchResult{"random property reads", time.Since(start), CLI.Edits})
}

func report(r benchResult) {
	fmt.Println(r)
}
