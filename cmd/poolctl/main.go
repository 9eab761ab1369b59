// Command poolctl is a small CLI demonstrating the memory-pool
// allocator's full lifecycle: open a pool, allocate and release a
// scripted sequence of requests, and print the resulting segment list.
// It is deliberately thin — the library's behavior lives in package
// pool, registry, and inspect; this command only wires them together
// the way an operator would.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"

	"github.com/segmentlab/mempool/config"
	"github.com/segmentlab/mempool/internal/backing"
	"github.com/segmentlab/mempool/pool"
	"github.com/segmentlab/mempool/registry"
)

var (
	app = kingpin.New("poolctl", "Drive a memory-pool allocator through a scripted demo lifecycle.")

	demoCommand = app.Command("demo", "Open a pool, run a scripted allocate/release sequence, print the result.").Default()
	poolSize    = demoCommand.Flag("size", "Backing buffer size in bytes.").Default("100").Uint64()
	policyFlag  = demoCommand.Flag("policy", "Placement policy: first-fit or best-fit.").Default("best-fit").Enum("first-fit", "best-fit")
	mmapFlag    = demoCommand.Flag("mmap", "Acquire the backing buffer via an anonymous mmap instead of the heap.").Bool()
	configPath  = demoCommand.Flag("config", "Load growth tuning from a YAML file instead of using defaults; overrides --mmap.").String()

	allocColor = color.New(color.FgGreen)
	freeColor  = color.New(color.FgYellow)
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := withProfiling(run); err != nil {
		fmt.Fprintln(os.Stderr, "poolctl:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	out := colorable.NewColorableStdout()

	policy := pool.FirstFit
	if *policyFlag == "best-fit" {
		policy = pool.BestFit
	}

	reg := registry.New()

	var (
		h   registry.PoolHandle
		err error
	)

	if *configPath != "" {
		tuning, loadErr := config.Load(*configPath)
		if loadErr != nil {
			return loadErr
		}

		h, err = reg.OpenWithTuning(ctx, *poolSize, policy, tuning)
	} else {
		opts := pool.DefaultOptions()
		opts.Policy = policy

		if *mmapFlag {
			opts.BackingKind = backing.Mmap
		}

		h, err = reg.Open(ctx, *poolSize, opts)
	}

	if err != nil {
		return err
	}

	defer func() {
		if cerr := reg.Close(ctx, h); cerr != nil {
			fmt.Fprintln(os.Stderr, "poolctl: close:", cerr)
		}
	}()

	var live []pool.Handle

	for _, n := range demoScript(*poolSize) {
		ah, err := reg.Allocate(ctx, h, n)
		if err != nil {
			fmt.Fprintf(out, "allocate(%s): %v\n", humanize.Bytes(n), err)
			continue
		}

		live = append(live, ah)
	}

	// release every other allocation to produce a fragmented, partially
	// coalesced pool worth looking at.
	for i := 0; i < len(live); i += 2 {
		if err := reg.Release(ctx, h, live[i]); err != nil {
			return err
		}
	}

	segs, err := reg.Segments(h)
	if err != nil {
		return err
	}

	printSegments(out, segs)

	stats, err := reg.Stats(h)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\ntotal=%s alloc=%s num_allocs=%d num_gaps=%d policy=%s\n",
		humanize.Bytes(stats.TotalSize), humanize.Bytes(stats.AllocSize),
		stats.NumAllocs, stats.NumGaps, stats.Policy)

	pretty, err := reg.Pretty(h)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n--- debug dump ---")
	fmt.Fprintln(out, pretty)

	return nil
}

// demoScript carves size into a handful of requests, the last of which
// is deliberately too large to fit, so a reader sees OUT_OF_SPACE in
// the transcript.
func demoScript(size uint64) []uint64 {
	quarter := size / 4
	if quarter == 0 {
		quarter = 1
	}

	return []uint64{quarter, quarter / 2, quarter, size}
}

func printSegments(out io.Writer, segs []pool.SegmentView) {
	for _, s := range segs {
		line := fmt.Sprintf("[%8d .. %8d) %8s", s.Offset, s.Offset+s.Size, humanize.Bytes(s.Size))

		if s.Allocated {
			allocColor.Fprintln(out, line+" allocated")
		} else {
			freeColor.Fprintln(out, line+" free")
		}
	}
}
