//go:build ignore

// generate_testdata.go creates standard track datasets for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/benchmark/small.json   (100 tracks)
//	testdata/benchmark/medium.json  (1000 tracks)
//	testdata/benchmark/large.json   (10000 tracks)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/trackfeat/pkg/loader"
	"github.com/vanderheijden86/trackfeat/pkg/testutil"
)

type datasetSpec struct {
	name   string
	tracks int
	desc   string
}

var datasets = []datasetSpec{
	{"small", 100, "100 short tracks"},
	{"medium", 1000, "1000 tracks with occasional splits"},
	{"large", 10000, "10000 long tracks with splits and singletons"},
}

func main() {
	outputDir := filepath.Join("testdata", "benchmark")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%s)...\n", ds.name, ds.desc)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.tracks) // Reproducible per-size
		cfg.Tracks = ds.tracks
		cfg.SplitChance, cfg.Singletons = splitMix(ds.tracks)
		m := testutil.New(cfg).Model()

		outputPath := filepath.Join(outputDir, ds.name+".json")
		if err := loader.SaveFile(outputPath, m); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s (%d spots, %d edges, %d tracks)\n", outputPath, m.NSpots(), m.NEdges(), m.NTracks())
	}

	fmt.Println("\nDone! Datasets created in", outputDir)
}

func splitMix(tracks int) (float64, int) {
	switch {
	case tracks <= 100:
		return 0, 0
	case tracks <= 1000:
		return 0.02, tracks / 100
	default:
		return 0.05, tracks / 20
	}
}
