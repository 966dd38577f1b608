package datasource

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
)

// SourceDiff represents differences between two track models
type SourceDiff struct {
	// SourceA is the label of the first source
	SourceA string
	// SourceB is the label of the second source
	SourceB string
	// MissingInA contains spot IDs present in B but not in A
	MissingInA []int
	// MissingInB contains spot IDs present in A but not in B
	MissingInB []int
	// FeatureMismatch contains spot features that differ between sources
	FeatureMismatch []FeatureDifference
	// MissingEdgesInA contains links present in B but not in A, as sorted
	// (lower ID, higher ID) pairs
	MissingEdgesInA []EdgeKey
	// MissingEdgesInB contains links present in A but not in B
	MissingEdgesInB []EdgeKey
	// EdgeCountA and EdgeCountB are the number of links in each source
	EdgeCountA, EdgeCountB int
	// CountA is the number of spots in source A
	CountA int
	// CountB is the number of spots in source B
	CountB int
}

// EdgeKey identifies a link independently of its direction.
type EdgeKey struct {
	Low, High int
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%d-%d", k.Low, k.High)
}

// FeatureDifference represents a feature mismatch for a single spot
type FeatureDifference struct {
	SpotID  int     `json:"spot_id"`
	Feature string  `json:"feature"`
	ValueA  float64 `json:"value_a"`
	ValueB  float64 `json:"value_b"`
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 ||
		len(d.FeatureMismatch) > 0 || d.EdgeCountA != d.EdgeCountB ||
		len(d.MissingEdgesInA) > 0 || len(d.MissingEdgesInB) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d spots each)", d.CountA)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		fmt.Fprintf(&sb, "  - Spot count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	if d.EdgeCountA != d.EdgeCountB {
		fmt.Fprintf(&sb, "  - Edge count mismatch: %d vs %d\n", d.EdgeCountA, d.EdgeCountB)
	}
	if len(d.MissingInA) > 0 {
		fmt.Fprintf(&sb, "  - %d spots in %s but not %s\n", len(d.MissingInA), d.SourceB, d.SourceA)
	}
	if len(d.MissingInB) > 0 {
		fmt.Fprintf(&sb, "  - %d spots in %s but not %s\n", len(d.MissingInB), d.SourceA, d.SourceB)
	}
	writeEdges(&sb, d.MissingEdgesInA, d.SourceB, d.SourceA)
	writeEdges(&sb, d.MissingEdgesInB, d.SourceA, d.SourceB)
	if len(d.FeatureMismatch) > 0 {
		fmt.Fprintf(&sb, "  - %d feature mismatches\n", len(d.FeatureMismatch))
		for i, fd := range d.FeatureMismatch {
			if i == 5 {
				sb.WriteString("    ...\n")
				break
			}
			fmt.Fprintf(&sb, "    - spot %d %s: %g vs %g\n", fd.SpotID, fd.Feature, fd.ValueA, fd.ValueB)
		}
	}
	return sb.String()
}

func writeEdges(sb *strings.Builder, edges []EdgeKey, in, notIn string) {
	if len(edges) == 0 {
		return
	}
	fmt.Fprintf(sb, "  - %d links in %s but not %s\n", len(edges), in, notIn)
	for i, e := range edges {
		if i == 5 {
			sb.WriteString("    ...\n")
			break
		}
		fmt.Fprintf(sb, "    - %s\n", e)
	}
}

// DiffOptions configures comparison behavior
type DiffOptions struct {
	// Tolerance is the absolute difference below which feature values match
	Tolerance float64
	// MaxMismatches caps FeatureMismatch; 0 means unlimited
	MaxMismatches int
}

// DefaultDiffOptions returns sensible defaults for comparison
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{Tolerance: 1e-9, MaxMismatches: 100}
}

// DetectInconsistencies compares two models spot by spot
func DetectInconsistencies(a, b *trackmodel.Model, labelA, labelB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{
		SourceA:    labelA,
		SourceB:    labelB,
		CountA:     a.NSpots(),
		CountB:     b.NSpots(),
		EdgeCountA: a.NEdges(),
		EdgeCountB: b.NEdges(),
	}

	for _, sa := range a.Spots() {
		sb := b.Spot(sa.ID)
		if sb == nil {
			diff.MissingInB = append(diff.MissingInB, sa.ID)
			continue
		}
		fa, fb := sa.Features(), sb.Features()
		keys := make(map[string]struct{}, len(fa)+len(fb))
		for k := range fa {
			keys[k] = struct{}{}
		}
		for k := range fb {
			keys[k] = struct{}{}
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)

		for _, k := range sorted {
			va, okA := fa[k]
			vb, okB := fb[k]
			if okA && okB && math.Abs(va-vb) <= opts.Tolerance {
				continue
			}
			if !okA {
				va = math.NaN()
			}
			if !okB {
				vb = math.NaN()
			}
			if opts.MaxMismatches > 0 && len(diff.FeatureMismatch) >= opts.MaxMismatches {
				break
			}
			diff.FeatureMismatch = append(diff.FeatureMismatch, FeatureDifference{
				SpotID: sa.ID, Feature: k, ValueA: va, ValueB: vb,
			})
		}
	}
	for _, sb := range b.Spots() {
		if a.Spot(sb.ID) == nil {
			diff.MissingInA = append(diff.MissingInA, sb.ID)
		}
	}

	edgesA, edgesB := edgeSet(a), edgeSet(b)
	diff.MissingEdgesInB = missingEdges(edgesA, edgesB)
	diff.MissingEdgesInA = missingEdges(edgesB, edgesA)
	return diff
}

// CompareSources loads both sources and compares them
func CompareSources(sourceA, sourceB DataSource, opts DiffOptions) (*SourceDiff, error) {
	a, err := Load(sourceA)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", sourceA.Path, err)
	}
	b, err := Load(sourceB)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", sourceB.Path, err)
	}
	diff := DetectInconsistencies(a, b, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

func edgeSet(m *trackmodel.Model) map[EdgeKey]struct{} {
	set := make(map[EdgeKey]struct{}, m.NEdges())
	for _, e := range m.Edges() {
		k := EdgeKey{Low: e.Source.ID, High: e.Target.ID}
		if k.Low > k.High {
			k.Low, k.High = k.High, k.Low
		}
		set[k] = struct{}{}
	}
	return set
}

// missingEdges returns the keys of from that to lacks, sorted.
func missingEdges(from, to map[EdgeKey]struct{}) []EdgeKey {
	var out []EdgeKey
	for k := range from {
		if _, ok := to[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Low != out[j].Low {
			return out[i].Low < out[j].Low
		}
		return out[i].High < out[j].High
	})
	return out
}
