// Package track holds the track analyzers: per-track features computed from
// a track's spots and edges.
package track

import (
	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/model"
)

// feature is one row of an analyzer's declaration table.
type feature struct {
	key       string
	name      string
	shortName string
	dim       model.Dimension
	isInt     bool
}

// declaration implements features.FeatureAnalyzer from a static table.
type declaration struct {
	key      string
	info     string
	features []feature
}

func (d *declaration) Key() string      { return d.key }
func (d *declaration) Name() string     { return d.key }
func (d *declaration) InfoText() string { return d.info }

func (d *declaration) IsManualFeature() bool { return false }

// IsLocal is true for every analyzer here: a track's features only depend
// on that track.
func (d *declaration) IsLocal() bool { return true }

func (d *declaration) Features() []string {
	out := make([]string, len(d.features))
	for i, f := range d.features {
		out[i] = f.key
	}
	return out
}

func (d *declaration) FeatureNames() map[string]string {
	out := make(map[string]string, len(d.features))
	for _, f := range d.features {
		out[f.key] = f.name
	}
	return out
}

func (d *declaration) FeatureShortNames() map[string]string {
	out := make(map[string]string, len(d.features))
	for _, f := range d.features {
		out[f.key] = f.shortName
	}
	return out
}

func (d *declaration) FeatureDimensions() map[string]model.Dimension {
	out := make(map[string]model.Dimension, len(d.features))
	for _, f := range d.features {
		out[f.key] = f.dim
	}
	return out
}

func (d *declaration) IsIntFeature() map[string]bool {
	out := make(map[string]bool, len(d.features))
	for _, f := range d.features {
		out[f.key] = f.isInt
	}
	return out
}

// undefinedAll returns every declared feature set to Undefined.
func (d *declaration) undefinedAll() features.Values {
	out := make(features.Values, len(d.features))
	for _, f := range d.features {
		out[f.key] = features.Undefined
	}
	return out
}
