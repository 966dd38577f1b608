package export

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/metrics"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
)

// WriteJSON writes the feature document for store to w.
func WriteJSON(w io.Writer, store *features.Store, m *trackmodel.Model, batch *features.BatchReport) error {
	defer metrics.Timer(metrics.Export)()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(store, m, batch)); err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	return nil
}

// WriteJSONFile writes the feature document to path.
func WriteJSONFile(path string, store *features.Store, m *trackmodel.Model, batch *features.BatchReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, store, m, batch); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
