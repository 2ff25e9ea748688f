package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/reclaim/pkg/reclaim/cleaner"
	"github.com/jamesainslie/reclaim/pkg/reclaim/dupes"
	"github.com/jamesainslie/reclaim/pkg/reclaim/recovery"
)

// JSONFormatter formats output as indented JSON, suitable for piping
// into other tools.
type JSONFormatter struct{}

// FormatDuplicates renders a duplicate detection result.
func (f *JSONFormatter) FormatDuplicates(w *bytes.Buffer, r *dupes.Result) error {
	return encode(w, r)
}

// FormatPlan renders a cleanup plan.
func (f *JSONFormatter) FormatPlan(w *bytes.Buffer, p *cleaner.Plan) error {
	return encode(w, p)
}

// FormatRecoveries renders the recovery index listing.
func (f *JSONFormatter) FormatRecoveries(w *bytes.Buffer, entries []recovery.IndexEntry) error {
	if entries == nil {
		entries = []recovery.IndexEntry{}
	}
	return encode(w, entries)
}

// FormatManifest renders one full recovery manifest.
func (f *JSONFormatter) FormatManifest(w *bytes.Buffer, m *recovery.Manifest) error {
	return encode(w, m)
}

func encode(w *bytes.Buffer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
