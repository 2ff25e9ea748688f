package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/reclaim/pkg/reclaim/cleaner"
	"github.com/jamesainslie/reclaim/pkg/reclaim/dupes"
	"github.com/jamesainslie/reclaim/pkg/reclaim/recovery"
	"github.com/jamesainslie/reclaim/pkg/reclaim/types"
)

// PlainFormatter formats output as simple tab-separated tables. No
// colors or styling are applied, making it suitable for scripting.
type PlainFormatter struct{}

// FormatDuplicates renders a duplicate detection result.
func (f *PlainFormatter) FormatDuplicates(w *bytes.Buffer, r *dupes.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("RECLAIMABLE\tFILES\tKEEP\n")); err != nil {
		return err
	}
	for i := range r.Groups {
		g := &r.Groups[i]
		fmt.Fprintf(tw, "%s\t%d\t%s\n",
			types.FormatSize(g.ReclaimableSize()), len(g.Files), g.Keep().Path)
		for _, cand := range g.RemovalCandidates() {
			fmt.Fprintf(tw, "\t\t- %s\n", cand.Path)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d groups, %s reclaimable\n",
		len(r.Groups), types.FormatSize(r.ReclaimableSize))
	return nil
}

// FormatPlan renders a cleanup plan.
func (f *PlainFormatter) FormatPlan(w *bytes.Buffer, p *cleaner.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("SIZE\tPATH\n")); err != nil {
		return err
	}
	for i := range p.Candidates {
		c := &p.Candidates[i]
		fmt.Fprintf(tw, "%s\t%s\n", c.HumanSize(), c.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d files, %s reclaimable (target: %s)\n",
		len(p.Candidates), types.FormatSize(p.TotalSize), p.Target)
	return nil
}

// FormatRecoveries renders the recovery index listing.
func (f *PlainFormatter) FormatRecoveries(w *bytes.Buffer, entries []recovery.IndexEntry) error {
	if len(entries) == 0 {
		w.WriteString("no recoveries\n")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if _, err := tw.Write([]byte("ID\tCREATED\tSIZE\tITEMS\tRETAIN UNTIL\n")); err != nil {
		return err
	}
	for _, e := range entries {
		status := e.RetentionUntil.Format("2006-01-02 15:04")
		if e.Restored {
			status = "restored"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.Timestamp.Format("2006-01-02 15:04"),
			types.FormatSize(e.TotalSize), e.Items, status)
	}
	return tw.Flush()
}

// FormatManifest renders one full recovery manifest.
func (f *PlainFormatter) FormatManifest(w *bytes.Buffer, m *recovery.Manifest) error {
	fmt.Fprintf(w, "id: %s\ncreated: %s\nsize: %s\nitems: %d\nretain until: %s\n\n",
		m.ID, m.Timestamp.Format("2006-01-02 15:04:05"),
		types.FormatSize(m.TotalSize), len(m.Items),
		m.RetentionUntil.Format("2006-01-02 15:04:05"))

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if _, err := tw.Write([]byte("SIZE\tCATEGORY\tSTATUS\tPATH\n")); err != nil {
		return err
	}
	for i := range m.Items {
		item := &m.Items[i]
		status := "archived"
		if item.RestoredAt != nil {
			status = "restored"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			types.FormatSize(item.Size), item.Category, status, item.OriginalPath)
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
