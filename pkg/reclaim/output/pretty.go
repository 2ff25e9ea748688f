package output

import (
	"bytes"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jamesainslie/reclaim/pkg/reclaim/cleaner"
	"github.com/jamesainslie/reclaim/pkg/reclaim/dupes"
	"github.com/jamesainslie/reclaim/pkg/reclaim/recovery"
	"github.com/jamesainslie/reclaim/pkg/reclaim/types"
)

// PrettyFormatter formats output as styled tables for terminal display.
type PrettyFormatter struct{}

// FormatDuplicates renders a duplicate detection result.
func (f *PrettyFormatter) FormatDuplicates(w *bytes.Buffer, r *dupes.Result) error {
	w.WriteString(TitleStyle.Render("Duplicate Groups") + "\n\n")

	if len(r.Groups) == 0 {
		w.WriteString("No duplicates found.\n")
		return nil
	}

	tw := newTable()
	tw.AppendHeader(table.Row{"RECLAIMABLE", "FILES", "KEEP", "REMOVE"})
	for i := range r.Groups {
		g := &r.Groups[i]
		remove := ""
		for _, cand := range g.RemovalCandidates() {
			if remove != "" {
				remove += "\n"
			}
			remove += cand.Path
		}
		tw.AppendRow(table.Row{
			types.FormatSize(g.ReclaimableSize()),
			len(g.Files),
			g.Keep().Path,
			remove,
		})
	}
	w.WriteString(tw.Render() + "\n\n")

	w.WriteString(SuccessStyle.Render(fmt.Sprintf("%d groups, %s reclaimable",
		len(r.Groups), types.FormatSize(r.ReclaimableSize))) + "\n")
	writeErrors(w, len(r.Errors))
	return nil
}

// FormatPlan renders a cleanup plan.
func (f *PrettyFormatter) FormatPlan(w *bytes.Buffer, p *cleaner.Plan) error {
	w.WriteString(TitleStyle.Render(fmt.Sprintf("Cleanup Preview: %s", p.Target)) + "\n\n")

	if len(p.Candidates) == 0 {
		w.WriteString("Nothing to clean.\n")
		return nil
	}

	tw := newTable()
	tw.AppendHeader(table.Row{"SIZE", "PATH"})
	for i := range p.Candidates {
		c := &p.Candidates[i]
		tw.AppendRow(table.Row{c.HumanSize(), c.Path})
	}
	w.WriteString(tw.Render() + "\n\n")

	w.WriteString(SuccessStyle.Render(fmt.Sprintf("%d files, %s reclaimable",
		len(p.Candidates), types.FormatSize(p.TotalSize))) + "\n")
	writeErrors(w, len(p.Errors))
	return nil
}

// FormatRecoveries renders the recovery index listing.
func (f *PrettyFormatter) FormatRecoveries(w *bytes.Buffer, entries []recovery.IndexEntry) error {
	w.WriteString(TitleStyle.Render("Available Recoveries") + "\n\n")

	if len(entries) == 0 {
		w.WriteString("No recoveries available.\n")
		return nil
	}

	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "CREATED", "SIZE", "ITEMS", "RETAIN UNTIL"})
	for _, e := range entries {
		status := e.RetentionUntil.Format("2006-01-02 15:04")
		if e.Restored {
			status = "restored"
		}
		tw.AppendRow(table.Row{
			e.ID,
			e.Timestamp.Format("2006-01-02 15:04"),
			types.FormatSize(e.TotalSize),
			e.Items,
			status,
		})
	}
	w.WriteString(tw.Render() + "\n")
	return nil
}

// FormatManifest renders one full recovery manifest.
func (f *PrettyFormatter) FormatManifest(w *bytes.Buffer, m *recovery.Manifest) error {
	w.WriteString(TitleStyle.Render("Recovery Details") + "\n\n")
	w.WriteString(LabelStyle.Render("ID: ") + m.ID + "\n")
	w.WriteString(LabelStyle.Render("Created: ") + m.Timestamp.Format("2006-01-02 15:04:05") + "\n")
	w.WriteString(LabelStyle.Render("Size: ") + types.FormatSize(m.TotalSize) + "\n")
	w.WriteString(LabelStyle.Render("Retain until: ") + m.RetentionUntil.Format("2006-01-02 15:04:05") + "\n\n")

	tw := newTable()
	tw.AppendHeader(table.Row{"SIZE", "CATEGORY", "STATUS", "PATH"})
	for i := range m.Items {
		item := &m.Items[i]
		status := "archived"
		if item.RestoredAt != nil {
			status = "restored"
		}
		tw.AppendRow(table.Row{
			types.FormatSize(item.Size),
			item.Category,
			status,
			item.OriginalPath,
		})
	}
	w.WriteString(tw.Render() + "\n")
	return nil
}

// newTable creates a table writer with the shared style.
func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw
}

// writeErrors appends a per-path error summary when a pass reported any.
func writeErrors(w *bytes.Buffer, count int) {
	if count > 0 {
		w.WriteString(WarningStyle.Render(fmt.Sprintf("%d paths could not be read", count)) + "\n")
	}
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
