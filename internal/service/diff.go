package service

import (
	"fmt"
	"strings"

	"ideaboard/internal/models"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	ViewUnified = "unified"
	ViewSplit   = "split"

	defaultContextLines = 3
)

type DiffOp string

const (
	OpEqual  DiffOp = "equal"
	OpInsert DiffOp = "insert"
	OpDelete DiffOp = "delete"
)

// DiffLine is one rendered line. OldLine/NewLine are 1-based and zero when the
// line does not exist on that side.
type DiffLine struct {
	Op      DiffOp `json:"op"`
	Text    string `json:"text"`
	OldLine int    `json:"old_line,omitempty"`
	NewLine int    `json:"new_line,omitempty"`
}

// SplitRow pairs a baseline line with a candidate line for side-by-side views.
type SplitRow struct {
	Old *DiffLine `json:"old,omitempty"`
	New *DiffLine `json:"new,omitempty"`
}

type DiffStats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

type DiffOptions struct {
	View          string
	Context       int
	BaselineName  string
	CandidateName string
}

// DefaultDiffOptions is a unified view with three lines of context.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{View: ViewUnified, Context: defaultContextLines}
}

type RenderedDiff struct {
	View    string     `json:"view"`
	Unified string     `json:"unified"`
	Lines   []DiffLine `json:"lines,omitempty"`
	Rows    []SplitRow `json:"rows,omitempty"`
	Stats   DiffStats  `json:"stats"`
}

// DiffRenderer turns a DiffInput into line-level diff output.
type DiffRenderer struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

func NewDiffRenderer() *DiffRenderer {
	return &DiffRenderer{dmp: diffmatchpatch.New()}
}

// Render diffs the two texts line by line.
func (r *DiffRenderer) Render(in models.DiffInput, opts DiffOptions) RenderedDiff {
	if opts.View != ViewSplit {
		opts.View = ViewUnified
	}
	if opts.Context < 0 {
		opts.Context = 0
	}
	if opts.BaselineName == "" {
		opts.BaselineName = "baseline"
	}
	if opts.CandidateName == "" {
		opts.CandidateName = "candidate"
	}

	lines := r.diffLines(in.BaselineText, in.CandidateText)

	out := RenderedDiff{View: opts.View}
	for _, l := range lines {
		switch l.Op {
		case OpInsert:
			out.Stats.Added++
		case OpDelete:
			out.Stats.Removed++
		}
	}
	out.Unified = unified(lines, opts)
	if opts.View == ViewSplit {
		out.Rows = splitRows(lines)
	} else {
		out.Lines = lines
	}
	return out
}

func (r *DiffRenderer) diffLines(oldText, newText string) []DiffLine {
	a, b, table := r.dmp.DiffLinesToChars(oldText, newText)
	diffs := r.dmp.DiffCharsToLines(r.dmp.DiffMain(a, b, false), table)

	var out []DiffLine
	oldNo, newNo := 0, 0
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			line := DiffLine{Text: text}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldNo++
				newNo++
				line.Op, line.OldLine, line.NewLine = OpEqual, oldNo, newNo
			case diffmatchpatch.DiffDelete:
				oldNo++
				line.Op, line.OldLine = OpDelete, oldNo
			case diffmatchpatch.DiffInsert:
				newNo++
				line.Op, line.NewLine = OpInsert, newNo
			}
			out = append(out, line)
		}
	}
	return out
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.SplitAfter(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\n")
	}
	return parts
}

// unified formats lines as a unified diff with opts.Context lines around each change.
func unified(lines []DiffLine, opts DiffOptions) string {
	var changed []int
	for i, l := range lines {
		if l.Op != OpEqual {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", opts.BaselineName, opts.CandidateName)

	start := 0
	for start < len(changed) {
		end := start
		for end+1 < len(changed) && changed[end+1]-changed[end] <= 2*opts.Context+1 {
			end++
		}
		lo := max(changed[start]-opts.Context, 0)
		hi := min(changed[end]+opts.Context, len(lines)-1)
		writeHunk(&sb, lines, lo, hi)
		start = end + 1
	}
	return sb.String()
}

func writeHunk(sb *strings.Builder, lines []DiffLine, lo, hi int) {
	oldBefore, newBefore := 0, 0
	for _, l := range lines[:lo] {
		if l.Op != OpInsert {
			oldBefore++
		}
		if l.Op != OpDelete {
			newBefore++
		}
	}
	oldCount, newCount := 0, 0
	for _, l := range lines[lo : hi+1] {
		if l.Op != OpInsert {
			oldCount++
		}
		if l.Op != OpDelete {
			newCount++
		}
	}
	oldStart, newStart := oldBefore+1, newBefore+1
	if oldCount == 0 {
		oldStart = oldBefore
	}
	if newCount == 0 {
		newStart = newBefore
	}

	fmt.Fprintf(sb, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
	for _, l := range lines[lo : hi+1] {
		prefix := " "
		switch l.Op {
		case OpInsert:
			prefix = "+"
		case OpDelete:
			prefix = "-"
		}
		sb.WriteString(prefix)
		sb.WriteString(l.Text)
		sb.WriteString("\n")
	}
}

// splitRows pairs each run of deletions with the insertions that follow it.
func splitRows(lines []DiffLine) []SplitRow {
	var rows []SplitRow
	for i := 0; i < len(lines); {
		if lines[i].Op == OpEqual {
			l := lines[i]
			rows = append(rows, SplitRow{Old: &l, New: &l})
			i++
			continue
		}
		var dels, ins []DiffLine
		for i < len(lines) && lines[i].Op == OpDelete {
			dels = append(dels, lines[i])
			i++
		}
		for i < len(lines) && lines[i].Op == OpInsert {
			ins = append(ins, lines[i])
			i++
		}
		for j := 0; j < max(len(dels), len(ins)); j++ {
			var row SplitRow
			if j < len(dels) {
				row.Old = &dels[j]
			}
			if j < len(ins) {
				row.New = &ins[j]
			}
			rows = append(rows, row)
		}
	}
	return rows
}
