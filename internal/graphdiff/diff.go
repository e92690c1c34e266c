// Package graphdiff compares two graph listings line by line.
package graphdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of change a line represents.
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Line is one line of a diff.
type Line struct {
	Op   Op
	Text string
}

// Result is the line diff of two listings.
type Result struct {
	Lines []Line
}

// Compare diffs oldText against newText by whole lines.
func Compare(oldText, newText string) Result {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var res Result
	for _, d := range diffs {
		op := Equal
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = Insert
		case diffmatchpatch.DiffDelete:
			op = Delete
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			res.Lines = append(res.Lines, Line{Op: op, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return res
}

// Changed reports whether the listings differ.
func (r Result) Changed() bool {
	for _, l := range r.Lines {
		if l.Op != Equal {
			return true
		}
	}
	return false
}

// Stats counts inserted and deleted lines.
func (r Result) Stats() (inserted, deleted int) {
	for _, l := range r.Lines {
		switch l.Op {
		case Insert:
			inserted++
		case Delete:
			deleted++
		}
	}
	return inserted, deleted
}

// Format renders the diff with "+", "-" and " " prefixes, keeping only
// context unchanged lines around each change. A negative context keeps all
// lines. Skipped runs are shown as "@@ N unchanged line(s) @@".
func (r Result) Format(oldName, newName string, context int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", oldName, newName)

	keep := make([]bool, len(r.Lines))
	for i, l := range r.Lines {
		if context < 0 {
			keep[i] = true
			continue
		}
		if l.Op == Equal {
			continue
		}
		for j := max(0, i-context); j <= min(len(r.Lines)-1, i+context); j++ {
			keep[j] = true
		}
	}

	skipped := 0
	flush := func() {
		if skipped > 0 {
			fmt.Fprintf(&b, "@@ %d unchanged line(s) @@\n", skipped)
			skipped = 0
		}
	}
	for i, l := range r.Lines {
		if !keep[i] {
			skipped++
			continue
		}
		flush()
		switch l.Op {
		case Insert:
			b.WriteString("+" + l.Text + "\n")
		case Delete:
			b.WriteString("-" + l.Text + "\n")
		default:
			b.WriteString(" " + l.Text + "\n")
		}
	}
	flush()
	return b.String()
}
