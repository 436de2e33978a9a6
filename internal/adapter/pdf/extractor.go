// Package pdf reads busy intervals out of a timetable PDF. Only the text
// layer is used; scanned timetables yield nothing.
package pdf

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"rsc.io/pdf"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

// Extractor implements domain.ExtractionProvider.
type Extractor struct{}

var _ domain.ExtractionProvider = Extractor{}

func New() Extractor { return Extractor{} }

func (Extractor) Extract(ctx context.Context, document []byte) ([]domain.BusyInterval, []string, error) {
	text, err := readText(ctx, document)
	if err != nil {
		return nil, nil, err
	}
	intervals, warnings := ParseTimetable(text)
	slog.DebugContext(ctx, "Timetable extracted",
		"chars", len(text),
		"intervals", len(intervals),
		"warnings", len(warnings))
	return intervals, warnings, nil
}

// readText returns the document's text with one line per visual row.
func readText(ctx context.Context, document []byte) (text string, err error) {
	// rsc.io/pdf panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: malformed document: %v", r)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, line := range pageLines(page.Content().Text) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// pageLines groups text runs by baseline, top to bottom, left to right.
func pageLines(runs []pdf.Text) []string {
	runs = slices.DeleteFunc(slices.Clone(runs), func(t pdf.Text) bool { return t.S == "" })
	slices.SortStableFunc(runs, func(a, b pdf.Text) int {
		if ay, by := math.Round(a.Y), math.Round(b.Y); ay != by {
			return cmp.Compare(by, ay)
		}
		return cmp.Compare(a.X, b.X)
	})

	var lines []string
	var cur strings.Builder
	lastY := math.NaN()
	lastEnd := 0.0
	for _, r := range runs {
		y := math.Round(r.Y)
		if y != lastY && cur.Len() > 0 {
			lines = append(lines, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		// runs are often single glyphs; only a visible gap is a space
		if cur.Len() > 0 && r.X-lastEnd > r.FontSize*0.2 {
			cur.WriteByte(' ')
		}
		cur.WriteString(r.S)
		lastY = y
		lastEnd = r.X + r.W
	}
	if cur.Len() > 0 {
		lines = append(lines, strings.TrimSpace(cur.String()))
	}
	return lines
}
