package grid

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"habitgrid/internal/model"
)

var (
	okGlyph      = color.New(color.FgGreen)
	partialGlyph = color.New(color.FgYellow)
	noGlyph      = color.New(color.FgRed)
	blankGlyph   = color.New(color.Faint)
	header       = color.New(color.Bold)
)

// Glyph is the one-character cell marker for a status.
func Glyph(st model.Status) string {
	switch st {
	case model.StatusOK:
		return okGlyph.Sprint("✓")
	case model.StatusPartial:
		return partialGlyph.Sprint("~")
	case model.StatusNo:
		return noGlyph.Sprint("x")
	default:
		return blankGlyph.Sprint("·")
	}
}

// Render prints the board as two tables: daily habits with one column per
// day, then weekly habits with one column per week.
func Render(w io.Writer, b *Board) {
	days := b.Days()

	_, _ = fmt.Fprintf(w, "%s .. %s\n\n",
		header.Sprint(b.Start().Format("Mon 2006-01-02")),
		header.Sprint(b.End().Format("Mon 2006-01-02")))

	daily := uitable.New()
	daily.Separator = " "
	row := []interface{}{header.Sprint("habit")}
	for i, d := range days {
		// week separator
		label := fmt.Sprintf("%2d", d.Day())
		if i > 0 && i%7 == 0 {
			label = "|" + label
		}
		row = append(row, label)
	}
	daily.AddRow(row...)
	for _, h := range b.DailyHabits() {
		row := []interface{}{h.HabitKey}
		for i, d := range days {
			cell := " " + Glyph(b.Status(h.ID, d))
			if i > 0 && i%7 == 0 {
				cell = " " + cell
			}
			row = append(row, cell)
		}
		daily.AddRow(row...)
	}
	_, _ = fmt.Fprintln(w, daily)

	weekly := b.WeeklyHabits()
	if len(weekly) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)

	tbl := uitable.New()
	tbl.Separator = "  "
	row = []interface{}{header.Sprint("weekly")}
	for i, ws := range b.WeekStarts() {
		row = append(row, fmt.Sprintf("w%d %s", i+1, ws.Format("01-02")))
	}
	tbl.AddRow(row...)
	for _, h := range weekly {
		row := []interface{}{h.HabitKey}
		for i := range b.WeekStarts() {
			mark := Glyph(model.StatusUnmarked)
			if b.WeekDone(h.ID, i) {
				mark = Glyph(model.StatusOK)
			}
			row = append(row, strings.Repeat(" ", 4)+mark)
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(w, tbl)
}
