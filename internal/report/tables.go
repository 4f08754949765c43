package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
	"github.com/specialistvlad/fragmentgo/internal/traversal"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// newTable builds a bordered table whose listed columns are right aligned.
func newTable(headers []string, numeric ...int) *table.Table {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			}
			return cellStyle
		})
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// Traversal lists traversal records in order.
func Traversal(w io.Writer, l fragment.ChildLookup, records []traversal.FragmentFlow) error {
	t := newTable([]string{"ID", "Dir", "Term", "Magnitude", "Node weight", "Unit", "Fragment"}, 3, 4)
	for _, r := range records {
		t.Row(
			r.Fragment.ID.Short(),
			r.Fragment.Direction().Arrow(),
			Glyph(l, r.Term),
			number(r.Magnitude),
			number(r.NodeWeight),
			r.Fragment.Flow.Unit(),
			r.Fragment.Name,
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Inventory lists net exchanges.
func Inventory(w io.Writer, exchanges []inventory.Exchange) error {
	t := newTable([]string{"Flow", "Direction", "Value", "Unit"}, 2)
	for _, x := range exchanges {
		t.Row(x.Flow.Name, x.Direction.String(), number(x.Value), x.Flow.Unit())
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// LCIA writes one table per result with its components, largest first,
// followed by the total.
func LCIA(w io.Writer, results []*lcia.Result) error {
	for _, res := range results {
		title := res.Quantity.String()
		if res.Scenario != "" {
			title += " / " + res.Scenario
		}
		if _, err := fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
			return err
		}

		t := newTable([]string{"Component", "Score"}, 1)
		for _, c := range res.Contributions() {
			comp, _ := res.Component(c.Key)
			t.Row(label(c.Key, comp.Entity), number(c.Score))
		}
		t.Row("total", number(res.Total()))
		if _, err := fmt.Fprintln(w, t.Render()); err != nil {
			return err
		}
	}
	return nil
}

// label names a result component by its entity where it can.
func label(key string, entity any) string {
	switch e := entity.(type) {
	case traversal.FragmentFlow:
		return e.Fragment.Name
	case *fragment.Fragment:
		return e.Name
	case *inventory.Process:
		return e.Name
	case string:
		return e
	}
	return key
}
