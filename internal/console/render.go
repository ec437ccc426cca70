package console

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"BizDesk/internal/backend"
)

func (c *Console) table(header []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(c.out, "No records found.")
		return
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

func (c *Console) pageFooter(page int, p backend.Pagination) {
	pages := p.Pages
	if pages < 1 {
		pages = 1
	}
	fmt.Fprintf(c.out, "Page %d of %d\n", page, pages)
}

// record prints one loosely typed record as aligned key/value lines
func (c *Console) record(rec backend.Record) {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, k := range slices.Sorted(maps.Keys(rec)) {
		fmt.Fprintf(w, "  %s:\t%s\n", k, c.cell(k, rec[k]))
	}
	w.Flush()
}

// cell renders one value of a loosely typed record
func (c *Console) cell(column string, v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case float64:
		if strings.Contains(strings.ToLower(column), "amount") {
			return c.format.Currency(val)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		if strings.Contains(strings.ToLower(column), "date") {
			if s, err := c.format.DateString(val); err == nil {
				return s
			}
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}
