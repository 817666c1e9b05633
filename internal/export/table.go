package export

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoTable means the summary contains no <table> element.
var ErrNoTable = errors.New("no <table> found in summary")

// Table is the first HTML table of a summary, flattened to text cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ParseTable reads the first <table> of s. Header cells come from the first
// row; short rows are padded to the header width.
func ParseTable(s string) (Table, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return Table{}, err
	}
	tbl := findFirst(doc, atom.Table)
	if tbl == nil {
		return Table{}, ErrNoTable
	}

	var rows [][]string
	collectRows(tbl, &rows)
	if len(rows) == 0 {
		return Table{}, ErrNoTable
	}

	t := Table{Columns: rows[0], Rows: [][]string{}}
	for _, r := range rows[1:] {
		for len(r) < len(t.Columns) {
			r = append(r, "")
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// collectRows walks thead/tbody/tfoot in document order without entering
// nested tables.
func collectRows(n *html.Node, rows *[][]string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Tr:
			var cells []string
			for td := c.FirstChild; td != nil; td = td.NextSibling {
				if td.Type == html.ElementNode && (td.DataAtom == atom.Td || td.DataAtom == atom.Th) {
					cells = append(cells, cellText(td))
				}
			}
			if len(cells) > 0 {
				*rows = append(*rows, cells)
			}
		case atom.Thead, atom.Tbody, atom.Tfoot:
			collectRows(c, rows)
		}
	}
}

func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
