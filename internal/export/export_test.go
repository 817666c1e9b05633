package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const summary = `<table>
<tr><th>Patient Name</th><th>Age</th><th>Gender</th><th>Diagnosis</th></tr>
<tr><td>Jane <b>Doe</b></td><td>34</td><td>Female</td><td>Acute
  bronchitis</td></tr>
<tr><td>John Roe</td><td>51</td></tr>
</table>`

func TestParseTable(t *testing.T) {
	got, err := ParseTable(summary)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	want := Table{
		Columns: []string{"Patient Name", "Age", "Gender", "Diagnosis"},
		Rows: [][]string{
			{"Jane Doe", "34", "Female", "Acute bronchitis"},
			{"John Roe", "51", "", ""},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestParseTable_TheadAndTbody(t *testing.T) {
	got, err := ParseTable("Here you go:\n<table><thead><tr><th>A</th></tr></thead><tbody><tr><td>1</td></tr><tr><td>2</td></tr></tbody></table>")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Columns, []string{"A"}) || len(got.Rows) != 2 || got.Rows[1][0] != "2" {
		t.Errorf("got %+v", got)
	}
}

func TestParseTable_NoTable(t *testing.T) {
	for _, in := range []string{"", "Patient Name: Jane", "<table></table>"} {
		if _, err := ParseTable(in); !errors.Is(err, ErrNoTable) {
			t.Errorf("ParseTable(%q) err = %v", in, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatHTML, "HTML": FormatHTML, "md": FormatMarkdown, "markdown": FormatMarkdown, "xlsx": FormatXLSX, "json": FormatJSON}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("pdf accepted")
	}
}

func TestRender_HTMLIsVerbatim(t *testing.T) {
	in := "```html\n<table><tr><td>x</td></tr></table>\n```"
	out, err := NewService(nil).Render(FormatHTML, in)
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Body) != in || !strings.HasPrefix(out.ContentType, "text/html") {
		t.Errorf("out = %q %q", out.Body, out.ContentType)
	}
}

func TestRender_Markdown(t *testing.T) {
	out, err := NewService(nil).Render(FormatMarkdown, `<script>alert(1)</script>`+summary)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	md := string(out.Body)
	for _, want := range []string{"Patient Name", "Jane", "John Roe", "|"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "<table") || strings.Contains(md, "alert") {
		t.Errorf("markup leaked into markdown:\n%s", md)
	}
}

func TestRender_JSON(t *testing.T) {
	out, err := NewService(nil).Render(FormatJSON, summary)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var got struct {
		Summary string     `json:"summary"`
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}
	if err := json.Unmarshal(out.Body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Summary != summary || len(got.Columns) != 4 || len(got.Rows) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestRender_XLSX(t *testing.T) {
	out, err := NewService(nil).Render(FormatXLSX, summary)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Filename != "summary.xlsx" {
		t.Errorf("filename = %q", out.Filename)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out.Body))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "Patient Name" || rows[1][3] != "Acute bronchitis" || rows[2][0] != "John Roe" {
		t.Errorf("rows = %v", rows)
	}
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Errorf("sheets = %v", sheets)
	}
}

func TestRender_TableFormatsNeedATable(t *testing.T) {
	s := NewService(nil)
	for _, f := range []Format{FormatJSON, FormatXLSX} {
		if _, err := s.Render(f, "I could not find any patient details."); !errors.Is(err, ErrNoTable) {
			t.Errorf("%s: err = %v", f, err)
		}
	}
}
