package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatXLSX     Format = "xlsx"
	FormatJSON     Format = "json"
)

const SheetName = "Summary"

// ParseFormat accepts the ?format= values; empty means html.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatMarkdown, FormatXLSX, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want html, markdown, xlsx or json)", s)
	}
}

// Rendered is a summary ready to be written to a client or file.
type Rendered struct {
	Body        []byte
	ContentType string
	Filename    string // suggested download name; empty for inline formats
}

// Service renders a selected summary artifact into the export formats.
type Service struct {
	md     *converter.Converter
	policy *bluemonday.Policy
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	policy := bluemonday.NewPolicy()
	policy.AllowElements("table", "caption", "thead", "tbody", "tfoot", "tr", "th", "td",
		"p", "br", "b", "strong", "i", "em", "ul", "ol", "li", "h1", "h2", "h3", "h4")
	policy.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("th", "td")

	return &Service{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		policy: policy,
		logger: logger,
	}
}

// Render converts summary into format. FormatHTML returns it byte for byte.
func (s *Service) Render(format Format, summary string) (Rendered, error) {
	start := time.Now()
	var (
		out Rendered
		err error
	)
	switch format {
	case FormatHTML, "":
		out = Rendered{Body: []byte(summary), ContentType: "text/html; charset=utf-8"}
	case FormatMarkdown:
		out, err = s.renderMarkdown(summary)
	case FormatXLSX:
		out, err = s.renderXLSX(summary)
	case FormatJSON:
		out, err = s.renderJSON(summary)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		s.logger.Error("export.render.failed", "format", format, "error", err)
		return Rendered{}, err
	}
	s.logger.Debug("export.render.ok",
		"format", format,
		"bytes", len(out.Body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (s *Service) renderMarkdown(summary string) (Rendered, error) {
	md, err := s.md.ConvertString(s.policy.Sanitize(summary))
	if err != nil {
		return Rendered{}, fmt.Errorf("markdown: %w", err)
	}
	return Rendered{Body: []byte(md), ContentType: "text/markdown; charset=utf-8"}, nil
}

func (s *Service) renderJSON(summary string) (Rendered, error) {
	t, err := ParseTable(s.policy.Sanitize(summary))
	if err != nil {
		return Rendered{}, err
	}
	body, err := json.Marshal(struct {
		Summary string     `json:"summary"`
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}{summary, t.Columns, t.Rows})
	if err != nil {
		return Rendered{}, fmt.Errorf("json: %w", err)
	}
	return Rendered{Body: body, ContentType: "application/json"}, nil
}

func (s *Service) renderXLSX(summary string) (Rendered, error) {
	t, err := ParseTable(s.policy.Sanitize(summary))
	if err != nil {
		return Rendered{}, err
	}
	body, err := WriteXLSX(t)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Body:        body,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Filename:    "summary.xlsx",
	}, nil
}

// WriteXLSX lays t out on a single "Summary" sheet: a bold header row then
// one row per table row.
func WriteXLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	write := func(col, row int, v string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(SheetName, cell, v)
	}
	for i, h := range t.Columns {
		if err := write(i+1, 1, h); err != nil {
			return nil, err
		}
	}
	if len(t.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, bold)
	}
	for r, row := range t.Rows {
		for c, v := range row {
			if err := write(c+1, r+2, v); err != nil {
				return nil, err
			}
		}
	}

	// Widen every used column
	width := len(t.Columns)
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	if width > 0 {
		lastCol, _ := excelize.ColumnNumberToName(width)
		_ = f.SetColWidth(SheetName, "A", lastCol, 20)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
