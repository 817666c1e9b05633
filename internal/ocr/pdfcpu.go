package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PdfcpuExtractor reads the PDF text layer in-process with pdfcpu, for hosts
// without poppler-utils. It only understands simple-font text operators, so
// pdftotext stays the default backend.
type PdfcpuExtractor struct {
	logger *slog.Logger
}

func NewPdfcpuExtractor(logger *slog.Logger) *PdfcpuExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PdfcpuExtractor{logger: logger}
}

// ExtractPDFText walks every page's content stream and collects shown text.
// Pages are separated by a form feed, as pdftotext does.
func (p *PdfcpuExtractor) ExtractPDFText(ctx context.Context, content []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var b strings.Builder
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if pageNr > 1 {
			b.WriteString("\n\f")
		}
		r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
		if err != nil {
			return "", fmt.Errorf("pdfcpu page %d: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("pdfcpu page %d: %w", pageNr, err)
		}
		b.WriteString(textFromContentStream(data))
	}
	p.logger.Debug("pdfcpu.extract.ok", "pages", pctx.PageCount, "text_len", b.Len())
	return b.String(), nil
}

var (
	reRunSpaces  = regexp.MustCompile(`[ \t]{2,}`)
	reSpaceNL    = regexp.MustCompile(` *\n *`)
	reManyBlanks = regexp.MustCompile(`\n{3,}`)
)

// textFromContentStream scans a content stream for the text-showing operators
// (Tj, TJ, ' and ") and turns positioning operators into line breaks.
func textFromContentStream(data []byte) string {
	var (
		out     strings.Builder
		pending []string  // strings shown by the next operator
		nums    []float64 // numeric operands since the last operator
		inArray bool
	)
	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}
	flush := func() {
		for _, s := range pending {
			out.WriteString(s)
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == '(':
			s, n := readLiteral(data[i:])
			pending = append(pending, s)
			i += n
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '<':
			s, n := readHexString(data[i:])
			pending = append(pending, s)
			i += n
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		case isPDFSpace(c) || c == '>' || c == '{' || c == '}' || c == ')':
			i++
		case c == '/':
			i++
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelim(data[i]) {
				i++
			}
		default:
			start := i
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelim(data[i]) {
				i++
			}
			tok := string(data[start:i])
			if v, err := strconv.ParseFloat(tok, 64); err == nil {
				if inArray {
					// large negative kerning inside TJ reads as a word gap
					if v <= -200 && len(pending) > 0 {
						pending = append(pending, " ")
					}
				} else {
					nums = append(nums, v)
				}
				continue
			}
			switch tok {
			case "Tj", "TJ":
				flush()
			case "'", "\"":
				newline()
				flush()
			case "T*", "ET", "Tm":
				newline()
			case "Td", "TD":
				if len(nums) >= 2 && nums[len(nums)-1] != 0 {
					newline()
				} else if out.Len() > 0 {
					out.WriteByte(' ')
				}
			}
			pending = pending[:0]
			nums = nums[:0]
		}
	}

	s := reRunSpaces.ReplaceAllString(out.String(), " ")
	s = reSpaceNL.ReplaceAllString(s, "\n")
	s = reManyBlanks.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// readLiteral decodes a (...) string starting at data[0] and returns it with
// the number of bytes consumed. Bytes map to runes one to one (Latin-1).
func readLiteral(data []byte) (string, int) {
	var sb strings.Builder
	depth := 0
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == '(':
			if depth > 0 {
				sb.WriteByte('(')
			}
			depth++
			i++
		case c == ')':
			depth--
			i++
			if depth == 0 {
				return sb.String(), i
			}
			sb.WriteByte(')')
		case c == '\\' && i+1 < len(data):
			i++
			e := data[i]
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '7'; k++ {
						i++
						val = val*8 + int(data[i]-'0')
					}
					sb.WriteRune(rune(val & 0xff))
				} else {
					sb.WriteByte(e)
				}
			}
			i++
		default:
			if c < 0x80 {
				sb.WriteByte(c)
			} else {
				sb.WriteRune(rune(c))
			}
			i++
		}
	}
	return sb.String(), i
}

// readHexString decodes a <...> string. Multi-byte CID strings that do not
// decode to printable ASCII are dropped.
func readHexString(data []byte) (string, int) {
	end := bytes.IndexByte(data, '>')
	if end < 0 {
		return "", len(data)
	}
	var digits []byte
	for _, c := range data[1:end] {
		if isHexDigit(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	raw := make([]byte, 0, len(digits)/2)
	for k := 0; k < len(digits); k += 2 {
		v, _ := strconv.ParseUint(string(digits[k:k+2]), 16, 8)
		raw = append(raw, byte(v))
	}
	for _, c := range raw {
		if (c < 0x20 && c != '\n' && c != '\t') || c > 0x7e {
			return "", end + 1
		}
	}
	return string(raw), end + 1
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
