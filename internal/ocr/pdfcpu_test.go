package ocr

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestTextFromContentStream(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "single Tj",
			stream: "BT\n/F1 12 Tf\n72 720 Td\n(Hello) Tj\nET",
			want:   "Hello",
		},
		{
			name: "lines and TJ kerning",
			stream: "BT /F1 12 Tf 72 720 Td (Patient: Jane Doe) Tj 0 -14 Td (Diagnosis: ) Tj " +
				"[(F) 30 (lu)] TJ T* (Age \\(42\\)) Tj ET",
			want: "Patient: Jane Doe\nDiagnosis: Flu\nAge (42)",
		},
		{
			name:   "wide kerning reads as a space",
			stream: "BT [(Jane) -250 (Doe)] TJ ET",
			want:   "Jane Doe",
		},
		{
			name:   "octal and hex strings",
			stream: "BT (\\101ge) Tj 0 -12 Td <48656C6C6F> Tj <0001> Tj ET",
			want:   "Age\nHello",
		},
		{
			name:   "quote operator starts a new line",
			stream: "BT (first) Tj (second) ' ET",
			want:   "first\nsecond",
		},
		{
			name:   "marked content and comments are skipped",
			stream: "/P <</MCID 0>> BDC % a comment (ignored) Tj\nBT (kept) Tj ET EMC",
			want:   "kept",
		},
		{
			name:   "no text operators",
			stream: "q 1 0 0 1 0 0 cm /Im0 Do Q",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textFromContentStream([]byte(tt.stream)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPdfcpuExtractor_CorruptPDF(t *testing.T) {
	_, err := NewPdfcpuExtractor(nil).ExtractPDFText(context.Background(), []byte("definitely not a pdf"))
	if err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
	if !strings.HasPrefix(err.Error(), "pdfcpu read") {
		t.Errorf("err = %v", err)
	}
}

func TestPdfcpuExtractor_MinimalPDF(t *testing.T) {
	raw := minimalTextPDF("Patient Name: Jane Doe")
	got, err := NewPdfcpuExtractor(nil).ExtractPDFText(context.Background(), raw)
	if err != nil {
		t.Fatalf("ExtractPDFText: %v", err)
	}
	if got != "" && !strings.Contains(got, "Jane Doe") {
		t.Errorf("text = %q", got)
	}
}

// minimalTextPDF builds a one-page PDF with a Helvetica text object and a
// correct xref table.
func minimalTextPDF(text string) []byte {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + r.Replace(text) + ") Tj\nET"

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(b.String())
}
