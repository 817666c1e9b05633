package constants

import "testing"

func TestIsPDF(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"report1.pdf", true},
		{"REPORT.PDF", true},
		{"scan.Pdf", true},
		{"archive.pdf.png", false},
		{"scan2.png", false},
		{"pdf", false},
		{"notes.pdfx", false},
		{".pdf", true},
	}
	for _, tc := range cases {
		if got := IsPDF(tc.name); got != tc.want {
			t.Errorf("IsPDF(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFormatOf(t *testing.T) {
	if got := FormatOf("a.PDF"); got != PDF {
		t.Errorf("FormatOf(a.PDF) = %q, want %q", got, PDF)
	}
	if got := FormatOf("a.jpeg"); got != IMAGE {
		t.Errorf("FormatOf(a.jpeg) = %q, want %q", got, IMAGE)
	}
	if got := FormatOf("noext"); got != IMAGE {
		t.Errorf("FormatOf(noext) = %q, want %q", got, IMAGE)
	}
}

func TestNormalizeExt(t *testing.T) {
	if got := NormalizeExt(".HEIC"); got != "heic" {
		t.Errorf("NormalizeExt(.HEIC) = %q", got)
	}
	if !IsHEICExt(ExtOf("photo.HEIF")) {
		t.Error("expected photo.HEIF to be HEIC")
	}
	if IsHEICExt(ExtOf("photo.png")) {
		t.Error("png is not HEIC")
	}
}
