package ingest

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

type part struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename == "" {
			if err := mw.WriteField(p.field, p.content); err != nil {
				t.Fatal(err)
			}
			continue
		}
		w, err := mw.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write([]byte(p.content))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/extract_text1", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFromRequest_KeepsFormOrder(t *testing.T) {
	req := multipartRequest(t,
		part{"files", "report1.pdf", "%PDF-1.4 a"},
		part{"other", "ignored.png", "x"},
		part{"files", "scan2.PNG", "png bytes"},
		part{"note", "", "not a file"},
	)
	files, err := FromRequest(req, "files")
	if err != nil {
		t.Fatalf("FromRequest: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Filename)
	}
	if !reflect.DeepEqual(names, []string{"report1.pdf", "scan2.PNG"}) {
		t.Fatalf("names = %v", names)
	}
	if string(files[1].Content) != "png bytes" || len(files[1].HashHex) != 64 {
		t.Errorf("file = %+v", files[1])
	}
}

func TestFromRequest_NoFilesIsEmptyBatch(t *testing.T) {
	files, err := FromRequest(multipartRequest(t, part{"note", "", "hi"}), "files")
	if err != nil || len(files) != 0 {
		t.Fatalf("got %v, %v", files, err)
	}
}

func TestFromRequest_NotMultipartIsEmptyBatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/extract_text1", strings.NewReader(`{"files":[]}`))
	req.Header.Set("Content-Type", "application/json")
	files, err := FromRequest(req, "files")
	if err != nil || len(files) != 0 {
		t.Fatalf("got %v, %v", files, err)
	}
}

func TestFromRequest_TooLarge(t *testing.T) {
	req := multipartRequest(t, part{"files", "big.png", strings.Repeat("x", 4096)})
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 512)

	_, err := FromRequest(req, "files")
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestFromPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "b.pdf")
	b := filepath.Join(dir, "a.png")
	_ = os.WriteFile(a, []byte("pdf"), 0o600)
	_ = os.WriteFile(b, []byte("png"), 0o600)

	files, err := FromPaths([]string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if files[0].Filename != "b.pdf" || files[1].Filename != "a.png" || string(files[1].Content) != "png" {
		t.Errorf("files = %+v", files)
	}
	if _, err := FromPaths([]string{filepath.Join(dir, "missing.pdf")}); err == nil {
		t.Error("missing file accepted")
	}
}

func TestCollectDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"z.pdf", "a.JPG", "notes.txt", ".hidden.png", "sub/c.heic", ".git/d.pdf"} {
		full := filepath.Join(dir, p)
		_ = os.MkdirAll(filepath.Dir(full), 0o755)
		_ = os.WriteFile(full, []byte("x"), 0o600)
	}

	got, err := CollectDirectory(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.JPG"), filepath.Join(dir, "sub", "c.heic"), filepath.Join(dir, "z.pdf")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}

	all, _ := CollectDirectory(dir, false)
	if len(all) != 5 {
		t.Errorf("without skipHidden got %v", all)
	}
}

func TestWatch_EmitsNewDocuments(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "old.pdf")
	_ = os.WriteFile(existing, []byte("x"), 0o600)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := Watch(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true, Debounce: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	if got := next(); got != existing {
		t.Fatalf("initial scan emitted %q", got)
	}

	_ = os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600)
	fresh := filepath.Join(dir, "new.png")
	_ = os.WriteFile(fresh, []byte("x"), 0o600)
	if got := next(); got != fresh {
		t.Fatalf("got %q, want %q", got, fresh)
	}

	cancel()
	for range events {
	}
}
