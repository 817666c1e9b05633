package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	temp := 0.2
	c, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1beta", Temperature: &temp}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"<table>"},{"text":"</table>"}]},"finishReason":"STOP"}]}`))
	})

	got, err := c.Generate(context.Background(), "gemini-1.5-pro-latest", "report\n\ninstruction")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "<table></table>" {
		t.Errorf("got %q", got)
	}
	if gotPath != "/v1beta/models/gemini-1.5-pro-latest:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "report\n\ninstruction" {
		t.Errorf("body = %+v", gotBody)
	}
	if gotBody.GenerationConfig == nil || *gotBody.GenerationConfig.Temperature != 0.2 {
		t.Errorf("generation config = %+v", gotBody.GenerationConfig)
	}
}

func TestGenerate_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	})

	_, err := c.Generate(context.Background(), "m", "p")
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerate_Non2xxWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.Generate(context.Background(), "m", "p")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerate_BlockedPrompt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := c.Generate(context.Background(), "m", "p")
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerate_CandidateWithoutParts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{},"finishReason":"RECITATION"}]}`))
	})

	_, err := c.Generate(context.Background(), "m", "p")
	if err == nil || !strings.Contains(err.Error(), "RECITATION") {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerate_UnexpectedShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":"nope"}`))
	})

	if _, err := c.Generate(context.Background(), "m", "p"); err == nil {
		t.Fatal("expected decode error")
	}
}
