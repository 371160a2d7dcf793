package reviewclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cvreview-backend/internal/review"
)

func sseServer(t *testing.T, frames string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/review/stream" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(frames))
	}))
}

func TestStreamDispatchesInOrder(t *testing.T) {
	frames := "event:start\ndata:{\"mode\":\"full\"}\n\n" +
		"event:overall\ndata:{\"tier\":\"Strong\",\"score\":82,\"summary\":\"Solid.\"}\n\n" +
		"event:suggestion\ndata:{\"id\":\"s1\",\"priority\":1,\"sectionId\":\"work\",\"fieldPath\":\"work[0].description\",\"issueType\":\"impact\",\"originalText\":\"Built things.\",\"reason\":\"Vague.\",\"suggestedText\":\"Shipped the compiler.\",\"title\":\"Quantify\",\"status\":\"pending\"}\n\n" +
		"event:complete\ndata:{}\n\n"
	srv := sseServer(t, frames)
	defer srv.Close()

	var got []string
	client := New(srv.URL)
	err := client.Stream(context.Background(), review.Request{Mode: review.ModeFull}, StreamHandlers{
		OnStart:      func(mode review.Mode, _ string) { got = append(got, "start:"+string(mode)) },
		OnOverall:    func(o review.Overall) { got = append(got, "overall:"+string(o.Tier)) },
		OnSuggestion: func(s review.Suggestion) { got = append(got, "suggestion:"+s.ID) },
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	want := []string{"start:full", "overall:Strong", "suggestion:s1"}
	if len(got) != len(want) {
		t.Fatalf("dispatched = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dispatch[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStreamDropsMalformedFrames(t *testing.T) {
	frames := "event:start\ndata:{\"mode\":\"full\"}\n\n" +
		"event:suggestion\ndata:{not json\n\n" +
		"event:mystery\ndata:{}\n\n" +
		"event:complete\ndata:{}\n\n"
	srv := sseServer(t, frames)
	defer srv.Close()

	var suggestions int
	err := New(srv.URL).Stream(context.Background(), review.Request{Mode: review.ModeFull}, StreamHandlers{
		OnSuggestion: func(review.Suggestion) { suggestions++ },
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if suggestions != 0 {
		t.Errorf("malformed suggestion frame was dispatched %d times", suggestions)
	}
}

func TestStreamHandlesTrailingFrame(t *testing.T) {
	// Terminal frame arrives without a closing blank line.
	frames := "event:start\ndata:{\"mode\":\"full\"}\n\nevent:complete\ndata:{}"
	srv := sseServer(t, frames)
	defer srv.Close()

	if err := New(srv.URL).Stream(context.Background(), review.Request{Mode: review.ModeFull}, StreamHandlers{}); err != nil {
		t.Fatalf("Stream: %v", err)
	}
}

func TestStreamErrorFrame(t *testing.T) {
	frames := "event:start\ndata:{\"mode\":\"full\"}\n\n" +
		"event:error\ndata:{\"message\":\"backend failed\",\"details\":[\"timeout\"]}\n\n"
	srv := sseServer(t, frames)
	defer srv.Close()

	err := New(srv.URL).Stream(context.Background(), review.Request{Mode: review.ModeFull}, StreamHandlers{})
	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("err = %v, want StreamError", err)
	}
	if streamErr.Message != "backend failed" || len(streamErr.Details) != 1 {
		t.Errorf("stream error = %+v", streamErr)
	}
}

func TestStreamTruncatedWithoutTerminal(t *testing.T) {
	frames := "event:start\ndata:{\"mode\":\"full\"}\n\n"
	srv := sseServer(t, frames)
	defer srv.Close()

	err := New(srv.URL).Stream(context.Background(), review.Request{Mode: review.ModeFull}, StreamHandlers{})
	if err == nil || !strings.Contains(err.Error(), "terminal frame") {
		t.Fatalf("err = %v, want missing-terminal error", err)
	}
}

func TestStreamContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event:start\ndata:{\"mode\":\"full\"}\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := New(srv.URL).Stream(ctx, review.Request{Mode: review.ModeFull}, StreamHandlers{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context deadline", err)
	}
}

func TestReviewSyncFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/review" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"mode":"full","generatedAt":"2026-02-01T12:00:00Z","overall":{"tier":"Fair","score":60,"summary":"Ok."},"topFixes":[],"bySection":{}}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Review(context.Background(), review.Request{Mode: review.ModeFull})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if resp.Overall.Tier != review.TierFair {
		t.Errorf("tier = %q", resp.Overall.Tier)
	}
}

func TestReviewSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":"not_configured","message":"AI review backend is not configured"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Review(context.Background(), review.Request{Mode: review.ModeFull})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable || apiErr.Code != "not_configured" {
		t.Errorf("api error = %+v", apiErr)
	}
}
