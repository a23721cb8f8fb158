package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oukeidos/pressask/internal/apperrors"
)

// Minimal valid PNG header bytes so content sniffing has something real.
var pngBytes = []byte("\x89PNG\r\n\x1a\n" + "0000000000000000")

func TestFetchBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer server.Close()

	tr := NewHTTPTransport(server.Client())
	data, mime, err := tr.FetchBytes(context.Background(), server.URL+"/cat.png")
	if err != nil {
		t.Fatalf("FetchBytes failed: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("expected image/png, got %q", mime)
	}
	if string(data) != string(pngBytes) {
		t.Fatal("body mismatch")
	}
}

func TestFetchBytesSniffsMissingContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Force an absent Content-Type so detection has to kick in.
		w.Header()["Content-Type"] = nil
		w.Write(pngBytes)
	}))
	defer server.Close()

	tr := NewHTTPTransport(server.Client())
	_, mime, err := tr.FetchBytes(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchBytes failed: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("expected sniffed image/png, got %q", mime)
	}
}

func TestFetchBytesErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	tr := NewHTTPTransport(server.Client())
	_, _, err := tr.FetchBytes(context.Background(), server.URL)
	if !apperrors.Is(err, apperrors.KindImageProcessing) {
		t.Fatalf("expected image_processing error, got %v", err)
	}
}

func TestFetchBytesCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := NewHTTPTransport(server.Client())
	_, _, err := tr.FetchBytes(ctx, server.URL)
	if !apperrors.IsCanceled(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
}

func TestDoReturnsErrorStatusAsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"nope"}}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(server.Client())
	resp, err := tr.Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     server.URL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("Do should not error on HTTP error statuses: %v", err)
	}
	if resp.Status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Status)
	}
	if len(resp.Body) == 0 {
		t.Fatal("expected error body to be preserved")
	}
}

func TestDoNetworkFailure(t *testing.T) {
	tr := NewHTTPTransport(nil)
	_, err := tr.Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    "http://invalid.url.local",
	})
	if !apperrors.Is(err, apperrors.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestDoSetsHeadersAndBody(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	tr := NewHTTPTransport(server.Client())
	resp, err := tr.Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     server.URL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Status)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type not forwarded: %q", gotContentType)
	}
	if string(gotBody) != `{"a":1}` {
		t.Fatalf("body not forwarded: %q", gotBody)
	}
}
