package analyze

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oukeidos/pressask/internal/apperrors"
	"github.com/oukeidos/pressask/internal/config"
	"github.com/oukeidos/pressask/internal/credential"
	"github.com/oukeidos/pressask/internal/gemini"
	"github.com/oukeidos/pressask/internal/transport"
)

var testKey = "AIza" + strings.Repeat("a", 35)

// stubTransport serves canned image bytes and counts calls.
type stubTransport struct {
	mu         sync.Mutex
	fetchCalls int
	data       []byte
	mime       string
	fetchErr   error

	// blockFetch, when set, holds FetchBytes until closed or ctx ends.
	blockFetch chan struct{}
}

func (st *stubTransport) FetchBytes(ctx context.Context, url string) ([]byte, string, error) {
	st.mu.Lock()
	st.fetchCalls++
	block := st.blockFetch
	st.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, "", apperrors.Canceled(ctx.Err())
		}
	}
	if st.fetchErr != nil {
		return nil, "", st.fetchErr
	}
	return st.data, st.mime, nil
}

func (st *stubTransport) Do(ctx context.Context, req transport.Request) (transport.Response, error) {
	return transport.Response{}, nil
}

func (st *stubTransport) calls() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.fetchCalls
}

func newTestSession(t *testing.T, mock *gemini.MockGenerator, st *stubTransport) *Session {
	t.Helper()
	store, err := config.Open(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	resolver := credential.NewResolver(store)
	if err := resolver.SetAPIKey(testKey); err != nil {
		t.Fatal(err)
	}
	factory := func(tr transport.Transport, baseURL, apiKey string) gemini.Generator {
		return mock
	}
	return NewSession(resolver, st, WithGeneratorFactory(factory))
}

func waitOutcome(t *testing.T, ticket Ticket) Outcome {
	t.Helper()
	select {
	case out := <-ticket.Outcome:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}

func TestSubmitSuccess(t *testing.T) {
	st := &stubTransport{data: []byte("img"), mime: "image/jpeg"}
	mock := &gemini.MockGenerator{Answer: "It is a cat."}
	s := newTestSession(t, mock, st)

	ticket := s.Submit("https://example.com/cat.jpg", "  What animal?  ", "gemini-3-flash-preview")
	out := waitOutcome(t, ticket)
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Text != "It is a cat." {
		t.Fatalf("unexpected answer %q", out.Text)
	}
	if ticket.ID == "" {
		t.Fatal("ticket must carry a request id")
	}

	q := mock.LastQuestion()
	if q.Text != "What animal?" {
		t.Fatalf("question not trimmed: %q", q.Text)
	}
	if q.MIMEType != "image/jpeg" || string(q.ImageData) != "img" {
		t.Fatalf("image not forwarded: %+v", q)
	}
	if s.InFlight() {
		t.Fatal("slot should be free after delivery")
	}
}

func TestSubmitEmptyQuestionSkipsTransport(t *testing.T) {
	st := &stubTransport{}
	s := newTestSession(t, &gemini.MockGenerator{}, st)

	out := waitOutcome(t, s.Submit("https://example.com/x.png", "   ", "m"))
	if !apperrors.Is(out.Err, apperrors.KindEmptyInput) {
		t.Fatalf("expected empty_input, got %v", out.Err)
	}
	if st.calls() != 0 {
		t.Fatal("blank question must not touch the network")
	}
}

func TestSubmitUnconfiguredSkipsTransport(t *testing.T) {
	store, err := config.Open(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	st := &stubTransport{}
	s := NewSession(credential.NewResolver(store), st)

	out := waitOutcome(t, s.Submit("https://example.com/x.png", "what?", "m"))
	if !apperrors.Is(out.Err, apperrors.KindUnconfigured) {
		t.Fatalf("expected unconfigured, got %v", out.Err)
	}
	if st.calls() != 0 {
		t.Fatal("unconfigured session must not touch the network")
	}
}

func TestSubmitImageFetchFailure(t *testing.T) {
	st := &stubTransport{fetchErr: apperrors.ImageProcessing(nil)}
	s := newTestSession(t, &gemini.MockGenerator{Answer: "never"}, st)

	out := waitOutcome(t, s.Submit("https://example.com/broken.png", "what?", "m"))
	if !apperrors.Is(out.Err, apperrors.KindImageProcessing) {
		t.Fatalf("expected image_processing, got %v", out.Err)
	}
}

func TestResubmitCancelsPrior(t *testing.T) {
	release := make(chan struct{})
	mock := &gemini.MockGenerator{Answer: "late answer", BlockUntil: release}
	st := &stubTransport{data: []byte("img"), mime: "image/png"}
	s := newTestSession(t, mock, st)

	first := s.Submit("https://example.com/a.png", "first?", "m")
	// Give the first request time to reach the blocked generator.
	deadline := time.Now().Add(time.Second)
	for mock.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	second := s.Submit("https://example.com/b.png", "second?", "m")

	out := waitOutcome(t, first)
	if !apperrors.IsCanceled(out.Err) {
		t.Fatalf("prior request must be canceled, got %v", out.Err)
	}

	close(release)
	out = waitOutcome(t, second)
	if out.Err != nil || out.Text != "late answer" {
		t.Fatalf("replacement request should succeed, got %+v", out)
	}

	// The first ticket got exactly one outcome; the late result is dropped.
	select {
	case extra := <-first.Outcome:
		t.Fatalf("unexpected second outcome on canceled ticket: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelDuringFetch(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	st := &stubTransport{blockFetch: block, data: []byte("img"), mime: "image/png"}
	mock := &gemini.MockGenerator{Answer: "never"}
	s := newTestSession(t, mock, st)

	ticket := s.Submit("https://example.com/a.png", "what?", "m")
	deadline := time.Now().Add(time.Second)
	for st.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	s.Cancel()
	out := waitOutcome(t, ticket)
	if !apperrors.IsCanceled(out.Err) {
		t.Fatalf("expected canceled, got %v", out.Err)
	}
	if s.InFlight() {
		t.Fatal("cancel must free the slot")
	}

	// Idempotent.
	s.Cancel()

	// The generator must never run for a canceled fetch.
	time.Sleep(20 * time.Millisecond)
	if mock.Calls() != 0 {
		t.Fatalf("generator dispatched after cancel: %d calls", mock.Calls())
	}
}

func TestGeneratorErrorKindPassesThrough(t *testing.T) {
	mock := &gemini.MockGenerator{Error: apperrors.New(apperrors.KindInvalidCredential, "", nil)}
	st := &stubTransport{data: []byte("img"), mime: "image/png"}
	s := newTestSession(t, mock, st)

	out := waitOutcome(t, s.Submit("https://example.com/a.png", "what?", "m"))
	if !apperrors.Is(out.Err, apperrors.KindInvalidCredential) {
		t.Fatalf("expected invalid_credential, got %v", out.Err)
	}
}
