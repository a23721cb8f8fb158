// Package analyze owns the question lifecycle: validate, fetch the image,
// ask the model, and deliver exactly one outcome per submission. At most one
// request is in flight; a new submission cancels the previous one before it
// takes the slot.
package analyze

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/oukeidos/pressask/internal/apperrors"
	"github.com/oukeidos/pressask/internal/credential"
	"github.com/oukeidos/pressask/internal/gemini"
	"github.com/oukeidos/pressask/internal/logger"
	"github.com/oukeidos/pressask/internal/transport"
)

// Outcome is the single terminal result of a submission. Exactly one Outcome
// arrives on each ticket's channel; Err is nil on success.
type Outcome struct {
	Text string
	Err  error
}

// Ticket identifies a submission and carries its outcome channel.
type Ticket struct {
	ID      string
	Outcome <-chan Outcome
}

// GeneratorFactory builds the model client for one request from the
// credentials resolved at submission time.
type GeneratorFactory func(tr transport.Transport, baseURL, apiKey string) gemini.Generator

func defaultGeneratorFactory(tr transport.Transport, baseURL, apiKey string) gemini.Generator {
	return gemini.NewClient(tr, baseURL, apiKey)
}

type pending struct {
	id      string
	gen     uint64
	cancel  context.CancelFunc
	outcome chan Outcome

	// delivered guards the exactly-once rule; protected by Session.mu.
	delivered bool
}

// Session runs submissions against one resolver and transport.
type Session struct {
	resolver  *credential.Resolver
	transport transport.Transport
	factory   GeneratorFactory

	mu        sync.Mutex
	active    *pending
	activeGen uint64
}

// Option configures a Session.
type Option func(*Session)

// WithGeneratorFactory replaces the model client constructor (tests).
func WithGeneratorFactory(f GeneratorFactory) Option {
	return func(s *Session) { s.factory = f }
}

// NewSession wires a lifecycle session.
func NewSession(resolver *credential.Resolver, tr transport.Transport, opts ...Option) *Session {
	s := &Session{
		resolver:  resolver,
		transport: tr,
		factory:   defaultGeneratorFactory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit starts a question about the image at imageURL. Validation failures
// resolve immediately without touching the network or the in-flight slot;
// otherwise any previous in-flight request is canceled first.
func (s *Session) Submit(imageURL, question, model string) Ticket {
	question = strings.TrimSpace(question)
	if question == "" {
		return immediateTicket(apperrors.EmptyInput(nil))
	}

	resolved := s.resolver.ResolveAPIKey()
	if !resolved.Configured() {
		return immediateTicket(apperrors.Unconfigured(nil))
	}
	baseURL := s.resolver.ResolveBaseURL()

	ctx, cancel := context.WithCancel(context.Background())
	p := &pending{
		id:      uuid.NewString(),
		cancel:  cancel,
		outcome: make(chan Outcome, 1),
	}

	s.mu.Lock()
	if prev := s.active; prev != nil {
		prev.cancel()
		s.deliverLocked(prev, Outcome{Err: apperrors.Canceled(nil)})
	}
	s.activeGen++
	p.gen = s.activeGen
	s.active = p
	s.mu.Unlock()

	logger.Info("Submitting question", "request_id", p.id, "model", model, "source", resolved.Source)

	generator := s.factory(s.transport, baseURL, resolved.APIKey)
	go s.run(ctx, p, generator, imageURL, question, model)

	return Ticket{ID: p.id, Outcome: p.outcome}
}

// Cancel aborts the in-flight request, if any. Idempotent.
func (s *Session) Cancel() {
	s.mu.Lock()
	p := s.active
	if p != nil {
		p.cancel()
		s.deliverLocked(p, Outcome{Err: apperrors.Canceled(nil)})
	}
	s.mu.Unlock()
}

// InFlight reports whether a request currently occupies the slot.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Session) run(ctx context.Context, p *pending, generator gemini.Generator, imageURL, question, model string) {
	defer p.cancel()

	data, mimeType, err := s.transport.FetchBytes(ctx, imageURL)
	if err != nil {
		s.finish(p, Outcome{Err: normalizeErr(ctx, err)})
		return
	}

	answer, err := generator.Generate(ctx, model, gemini.Question{
		Text:      question,
		ImageData: data,
		MIMEType:  mimeType,
	})
	if err != nil {
		s.finish(p, Outcome{Err: normalizeErr(ctx, err)})
		return
	}
	s.finish(p, Outcome{Text: answer})
}

// finish delivers an outcome from the worker goroutine. If the request was
// already canceled or superseded, the late result is dropped.
func (s *Session) finish(p *pending, out Outcome) {
	s.mu.Lock()
	s.deliverLocked(p, out)
	s.mu.Unlock()
}

func (s *Session) deliverLocked(p *pending, out Outcome) {
	if p.delivered {
		return
	}
	p.delivered = true
	p.outcome <- out
	if s.active == p {
		s.active = nil
	}
	if out.Err != nil && !apperrors.IsCanceled(out.Err) {
		logger.Warn("Request failed", "request_id", p.id, "error", apperrors.PublicMessage(out.Err))
	}
}

// normalizeErr folds context cancellation into the canceled kind so a race
// between cancel and a transport failure always reads as a cancel.
func normalizeErr(ctx context.Context, err error) error {
	if ctx.Err() != nil || apperrors.IsCanceled(err) {
		return apperrors.Canceled(ctx.Err())
	}
	return err
}

func immediateTicket(err error) Ticket {
	ch := make(chan Outcome, 1)
	ch <- Outcome{Err: err}
	return Ticket{ID: uuid.NewString(), Outcome: ch}
}
