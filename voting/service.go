// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/hirevote/auth"
	"github.com/danielhkuo/hirevote/metrics"
	"github.com/danielhkuo/hirevote/models"
	"github.com/danielhkuo/hirevote/store"
)

// Service implements role registration, vote recording and gated results on
// top of a store.Store. It holds no state of its own.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
	salt    string
}

type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides role id generation, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithEmailSalt sets the salt used to hash voter emails in logs.
func WithEmailSalt(salt string) Option {
	return func(s *Service) { s.salt = salt }
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) voterHash(email string) string {
	return auth.HashEmail(email, s.salt)
}

// fail converts a store error into a service error. Service errors pass
// through untouched; anything unexpected is logged and becomes internal.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return svcErr
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: "role not found", Err: err}
	case errors.Is(err, store.ErrHasVotes):
		return &Error{Kind: KindConflict, Message: "role has recorded votes; mark it as expired instead", Err: err}
	case errors.Is(err, store.ErrExists):
		return &Error{Kind: KindConflict, Message: "role already exists", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindInternal, Message: "request cancelled", Err: err}
	}

	s.logger.ErrorContext(ctx, "storage failure", "op", op, "error", err)
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// progress is the completeness state of one role, derived on every read.
type progress struct {
	received int
	needed   int
}

func (p progress) complete() bool {
	return p.received >= p.needed
}

func (p progress) remaining() int {
	return max(p.needed-p.received, 0)
}

func (s *Service) progressOf(ctx context.Context, role *models.Role) (progress, error) {
	n, err := s.store.CountVotes(ctx, role.ID)
	if err != nil {
		return progress{}, err
	}
	return progress{received: n, needed: role.ExpectedVotes()}, nil
}

// votersFinished counts allowed voters who have voted on every candidate.
func votersFinished(role *models.Role, votes []models.Vote) int {
	if len(role.Candidates) == 0 {
		return 0
	}
	perVoter := make(map[string]int)
	for _, v := range votes {
		if _, ok := role.Candidate(v.CandidateID); ok {
			perVoter[v.Voter]++
		}
	}
	finished := 0
	for _, email := range role.AllowedEmails {
		if perVoter[email] >= len(role.Candidates) {
			finished++
		}
	}
	return finished
}
