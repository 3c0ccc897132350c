// Package chat runs one conversational turn: read the user's history, answer
// through the agent engine, and record the exchange.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krishg0kul/genai-multi-agent/agent"
	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/krishg0kul/genai-multi-agent/memory"
	"github.com/rs/zerolog/log"
)

// ErrEmptyMessage is returned for a blank message. Its text is what HTTP
// clients see.
var ErrEmptyMessage = errors.Sentinel("Message is required")

// Orchestrator answers a query given the conversation so far.
type Orchestrator interface {
	Process(ctx context.Context, query string, history agent.History) agent.FinalResult
}

// Observer is told how each turn ended.
type Observer interface {
	ChatFinished(status string, elapsed time.Duration)
}

type Service struct {
	engine        Orchestrator
	store         memory.Store
	locks         *memory.Locker
	historyWindow int
	obs           Observer
}

type Option func(*Service)

// WithHistoryWindow limits the history passed to the engine to the last n
// entries. n <= 0 passes everything.
func WithHistoryWindow(n int) Option {
	return func(s *Service) { s.historyWindow = n }
}

func WithObserver(obs Observer) Option {
	return func(s *Service) { s.obs = obs }
}

func NewService(engine Orchestrator, store memory.Store, opts ...Option) *Service {
	s := &Service{engine: engine, store: store, locks: memory.NewLocker()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle answers message for userID. An empty userID means the default user.
// Turns for the same user are serialized so each one sees the previous
// turn's exchange in its history.
func (s *Service) Handle(ctx context.Context, userID, message string) (res agent.FinalResult, err error) {
	start := time.Now()
	defer func() {
		if s.obs != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			s.obs.ChatFinished(status, time.Since(start))
		}
	}()

	message = strings.TrimSpace(message)
	if message == "" {
		return agent.FinalResult{}, ErrEmptyMessage
	}
	userID, err = memory.NormalizeUserID(userID)
	if err != nil {
		return agent.FinalResult{}, err
	}

	logger := log.With().Str("request_id", uuid.NewString()).Str("user", userID).Logger()
	logger.Info().Str("message", message).Msg("processing user message")

	unlock := s.locks.Lock(userID)
	defer unlock()

	history, readErr := s.store.ReadAll(ctx, userID)
	if readErr != nil {
		logger.Warn().Err(readErr).Msg("could not read history, continuing without it")
		history = nil
	}
	history = memory.Recent(history, s.historyWindow)

	res = s.engine.Process(ctx, message, history)

	if msgs := memory.FormatMessages(message, res.Text()); msgs != nil {
		if err := s.store.Append(ctx, userID, msgs); err != nil {
			logger.Warn().Err(err).Msg("could not record exchange")
		}
	}
	logger.Info().Strs("agents", agentNames(res.Agents)).Dur("elapsed", time.Since(start)).Msg("message answered")
	return res, nil
}

// History returns everything recorded for userID.
func (s *Service) History(ctx context.Context, userID string) ([]memory.Entry, error) {
	userID, err := memory.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.store.ReadAll(ctx, userID)
}

// Clear forgets userID's history. It reports whether anything was removed.
func (s *Service) Clear(ctx context.Context, userID string) (bool, error) {
	userID, err := memory.NormalizeUserID(userID)
	if err != nil {
		return false, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.store.Clear(ctx, userID)
}

func agentNames(ids []agent.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
