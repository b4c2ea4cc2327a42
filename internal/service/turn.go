// Package service provides the turn orchestration shared by the chat and
// voice surfaces.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sahana-ai/assistant-platform/internal/assistant"
	"github.com/sahana-ai/assistant-platform/internal/conversation"
	"github.com/sahana-ai/assistant-platform/internal/events"
	"github.com/sahana-ai/assistant-platform/internal/model"
	"github.com/sahana-ai/assistant-platform/internal/speech"
	"github.com/sahana-ai/assistant-platform/pkg/logger"
	"github.com/sahana-ai/assistant-platform/pkg/metrics"
)

// ErrTurnInFlight is returned when a user submits while their previous
// turn is still running. Interleaving two turns would corrupt the
// tool-call exchange, so submission is refused rather than queued.
var ErrTurnInFlight = errors.New("a turn is already in flight for this user")

// TurnService runs conversational turns: append the user message, run the
// assistant round trip, append the reply, optionally speak it.
type TurnService struct {
	conv      *conversation.Store
	assistant *assistant.Client
	synth     speech.Synthesizer
	events    *events.Publisher
	locale    string
	logger    *logger.Logger

	mu       sync.Mutex
	inflight map[string]bool
	outputs  map[string]*speech.Output
}

// NewTurnService creates a new turn service.
func NewTurnService(
	conv *conversation.Store,
	assistantClient *assistant.Client,
	synth speech.Synthesizer,
	pub *events.Publisher,
	locale string,
	log *logger.Logger,
) *TurnService {
	return &TurnService{
		conv:      conv,
		assistant: assistantClient,
		synth:     synth,
		events:    pub,
		locale:    locale,
		logger:    log,
		inflight:  make(map[string]bool),
		outputs:   make(map[string]*speech.Output),
	}
}

// Run executes one turn for a user. A remote fault never propagates: the
// reply degrades to a localized apology message. The returned message is
// the model message appended to the log.
func (s *TurnService) Run(ctx context.Context, username, text string, speak bool) (model.Message, error) {
	s.mu.Lock()
	if s.inflight[username] {
		s.mu.Unlock()
		return model.Message{}, ErrTurnInFlight
	}
	s.inflight[username] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, username)
		s.mu.Unlock()
	}()

	start := time.Now()

	// History is the context preceding this turn; the user text travels
	// separately on the wire.
	history := s.conv.History(username)
	s.conv.Append(username, model.Message{
		Role: model.RoleUser,
		Text: text,
	})

	reply, err := s.assistant.Converse(ctx, username, text, history)
	if err != nil {
		s.logger.Warn("turn failed",
			zap.String("username", username),
			zap.Error(err),
		)
		metrics.RecordTurn("error", time.Since(start).Seconds())

		apology := s.conv.Append(username, model.Message{
			Role: model.RoleModel,
			Text: assistant.Apology(s.locale),
		})
		return apology, nil
	}

	metrics.RecordTurn("success", time.Since(start).Seconds())
	s.events.Publish(model.EventTypeTurnCompleted, username, "", map[string]any{
		"has_image":   reply.ImageURL != "",
		"has_sources": len(reply.SearchResults) > 0,
	})

	msg := s.conv.Append(username, model.Message{
		Role:          model.RoleModel,
		Text:          reply.Text,
		ImageURL:      reply.ImageURL,
		SearchResults: reply.SearchResults,
	})

	if speak && reply.Text != "" {
		// Fire and forget; synthesis completion is never awaited.
		out := s.outputFor(username)
		go out.Speak(reply.Text, s.locale)
	}

	return msg, nil
}

// EndSession clears a user's conversation log and per-session speech
// state. Called on logout.
func (s *TurnService) EndSession(username string) {
	s.conv.Clear(username)
	s.mu.Lock()
	delete(s.outputs, username)
	s.mu.Unlock()
}

// outputFor returns the per-session speech output adapter, creating it on
// first use. The voice-unavailable notice lands in that user's log as a
// system message, at most once per session.
func (s *TurnService) outputFor(username string) *speech.Output {
	s.mu.Lock()
	defer s.mu.Unlock()

	if out, ok := s.outputs[username]; ok {
		return out
	}
	var out *speech.Output
	out = speech.NewOutput(s.synth, func() {
		// A synthesis launched just before logout may deliver its notice
		// after EndSession; it must not leak into the next session's log.
		s.mu.Lock()
		live := s.outputs[username] == out
		s.mu.Unlock()
		if !live {
			return
		}
		s.conv.Append(username, model.Message{
			Role: model.RoleSystem,
			Text: assistant.VoiceUnavailableNotice(s.locale),
		})
	}, s.logger)
	s.outputs[username] = out
	return out
}
