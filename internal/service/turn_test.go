package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahana-ai/assistant-platform/internal/assistant"
	"github.com/sahana-ai/assistant-platform/internal/conversation"
	"github.com/sahana-ai/assistant-platform/internal/llm"
	"github.com/sahana-ai/assistant-platform/internal/model"
	"github.com/sahana-ai/assistant-platform/internal/speech"
	"github.com/sahana-ai/assistant-platform/pkg/logger"
)

// blockingLLM answers every chat with fixed text; when gate is set it
// blocks until the gate closes, to hold a turn in flight.
type blockingLLM struct {
	text string
	err  error
	gate chan struct{}
}

func (f *blockingLLM) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Text: f.text}, nil
}

func (f *blockingLLM) GroundedSearch(context.Context, string) (*llm.SearchResponse, error) {
	return nil, llm.ErrNotSupported
}

func (f *blockingLLM) GenerateImage(context.Context, string) (string, error) {
	return "", llm.ErrNotSupported
}

func (f *blockingLLM) Name() string     { return "fake" }
func (f *blockingLLM) Models() []string { return nil }

func newTestTurnService(f *blockingLLM) (*TurnService, *conversation.Store) {
	log := logger.NewNop()
	conv := conversation.NewStore()
	client := assistant.New(f, nil, log)
	svc := NewTurnService(conv, client, speech.NullSynthesizer{}, nil, "si-LK", log)
	return svc, conv
}

func TestRunAppendsUserAndModelMessages(t *testing.T) {
	svc, conv := newTestTurnService(&blockingLLM{text: "hello nimal"})

	msg, err := svc.Run(context.Background(), "nimal", "hello", false)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModel, msg.Role)
	assert.Equal(t, "hello nimal", msg.Text)

	msgs := conv.List("nimal")
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, msg.ID, msgs[1].ID)
}

func TestRunDegradesRemoteFaultToApology(t *testing.T) {
	svc, conv := newTestTurnService(&blockingLLM{err: errors.New("connection reset")})

	msg, err := svc.Run(context.Background(), "nimal", "hello", false)
	require.NoError(t, err, "remote faults must not surface to the caller")
	assert.Equal(t, model.RoleModel, msg.Role)
	assert.Equal(t, assistant.Apology("si-LK"), msg.Text)

	// The user message stays in the log even though the turn failed.
	msgs := conv.List("nimal")
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
}

func TestRunRefusesConcurrentTurnForSameUser(t *testing.T) {
	f := &blockingLLM{text: "slow answer", gate: make(chan struct{})}
	svc, _ := newTestTurnService(f)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background(), "nimal", "first", false)
		done <- err
	}()

	// Wait until the first turn is holding the in-flight slot.
	require.Eventually(t, func() bool {
		_, err := svc.Run(context.Background(), "nimal", "second", false)
		return errors.Is(err, ErrTurnInFlight)
	}, time.Second, 5*time.Millisecond)

	close(f.gate)
	require.NoError(t, <-done)

	// And once the first turn finishes, the slot is free again.
	_, err := svc.Run(context.Background(), "nimal", "third", false)
	require.NoError(t, err)
}

func TestRunSpokenTurnWithoutVoiceAppendsNoticeOnce(t *testing.T) {
	svc, conv := newTestTurnService(&blockingLLM{text: "spoken answer"})

	_, err := svc.Run(context.Background(), "nimal", "say something", true)
	require.NoError(t, err)
	_, err = svc.Run(context.Background(), "nimal", "say more", true)
	require.NoError(t, err)

	// Synthesis runs off the turn path, so the notice lands asynchronously.
	assert.Eventually(t, func() bool {
		count := 0
		for _, m := range conv.List("nimal") {
			if m.Role == model.RoleSystem {
				count++
			}
		}
		return count == 1
	}, time.Second, 5*time.Millisecond)
}

// gatedSynth blocks voice lookup until gate closes, holding a synthesis
// attempt in flight across a logout.
type gatedSynth struct {
	gate chan struct{}
}

func (g *gatedSynth) Voices() []speech.Voice {
	<-g.gate
	return nil
}

func (g *gatedSynth) Speak(string, speech.Voice) error { return nil }
func (g *gatedSynth) Cancel()                          {}

func TestNoticeFromPreLogoutSynthesisDoesNotLeak(t *testing.T) {
	log := logger.NewNop()
	conv := conversation.NewStore()
	client := assistant.New(&blockingLLM{text: "answer"}, nil, log)
	synth := &gatedSynth{gate: make(chan struct{})}
	svc := NewTurnService(conv, client, synth, nil, "si-LK", log)

	_, err := svc.Run(context.Background(), "nimal", "hello", true)
	require.NoError(t, err)

	// Logout while the synthesis attempt is still held in flight.
	svc.EndSession("nimal")
	close(synth.gate)

	// The stale notice must never land in the next session's log.
	_, err = svc.Run(context.Background(), "nimal", "hello again", false)
	require.NoError(t, err)
	assert.Never(t, func() bool {
		for _, m := range conv.List("nimal") {
			if m.Role == model.RoleSystem {
				return true
			}
		}
		return false
	}, 300*time.Millisecond, 10*time.Millisecond)
}

func TestEndSessionClearsLogAndSpeechState(t *testing.T) {
	svc, conv := newTestTurnService(&blockingLLM{text: "answer"})

	_, err := svc.Run(context.Background(), "nimal", "hello", true)
	require.NoError(t, err)

	svc.EndSession("nimal")
	assert.Empty(t, conv.List("nimal"))

	// A fresh session gets the unavailable notice again.
	_, err = svc.Run(context.Background(), "nimal", "hello again", true)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		for _, m := range conv.List("nimal") {
			if m.Role == model.RoleSystem {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}
