package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sahana-ai/assistant-platform/internal/assistant"
	"github.com/sahana-ai/assistant-platform/internal/middleware"
	"github.com/sahana-ai/assistant-platform/internal/service"
	"github.com/sahana-ai/assistant-platform/internal/speech"
	"github.com/sahana-ai/assistant-platform/pkg/logger"
	"github.com/sahana-ai/assistant-platform/pkg/metrics"
)

// RecognizerFactory produces a capture session bound to an input adapter.
// The returned recognizer delivers events by calling the adapter's Result
// and Ended methods. The server ships no capture backend of its own:
// deployments inject one at wiring time, typically a gateway relaying a
// client device's capture events. Without one the voice endpoint answers
// 503 and the platform is text-only.
type RecognizerFactory func(in *speech.Input) speech.Recognizer

// VoiceHandler streams a voice session over SSE: capture status,
// transcripts, and the turns they trigger.
type VoiceHandler struct {
	turns       *service.TurnService
	recognizers RecognizerFactory
	locale      string
	logger      *logger.Logger
}

// NewVoiceHandler creates a new voice handler. recognizers may be nil when
// the deployment has no capture backend.
func NewVoiceHandler(turns *service.TurnService, recognizers RecognizerFactory, locale string, log *logger.Logger) *VoiceHandler {
	return &VoiceHandler{
		turns:       turns,
		recognizers: recognizers,
		locale:      locale,
		logger:      log,
	}
}

type voiceEvent struct {
	name string
	data any
}

// Stream handles GET /api/v1/voice/stream
// Query params: locale (default configured), mode (continuous|single-shot).
func (h *VoiceHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := middleware.GetUsername(ctx)

	if h.recognizers == nil {
		writeError(w, http.StatusServiceUnavailable, "speech capture not available")
		return
	}

	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = h.locale
	}
	if err := middleware.ValidateLocale(locale); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := speech.ModeContinuous
	if r.URL.Query().Get("mode") == string(speech.ModeSingleShot) {
		mode = speech.ModeSingleShot
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	metrics.VoiceStreamsActive.Inc()
	defer metrics.VoiceStreamsActive.Dec()

	events := make(chan voiceEvent, 16)
	push := func(name string, data any) {
		select {
		case events <- voiceEvent{name: name, data: data}:
		default:
			// Client is not draining; drop rather than stall capture.
		}
	}

	var input *speech.Input
	input = speech.NewInput(nil, mode, speech.InputEvents{
		OnTranscript: func(text string) {
			push("transcript", map[string]string{"text": text})
			go func() {
				msg, err := h.turns.Run(ctx, username, text, true)
				if err != nil {
					push("error", map[string]string{"reason": err.Error()})
					return
				}
				push("message", msg)
			}()
		},
		OnStatus: func(state speech.State) {
			push("status", map[string]string{"state": string(state)})
		},
		OnError: func(kind speech.ErrorKind) {
			push("error", map[string]string{
				"kind":   string(kind),
				"notice": assistant.CaptureErrorNotice(locale),
			})
		},
	}, h.logger)
	input.Bind(h.recognizers(input))

	if err := input.Start(locale); err != nil {
		h.logger.Error("failed to start capture", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start capture")
		return
	}
	defer input.Stop()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"locale": locale,
		"mode":   string(mode),
	})

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			sendSSEEvent(w, flusher, ev.name, ev.data)
		case t := <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"timestamp": t.UTC().Format(time.RFC3339),
			})
		}
	}
}

// sendSSEEvent writes a single SSE event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
