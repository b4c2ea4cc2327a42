// Package speech wraps platform speech capture and synthesis behind
// explicit event-driven state machines, so the lifecycle logic can be
// exercised with fake recognizers and synthesizers.
package speech

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sahana-ai/assistant-platform/pkg/logger"
)

// State is the capture session state.
type State string

const (
	StateStopped   State = "stopped"
	StateListening State = "listening"
)

// Mode selects the capture lifecycle.
type Mode string

const (
	// ModeSingleShot is press-to-talk: one final transcript or one error,
	// then stopped. Never re-arms.
	ModeSingleShot Mode = "single-shot"

	// ModeContinuous re-arms capture after benign ends until Stop is
	// called or a fatal error occurs.
	ModeContinuous Mode = "continuous"
)

// ErrorKind classifies how a recognition attempt ended.
type ErrorKind string

const (
	KindNone         ErrorKind = ""              // normal end of utterance
	KindNoSpeech     ErrorKind = "no-speech"     // transient, nothing heard
	KindNotAllowed   ErrorKind = "not-allowed"   // permission denied
	KindAudioCapture ErrorKind = "audio-capture" // device failure
	KindNetwork      ErrorKind = "network"       // recognition service unreachable
	KindAborted      ErrorKind = "aborted"       // capture torn down externally
)

// rearmOnEnd enumerates, per end condition, whether a continuous session
// re-arms capture. Anything not re-armed halts the session and surfaces
// the error.
var rearmOnEnd = map[ErrorKind]bool{
	KindNone:         true,
	KindNoSpeech:     true,
	KindNotAllowed:   false,
	KindAudioCapture: false,
	KindNetwork:      false,
	KindAborted:      false,
}

// Recognizer is the platform speech-capture contract. Implementations
// deliver results by calling the Input's Result and Ended methods, and
// must tolerate Stop being called at any point, including repeatedly.
type Recognizer interface {
	Start(locale string) error
	Stop()
}

// InputEvents are the adapter's outbound notifications.
type InputEvents struct {
	OnTranscript func(text string)
	OnStatus     func(state State)
	OnError      func(kind ErrorKind)
}

// Input drives a Recognizer through the capture state machine.
type Input struct {
	rec    Recognizer
	mode   Mode
	events InputEvents
	logger *logger.Logger

	mu     sync.Mutex
	state  State
	locale string
}

// NewInput creates a new speech input adapter. rec may be nil when the
// recognizer needs a reference to the adapter it reports into; attach it
// with Bind before Start.
func NewInput(rec Recognizer, mode Mode, events InputEvents, log *logger.Logger) *Input {
	return &Input{
		rec:    rec,
		mode:   mode,
		events: events,
		logger: log,
		state:  StateStopped,
	}
}

// Bind attaches the recognizer.
func (in *Input) Bind(rec Recognizer) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.rec = rec
}

// State returns the current capture state.
func (in *Input) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// Start begins capture for the given locale. Starting an already listening
// session is a no-op.
func (in *Input) Start(locale string) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.state == StateListening {
		return nil
	}

	if err := in.rec.Start(locale); err != nil {
		return err
	}

	in.state = StateListening
	in.locale = locale
	observeSessionStart()
	in.emitStatus(StateListening)
	return nil
}

// Stop halts capture and releases the recognizer. Idempotent: the
// recognizer's Stop is invoked unconditionally so an in-flight recognition
// is released even when the adapter already considers itself stopped.
func (in *Input) Stop() {
	in.mu.Lock()
	wasListening := in.state == StateListening
	in.state = StateStopped
	in.mu.Unlock()

	in.rec.Stop()

	if wasListening {
		observeSessionEnd()
		in.emitStatus(StateStopped)
	}
}

// Result delivers a final transcript from the recognizer.
func (in *Input) Result(text string) {
	in.mu.Lock()
	if in.state != StateListening {
		in.mu.Unlock()
		return
	}
	in.mu.Unlock()

	if in.events.OnTranscript != nil {
		in.events.OnTranscript(text)
	}

	if in.mode == ModeSingleShot {
		in.Stop()
	}
}

// Ended delivers the end of a recognition attempt: a normal end of
// utterance (KindNone) or an error. In continuous mode benign ends re-arm
// capture; fatal errors halt the session.
func (in *Input) Ended(kind ErrorKind) {
	in.mu.Lock()
	if in.state != StateListening {
		// Already released by Stop; nothing to re-arm.
		in.mu.Unlock()
		return
	}

	if in.mode == ModeContinuous && rearmOnEnd[kind] {
		locale := in.locale
		in.mu.Unlock()

		observeRestart(kind)
		err := in.rec.Start(locale)

		// Stop may have run while the lock was released. A capture
		// restarted after Stop must not outlive the session.
		in.mu.Lock()
		released := in.state != StateListening
		in.mu.Unlock()
		if released {
			if err == nil {
				in.rec.Stop()
			}
			return
		}

		if err != nil {
			in.logger.Warn("failed to re-arm capture", zap.Error(err))
			in.haltListening(KindAudioCapture)
		}
		return
	}

	in.mu.Unlock()
	in.haltListening(kind)
}

func (in *Input) haltListening(kind ErrorKind) {
	in.mu.Lock()
	if in.state != StateListening {
		in.mu.Unlock()
		return
	}
	in.state = StateStopped
	in.mu.Unlock()

	in.rec.Stop()
	observeSessionEnd()

	if kind != KindNone && in.events.OnError != nil {
		in.events.OnError(kind)
	}
	in.emitStatus(StateStopped)
}

func (in *Input) emitStatus(state State) {
	if in.events.OnStatus != nil {
		in.events.OnStatus(state)
	}
}
