package speech

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sahana-ai/assistant-platform/pkg/logger"
)

// Voice describes an available synthesis voice.
type Voice struct {
	ID     string
	Name   string
	Locale string
}

// Synthesizer is the platform text-to-speech contract. Speak is
// fire-and-forget; Cancel discards any in-flight utterance.
type Synthesizer interface {
	Voices() []Voice
	Speak(text string, voice Voice) error
	Cancel()
}

// NullSynthesizer has no voices, for deployments without an audio backend.
// Output through it degrades to text-only presentation.
type NullSynthesizer struct{}

func (NullSynthesizer) Voices() []Voice          { return nil }
func (NullSynthesizer) Speak(string, Voice) error { return nil }
func (NullSynthesizer) Cancel()                   {}

// Output speaks assistant replies through the best voice for a locale.
type Output struct {
	synth  Synthesizer
	notify func()
	logger *logger.Logger

	mu         sync.Mutex
	noticeSent bool
}

// NewOutput creates a new speech output adapter. notify is invoked at most
// once per session, when no matching voice exists; it may be nil.
func NewOutput(synth Synthesizer, notify func(), log *logger.Logger) *Output {
	return &Output{
		synth:  synth,
		notify: notify,
		logger: log,
	}
}

// Speak voices text in the best available voice for the locale: exact
// locale match, else language-prefix match. With no match it degrades to
// text-only, emitting the unavailable notice once. It never fails the
// caller; synthesis faults are logged only.
func (o *Output) Speak(text, locale string) {
	voice, ok := selectVoice(o.synth.Voices(), locale)
	if !ok {
		o.mu.Lock()
		first := !o.noticeSent
		o.noticeSent = true
		o.mu.Unlock()

		if first {
			o.logger.Info("no synthesis voice for locale", zap.String("locale", locale))
			if o.notify != nil {
				o.notify()
			}
		}
		return
	}

	// No overlapping speech: discard whatever is still playing.
	o.synth.Cancel()
	if err := o.synth.Speak(text, voice); err != nil {
		o.logger.Warn("speech synthesis failed", zap.Error(err))
	}
}

// selectVoice picks an exact locale match over a language-prefix match.
func selectVoice(voices []Voice, locale string) (Voice, bool) {
	locale = strings.ToLower(locale)
	language, _, _ := strings.Cut(locale, "-")

	var prefixMatch *Voice
	for i, v := range voices {
		vl := strings.ToLower(v.Locale)
		if vl == locale {
			return v, true
		}
		vLanguage, _, _ := strings.Cut(vl, "-")
		if prefixMatch == nil && vLanguage == language {
			prefixMatch = &voices[i]
		}
	}
	if prefixMatch != nil {
		return *prefixMatch, true
	}
	return Voice{}, false
}
