package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahana-ai/assistant-platform/pkg/logger"
)

type fakeSynthesizer struct {
	voices  []Voice
	spoken  []Voice
	texts   []string
	cancels int
}

func (f *fakeSynthesizer) Voices() []Voice { return f.voices }

func (f *fakeSynthesizer) Speak(text string, voice Voice) error {
	f.texts = append(f.texts, text)
	f.spoken = append(f.spoken, voice)
	return nil
}

func (f *fakeSynthesizer) Cancel() { f.cancels++ }

func TestSpeakPrefersExactLocale(t *testing.T) {
	synth := &fakeSynthesizer{voices: []Voice{
		{ID: "generic", Locale: "si"},
		{ID: "lanka", Locale: "si-LK"},
	}}
	out := NewOutput(synth, nil, logger.NewNop())

	out.Speak("ආයුබෝවන්", "si-LK")

	require.Len(t, synth.spoken, 1)
	assert.Equal(t, "lanka", synth.spoken[0].ID)
	assert.Equal(t, []string{"ආයුබෝවන්"}, synth.texts)
}

func TestSpeakFallsBackToLanguagePrefix(t *testing.T) {
	synth := &fakeSynthesizer{voices: []Voice{
		{ID: "english", Locale: "en-US"},
		{ID: "india", Locale: "si-IN"},
	}}
	out := NewOutput(synth, nil, logger.NewNop())

	out.Speak("hello", "si-LK")

	require.Len(t, synth.spoken, 1)
	assert.Equal(t, "india", synth.spoken[0].ID)
}

func TestSpeakCancelsBeforeSpeaking(t *testing.T) {
	synth := &fakeSynthesizer{voices: []Voice{{ID: "lanka", Locale: "si-LK"}}}
	out := NewOutput(synth, nil, logger.NewNop())

	out.Speak("first", "si-LK")
	out.Speak("second", "si-LK")

	// Each utterance discards the previous one first.
	assert.Equal(t, 2, synth.cancels)
	assert.Equal(t, []string{"first", "second"}, synth.texts)
}

func TestSpeakWithoutVoiceNotifiesOnce(t *testing.T) {
	synth := &fakeSynthesizer{voices: []Voice{{ID: "english", Locale: "en-US"}}}
	notices := 0
	out := NewOutput(synth, func() { notices++ }, logger.NewNop())

	out.Speak("hello", "si-LK")
	out.Speak("hello again", "si-LK")

	assert.Empty(t, synth.spoken)
	assert.Equal(t, 1, notices, "unavailable notice fires at most once per session")
}

func TestNullSynthesizerDegradesQuietly(t *testing.T) {
	out := NewOutput(NullSynthesizer{}, nil, logger.NewNop())

	// Must not panic and must not speak.
	out.Speak("hello", "si-LK")
}
