package speech

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahana-ai/assistant-platform/pkg/logger"
)

type fakeRecognizer struct {
	startCalls int
	stopCalls  int
	startErr   error
	locales    []string
}

func (f *fakeRecognizer) Start(locale string) error {
	f.startCalls++
	f.locales = append(f.locales, locale)
	return f.startErr
}

func (f *fakeRecognizer) Stop() { f.stopCalls++ }

type capturedEvents struct {
	transcripts []string
	statuses    []State
	errors      []ErrorKind
}

func (c *capturedEvents) events() InputEvents {
	return InputEvents{
		OnTranscript: func(text string) { c.transcripts = append(c.transcripts, text) },
		OnStatus:     func(s State) { c.statuses = append(c.statuses, s) },
		OnError:      func(k ErrorKind) { c.errors = append(c.errors, k) },
	}
}

func newTestInput(t *testing.T, mode Mode) (*Input, *fakeRecognizer, *capturedEvents) {
	t.Helper()
	rec := &fakeRecognizer{}
	captured := &capturedEvents{}
	in := NewInput(rec, mode, captured.events(), logger.NewNop())
	return in, rec, captured
}

func TestStartAndStop(t *testing.T) {
	in, rec, captured := newTestInput(t, ModeSingleShot)

	require.NoError(t, in.Start("si-LK"))
	assert.Equal(t, StateListening, in.State())
	assert.Equal(t, []string{"si-LK"}, rec.locales)

	// Starting while listening is a no-op.
	require.NoError(t, in.Start("si-LK"))
	assert.Equal(t, 1, rec.startCalls)

	in.Stop()
	assert.Equal(t, StateStopped, in.State())
	assert.Equal(t, []State{StateListening, StateStopped}, captured.statuses)
}

func TestStopIsIdempotentAndAlwaysReleases(t *testing.T) {
	in, rec, _ := newTestInput(t, ModeContinuous)

	require.NoError(t, in.Start("si-LK"))
	in.Stop()
	in.Stop()

	assert.Equal(t, StateStopped, in.State())
	// Every Stop reaches the recognizer, even when already stopped.
	assert.Equal(t, 2, rec.stopCalls)
}

func TestStartFailureStaysStopped(t *testing.T) {
	in, rec, captured := newTestInput(t, ModeSingleShot)
	rec.startErr = errors.New("no microphone")

	err := in.Start("si-LK")
	require.Error(t, err)
	assert.Equal(t, StateStopped, in.State())
	assert.Empty(t, captured.statuses)
}

func TestSingleShotStopsAfterTranscript(t *testing.T) {
	in, rec, captured := newTestInput(t, ModeSingleShot)
	require.NoError(t, in.Start("si-LK"))

	in.Result("hello")

	assert.Equal(t, []string{"hello"}, captured.transcripts)
	assert.Equal(t, StateStopped, in.State())
	assert.Equal(t, 1, rec.stopCalls)

	// A late end-of-utterance from the released recognizer does nothing.
	in.Ended(KindNone)
	assert.Equal(t, 1, rec.startCalls)
	assert.Equal(t, StateStopped, in.State())
}

func TestContinuousRearmsOnBenignEnds(t *testing.T) {
	in, rec, captured := newTestInput(t, ModeContinuous)
	require.NoError(t, in.Start("si-LK"))

	in.Ended(KindNone)
	in.Ended(KindNoSpeech)

	assert.Equal(t, StateListening, in.State())
	assert.Equal(t, 3, rec.startCalls)
	assert.Equal(t, []string{"si-LK", "si-LK", "si-LK"}, rec.locales)
	assert.Empty(t, captured.errors)
}

func TestContinuousDeliversTranscriptsAcrossUtterances(t *testing.T) {
	in, rec, captured := newTestInput(t, ModeContinuous)
	require.NoError(t, in.Start("si-LK"))

	in.Result("first")
	in.Ended(KindNone)
	in.Result("second")

	assert.Equal(t, []string{"first", "second"}, captured.transcripts)
	assert.Equal(t, StateListening, in.State())
	assert.Zero(t, rec.stopCalls)
}

func TestContinuousHaltsOnFatalError(t *testing.T) {
	for _, kind := range []ErrorKind{KindNotAllowed, KindAudioCapture, KindNetwork, KindAborted} {
		t.Run(string(kind), func(t *testing.T) {
			in, rec, captured := newTestInput(t, ModeContinuous)
			require.NoError(t, in.Start("si-LK"))

			in.Ended(kind)

			assert.Equal(t, StateStopped, in.State())
			assert.Equal(t, 1, rec.startCalls, "fatal end must not re-arm")
			assert.Equal(t, []ErrorKind{kind}, captured.errors)
		})
	}
}

func TestSingleShotNeverRearms(t *testing.T) {
	in, rec, captured := newTestInput(t, ModeSingleShot)
	require.NoError(t, in.Start("si-LK"))

	in.Ended(KindNoSpeech)

	assert.Equal(t, StateStopped, in.State())
	assert.Equal(t, 1, rec.startCalls)
	assert.Equal(t, []ErrorKind{KindNoSpeech}, captured.errors)
}

// gatedRecognizer blocks its second Start until gate closes, holding a
// continuous-mode re-arm in flight.
type gatedRecognizer struct {
	mu      sync.Mutex
	starts  int
	stops   int
	gate    chan struct{}
	entered chan struct{}
}

func (g *gatedRecognizer) Start(locale string) error {
	g.mu.Lock()
	g.starts++
	n := g.starts
	g.mu.Unlock()
	if n == 2 {
		close(g.entered)
		<-g.gate
	}
	return nil
}

func (g *gatedRecognizer) Stop() {
	g.mu.Lock()
	g.stops++
	g.mu.Unlock()
}

func (g *gatedRecognizer) stopCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stops
}

func TestStopDuringRearmReleasesCapture(t *testing.T) {
	rec := &gatedRecognizer{gate: make(chan struct{}), entered: make(chan struct{})}
	in := NewInput(rec, ModeContinuous, InputEvents{}, logger.NewNop())
	require.NoError(t, in.Start("si-LK"))

	done := make(chan struct{})
	go func() {
		in.Ended(KindNone)
		close(done)
	}()

	// Stop while the re-arm Start is in flight.
	<-rec.entered
	in.Stop()
	close(rec.gate)
	<-done

	assert.Equal(t, StateStopped, in.State())
	// The capture restarted by the re-arm must be released too, not left
	// running behind a stopped adapter.
	assert.Equal(t, 2, rec.stopCount())
}

func TestRearmFailureHaltsWithCaptureError(t *testing.T) {
	in, rec, captured := newTestInput(t, ModeContinuous)
	require.NoError(t, in.Start("si-LK"))

	rec.startErr = errors.New("device yanked")
	in.Ended(KindNone)

	assert.Equal(t, StateStopped, in.State())
	assert.Equal(t, []ErrorKind{KindAudioCapture}, captured.errors)
}
