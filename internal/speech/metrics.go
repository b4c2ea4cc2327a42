package speech

import "github.com/sahana-ai/assistant-platform/pkg/metrics"

func observeSessionStart() {
	metrics.SpeechSessionsActive.Inc()
}

func observeSessionEnd() {
	metrics.SpeechSessionsActive.Dec()
}

func observeRestart(kind ErrorKind) {
	reason := string(kind)
	if reason == "" {
		reason = "end-of-utterance"
	}
	metrics.SpeechRestartsTotal.WithLabelValues(reason).Inc()
}
