package assistant

import "strings"

// Localized user-facing strings. The platform targets Sinhala (si-LK) with
// an English fallback; anything shown to the user goes through here rather
// than leaking raw error text.

// Apology returns the fixed apology shown when a turn fails.
func Apology(locale string) string {
	if hasLanguage(locale, "si") {
		return "සමාවන්න, දෝෂයක් ඇති විය. කරුණාකර නැවත උත්සාහ කරන්න."
	}
	return "Sorry, something went wrong. Please try again."
}

// VoiceUnavailableNotice returns the one-time notice shown when no
// matching speech-synthesis voice exists.
func VoiceUnavailableNotice(locale string) string {
	if hasLanguage(locale, "si") {
		return "හඬ ප්‍රතිදානය නොමැත; පිළිතුරු පෙළ ලෙස පමණක් පෙන්වනු ඇත."
	}
	return "Voice output is unavailable; replies will be shown as text only."
}

// CaptureErrorNotice returns the status text shown when speech capture
// halts on a fatal error.
func CaptureErrorNotice(locale string) string {
	if hasLanguage(locale, "si") {
		return "කථන හඳුනාගැනීම අසාර්ථක විය. මයික්‍රෆෝන අවසර පරීක්ෂා කරන්න."
	}
	return "Speech recognition failed. Check microphone permissions."
}

func hasLanguage(locale, language string) bool {
	locale = strings.ToLower(locale)
	return locale == language || strings.HasPrefix(locale, language+"-")
}
