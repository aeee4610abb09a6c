package domain

// Mood is the advisory sentiment label attached to a delivered message.
// It never affects routing decisions.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodAngry   Mood = "angry"
	MoodNeutral Mood = "neutral"
)

// MoodForScore maps a raw classifier score to a label.
// The thresholds are an observable contract of the protocol.
func MoodForScore(score float64) Mood {
	switch {
	case score > 2:
		return MoodHappy
	case score < -2:
		return MoodSad
	case score < 0:
		return MoodAngry
	default:
		return MoodNeutral
	}
}
