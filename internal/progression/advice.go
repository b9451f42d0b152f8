package progression

import "github.com/roman-kulish/range-console/internal/training"

const (
	adviceAccuracy     = 70
	adviceReactionTime = 1000 // ms
	adviceStress       = 60
)

// Advice is a single training suggestion derived from a finished session.
type Advice struct {
	Aspect  string
	Message string
	Mode    training.Mode // recommended training mode to address the aspect
}

// Advise analyzes a finished session and suggests focus areas for the next
// one. It returns nil when no suggestion applies.
func Advise(session *training.Session) []Advice {
	var advice []Advice

	if session.Stats.Accuracy < adviceAccuracy {
		advice = append(advice, Advice{
			Aspect:  "accuracy",
			Message: "focus on precise aim over speed",
			Mode:    training.ModePrecision,
		})
	}

	if session.Stats.AvgReactionTime > adviceReactionTime {
		advice = append(advice, Advice{
			Aspect:  "reaction time",
			Message: "practice faster responses with reaction training",
			Mode:    training.ModeReaction,
		})
	}

	if session.Config.Stressors && session.Stats.Accuracy < adviceStress {
		advice = append(advice, Advice{
			Aspect:  "stress resistance",
			Message: "work on holding accuracy under stressors",
			Mode:    training.ModeStress,
		})
	}

	return advice
}
