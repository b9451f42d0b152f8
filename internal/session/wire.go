package session

import "github.com/roman-kulish/range-console/internal/training"

// Command message types sent to the serving side.
const (
	msgStartTraining  = "startTraining"
	msgStopTraining   = "stopTraining"
	msgPauseTraining  = "pauseTraining"
	msgResumeTraining = "resumeTraining"
)

type startCommand struct {
	ClientID  string            `json:"clientId"`
	Config    training.Config   `json:"config"`
	Targets   []training.Target `json:"targets"`
	SessionID string            `json:"sessionId"`
}

type sessionCommand struct {
	ClientID  string `json:"clientId"`
	SessionID string `json:"sessionId"`
}

type clientListEvent struct {
	Clients []training.Device `json:"clients"`
}

type clientUpdateEvent struct {
	Client training.Device `json:"client"`
}

type clientRemovedEvent struct {
	ClientID string `json:"clientId"`
}

type trainingStartedEvent struct {
	ClientID string `json:"clientId"`
}

type trainingUpdateEvent struct {
	ClientID      string    `json:"clientId"`
	Hits          int       `json:"hits"`
	Misses        int       `json:"misses"`
	ReactionTimes []float64 `json:"reactionTimes"`
}

type wireStats struct {
	Hits            int     `json:"hits"`
	Misses          int     `json:"misses"`
	Accuracy        float64 `json:"accuracy"`
	AvgReactionTime float64 `json:"avgReactionTime"`
}

type trainingCompletedEvent struct {
	ClientID string    `json:"clientId"`
	Stats    wireStats `json:"stats"`
}

type trainingErrorEvent struct {
	ClientID string `json:"clientId"`
	Error    string `json:"error"`
}
