package service

// Event types pushed to a respondent's live connection
const (
	EventScoresUpdated       = "scores_updated"
	EventTiebreakersInserted = "tiebreakers_inserted"
	EventPhaseChanged        = "phase_changed"
	EventSubmitted           = "submitted"
)

// Notifier pushes session events to live clients (implemented by the
// websocket hub, kept as an interface to avoid an import cycle)
type Notifier interface {
	Notify(sessionID string, msgType string, payload interface{})
	CloseSession(sessionID string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, interface{}) {}
func (nopNotifier) CloseSession(string)                {}
