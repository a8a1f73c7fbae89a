package model

import "time"

// SessionState is a step of the questionnaire lifecycle
type SessionState string

const (
	StateInit           SessionState = "init"
	StatePhase1         SessionState = "phase1"
	StatePhase1Complete SessionState = "phase1_complete"
	StatePhase2Loading  SessionState = "phase2_loading"
	StatePhase2         SessionState = "phase2"
	StateComplete       SessionState = "complete"
	StateSubmitted      SessionState = "submitted"
)

// SessionSnapshot is the serializable form of a quiz session.
// Questions are stored by id and re-resolved against the catalog on restore.
type SessionSnapshot struct {
	ID             string             `json:"id"`
	Variant        string             `json:"variant"`
	State          SessionState       `json:"state"`
	ScreenSize     int                `json:"screenSize"`
	Phase1Slots    int                `json:"phase1Slots"`
	Schedule       []int              `json:"schedule"`
	Answers        map[int]float64    `json:"answers"`
	Skipped        []int              `json:"skipped"`
	CheckpointDone bool               `json:"checkpointDone"`
	Triggered      []BoundaryTag      `json:"triggered,omitempty"`
	Macro          MacroCode          `json:"macro,omitempty"`
	Supplementary  map[string]float64 `json:"supplementary,omitempty"`
	Category       *GridCell          `json:"category,omitempty"`
	StartedAt      time.Time          `json:"startedAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Progress is the presentation view of a running session
type Progress struct {
	SessionID     string             `json:"sessionId"`
	State         SessionState       `json:"state"`
	Screen        int                `json:"screen"`
	Screens       int                `json:"screens"`
	Questions     []QuestionView     `json:"questions"`
	Answered      int                `json:"answered"`
	Skipped       int                `json:"skipped"`
	Total         int                `json:"total"`
	Scores        map[Axis]float64   `json:"scores"`
	SkipRatios    map[Axis]float64   `json:"skipRatios"`
	Macro         MacroCode          `json:"macro,omitempty"`
	Supplementary map[string]float64 `json:"supplementary,omitempty"`
}
