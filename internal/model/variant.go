package model

// Variant configures one questionnaire flavour
type Variant struct {
	Name       string     `json:"name" yaml:"name"`
	Phase2     bool       `json:"phase2" yaml:"phase2"`         // long form runs category refinement
	Grid       GridScheme `json:"grid" yaml:"grid"`             // grid used to describe the result
	ScreenSize int        `json:"screenSize" yaml:"screenSize"` // questions per screen
	Checkpoint int        `json:"checkpoint" yaml:"checkpoint"` // handled phase-1 questions before boundary check, 0 disables
}
