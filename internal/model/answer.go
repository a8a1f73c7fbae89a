package model

import "time"

// AnswerRecord is one entry of the raw answer/skip list
type AnswerRecord struct {
	QuestionID int      `json:"questionId" bson:"questionId"`
	Axis       Axis     `json:"axis" bson:"axis"`
	Value      *float64 `json:"value,omitempty" bson:"value,omitempty"` // retained even when skipped
	IsSkipped  bool     `json:"isSkipped" bson:"isSkipped"`
}

// Submission is the payload handed to the persistence collaborator
type Submission struct {
	SessionID           string             `json:"sessionId" bson:"sessionId"`
	Variant             string             `json:"variant" bson:"variant"`
	Scores              map[Axis]float64   `json:"scores" bson:"scores"`
	Macro               MacroCode          `json:"macro" bson:"macro"`
	MacroLabel          string             `json:"macroLabel" bson:"macroLabel"`
	Category            string             `json:"category" bson:"category"`
	CategoryDescription string             `json:"categoryDescription" bson:"categoryDescription"`
	AlignsWith          []string           `json:"alignsWith,omitempty" bson:"alignsWith,omitempty"`
	Surprising          []string           `json:"surprising,omitempty" bson:"surprising,omitempty"`
	Supplementary       map[string]float64 `json:"supplementary,omitempty" bson:"supplementary,omitempty"`
	Answers             []AnswerRecord     `json:"answers" bson:"answers"`
	StartedAt           time.Time          `json:"startedAt" bson:"startedAt"`
	SubmittedAt         time.Time          `json:"submittedAt" bson:"submittedAt"`
}

// Result is a stored submission, re-rendered without recomputation
type Result struct {
	ID         string `json:"id" bson:"-"` // hex ObjectID assigned on insert
	Submission `bson:",inline"`
}

// SkippedCount returns how many answers in the submission were skipped
func (s *Submission) SkippedCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.IsSkipped {
			n++
		}
	}
	return n
}
