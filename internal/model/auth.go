package model

import "github.com/golang-jwt/jwt/v5"

// RespondentClaims are JWT claims scoping a token to one quiz session
type RespondentClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// StartResponse is returned when a respondent starts a questionnaire
type StartResponse struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	Progress  *Progress `json:"progress"`
}
