package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RespondentToken(t *testing.T) {
	svc := NewAuthService("secret", time.Hour)

	token, err := svc.GenerateRespondentToken("sess-1")
	require.NoError(t, err)

	claims, err := svc.ValidateRespondentToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)

	assert.NoError(t, svc.Authorize(token, "sess-1"))
	assert.ErrorIs(t, svc.Authorize(token, "sess-2"), ErrForbidden)

	_, err = NewAuthService("other", time.Hour).ValidateRespondentToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateRespondentToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Expiry(t *testing.T) {
	svc := NewAuthService("secret", time.Minute)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateRespondentToken("sess-1")
	require.NoError(t, err)
	require.NoError(t, svc.Authorize(token, "sess-1"))

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	assert.ErrorIs(t, svc.Authorize(token, "sess-1"), ErrInvalidToken)
}
