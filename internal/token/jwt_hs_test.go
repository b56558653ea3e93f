package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHSProvider_SignAndParse(t *testing.T) {
	p := NewHSProvider("secret", "memorial", "memorial-api")
	uid := uuid.New()

	tok, exp, err := p.SignAccess(context.Background(), uid, "ROLE_ADMIN", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := p.ParseAndValidateAccess(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UserID)
	assert.Equal(t, "ROLE_ADMIN", claims.Role)
}

func TestHSProvider_RejectsForeignAudienceAndSecret(t *testing.T) {
	uid := uuid.New()
	other := NewHSProvider("secret", "memorial", "other-api")
	tok, _, err := other.SignAccess(context.Background(), uid, "ROLE_CUSTOMER", time.Hour)
	require.NoError(t, err)

	p := NewHSProvider("secret", "memorial", "memorial-api")
	_, err = p.ParseAndValidateAccess(context.Background(), tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	wrong := NewHSProvider("another", "memorial", "memorial-api")
	tok, _, err = wrong.SignAccess(context.Background(), uid, "ROLE_CUSTOMER", time.Hour)
	require.NoError(t, err)
	_, err = p.ParseAndValidateAccess(context.Background(), tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestHSProvider_Expired(t *testing.T) {
	p := NewHSProvider("secret", "memorial", "memorial-api")
	p.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := p.SignAccess(context.Background(), uuid.New(), "ROLE_CUSTOMER", time.Hour)
	require.NoError(t, err)

	p.now = time.Now
	_, err = p.ParseAndValidateAccess(context.Background(), tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
