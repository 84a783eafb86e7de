package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infolibrary/infolibrary/internal/administrators"
	"github.com/infolibrary/infolibrary/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, expires, err := issuer.Issue(administrators.Administrator{ID: 42, Email: "a@b.test", UserName: "ab"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	principal, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, shared.Principal{ID: 42, Email: "a@b.test", UserName: "ab"}, principal)
}

func TestTokenRejectsExpiredAndForged(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	token, _, err := issuer.Issue(administrators.Administrator{ID: 1})
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", time.Minute).Parse(token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
