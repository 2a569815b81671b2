package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timed-quiz-service/internal/domain"
)

func TestIssueAndVerify(t *testing.T) {
	a := NewAuthenticator("secret", "timed-quiz", time.Hour)
	token, err := a.Issue("alice")
	require.NoError(t, err)

	user, err := a.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", user)
}

func TestVerifyRejects(t *testing.T) {
	a := NewAuthenticator("secret", "timed-quiz", time.Hour)
	token, err := a.Issue("alice")
	require.NoError(t, err)

	other := NewAuthenticator("other-secret", "timed-quiz", time.Hour)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	foreignIssuer := NewAuthenticator("secret", "someone-else", time.Hour)
	_, err = foreignIssuer.Verify(token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = a.Verify("")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = a.Verify("not.a.jwt")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := NewAuthenticator("secret", "", time.Minute)
	a.now = func() time.Time { return issued }
	token, err := a.Issue("alice")
	require.NoError(t, err)

	a.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = a.Verify(token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestIssueRequiresUser(t *testing.T) {
	_, err := NewAuthenticator("secret", "", time.Hour).Issue("")
	require.Error(t, err)
}
