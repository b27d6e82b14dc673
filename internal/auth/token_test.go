package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyToken_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	userID := "user-123"

	token, err := IssueToken(userID, secret, time.Hour)
	require.NoError(t, err)

	got, err := VerifyToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	token, err := IssueToken("u1", secret, -1*time.Second)
	require.NoError(t, err)

	_, err = VerifyToken(token, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := IssueToken("u2", []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(token, []byte("wrong-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_TamperedPayload(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	token, err := IssueToken("u3", secret, time.Hour)
	require.NoError(t, err)

	// Flip one character inside the payload segment; the signature no
	// longer matches.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	mid := len(payload) / 2
	if payload[mid] == 'A' {
		payload[mid] = 'B'
	} else {
		payload[mid] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = VerifyToken(tampered, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_TamperedSignature(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	token, err := IssueToken("u4", secret, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = VerifyToken(tampered, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Malformed(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"", "not.a.jwt", "garbage"} {
		_, err := VerifyToken(token, []byte("k"))
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestVerifyToken_MissingUserID(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	token, err := IssueToken("", secret, time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(token, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
