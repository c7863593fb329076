package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyRoundtrip(t *testing.T) {
	m := NewTicketManager("test-secret", 10)

	ticket, sessionID, err := m.Issue("subject-1")
	require.NoError(t, err)
	assert.NotEmpty(t, ticket)
	assert.Len(t, sessionID, 32) // 16 字节的十六进制编码

	claims, err := m.Verify(ticket)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", claims.SubjectID)
	assert.Equal(t, sessionID, claims.SessionID)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	issuer := NewTicketManager("secret-a", 10)
	verifier := NewTicketManager("secret-b", 10)

	ticket, _, err := issuer.Issue("subject-1")
	require.NoError(t, err)

	_, err = verifier.Verify(ticket)
	assert.Error(t, err)
}

func TestVerify_RejectsExpiredTicket(t *testing.T) {
	m := NewTicketManager("test-secret", 10)
	claims := TicketClaims{
		SubjectID: "subject-1",
		SessionID: "sess",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expired, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(expired)
	assert.Error(t, err)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	m := NewTicketManager("test-secret", 10)

	_, err := m.Verify("not-a-jwt")
	assert.Error(t, err)
}

func TestGenerateRandomString_UniqueAcrossCalls(t *testing.T) {
	a := GenerateRandomString(16)
	b := GenerateRandomString(16)
	assert.NotEqual(t, a, b)
}
