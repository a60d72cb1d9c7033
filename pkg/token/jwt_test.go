package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyTicket(t *testing.T) {
	m := NewTicketManager("test-secret", time.Minute)

	ticket, err := m.IssueTicket("thread-1")
	require.NoError(t, err)
	require.NotEmpty(t, ticket)

	claims, err := m.VerifyTicket(ticket)
	require.NoError(t, err)
	require.Equal(t, "thread-1", claims.ThreadID)
}

func TestVerifyTicket_EmptyThreadID(t *testing.T) {
	m := NewTicketManager("test-secret", time.Minute)

	ticket, err := m.IssueTicket("")
	require.NoError(t, err)

	claims, err := m.VerifyTicket(ticket)
	require.NoError(t, err)
	require.Empty(t, claims.ThreadID)
}

func TestVerifyTicket_ExpiredTicketRejected(t *testing.T) {
	m := NewTicketManager("test-secret", -time.Minute)

	ticket, err := m.IssueTicket("thread-1")
	require.NoError(t, err)

	_, err = m.VerifyTicket(ticket)
	require.Error(t, err)
}

func TestVerifyTicket_WrongSecretRejected(t *testing.T) {
	issuer := NewTicketManager("secret-a", time.Minute)
	verifier := NewTicketManager("secret-b", time.Minute)

	ticket, err := issuer.IssueTicket("thread-1")
	require.NoError(t, err)

	_, err = verifier.VerifyTicket(ticket)
	require.Error(t, err)
}

func TestVerifyTicket_GarbageRejected(t *testing.T) {
	m := NewTicketManager("test-secret", time.Minute)
	_, err := m.VerifyTicket("not-a-jwt")
	require.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	first := GenerateRandomString(16)
	second := GenerateRandomString(16)
	require.Len(t, first, 32) // hex 编码后长度翻倍
	require.NotEqual(t, first, second)
}
