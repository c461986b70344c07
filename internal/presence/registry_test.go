package presence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/presence"
)

type fakeConn struct {
	delivered []any
}

func (c *fakeConn) Deliver(payload any) bool {
	c.delivered = append(c.delivered, payload)
	return true
}

func TestAnnounceLastConnectWins(t *testing.T) {
	reg := presence.NewRegistry()
	h1 := &fakeConn{}
	h2 := &fakeConn{}

	online := reg.Announce("alice", h1)
	assert.Equal(t, []string{"alice"}, online)

	got, ok := reg.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, h1, got)

	// second device supersedes the first
	reg.Announce("alice", h2)
	got, ok = reg.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, h2, got)
}

func TestWithdrawStaleConnIsNoop(t *testing.T) {
	reg := presence.NewRegistry()
	h1 := &fakeConn{}
	h2 := &fakeConn{}

	reg.Announce("alice", h1)
	reg.Announce("alice", h2)

	// the old socket closing after the reconnect must not knock alice offline
	_, _, changed := reg.Withdraw(h1)
	assert.False(t, changed)

	got, ok := reg.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, h2, got)

	user, online, changed := reg.Withdraw(h2)
	assert.True(t, changed)
	assert.Equal(t, "alice", user)
	assert.Empty(t, online)

	_, ok = reg.Lookup("alice")
	assert.False(t, ok)
}

func TestWithdrawUnknownConn(t *testing.T) {
	reg := presence.NewRegistry()
	_, _, changed := reg.Withdraw(&fakeConn{})
	assert.False(t, changed)
}

func TestOnlineSorted(t *testing.T) {
	reg := presence.NewRegistry()
	reg.Announce("carol", &fakeConn{})
	reg.Announce("alice", &fakeConn{})
	reg.Announce("bob", &fakeConn{})

	assert.Equal(t, []string{"alice", "bob", "carol"}, reg.Online())
}
