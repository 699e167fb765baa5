package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCoordinator(defaultChannel string, maxUsers int) *Coordinator {
	var ids int
	return NewCoordinator(NewChannelStore(testClock()), Options{
		DefaultChannel: defaultChannel,
		MaxUsers:       maxUsers,
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
		Now: testClock(),
	})
}

func TestLoginValidatesCredentials(t *testing.T) {
	c := testCoordinator("lobby", 4)

	for _, user := range []User{
		{},
		{Name: "alice"},
		{SessionID: "s1"},
	} {
		_, err := c.Login("lobby", user)
		require.NotNil(t, err)
		assert.Equal(t, ErrCodeUsernameInvalid, err.Code)
	}
}

func TestLoginCreatesChannelWithoutLoginEvent(t *testing.T) {
	c := testCoordinator("lobby", 4)

	proj, err := c.Login("den", User{Name: "alice", SessionID: "s1"})
	require.Nil(t, err)
	assert.Equal(t, "den", proj.Name)
	assert.Equal(t, []string{"alice"}, proj.Users)
	assert.Empty(t, proj.Events, "creation login has no one to notify")
}

func TestLoginUsernameUnavailable(t *testing.T) {
	c := testCoordinator("lobby", 4)

	_, err := c.Login("lobby", User{Name: "x", SessionID: "1"})
	require.Nil(t, err)

	_, err = c.Login("lobby", User{Name: "x", SessionID: "2"})
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeUsernameUnavailable, err.Code)
}

func TestLoginSameSessionIsIdempotent(t *testing.T) {
	c := testCoordinator("lobby", 4)

	_, err := c.Login("lobby", User{Name: "x", SessionID: "1"})
	require.Nil(t, err)
	proj, err := c.Login("lobby", User{Name: "y", SessionID: "2"})
	require.Nil(t, err)
	require.Len(t, proj.Events, 1)

	// Re-login of an existing session: no duplicate membership, no
	// second login event.
	proj, err = c.Login("lobby", User{Name: "y", SessionID: "2"})
	require.Nil(t, err)
	assert.Equal(t, []string{"x", "y"}, proj.Users)
	require.Len(t, proj.Events, 1)
	assert.Equal(t, SystemLogin, proj.Events[0].System)
	assert.Equal(t, "y", proj.Events[0].User)
}

// A session re-logging in under a new display name keeps its old entry
// (the replacement filter matches by name), so the session is briefly
// listed twice. Logout evicts every entry of the session and restores
// the one-entry-per-session shape.
func TestReloginUnderNewNameThenLogoutEvictsAllEntries(t *testing.T) {
	c := testCoordinator("lobby", 4)

	_, err := c.Login("lobby", User{Name: "x", SessionID: "1"})
	require.Nil(t, err)

	proj, err := c.Login("lobby", User{Name: "y", SessionID: "1"})
	require.Nil(t, err)
	assert.Equal(t, []string{"x", "y"}, proj.Users)
	assert.Empty(t, proj.Events, "known session appends no login event")

	proj, err = c.Logout("lobby", User{Name: "y", SessionID: "1"})
	require.Nil(t, err)
	assert.Empty(t, proj.Users, "logout removes every entry of the session")
	require.Len(t, proj.Events, 1)
	assert.Equal(t, SystemLogout, proj.Events[0].System)
}

func TestLoginMaxUsers(t *testing.T) {
	c := testCoordinator("lobby", 2)

	_, err := c.Login("lobby", User{Name: "a", SessionID: "1"})
	require.Nil(t, err)
	_, err = c.Login("lobby", User{Name: "b", SessionID: "2"})
	require.Nil(t, err)

	_, err = c.Login("lobby", User{Name: "c", SessionID: "3"})
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeMaxUsers, err.Code)

	// Removing one occupant admits a new one.
	_, err = c.Logout("lobby", User{Name: "a", SessionID: "1"})
	require.Nil(t, err)
	proj, err := c.Login("lobby", User{Name: "c", SessionID: "3"})
	require.Nil(t, err)
	assert.Equal(t, []string{"b", "c"}, proj.Users)
}

func TestLogoutDeletesEmptiedChannel(t *testing.T) {
	c := testCoordinator("lobby", 4)

	_, err := c.Login("den", User{Name: "alice", SessionID: "s1"})
	require.Nil(t, err)

	proj, err := c.Logout("den", User{Name: "alice", SessionID: "s1"})
	require.Nil(t, err)
	assert.Nil(t, proj, "deleted channel projects as null")

	_, ok := c.Store().Get("den")
	assert.False(t, ok)

	// A later login recreates the channel from scratch.
	proj, err = c.Login("den", User{Name: "bob", SessionID: "s2"})
	require.Nil(t, err)
	assert.Empty(t, proj.Events)
}

func TestLogoutKeepsDefaultChannel(t *testing.T) {
	c := testCoordinator("lobby", 4)

	_, err := c.Login("lobby", User{Name: "alice", SessionID: "s1"})
	require.Nil(t, err)

	proj, err := c.Logout("lobby", User{Name: "alice", SessionID: "s1"})
	require.Nil(t, err)
	require.NotNil(t, proj, "default channel survives empty")
	assert.Empty(t, proj.Users)

	ch, ok := c.Store().Get("lobby")
	require.True(t, ok)
	assert.Empty(t, ch.Users)
}

func TestLogoutUnknownChannel(t *testing.T) {
	c := testCoordinator("lobby", 4)

	_, err := c.Logout("nowhere", User{Name: "alice", SessionID: "s1"})
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeChannelNotFound, err.Code)
}

func TestLogoutEvictsBySessionID(t *testing.T) {
	c := testCoordinator("lobby", 4)

	_, err := c.Login("lobby", User{Name: "a", SessionID: "1"})
	require.Nil(t, err)
	_, err = c.Login("lobby", User{Name: "b", SessionID: "2"})
	require.Nil(t, err)

	proj, err := c.Logout("lobby", User{Name: "a", SessionID: "1"})
	require.Nil(t, err)
	assert.Equal(t, []string{"b"}, proj.Users)
	last := proj.Events[len(proj.Events)-1]
	assert.Equal(t, SystemLogout, last.System)
	assert.Equal(t, "a", last.User)
}

func TestSubmitEventRejectsNonObjectPayload(t *testing.T) {
	c := testCoordinator("lobby", 4)
	c.Login("lobby", User{Name: "alice", SessionID: "s1"})

	ev, err := c.SubmitEvent("lobby", User{Name: "alice", SessionID: "s1"}, nil)
	assert.Nil(t, ev)
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeInvalidPayload, err.Code)

	ch, _ := c.Store().Get("lobby")
	assert.Empty(t, ch.Events, "rejected payloads append nothing")
}

func TestSubmitEventAppendsUserEvent(t *testing.T) {
	c := testCoordinator("lobby", 4)
	c.Login("lobby", User{Name: "alice", SessionID: "s1"})

	ev, err := c.SubmitEvent("lobby", User{Name: "alice", SessionID: "s1"}, map[string]any{"text": "hi"})
	require.Nil(t, err)
	assert.Equal(t, EventUser, ev.Kind)
	assert.Equal(t, "alice", ev.User)
	assert.Equal(t, "lobby", ev.Channel)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, map[string]any{"text": "hi"}, ev.Data)

	ch, _ := c.Store().Get("lobby")
	require.Len(t, ch.Events, 1)
	assert.Same(t, ev, ch.Events[0])
}

func TestSubmitEventUnknownChannel(t *testing.T) {
	c := testCoordinator("lobby", 4)

	_, err := c.SubmitEvent("nowhere", User{Name: "a", SessionID: "1"}, map[string]any{"k": "v"})
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeChannelNotFound, err.Code)
}

func TestSubmitEventDoesNotRequireMembership(t *testing.T) {
	c := testCoordinator("lobby", 4)

	ev, err := c.SubmitEvent("lobby", User{Name: "lurker", SessionID: "s9"}, map[string]any{"text": "hi"})
	require.Nil(t, err)
	assert.Equal(t, "lurker", ev.User)
}

func TestEventLogIsAppendOnlyAndOrdered(t *testing.T) {
	c := testCoordinator("lobby", 8)

	c.Login("lobby", User{Name: "a", SessionID: "1"})
	c.Login("lobby", User{Name: "b", SessionID: "2"})
	c.SubmitEvent("lobby", User{Name: "a", SessionID: "1"}, map[string]any{"n": 1})
	c.SubmitEvent("lobby", User{Name: "b", SessionID: "2"}, map[string]any{"n": 2})
	c.Logout("lobby", User{Name: "a", SessionID: "1"})

	ch, _ := c.Store().Get("lobby")
	require.Len(t, ch.Events, 4)
	for i := 1; i < len(ch.Events); i++ {
		assert.Greater(t, ch.Events[i].Time, ch.Events[i-1].Time, "log must stay time-ordered")
	}
	assert.Equal(t, SystemLogin, ch.Events[0].System)
	assert.Equal(t, SystemLogout, ch.Events[3].System)
}

// Mirrors the lobby walkthrough: create-on-startup, two logins, one
// user event, one logout.
func TestLobbyScenario(t *testing.T) {
	c := testCoordinator("lobby", 8)

	ch, ok := c.Store().Get("lobby")
	require.True(t, ok)
	assert.Empty(t, ch.Users)

	proj, err := c.Login("lobby", User{Name: "alice", SessionID: "s1"})
	require.Nil(t, err)
	assert.Equal(t, []string{"alice"}, proj.Users)
	assert.Empty(t, proj.Events)

	proj, err = c.Login("lobby", User{Name: "bob", SessionID: "s2"})
	require.Nil(t, err)
	assert.Equal(t, []string{"alice", "bob"}, proj.Users)
	require.Len(t, proj.Events, 1)
	assert.Equal(t, "bob", proj.Events[0].User)

	ev, err := c.SubmitEvent("lobby", User{Name: "alice", SessionID: "s1"}, map[string]any{"text": "hi"})
	require.Nil(t, err)
	assert.Equal(t, "alice", ev.User)

	proj, err = c.Logout("lobby", User{Name: "alice", SessionID: "s1"})
	require.Nil(t, err)
	assert.Equal(t, []string{"bob"}, proj.Users)
	require.Len(t, proj.Events, 3)
	assert.Equal(t, SystemLogout, proj.Events[2].System)
}

func TestProject(t *testing.T) {
	ch := &Channel{
		Name:    "den",
		Created: 42,
		Users:   []User{{Name: "a", SessionID: "1"}, {Name: "b", SessionID: "2"}},
		Events:  []*Event{{ID: "e1"}},
	}

	proj := Project(ch)
	assert.Equal(t, "den", proj.Name)
	assert.Equal(t, int64(42), proj.Created)
	assert.Equal(t, []string{"a", "b"}, proj.Users)
	assert.Equal(t, ch.Events, proj.Events)
}
