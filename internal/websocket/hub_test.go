package websocket

import (
	"encoding/json"
	"testing"

	"duel-service/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(hub *Hub, userID string) *Client {
	return NewClient(hub, nil, userID, userID, zap.NewNop())
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	default:
		t.Fatal("no message queued")
		return Message{}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message queued: %s", data)
	default:
	}
}

func TestSendToUserFansOutToAllConnections(t *testing.T) {
	h := NewHub(zap.NewNop())
	first := newTestClient(h, "u1")
	second := newTestClient(h, "u1")
	other := newTestClient(h, "u2")
	for _, c := range []*Client{first, second, other} {
		h.registerClient(c)
	}

	h.SendToUser("u1", constants.EventInvitation, map[string]string{"session_id": "duel-1"})

	for _, c := range []*Client{first, second} {
		msg := receive(t, c)
		assert.Equal(t, constants.EventInvitation, msg.Type)
	}
	assertEmpty(t, other)
}

func TestSendToSessionReachesMembersOnly(t *testing.T) {
	h := NewHub(zap.NewNop())
	host := newTestClient(h, "u1")
	guest := newTestClient(h, "u2")
	bystander := newTestClient(h, "u3")
	for _, c := range []*Client{host, guest, bystander} {
		h.registerClient(c)
	}

	h.JoinSession("duel-1", "u1", "u2")
	h.SendToSession("duel-1", constants.EventQuestion, nil)

	assert.Equal(t, constants.EventQuestion, receive(t, host).Type)
	assert.Equal(t, constants.EventQuestion, receive(t, guest).Type)
	assertEmpty(t, bystander)
}

func TestReleaseSessionStopsBroadcasts(t *testing.T) {
	h := NewHub(zap.NewNop())
	host := newTestClient(h, "u1")
	h.registerClient(host)
	h.JoinSession("duel-1", "u1", "u2")

	h.ReleaseSession("duel-1")
	h.SendToSession("duel-1", constants.EventQuestion, nil)

	assertEmpty(t, host)
}

func TestOnlineTracksRegistrations(t *testing.T) {
	h := NewHub(zap.NewNop())
	assert.False(t, h.Online("u1"))

	first := newTestClient(h, "u1")
	second := newTestClient(h, "u1")
	h.registerClient(first)
	h.registerClient(second)
	assert.True(t, h.Online("u1"))

	h.unregisterClient(first)
	assert.True(t, h.Online("u1"), "one live connection keeps the user online")

	h.unregisterClient(second)
	assert.False(t, h.Online("u1"))
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(h, "u1")
	h.registerClient(c)
	h.unregisterClient(c)

	_, open := <-c.Send
	assert.False(t, open)

	// Late broadcasts against a closed connection must not panic.
	h.SendToUser("u1", constants.EventQuestion, nil)
	c.SendMessage(constants.EventQuestion, nil)
}

func TestUnregisterUnknownClientIsNoop(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient(h, "u1")

	h.unregisterClient(c)
	assert.False(t, h.Online("u1"))
}

func TestSessionMembershipSurvivesReconnect(t *testing.T) {
	h := NewHub(zap.NewNop())
	first := newTestClient(h, "u1")
	h.registerClient(first)
	h.JoinSession("duel-1", "u1")

	h.unregisterClient(first)
	second := newTestClient(h, "u1")
	h.registerClient(second)

	h.SendToSession("duel-1", constants.EventQuestion, nil)
	assert.Equal(t, constants.EventQuestion, receive(t, second).Type)
}
