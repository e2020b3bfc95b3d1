package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keys "github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/redis"
)

func newPublisher(t *testing.T) *Publisher {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	p, err := NewPublisher(client, keys.NewKeyBuilder("test"))
	require.NoError(t, err)
	return p
}

func TestNewEvent(t *testing.T) {
	evt, err := NewEvent(EventClaimSigned, SeverityInfo, "claims", "0xa", SignedPayload{Message: "1:0xa:0", Nonce: 0})
	require.NoError(t, err)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, "0xa", evt.Wallet)

	var payload SignedPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "1:0xa:0", payload.Message)

	other, err := NewEvent(EventClaimSigned, SeverityInfo, "claims", "0xa", nil)
	require.NoError(t, err)
	assert.NotEqual(t, evt.ID, other.ID)
}

func TestChannelRouting(t *testing.T) {
	p := newPublisher(t)
	assert.Equal(t, "test:events:claim", p.Channel(EventClaimSigned))
	assert.Equal(t, "test:events:eligibility", p.Channel(EventOwnershipConflict))
	assert.Equal(t, "test:events:misc", p.Channel(EventType("other")))
}

func TestEmitAndSubscribe(t *testing.T) {
	p := newPublisher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := p.Subscribe(ctx, []EventType{EventClaimSigned})
	require.NoError(t, err)

	scored, err := NewEvent(EventEligibilityScored, SeverityInfo, "claims", "0xa", EligibilityPayload{Total: 10})
	require.NoError(t, err)
	signed, err := NewEvent(EventClaimSigned, SeverityInfo, "claims", "0xa", SignedPayload{Nonce: 3})
	require.NoError(t, err)

	require.NoError(t, p.Emit(ctx, scored))
	require.NoError(t, p.Emit(ctx, signed))

	select {
	case got := <-sub:
		require.NotNil(t, got)
		assert.Equal(t, signed.ID, got.ID)
		assert.Equal(t, EventClaimSigned, got.Type)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}

	assert.Equal(t, uint64(2), p.GetMetrics()["events_published"])
}

func TestNop(t *testing.T) {
	var e Emitter = Nop{}
	assert.NoError(t, e.Emit(context.Background(), &Event{}))
}
