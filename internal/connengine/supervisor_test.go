package connengine

import (
	"context"
	"encoding/json"
	"testing"

	alog "github.com/anacrolix/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannyzb/filerelay/internal/queue"
	"github.com/dannyzb/filerelay/internal/relaystate"
)

// Run blocks until teardown (including the synchronous, best-effort
// peer-disconnect notification) has completed, so these tests can assert on
// queue contents immediately after it returns.

func TestRunNotifiesRecipientOnUncleanSenderDisconnect(t *testing.T) {
	state := relaystate.New()
	aq := queue.New()
	bq := queue.New()
	state.AddPeer("A", aq)
	state.AddPeer("B", bq)
	state.Pair("A", "B")

	sockA := newFakeSocket()
	sockA.push(CloseMessage, []byte("connection reset"))

	a := New("A", sockA, aq, state, alog.Default, nil)
	a.Run(context.Background())

	select {
	case f := <-bq.Recv():
		var m map[string]any
		require.NoError(t, json.Unmarshal(f.Data, &m))
		assert.Equal(t, "peerDisconnected", m["type"])
		assert.Equal(t, "A", m["peerId"])
		assert.Equal(t, "sender", m["role"])
	default:
		t.Fatal("expected a peerDisconnected frame on B's queue")
	}

	_, ok := state.RecipientOf("A")
	assert.False(t, ok)
	assert.False(t, state.Connected("A"))
}

func TestRunSkipsNotifyOnTransferCompletedClose(t *testing.T) {
	state := relaystate.New()
	aq := queue.New()
	bq := queue.New()
	state.AddPeer("A", aq)
	state.AddPeer("B", bq)
	state.Pair("A", "B")

	sockA := newFakeSocket()
	sockA.push(CloseMessage, []byte("Transfer completed"))

	a := New("A", sockA, aq, state, alog.Default, nil)
	a.Run(context.Background())

	select {
	case f := <-bq.Recv():
		t.Fatalf("unexpected frame on B's queue: %s", f.Data)
	default:
	}

	_, ok := state.RecipientOf("A")
	assert.False(t, ok, "cleanup still removes A's own pairing even when notification is skipped")
}

func TestRunNotifiesSenderOnRecipientDisconnect(t *testing.T) {
	state := relaystate.New()
	aq := queue.New()
	bq := queue.New()
	state.AddPeer("A", aq)
	state.AddPeer("B", bq)
	state.Pair("A", "B")

	sockB := newFakeSocket()
	sockB.push(CloseMessage, []byte("connection reset"))

	b := New("B", sockB, bq, state, alog.Default, nil)
	b.Run(context.Background())

	select {
	case f := <-aq.Recv():
		var m map[string]any
		require.NoError(t, json.Unmarshal(f.Data, &m))
		assert.Equal(t, "peerDisconnected", m["type"])
		assert.Equal(t, "B", m["peerId"])
		assert.Equal(t, "recipient", m["role"])
	default:
		t.Fatal("expected a peerDisconnected frame on A's queue")
	}

	_, ok := state.RecipientOf("A")
	assert.False(t, ok)
}

func TestRunCleansUpMetadataAndConnection(t *testing.T) {
	state := relaystate.New()
	aq := queue.New()
	state.AddPeer("A", aq)
	state.PutMetadata("A", relaystate.FileMetadata{Name: "x.bin", Size: 1})

	sockA := newFakeSocket()
	sockA.push(CloseMessage, []byte("bye"))

	a := New("A", sockA, aq, state, alog.Default, nil)
	a.Run(context.Background())

	assert.False(t, state.Connected("A"))
	_, ok := state.GetMetadata("A")
	assert.False(t, ok)
}
