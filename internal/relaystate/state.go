// Package relaystate holds the process-wide pairing state shared by every
// connection: who is connected, which sender is paired to which recipient,
// and the last file metadata a sender announced. Each map is guarded by its
// own lock (github.com/anacrolix/sync, the teacher's deadlock-checking
// drop-in for sync.RWMutex) so that one slow connection never serialises
// the others. No method here performs I/O or blocks on a channel send;
// callers do that after the lock is released.
package relaystate

import (
	"github.com/anacrolix/sync"

	"github.com/dannyzb/filerelay/internal/queue"
)

// FileMetadata is the last file a sender announced via a fileMeta event.
type FileMetadata struct {
	Name     string
	Size     uint64
	MimeType string
}

// State is the shared pairing state for the whole relay process. Lock
// acquisition order for any operation touching more than one map is fixed:
// connections, then activePairings, then fileMetadata, matching §4.1.
type State struct {
	connMu sync.RWMutex
	conns  map[string]*queue.Queue

	pairMu sync.RWMutex
	pairs  map[string]string // sender -> recipient

	metaMu sync.RWMutex
	meta   map[string]FileMetadata
}

func New() *State {
	return &State{
		conns: make(map[string]*queue.Queue),
		pairs: make(map[string]string),
		meta:  make(map[string]FileMetadata),
	}
}

// AddPeer inserts or overwrites the connection's outbound queue. A
// late-arriving duplicate peer_id silently orphans the earlier socket's
// writer — preserved from the source behaviour, see DESIGN.md.
func (s *State) AddPeer(id string, q *queue.Queue) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conns[id] = q
}

// RemovePeer removes id from the connections map and drops any pairing it
// holds as a sender. Pairings where id is the *recipient* are the caller's
// responsibility (discovered via SenderOf during disconnect notification,
// see connengine.supervisor).
func (s *State) RemovePeer(id string) {
	s.connMu.Lock()
	delete(s.conns, id)
	s.connMu.Unlock()

	s.pairMu.Lock()
	delete(s.pairs, id)
	s.pairMu.Unlock()
}

// GetQueue returns the outbound queue handle for id, if connected.
func (s *State) GetQueue(id string) (*queue.Queue, bool) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	q, ok := s.conns[id]
	return q, ok
}

// Connected reports whether id currently has a live connection.
func (s *State) Connected(id string) bool {
	_, ok := s.GetQueue(id)
	return ok
}

// Pair records sender -> recipient, overwriting any existing pairing for
// sender. It checks nothing itself; the recipientReady handler checks that
// sender is connected and not already paired before calling it.
func (s *State) Pair(sender, recipient string) {
	s.pairMu.Lock()
	defer s.pairMu.Unlock()
	s.pairs[sender] = recipient
}

// Unpair removes any pairing keyed by sender.
func (s *State) Unpair(sender string) {
	s.pairMu.Lock()
	defer s.pairMu.Unlock()
	delete(s.pairs, sender)
}

// RecipientOf returns the recipient currently paired to sender, if any.
func (s *State) RecipientOf(sender string) (string, bool) {
	s.pairMu.RLock()
	defer s.pairMu.RUnlock()
	r, ok := s.pairs[sender]
	return r, ok
}

// SenderOf reverse-scans for a sender currently paired to recipient. The
// invariant that a recipient appears at most once as a pairing value is not
// enforced (see SPEC_FULL.md §9 open question); this returns the first
// match found.
func (s *State) SenderOf(recipient string) (string, bool) {
	s.pairMu.RLock()
	defer s.pairMu.RUnlock()
	for sender, r := range s.pairs {
		if r == recipient {
			return sender, true
		}
	}
	return "", false
}

// PutMetadata overwrites the file metadata for sender. Last write wins.
func (s *State) PutMetadata(sender string, m FileMetadata) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	s.meta[sender] = m
}

// GetMetadata returns the last metadata sender announced, if any.
func (s *State) GetMetadata(sender string) (FileMetadata, bool) {
	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	m, ok := s.meta[sender]
	return m, ok
}

// ClearMetadata drops sender's file metadata. Called during cleanup; never
// accessed again after this point, matching the data-model invariant.
func (s *State) ClearMetadata(sender string) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	delete(s.meta, sender)
}

// Snapshot is a diagnostic, point-in-time copy of all three maps for the
// debug-state HTTP endpoint. It takes each lock independently and in the
// fixed order, so it is not atomic across maps — acceptable for a
// diagnostic view, see §4.1.
type Snapshot struct {
	Peers    []string
	Pairings map[string]string
	Metadata map[string]FileMetadata
}

func (s *State) Snapshot() Snapshot {
	s.connMu.RLock()
	peers := make([]string, 0, len(s.conns))
	for id := range s.conns {
		peers = append(peers, id)
	}
	s.connMu.RUnlock()

	s.pairMu.RLock()
	pairs := make(map[string]string, len(s.pairs))
	for k, v := range s.pairs {
		pairs[k] = v
	}
	s.pairMu.RUnlock()

	s.metaMu.RLock()
	meta := make(map[string]FileMetadata, len(s.meta))
	for k, v := range s.meta {
		meta[k] = v
	}
	s.metaMu.RUnlock()

	return Snapshot{Peers: peers, Pairings: pairs, Metadata: meta}
}
