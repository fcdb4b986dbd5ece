package nonce

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
)

const (
	defaultShards = 32

	// sweepEvery is how many inserts a shard takes between opportunistic
	// sweeps of its expired records.
	sweepEvery = 256
)

type key struct {
	partner string
	nonce   string
}

type shard struct {
	mu      sync.Mutex
	records map[key]time.Time // value: expiresAt
	inserts int
}

// Memory is a process-local Registry. Keys are spread over shards, each
// guarded by its own mutex, so check-and-insert is serialized per key while
// unrelated nonces rarely contend. A restart forgets every record.
type Memory struct {
	shards []*shard
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	m := &Memory{shards: make([]*shard, defaultShards)}
	for i := range m.shards {
		m.shards[i] = &shard{records: make(map[key]time.Time)}
	}
	return m
}

func (m *Memory) shardFor(k key) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.partner))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.nonce))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

// CheckAndConsume implements Registry.
func (m *Memory) CheckAndConsume(_ context.Context, partnerID, nonce string, expiresAt, now time.Time) error {
	if partnerID == "" || nonce == "" {
		return ErrInvalid
	}

	k := key{partner: partnerID, nonce: nonce}
	s := m.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	if exp, ok := s.records[k]; ok {
		rec := domain.NonceRecord{PartnerID: partnerID, Nonce: nonce, ExpiresAt: exp}
		if rec.Live(now) {
			return ErrReplayed
		}
	}

	s.records[k] = expiresAt
	s.inserts++
	if s.inserts%sweepEvery == 0 {
		s.sweep(now)
	}
	return nil
}

// Prune implements Registry.
func (m *Memory) Prune(_ context.Context, now time.Time) (int, error) {
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		removed += s.sweep(now)
		s.mu.Unlock()
	}
	return removed, nil
}

// Ping implements Registry; memory is always writable.
func (m *Memory) Ping(context.Context) error { return nil }

// Len returns the number of records currently held, expired or not.
func (m *Memory) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		n += len(s.records)
		s.mu.Unlock()
	}
	return n
}

// sweep removes records with expiresAt < now. Caller holds s.mu.
func (s *shard) sweep(now time.Time) int {
	removed := 0
	for k, exp := range s.records {
		if exp.Before(now) {
			delete(s.records, k)
			removed++
		}
	}
	return removed
}
