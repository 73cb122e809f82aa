package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Memory persists conversation turns between requests, keyed by session id.
type Memory interface {
	Load(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	Clear(ctx context.Context, sessionID string) error
}

type session struct {
	turns    []Turn
	lastSeen time.Time
}

// InMemory keeps sessions in process. Idle sessions are removed by Prune.
type InMemory struct {
	mu       sync.Mutex
	sessions map[string]*session
	maxTurns int
	now      func() time.Time
}

func NewInMemory(maxTurns int) *InMemory {
	return &InMemory{
		sessions: make(map[string]*session),
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

func (m *InMemory) Load(_ context.Context, sessionID string) ([]Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	s.lastSeen = m.now()

	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns, nil
}

func (m *InMemory) Append(_ context.Context, sessionID string, turns ...Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{}
		m.sessions[sessionID] = s
	}
	s.turns = append(s.turns, turns...)
	if m.maxTurns > 0 && len(s.turns) > m.maxTurns {
		s.turns = s.turns[len(s.turns)-m.maxTurns:]
	}
	s.lastSeen = m.now()
	return nil
}

func (m *InMemory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// Prune drops sessions idle for longer than maxIdle and reports how many.
func (m *InMemory) Prune(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxIdle)
	removed := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *InMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RedisMemory stores each session as a JSON list with a sliding TTL.
type RedisMemory struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	maxTurns int
}

func NewRedisMemory(client *redis.Client, ttl time.Duration, maxTurns int) *RedisMemory {
	return &RedisMemory{
		client:   client,
		prefix:   "studykit:session:",
		ttl:      ttl,
		maxTurns: maxTurns,
	}
}

func (m *RedisMemory) key(sessionID string) string {
	return m.prefix + sessionID
}

func (m *RedisMemory) Load(ctx context.Context, sessionID string) ([]Turn, error) {
	values, err := m.client.LRange(ctx, m.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("error loading session %s: %w", sessionID, err)
	}

	turns := make([]Turn, 0, len(values))
	for _, v := range values {
		var t Turn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, fmt.Errorf("error decoding session turn: %w", err)
		}
		turns = append(turns, t)
	}

	if m.ttl > 0 && len(turns) > 0 {
		m.client.Expire(ctx, m.key(sessionID), m.ttl)
	}

	return turns, nil
}

func (m *RedisMemory) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, len(turns))
	for i, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("error encoding session turn: %w", err)
		}
		values[i] = data
	}

	key := m.key(sessionID)
	pipe := m.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if m.maxTurns > 0 {
		pipe.LTrim(ctx, key, int64(-m.maxTurns), -1)
	}
	if m.ttl > 0 {
		pipe.Expire(ctx, key, m.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error appending to session %s: %w", sessionID, err)
	}
	return nil
}

func (m *RedisMemory) Clear(ctx context.Context, sessionID string) error {
	if err := m.client.Del(ctx, m.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("error clearing session %s: %w", sessionID, err)
	}
	return nil
}

// Sessions opens and saves conversations against a memory. A nil memory or
// an empty session id gives a fresh conversation that is never persisted.
type Sessions struct {
	memory Memory
}

func NewSessions(memory Memory) *Sessions {
	return &Sessions{memory: memory}
}

func (s *Sessions) Open(ctx context.Context, sessionID string) (*Conversation, error) {
	if s == nil || s.memory == nil || sessionID == "" {
		return NewConversation(sessionID, nil), nil
	}

	turns, err := s.memory.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewConversation(sessionID, turns), nil
}

func (s *Sessions) Save(ctx context.Context, conv *Conversation) error {
	if s == nil || s.memory == nil || conv == nil || conv.SessionID == "" {
		return nil
	}

	pending := conv.Pending()
	if len(pending) == 0 {
		return nil
	}

	if err := s.memory.Append(ctx, conv.SessionID, pending...); err != nil {
		return err
	}
	conv.markSaved()
	return nil
}

func (s *Sessions) Reset(ctx context.Context, sessionID string) error {
	if s == nil || s.memory == nil || sessionID == "" {
		return nil
	}
	return s.memory.Clear(ctx, sessionID)
}
