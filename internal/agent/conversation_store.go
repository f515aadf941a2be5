package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/zor/internal/domain"
)

// ConversationStore keeps per-user conversation history.
type ConversationStore interface {
	// GetOrCreate returns the conversation for userID, creating it seeded
	// with a system message when absent. created reports which happened.
	GetOrCreate(userID, systemPrompt string) (conv domain.Conversation, created bool)

	// Get returns a copy of the conversation for userID.
	Get(userID string) (domain.Conversation, bool)

	// Append adds messages to an existing conversation, in order.
	Append(userID string, msgs ...domain.Message) bool

	// History returns a copy of the messages for userID.
	History(userID string) []domain.Message

	// Count returns the number of conversations.
	Count() int

	// MessageCount returns the number of messages across all conversations.
	MessageCount() int
}

// MemoryConversationStore is an in-memory ConversationStore. Conversations
// live for the lifetime of the process.
type MemoryConversationStore struct {
	mu    sync.RWMutex
	convs map[string]*domain.Conversation // user id → conversation
	total int
}

// NewMemoryConversationStore creates an empty store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		convs: make(map[string]*domain.Conversation),
	}
}

func (s *MemoryConversationStore) GetOrCreate(userID, systemPrompt string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.convs[userID]; ok {
		return copyConversation(c), false
	}

	now := time.Now()
	c := &domain.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		Messages: []domain.Message{{
			Role:      domain.RoleSystem,
			Content:   systemPrompt,
			Timestamp: now,
		}},
	}
	s.convs[userID] = c
	s.total++
	return copyConversation(c), true
}

func (s *MemoryConversationStore) Get(userID string) (domain.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[userID]
	if !ok {
		return domain.Conversation{}, false
	}
	return copyConversation(c), true
}

func (s *MemoryConversationStore) Append(userID string, msgs ...domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[userID]
	if !ok {
		return false
	}
	now := time.Now()
	for _, m := range msgs {
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		c.Messages = append(c.Messages, m)
	}
	c.UpdatedAt = now
	s.total += len(msgs)
	return true
}

func (s *MemoryConversationStore) History(userID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[userID]
	if !ok {
		return nil
	}
	return copyMessages(c.Messages)
}

func (s *MemoryConversationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}

func (s *MemoryConversationStore) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func copyConversation(c *domain.Conversation) domain.Conversation {
	out := *c
	out.Messages = copyMessages(c.Messages)
	return out
}

func copyMessages(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}
