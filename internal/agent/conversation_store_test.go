package agent

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/zor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateSeedsSystemPrompt(t *testing.T) {
	s := NewMemoryConversationStore()

	conv, created := s.GetOrCreate("5511", "sys")
	require.True(t, created)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "5511", conv.UserID)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, domain.RoleSystem, conv.Messages[0].Role)
	assert.Equal(t, "sys", conv.Messages[0].Content)

	again, created := s.GetOrCreate("5511", "other")
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)
	assert.Len(t, again.Messages, 1)
	assert.Equal(t, "sys", again.Messages[0].Content)
}

func TestAppendAndHistory(t *testing.T) {
	s := NewMemoryConversationStore()
	assert.False(t, s.Append("ghost", domain.Message{Role: domain.RoleUser, Content: "x"}))
	assert.Nil(t, s.History("ghost"))

	s.GetOrCreate("u", "sys")
	require.True(t, s.Append("u",
		domain.Message{Role: domain.RoleUser, Content: "oi"},
		domain.Message{Role: domain.RoleAssistant, Content: "olá"},
	))

	h := s.History("u")
	require.Len(t, h, 3)
	assert.Equal(t, domain.RoleUser, h[1].Role)
	assert.Equal(t, "olá", h[2].Content)
	assert.False(t, h[1].Timestamp.IsZero())

	// mutating the copy leaves the store intact
	h[1].Content = "changed"
	assert.Equal(t, "oi", s.History("u")[1].Content)

	conv, ok := s.Get("u")
	require.True(t, ok)
	assert.Len(t, conv.Messages, 3)
	_, ok = s.Get("ghost")
	assert.False(t, ok)
}

func TestCounts(t *testing.T) {
	s := NewMemoryConversationStore()
	assert.Zero(t, s.Count())
	assert.Zero(t, s.MessageCount())

	s.GetOrCreate("a", "sys")
	s.GetOrCreate("b", "sys")
	s.Append("a", domain.Message{Role: domain.RoleUser, Content: "1"}, domain.Message{Role: domain.RoleAssistant, Content: "2"})

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 4, s.MessageCount())
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryConversationStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%5)
			s.GetOrCreate(user, "sys")
			s.Append(user, domain.Message{Role: domain.RoleUser, Content: "m"})
			_ = s.History(user)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, s.Count())
	assert.Equal(t, 25, s.MessageCount())
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.Lock("a")
	unlockB := k.Lock("b") // different key does not block
	assert.Equal(t, 2, k.size())

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same key acquired while held")
	default:
	}

	unlockA()
	<-acquired
	unlockB()
	assert.Eventually(t, func() bool { return k.size() == 0 }, time.Second, 5*time.Millisecond)
}
