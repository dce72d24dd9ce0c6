package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestResolve_MintsWhenBlank(t *testing.T) {
	s := NewStore()

	id, minted := s.Resolve("")
	assert.True(t, minted)
	assert.NotEmpty(t, id)

	id2, minted := s.Resolve("   ")
	assert.True(t, minted)
	assert.NotEqual(t, id, id2)

	same, minted := s.Resolve(id)
	assert.False(t, minted)
	assert.Equal(t, id, same)
	assert.Equal(t, 2, s.Len())
}

func TestUnknownSessionHasDefaults(t *testing.T) {
	s := NewStore()

	assert.Empty(t, s.History("nobody"))
	assert.Equal(t, "", s.LastEntity("nobody"))
	assert.True(t, s.Exists("nobody"))
}

func TestAppendMessage_KeepsLastTen(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		s.AppendMessage("sess", domain.Message{
			Text:      fmt.Sprintf("msg %d", i),
			IsUser:    i%2 == 0,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		assert.LessOrEqual(t, len(s.History("sess")), DefaultHistorySize)
	}

	history := s.History("sess")
	require.Len(t, history, 10)
	for i, msg := range history {
		assert.Equal(t, fmt.Sprintf("msg %d", 15+i), msg.Text)
	}
}

func TestAppendMessage_PairExceedingCap(t *testing.T) {
	s := NewStore(WithHistorySize(3))

	s.AppendMessage("sess", domain.Message{Text: "a"}, domain.Message{Text: "b"})
	s.AppendMessage("sess", domain.Message{Text: "c"}, domain.Message{Text: "d"})

	history := s.History("sess")
	require.Len(t, history, 3)
	assert.Equal(t, "b", history[0].Text)
	assert.Equal(t, "d", history[2].Text)
}

func TestHistory_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AppendMessage("sess", domain.Message{Text: "original"})

	h := s.History("sess")
	h[0].Text = "mutated"

	assert.Equal(t, "original", s.History("sess")[0].Text)
}

func TestSetLastEntity_IgnoresBlank(t *testing.T) {
	s := NewStore()

	s.SetLastEntity("sess", "Acme Flooring")
	s.SetLastEntity("sess", "  ")

	assert.Equal(t, "Acme Flooring", s.LastEntity("sess"))
}

func TestTouchDailyCount_RollsOverAtUTCMidnight(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)}
	s := NewStore(WithClock(clock.Now))

	assert.True(t, s.TouchDailyCount("sess", 2))
	assert.True(t, s.TouchDailyCount("sess", 2))
	assert.False(t, s.TouchDailyCount("sess", 2))

	clock.Advance(2 * time.Minute)

	assert.True(t, s.TouchDailyCount("sess", 2))
	snap := s.Snapshot("sess", time.Second)
	assert.Equal(t, 1, snap.DailyCount.Count)
	assert.Equal(t, "2026-03-02", snap.DailyCount.Day)
}

func TestTouchDailyCount_Concurrent(t *testing.T) {
	s := NewStore()
	const limit = 50

	var wg sync.WaitGroup
	results := make(chan bool, limit+10)
	for i := 0; i < limit+10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.TouchDailyCount("sess", limit)
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for ok := range results {
		if ok {
			admitted++
		}
	}
	assert.Equal(t, limit, admitted)
	assert.Equal(t, limit, s.Snapshot("sess", time.Second).DailyCount.Count)
}

func TestPruneWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Counters{Window: []time.Time{
		now.Add(-5 * time.Second),
		now.Add(-3 * time.Second),
		now.Add(-time.Second),
	}}

	assert.Equal(t, 1, c.PruneWindow(now, 3*time.Second))
	assert.Equal(t, now.Add(-time.Second), c.Window[0])
}

func TestSnapshot_UnknownSessionNotCreated(t *testing.T) {
	s := NewStore()

	snap := s.Snapshot("ghost", time.Second)

	assert.Equal(t, "ghost", snap.ID)
	assert.False(t, s.Exists("ghost"))
}
