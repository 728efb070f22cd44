package app

import (
	"sync"

	"word-weaver-service/internal/domain"
)

// LeaderboardFeed fans the student ranking out to live subscribers (the
// websocket transport). Slow subscribers have their stale update dropped
// rather than blocking the broadcaster.
type LeaderboardFeed struct {
	mu          sync.Mutex
	subscribers map[chan []domain.LeaderboardEntry]struct{}
}

func NewLeaderboardFeed() *LeaderboardFeed {
	return &LeaderboardFeed{subscribers: make(map[chan []domain.LeaderboardEntry]struct{})}
}

// Subscribe returns a channel of leaderboard updates. The caller must invoke
// the returned cancel function to avoid leaks.
func (f *LeaderboardFeed) Subscribe() (<-chan []domain.LeaderboardEntry, func()) {
	ch := make(chan []domain.LeaderboardEntry, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast pushes the latest ranking to every subscriber.
func (f *LeaderboardFeed) Broadcast(entries []domain.LeaderboardEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- entries:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- entries
		}
	}
}
