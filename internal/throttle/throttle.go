package throttle

import (
	"sync"
	"time"
)

// Throttle batches "some users can't be reached over DM" group notices.
// Users pile up in a per-chat set; a notice fires when the cooldown since
// the last one has passed, or earlier when the set reaches the batch
// threshold. Firing clears the set and restarts the cooldown.
type Throttle struct {
	mu       sync.Mutex
	cooldown time.Duration
	batch    int

	waiting    map[int64]map[int64]struct{}
	lastNotice map[int64]time.Time

	now func() time.Time
}

func New(cooldown time.Duration, batch int) *Throttle {
	return &Throttle{
		cooldown:   cooldown,
		batch:      batch,
		waiting:    make(map[int64]map[int64]struct{}),
		lastNotice: make(map[int64]time.Time),
		now:        time.Now,
	}
}

// Record adds a user whose DM could not be delivered and reports whether
// a group notice should be posted now for that chat.
func (t *Throttle) Record(chatID, userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.waiting[chatID]
	if set == nil {
		set = make(map[int64]struct{})
		t.waiting[chatID] = set
	}
	set[userID] = struct{}{}

	now := t.now()
	if now.Sub(t.lastNotice[chatID]) >= t.cooldown || len(set) >= t.batch {
		t.lastNotice[chatID] = now
		delete(t.waiting, chatID)
		return true
	}
	return false
}
