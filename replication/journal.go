package replication

import (
	"sync"

	"github.com/milk9111/actionengine/action"
	"github.com/milk9111/actionengine/ecs"
)

// Journal keeps a rolling window of published messages for diagnostics,
// tooling and tests.
type Journal struct {
	mu       sync.Mutex
	capacity int
	messages []Message
	dropped  uint64
}

// NewJournal keeps at most capacity messages. A capacity <= 0 keeps all.
func NewJournal(capacity int) *Journal {
	return &Journal{capacity: capacity}
}

func (j *Journal) Publish(msg Message) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.messages = append(j.messages, msg)
	if j.capacity > 0 && len(j.messages) > j.capacity {
		over := len(j.messages) - j.capacity
		j.dropped += uint64(over)
		j.messages = append(j.messages[:0:0], j.messages[over:]...)
	}
}

// Messages returns a copy of the retained messages, oldest first.
func (j *Journal) Messages() []Message {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Message, len(j.messages))
	copy(out, j.messages)
	return out
}

// Drain returns the retained messages and clears the journal.
func (j *Journal) Drain() []Message {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	out := j.messages
	j.messages = nil
	return out
}

// Dropped reports how many messages fell out of the window.
func (j *Journal) Dropped() uint64 {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// Filter returns the retained messages for owner matching kind. An empty
// kind matches every kind; ecs.Nil matches every owner.
func (j *Journal) Filter(owner ecs.Entity, kind MessageKind) []Message {
	var out []Message
	for _, m := range j.Messages() {
		if owner != ecs.Nil && m.Owner != uint64(owner) {
			continue
		}
		if kind != "" && m.Kind != kind {
			continue
		}
		out = append(out, m)
	}
	return out
}

// CountCancels counts cancel-by-type broadcasts for t.
func (j *Journal) CountCancels(owner ecs.Entity, t action.Type) int {
	n := 0
	for _, m := range j.Filter(owner, KindCancelByType) {
		if m.ActionType == t {
			n++
		}
	}
	return n
}
