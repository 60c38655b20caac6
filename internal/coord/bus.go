package coord

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/semantic"
	"github.com/FocuswithJustin/JuniperHelps/internal/logging"
)

// activationBuffer is the number of events queued per activation subscriber
// before further events are dropped for it.
const activationBuffer = 16

// Event is emitted when the user activates a quote. Consumers highlight every
// token whose aligned original word IDs contain one of the event's IDs.
type Event struct {
	ID                 string      `json:"id"`
	SemanticID         string      `json:"semanticId"`
	VerseRef           ir.VerseRef `json:"verseRef"`
	AlignedSemanticIDs []string    `json:"alignedSemanticIds"`
}

// NewEvent returns an event for the given semantic IDs. The first ID is the
// primary one. It returns false when ids is empty.
func NewEvent(ref ir.VerseRef, ids []string) (Event, bool) {
	if len(ids) == 0 {
		return Event{}, false
	}
	return Event{
		ID:                 uuid.NewString(),
		SemanticID:         ids[0],
		VerseRef:           ref,
		AlignedSemanticIDs: append([]string(nil), ids...),
	}, true
}

// IDs returns the primary and aligned semantic IDs without duplicates.
func (e Event) IDs() []string {
	seen := make(map[string]bool, len(e.AlignedSemanticIDs)+1)
	var ids []string
	for _, id := range append([]string{e.SemanticID}, e.AlignedSemanticIDs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Matches reports whether tok should highlight for this event.
func (e Event) Matches(tok ir.Token) bool {
	return tok.AlignedTo(semantic.Set(e.IDs()))
}

// Bus is a typed channel pair: a last-value snapshot channel and an
// activation event channel. The zero value is not usable; call NewBus.
type Bus struct {
	mu        sync.Mutex
	latest    Snapshot
	published bool
	snapSubs  map[chan Snapshot]struct{}
	eventSubs map[chan Event]struct{}
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{
		snapSubs:  make(map[chan Snapshot]struct{}),
		eventSubs: make(map[chan Event]struct{}),
	}
}

// Publish replaces the current snapshot. Subscribers that have not yet
// received the previous snapshot only see this one.
func (b *Bus) Publish(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest = s
	b.published = true
	for ch := range b.snapSubs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Clear publishes the cleared snapshot.
func (b *Bus) Clear() {
	b.Publish(Snapshot{})
}

// Latest returns the current snapshot. It returns false when nothing has been
// published or the current snapshot is cleared.
func (b *Bus) Latest() (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.published && !b.latest.Cleared()
}

// Subscribe returns a channel that always holds the most recent snapshot not
// yet received. The current snapshot, if any, is delivered first. The channel
// is closed when ctx is done.
func (b *Bus) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	b.mu.Lock()
	if b.published {
		ch <- b.latest
	}
	b.snapSubs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.snapSubs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Activate sends an event to every activation subscriber. An event without an
// ID is given one. Subscribers whose queue is full miss the event.
func (b *Bus) Activate(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.eventSubs {
		select {
		case ch <- e:
		default:
			logging.Warn("activation dropped", "event_id", e.ID, "semantic_id", e.SemanticID)
		}
	}
	return e
}

// Activations returns a channel of activation events published after the
// call. The channel is closed when ctx is done.
func (b *Bus) Activations(ctx context.Context) <-chan Event {
	ch := make(chan Event, activationBuffer)

	b.mu.Lock()
	b.eventSubs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.eventSubs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}
