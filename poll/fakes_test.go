package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"easypoll/db"
	"easypoll/slack"
)

// fakeStore is an in-memory record store keyed like the real one.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*db.Record
	puts    int
	failGet error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*db.Record{}}
}

func recordKey(partition string, sortTS int64) string {
	return fmt.Sprintf("%s/%d", partition, sortTS)
}

func (f *fakeStore) PutRecord(ctx context.Context, rec *db.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := *rec
	f.records[recordKey(rec.PartitionKey, rec.SortTS)] = &saved
	f.puts++
	return nil
}

func (f *fakeStore) GetRecord(ctx context.Context, partition string, sortTS int64) (*db.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	rec, ok := f.records[recordKey(partition, sortTS)]
	if !ok {
		for _, other := range f.records {
			if other.SortTS == sortTS {
				return nil, db.ErrWrongPartition
			}
		}
		return nil, db.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) QueryPartition(ctx context.Context, partition string) ([]db.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Record
	for _, rec := range f.records {
		if rec.PartitionKey == partition {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// fakeMessenger records every outbound call and plays back its scheduled
// message queue.
type fakeMessenger struct {
	mu        sync.Mutex
	posted    []postedMessage
	updated   []updatedMessage
	scheduled map[string][]slack.ScheduledMessage // by channel
	deleted   []string
	views     []slack.View
	schedules int
	nextID    int
}

type postedMessage struct {
	channel string
	blocks  []slack.Block
	text    string
}

type updatedMessage struct {
	channel string
	ts      string
	blocks  []slack.Block
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{scheduled: map[string][]slack.ScheduledMessage{}}
}

func (f *fakeMessenger) PostMessage(ctx context.Context, channel string, blocks []slack.Block, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, postedMessage{channel, blocks, text})
	f.nextID++
	return fmt.Sprintf("ts-%d", f.nextID), nil
}

func (f *fakeMessenger) UpdateMessage(ctx context.Context, channel, ts string, blocks []slack.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, updatedMessage{channel, ts, blocks})
	return nil
}

func (f *fakeMessenger) ScheduleMessage(ctx context.Context, channel string, blocks []slack.Block, text string, postAt int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules++
	f.nextID++
	id := fmt.Sprintf("sched-%d", f.nextID)
	f.scheduled[channel] = append(f.scheduled[channel], slack.ScheduledMessage{
		ID:     id,
		PostAt: postAt,
		Text:   text,
		Blocks: blocks,
	})
	return id, nil
}

func (f *fakeMessenger) DeleteScheduledMessage(ctx context.Context, channel, scheduledMessageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, scheduledMessageID)
	queue := f.scheduled[channel]
	for i, msg := range queue {
		if msg.ID == scheduledMessageID {
			f.scheduled[channel] = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeMessenger) ListScheduledMessages(ctx context.Context, channel string) ([]slack.ScheduledMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]slack.ScheduledMessage, len(f.scheduled[channel]))
	copy(out, f.scheduled[channel])
	return out, nil
}

func (f *fakeMessenger) OpenView(ctx context.Context, triggerID string, view slack.View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, view)
	return nil
}

func (f *fakeMessenger) UpdateView(ctx context.Context, viewID string, view slack.View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, view)
	return nil
}

// newTestService pins the clock and the jitter so keys are predictable.
func newTestService(store *fakeStore, messenger *fakeMessenger, now int64) *Service {
	svc := NewService(store, messenger)
	svc.Now = func() time.Time { return time.Unix(now, 0).UTC() }
	svc.Jitter = func() int64 { return 123 }
	return svc
}
