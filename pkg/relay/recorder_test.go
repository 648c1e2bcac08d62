package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	mu        sync.Mutex
	successes []Delivery
	failures  []Failure
	err       error
}

func (f *fakeStore) RecordSuccess(name string, sourceID, destID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes = append(f.successes, Delivery{ForwarderName: name, SourceID: sourceID, DestinationID: destID})
	return f.err
}

func (f *fakeStore) RecordFailure(name string, sourceID, destChannelID int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, Failure{ForwarderName: name, SourceID: sourceID, DestChannelID: destChannelID, Reason: reason})
	return f.err
}

func TestRecorderDrainsOnClose(t *testing.T) {
	bus := NewOutcomeBus()
	store := &fakeStore{}
	rec := NewRecorder(bus, store, zerolog.Nop())

	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		if err := bus.PublishDelivery(ctx, Delivery{ForwarderName: "f1", SourceID: i, DestinationID: i * 10}); err != nil {
			t.Fatal(err)
		}
	}
	if err := bus.PublishFailure(ctx, Failure{ForwarderName: "f1", SourceID: 4, DestChannelID: 9, Reason: "boom"}); err != nil {
		t.Fatal(err)
	}

	bus.Close()
	if err := rec.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.successes) != 3 {
		t.Errorf("successes: got %d, want 3", len(store.successes))
	}
	if len(store.failures) != 1 || store.failures[0].Reason != "boom" {
		t.Errorf("failures: %+v", store.failures)
	}
}

func TestRecorderDrainsOnCancel(t *testing.T) {
	bus := NewOutcomeBus()
	store := &fakeStore{}
	rec := NewRecorder(bus, store, zerolog.Nop())

	if err := bus.PublishDelivery(context.Background(), Delivery{ForwarderName: "f1", SourceID: 1, DestinationID: 2}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rec.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v, want context.Canceled", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.successes) != 1 {
		t.Errorf("buffered delivery should be recorded before shutdown, got %d", len(store.successes))
	}
}

func TestRecorderKeepsGoingOnPersistenceError(t *testing.T) {
	bus := NewOutcomeBus()
	store := &fakeStore{err: errors.New("disk full")}
	rec := NewRecorder(bus, store, zerolog.Nop())

	ctx := context.Background()
	_ = bus.PublishDelivery(ctx, Delivery{ForwarderName: "f1", SourceID: 1, DestinationID: 2})
	_ = bus.PublishDelivery(ctx, Delivery{ForwarderName: "f1", SourceID: 2, DestinationID: 3})
	bus.Close()

	if err := rec.Run(ctx); err != nil {
		t.Fatalf("persistence errors must not stop the recorder: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.successes) != 2 {
		t.Errorf("both outcomes should have been attempted, got %d", len(store.successes))
	}
}

func TestBusRejectsAfterClose(t *testing.T) {
	bus := NewOutcomeBus()
	bus.Close()

	err := bus.PublishDelivery(context.Background(), Delivery{})
	if !errors.Is(err, ErrBusClosed) {
		t.Fatalf("got %v, want ErrBusClosed", err)
	}
	err = bus.PublishFailure(context.Background(), Failure{})
	if !errors.Is(err, ErrBusClosed) {
		t.Fatalf("got %v, want ErrBusClosed", err)
	}

	// Close is idempotent.
	bus.Close()
}

func TestAcceptedOutcomesSurviveClose(t *testing.T) {
	bus := NewOutcomeBus()
	store := &fakeStore{}
	rec := NewRecorder(bus, store, zerolog.Nop())

	recDone := make(chan struct{})
	go func() {
		defer close(recDone)
		_ = rec.Run(context.Background())
	}()

	// Publishers race Close; each outcome either gets ErrBusClosed or is
	// accepted, and every accepted outcome must reach the store.
	var accepted atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				d := Delivery{ForwarderName: "f1", SourceID: int64(g*50 + i)}
				if err := bus.PublishDelivery(context.Background(), d); err == nil {
					accepted.Add(1)
				} else if !errors.Is(err, ErrBusClosed) {
					t.Errorf("publish: %v", err)
				}
			}
		}(g)
	}

	time.Sleep(5 * time.Millisecond)
	bus.Close()
	wg.Wait()
	<-recDone

	store.mu.Lock()
	defer store.mu.Unlock()
	if int64(len(store.successes)) != accepted.Load() {
		t.Errorf("recorded %d outcomes, accepted %d", len(store.successes), accepted.Load())
	}
}

func TestBusPublishHonorsContext(t *testing.T) {
	bus := NewOutcomeBus()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Fill the buffer so the publish blocks until the context expires.
	for {
		if err := bus.PublishDelivery(ctx, Delivery{}); err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("got %v, want context.DeadlineExceeded", err)
			}
			return
		}
	}
}
