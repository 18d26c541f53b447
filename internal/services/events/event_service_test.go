package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/interfaces"
)

func TestSubscribeRejectsNilHandler(t *testing.T) {
	svc := NewService(common.GetLogger())
	if err := svc.Subscribe(interfaces.EventJobProgress, nil); err == nil {
		t.Error("Subscribe(nil) succeeded, want error")
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	svc := NewService(common.GetLogger())

	var count int32
	var wg sync.WaitGroup
	wg.Add(2)

	handler := func(ctx context.Context, event interfaces.Event) error {
		defer wg.Done()
		atomic.AddInt32(&count, 1)
		return nil
	}
	svc.Subscribe(interfaces.EventJobProgress, handler)
	svc.Subscribe(interfaces.EventJobProgress, handler)

	if err := svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventJobProgress}); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handlers did not run in time")
	}

	if got := atomic.LoadInt32(&count); got != 2 {
		t.Errorf("handler invocations = %d, want 2", got)
	}
}

func TestPublishIgnoresUnrelatedEventTypes(t *testing.T) {
	svc := NewService(common.GetLogger())

	var count int32
	svc.Subscribe(interfaces.EventJobFailed, func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventJobCompleted})
	time.Sleep(50 * time.Millisecond)

	if got := atomic.LoadInt32(&count); got != 0 {
		t.Errorf("handler ran %d times for an unsubscribed type", got)
	}
}

func TestPublishSyncWaitsAndCollectsErrors(t *testing.T) {
	svc := NewService(common.GetLogger())

	var ran int32
	svc.Subscribe(interfaces.EventLanguageChanged, func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	svc.Subscribe(interfaces.EventLanguageChanged, func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&ran, 1)
		return errors.New("reload failed")
	})

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventLanguageChanged, Payload: "pt"})
	if err == nil {
		t.Error("PublishSync() with a failing handler returned nil")
	}

	// PublishSync returns only after every handler finished.
	if got := atomic.LoadInt32(&ran); got != 2 {
		t.Errorf("handler invocations = %d, want 2", got)
	}
}

func TestCloseDropsSubscribers(t *testing.T) {
	svc := NewService(common.GetLogger())

	var count int32
	svc.Subscribe(interfaces.EventPDFReady, func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventPDFReady})
	if got := atomic.LoadInt32(&count); got != 0 {
		t.Errorf("handler ran %d times after Close", got)
	}
}
