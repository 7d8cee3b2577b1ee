package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/store"
)

func waitForPhase[T any](t *testing.T, s *store.Store[T], want store.Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Phase() != want {
		if time.Now().After(deadline) {
			t.Fatalf("store never reached phase %v", want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEmptySliceBeforeFirstLoad(t *testing.T) {
	s := store.NewList(func(ctx context.Context) ([]domain.Task, error) {
		return nil, nil
	})
	if s.Data() == nil {
		t.Fatal("data must be non-nil before the first load")
	}
	if got := s.Phase(); got != store.Uninitialized {
		t.Fatalf("phase = %v", got)
	}

	// A load that resolves to null still yields an empty slice.
	if _, err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if s.Data() == nil {
		t.Fatal("data must be non-nil after a null load")
	}
	if got := s.Phase(); got != store.Ready {
		t.Fatalf("phase = %v", got)
	}
}

func TestStaleWhileRevalidate(t *testing.T) {
	var fail bool
	s := store.NewList(func(ctx context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []string{"a", "b"}, nil
	})

	if _, err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	fail = true
	if _, err := s.Refetch(context.Background()); err == nil {
		t.Fatal("expected failing refetch")
	}
	// Failure keeps the previous data and records the error.
	if got := s.Data(); len(got) != 2 {
		t.Fatalf("stale data lost: %v", got)
	}
	if s.Err() == nil || s.Phase() != store.Errored {
		t.Fatalf("err=%v phase=%v", s.Err(), s.Phase())
	}

	// The next success clears the error.
	fail = false
	if _, err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("recovery load: %v", err)
	}
	if s.Err() != nil || s.Phase() != store.Ready {
		t.Fatalf("err=%v phase=%v", s.Err(), s.Phase())
	}
}

func TestRefetchCoalescesConcurrentCalls(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	s := store.NewList(func(ctx context.Context) ([]int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return []int{1}, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := s.Refetch(context.Background()); err != nil {
			t.Errorf("refetch: %v", err)
		}
	}()
	waitForPhase(t, s, store.Loading)

	// Pile more callers onto the in-flight request, then release it.
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Refetch(context.Background()); err != nil {
				t.Errorf("refetch: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("fetch ran %d times, want 1", calls)
	}
}

func TestWaiterHonorsContext(t *testing.T) {
	release := make(chan struct{})
	s := store.NewList(func(ctx context.Context) ([]int, error) {
		<-release
		return nil, nil
	})
	go s.Refetch(context.Background())
	waitForPhase(t, s, store.Loading)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Refetch(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	close(release)
}

func TestPhaseTransitions(t *testing.T) {
	s := store.NewList(func(ctx context.Context) ([]int, error) {
		return []int{1}, nil
	})
	if s.IsLoading() || s.IsFetching() {
		t.Fatal("idle store should not report activity")
	}
	if _, err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Phase() != store.Ready || s.IsLoading() {
		t.Fatalf("phase=%v loading=%v", s.Phase(), s.IsLoading())
	}
}

func TestMutatePrepend(t *testing.T) {
	s := store.NewList(func(ctx context.Context) ([]domain.Task, error) {
		return []domain.Task{{ID: "1"}, {ID: "2"}}, nil
	})
	if _, err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Mutate(func(tasks []domain.Task) []domain.Task {
		return append([]domain.Task{{ID: "3"}}, tasks...)
	})
	got := s.Data()
	if len(got) != 3 || got[0].ID != "3" || got[1].ID != "1" {
		t.Fatalf("after mutate: %+v", got)
	}
}

func TestOnSuccessHook(t *testing.T) {
	var seen [][]int
	s := store.NewList(func(ctx context.Context) ([]int, error) {
		return []int{7}, nil
	}).OnSuccess(func(v []int) { seen = append(seen, v) })

	if _, err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(seen) != 1 || len(seen[0]) != 1 || seen[0][0] != 7 {
		t.Fatalf("hook saw %v", seen)
	}
}
