package compaction

import (
	"errors"
	"sync"
	"testing"
)

func TestWorkerRunsTasksInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int

	w := NewWorker(8, nil)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		w.Schedule(func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
			return nil
		})
	}
	wg.Wait()
	w.Close()

	for i := range order {
		if order[i] != i {
			t.Fatalf("tasks ran out of order: %v", order)
		}
	}
}

func TestWorkerReportsTaskErrors(t *testing.T) {
	var mu sync.Mutex
	var gotErr error
	done := make(chan struct{})

	w := NewWorker(8, func(err error) {
		mu.Lock()
		gotErr = err
		mu.Unlock()
		close(done)
	})

	wantErr := errors.New("boom")
	w.Schedule(func() error { return wantErr })
	<-done
	w.Close()

	mu.Lock()
	defer mu.Unlock()
	if gotErr != wantErr {
		t.Fatalf("got err %v, want %v", gotErr, wantErr)
	}
}
