package compaction

// Task is one unit of background work: a flush or a compaction. It runs on
// the single background worker goroutine and returns an error, which the
// worker logs rather than propagates: by the time it runs, the call that
// scheduled it has long since returned, so there is no caller left to
// receive it.
type Task func() error

// Worker drains a FIFO queue of background tasks on a single goroutine, so
// flushes and compactions for a given database never run concurrently with
// each other.
type Worker struct {
	tasks    chan Task
	shutdown chan struct{}
	done     chan struct{}
	onError  func(error)
}

// NewWorker starts a worker goroutine with a queue of the given depth.
// onError, if non-nil, is invoked (on the worker goroutine) for every task
// that returns an error; it may be nil to ignore errors entirely.
func NewWorker(queueDepth int, onError func(error)) *Worker {
	w := &Worker{
		tasks:    make(chan Task, queueDepth),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		onError:  onError,
	}
	go w.run()
	return w
}

// run services tasks until Close signals shutdown. A task already dequeued
// runs to completion; any tasks still sitting in the queue at that point are
// discarded rather than drained.
func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.shutdown:
			return
		case task := <-w.tasks:
			// select picks at random among ready cases, so re-check
			// shutdown before running a task taken from the queue.
			select {
			case <-w.shutdown:
				return
			default:
			}
			if err := task(); err != nil && w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// Schedule enqueues a task. It blocks if the queue is full.
func (w *Worker) Schedule(task Task) {
	w.tasks <- task
}

// Close signals the worker to stop and waits for the in-flight task, if
// any, to finish. Tasks still queued but not yet dequeued are discarded.
func (w *Worker) Close() {
	close(w.shutdown)
	<-w.done
}
