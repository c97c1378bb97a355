package mayaref

// eventBuffer bounds how far a worker can run ahead of a slow consumer.
const eventBuffer = 64

// Task is a scan or rewrite running on its own goroutine. Receive from Events
// until it is closed, then call Wait for the result. Wait drains any events the
// caller did not read. Tasks cannot be cancelled once started.
type Task[T any] struct {
	events chan Event
	done   chan struct{}
	result T
	err    error
}

func startTask[T any](run func(Observer) (T, error)) *Task[T] {
	t := &Task[T]{
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		defer close(t.events)
		t.result, t.err = run(func(ev Event) { t.events <- ev })
	}()
	return t
}

// Events streams the task's events; the channel closes when the task ends.
func (t *Task[T]) Events() <-chan Event { return t.events }

// Done is closed once the task has finished.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes and returns its result.
func (t *Task[T]) Wait() (T, error) {
	for range t.events {
	}
	<-t.done
	return t.result, t.err
}

// StartScan runs s.Scan in the background.
func StartScan(s *Session, root string, recurse bool) *Task[*ScanResult] {
	return startTask(func(obs Observer) (*ScanResult, error) {
		return s.Scan(root, recurse, obs)
	})
}

// StartRewrite runs s.Rewrite in the background.
func StartRewrite(s *Session) *Task[*RewriteReport] {
	return startTask(func(obs Observer) (*RewriteReport, error) {
		return s.Rewrite(obs)
	})
}
