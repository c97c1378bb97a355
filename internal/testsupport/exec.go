package testsupport

import (
	"context"
	"sync"
)

// Call is one command captured by RecordingExecutor.
type Call struct {
	Binary string
	Args   []string
}

// RecordingExecutor records commands instead of running them. Respond, when
// set, supplies the output and error for each call.
type RecordingExecutor struct {
	Respond func(binary string, args []string) ([]byte, error)

	mu    sync.Mutex
	calls []Call
}

// Run implements toolexec.Executor.
func (r *RecordingExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Binary: binary, Args: append([]string(nil), args...)})
	r.mu.Unlock()
	if r.Respond == nil {
		return nil, nil
	}
	return r.Respond(binary, args)
}

// Calls returns the recorded commands in call order.
func (r *RecordingExecutor) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}
