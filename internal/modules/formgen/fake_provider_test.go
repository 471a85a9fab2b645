package formgen

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type call struct {
	system string
	user   string
}

// fakeProvider answers from canned values and records what it was asked.
type fakeProvider struct {
	mu      sync.Mutex
	jsonOut string
	textOut string
	err     error
	calls   []call
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	f.record(system, user)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.jsonOut), nil
}

func (f *fakeProvider) CompleteText(ctx context.Context, system, user string) (string, error) {
	f.record(system, user)
	if f.err != nil {
		return "", f.err
	}
	return f.textOut, nil
}

func (f *fakeProvider) record(system, user string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{system: system, user: user})
}

func (f *fakeProvider) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

// seqIDs returns a deterministic id generator: id-1, id-2, ...
func seqIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}
