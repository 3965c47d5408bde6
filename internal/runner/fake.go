package runner

import (
	"context"
	"fmt"
	"strings"
)

// Response is a scripted reply for Fake.
type Response struct {
	Result Result
	Err    error
}

// Fake is an in-memory Runner keyed by the full command line. It records
// every invocation in Calls.
type Fake struct {
	Responses map[string]Response
	Calls     []string
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{Responses: make(map[string]Response)}
}

// On scripts the result for the given command line.
func (f *Fake) On(res Result, name string, args ...string) *Fake {
	f.Responses[commandLine(name, args)] = Response{Result: res}
	return f
}

// OnError scripts a start failure for the given command line.
func (f *Fake) OnError(err error, name string, args ...string) *Fake {
	f.Responses[commandLine(name, args)] = Response{Err: err}
	return f
}

// Run returns the scripted response or an error for unscripted commands.
func (f *Fake) Run(_ context.Context, name string, args ...string) (Result, error) {
	line := commandLine(name, args)
	f.Calls = append(f.Calls, line)

	resp, ok := f.Responses[line]
	if !ok {
		return Result{}, fmt.Errorf("unexpected command %q", line)
	}

	return resp.Result, resp.Err
}

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
