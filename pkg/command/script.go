package command

import (
	"context"
	"strings"
	"sync"
)

// ScriptRunner is a Runner for tests. It records every argv it is asked to
// run and answers with scripted outcomes, matched by command prefix. Unmatched
// commands succeed.
type ScriptRunner struct {
	mu       sync.Mutex
	calls    [][]string
	outcomes map[string]Outcome
}

func NewScriptRunner() *ScriptRunner {
	return &ScriptRunner{outcomes: make(map[string]Outcome)}
}

// Fail makes every command whose joined argv starts with prefix return the
// given outcome.
func (s *ScriptRunner) Fail(prefix string, o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[prefix] = o
}

func (s *ScriptRunner) Run(_ context.Context, argv []string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]string, len(argv))
	copy(cp, argv)
	s.calls = append(s.calls, cp)

	joined := strings.Join(argv, " ")
	for prefix, o := range s.outcomes {
		if strings.HasPrefix(joined, prefix) {
			return o
		}
	}
	return Outcome{Kind: Succeeded}
}

// Calls returns every recorded argv, joined with spaces.
func (s *ScriptRunner) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, c := range s.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

// CountCalls returns how many recorded commands start with prefix.
func (s *ScriptRunner) CountCalls(prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
