package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Candidate is one constructible backend in a fallback chain. Probe must be
// all-or-nothing: it either returns a usable provider or an error, without
// leaving partial state behind.
type Candidate[T any] struct {
	Kind  string
	Probe func(ctx context.Context) (T, error)
}

// Policy maps a requested engine kind to its ordered candidate list.
// An explicit backend name maps to exactly that backend; only the "auto"
// entry carries a multi-candidate chain.
type Policy[T any] map[string][]Candidate[T]

// ConfigError reports a requested kind the policy does not know.
type ConfigError struct {
	Requested string
	Known     []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unknown engine %q (known: %s)", e.Requested, strings.Join(e.Known, ", "))
}

// CandidateFailure records why one candidate could not be constructed.
type CandidateFailure struct {
	Kind   string
	Reason error
}

// NoEngineAvailableError reports that every candidate in the chain failed.
// It keeps each candidate's failure so operators can see which dependency
// is missing.
type NoEngineAvailableError struct {
	Requested string
	Failures  []CandidateFailure
}

func (e *NoEngineAvailableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no engine available for %q:", e.Requested)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  - %s: %v", f.Kind, f.Reason)
	}
	return b.String()
}

// Selector resolves a requested kind to one working provider, trying the
// policy's candidates in order. Resolution runs at most once per process;
// both the bound provider and a terminal failure are cached.
type Selector[T any] struct {
	policy    Policy[T]
	requested string

	mu        sync.Mutex
	resolved  bool
	bound     T
	boundKind string
	err       error
}

// NewSelector creates a selector for the given policy and requested kind.
// The requested kind is not validated until Resolve, so a misconfigured
// service still starts and reports the problem at tool-call time.
func NewSelector[T any](policy Policy[T], requested string) *Selector[T] {
	return &Selector[T]{policy: policy, requested: requested}
}

// Resolve returns the bound provider, constructing it on first use.
// Construction may block (model loading, subprocess startup); concurrent
// callers wait for the first resolution and share its outcome.
func (s *Selector[T]) Resolve(ctx context.Context) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved {
		return s.bound, s.err
	}

	candidates, ok := s.policy[s.requested]
	if !ok {
		var zero T
		s.resolved = true
		s.err = &ConfigError{Requested: s.requested, Known: s.kinds()}
		return zero, s.err
	}

	var failures []CandidateFailure
	for _, c := range candidates {
		provider, err := c.Probe(ctx)
		if err != nil {
			failures = append(failures, CandidateFailure{Kind: c.Kind, Reason: err})
			continue
		}
		s.resolved = true
		s.bound = provider
		s.boundKind = c.Kind
		return s.bound, nil
	}

	var zero T
	s.resolved = true
	s.err = &NoEngineAvailableError{Requested: s.requested, Failures: failures}
	return zero, s.err
}

// BoundKind returns the kind of the bound provider, or "" before a
// successful resolution.
func (s *Selector[T]) BoundKind() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return ""
	}
	return s.boundKind
}

// Resolved reports whether resolution has completed, successfully or not.
func (s *Selector[T]) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

func (s *Selector[T]) kinds() []string {
	kinds := make([]string, 0, len(s.policy))
	for k := range s.policy {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
