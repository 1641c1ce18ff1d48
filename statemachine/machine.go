package statemachine

import (
	"errors"
	"fmt"
	"strings"
)

// Actor performs a transition: a user role or the system itself.
type Actor string

const (
	ActorDonor     Actor = "donor"
	ActorNGO       Actor = "ngo"
	ActorVolunteer Actor = "volunteer"
	ActorAdmin     Actor = "admin"
	ActorSystem    Actor = "system"
)

var (
	// ErrInvalidTransition means no actor may move between the two states.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrActorNotAllowed means the transition exists but not for this actor.
	ErrActorNotAllowed = errors.New("transition not allowed for actor")
)

// Transition defines a valid state change and who can perform it
type Transition[S ~string] struct {
	From  S     `json:"from"`
	To    S     `json:"to"`
	Actor Actor `json:"actor"`
}

type transitionKey[S ~string] struct {
	From  S
	To    S
	Actor Actor
}

type edge[S ~string] struct {
	From S
	To   S
}

// Machine is an immutable transition table for one status type.
type Machine[S ~string] struct {
	name        string
	transitions []Transition[S]
	byActor     map[transitionKey[S]]bool
	edges       map[edge[S]]bool
}

// New builds a lookup map over the given transitions for O(1) validation.
func New[S ~string](name string, transitions []Transition[S]) *Machine[S] {
	m := &Machine[S]{
		name:        name,
		transitions: transitions,
		byActor:     make(map[transitionKey[S]]bool, len(transitions)),
		edges:       make(map[edge[S]]bool, len(transitions)),
	}
	for _, t := range transitions {
		m.byActor[transitionKey[S]{t.From, t.To, t.Actor}] = true
		m.edges[edge[S]{t.From, t.To}] = true
	}
	return m
}

// Name identifies the machine in error messages.
func (m *Machine[S]) Name() string { return m.name }

// ValidTransitionsFrom returns all valid next states from a given state
func (m *Machine[S]) ValidTransitionsFrom(status S) []S {
	var nexts []S
	seen := map[S]bool{}
	for _, t := range m.transitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another.
// The error wraps ErrInvalidTransition when the edge does not exist at all and
// ErrActorNotAllowed when it exists for other actors only.
func (m *Machine[S]) CanTransition(from, to S, actor Actor) error {
	if m.byActor[transitionKey[S]{from, to, actor}] {
		return nil
	}
	if m.edges[edge[S]{from, to}] {
		return fmt.Errorf("%w: %s %s -> %s is not allowed for %s", ErrActorNotAllowed, m.name, from, to, actor)
	}
	return fmt.Errorf("%w: %s %s -> %s; valid transitions from %s are: %s",
		ErrInvalidTransition, m.name, from, to, from, m.describeValidFrom(from))
}

// Terminal reports whether no transition leaves status.
func (m *Machine[S]) Terminal(status S) bool {
	return len(m.ValidTransitionsFrom(status)) == 0
}

// Transitions returns the full table for documentation
func (m *Machine[S]) Transitions() []Transition[S] {
	out := make([]Transition[S], len(m.transitions))
	copy(out, m.transitions)
	return out
}

func (m *Machine[S]) describeValidFrom(status S) string {
	nexts := m.ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
