// Package hooks makes it possible to define and call lifecycle hooks on an
// owner type.
//
// Hooks live in a Registry. A registry created with NewRegistry is shared by
// every owner of a type (think of it as the type's hooks); Instance returns a
// registry for a single owner that falls back to the shared one. When hooks
// are called on an instance registry the shared hooks run first.
//
// By default hooks are called in the order they were added. Each hook can be
// given a priority to change when it runs relative to other hooks of the same
// kind: higher priorities run first and equal priorities keep their
// registration order.
//
//	reg := hooks.NewRegistry[*Fish]("swim")
//	reg.Before("swim", func(f *Fish) error { f.prep(); return nil })
//
//	fish := &Fish{hooks: reg.Instance()}
//	fish.hooks.After("swim", func(f *Fish) error { f.rest(); return nil })
//
//	fish.hooks.CallAround(fish, "swim", fish.swim)
package hooks

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/slimloans/rigging/errors"
)

// Event names a lifecycle point an owner declares as hookable
type Event string

// Kind is either Before or After
type Kind string

const (
	Before Kind = "before"
	After  Kind = "after"
)

// Priority orders hooks of the same kind and event, higher runs first
type Priority int

const (
	PriorityLow     Priority = -1
	PriorityDefault Priority = 0
	PriorityHigh    Priority = 1
)

var priorities = map[string]Priority{
	"low":     PriorityLow,
	"default": PriorityDefault,
	"high":    PriorityHigh,
}

// ParsePriority resolves a symbolic priority name ("high", "default", "low")
func ParsePriority(name string) (Priority, error) {
	if p, ok := priorities[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return PriorityDefault, errors.Errorf(errors.ErrorArgument, "%q is not a known hook priority", name)
}

// Hook is called with the owner the hooks are invoked on
type Hook[T any] func(owner T) error

type entry[T any] struct {
	priority Priority
	hook     Hook[T]
}

// Registry stores known events and hooks for owners of type T
type Registry[T any] struct {
	parent *Registry[T]

	mu     sync.RWMutex
	known  []Event
	before map[Event][]entry[T]
	after  map[Event][]entry[T]
}

// NewRegistry returns a shared registry that knows the given events
func NewRegistry[T any](events ...Event) *Registry[T] {
	r := &Registry[T]{
		before: make(map[Event][]entry[T]),
		after:  make(map[Event][]entry[T]),
	}
	r.KnownEvents(events...)
	return r
}

// Instance returns a registry layered over r. It knows every event r knows
// (now and later) plus any it declares itself.
func (r *Registry[T]) Instance(events ...Event) *Registry[T] {
	i := NewRegistry[T](events...)
	i.parent = r
	return i
}

// Parent returns the registry this one falls back to, nil for shared registries
func (r *Registry[T]) Parent() *Registry[T] { return r.parent }

// KnownEvents adds events to the known set and returns the set declared at
// this level. Declaring an event twice is a no-op.
func (r *Registry[T]) KnownEvents(events ...Event) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range events {
		if !containsEvent(r.known, event) {
			r.known = append(r.known, event)
		}
	}

	ret := make([]Event, len(r.known))
	copy(ret, r.known)
	return ret
}

// IsKnownEvent returns true if the event is declared here or on a parent
func (r *Registry[T]) IsKnownEvent(event Event) bool {
	r.mu.RLock()
	known := containsEvent(r.known, event)
	r.mu.RUnlock()

	if known {
		return true
	}

	return r.parent != nil && r.parent.IsKnownEvent(event)
}

// Add registers hook to run for kind/event at the given priority
func (r *Registry[T]) Add(kind Kind, event Event, priority Priority, hook Hook[T]) error {
	if hook == nil {
		return errors.Errorf(errors.ErrorArgument, "hook for %s:%s is nil", kind, event)
	}

	if !r.IsKnownEvent(event) {
		return errors.Errorf(errors.ErrorUnknownEvent, "%s is not a known hook event", event)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case Before:
		r.before[event] = append(r.before[event], entry[T]{priority, hook})
	case After:
		r.after[event] = append(r.after[event], entry[T]{priority, hook})
	default:
		return errors.Errorf(errors.ErrorArgument, "%q is not a hook kind", kind)
	}

	return nil
}

// Before registers a default priority hook to run before event
func (r *Registry[T]) Before(event Event, hook Hook[T]) error {
	return r.Add(Before, event, PriorityDefault, hook)
}

// After registers a default priority hook to run after event
func (r *Registry[T]) After(event Event, hook Hook[T]) error {
	return r.Add(After, event, PriorityDefault, hook)
}

// Around registers hook to run both before and after event
func (r *Registry[T]) Around(event Event, priority Priority, hook Hook[T]) error {
	if err := r.Add(Before, event, priority, hook); err != nil {
		return err
	}
	return r.Add(After, event, priority, hook)
}

// Hooks returns the hooks for kind/event in call order: parent hooks first,
// each level sorted by descending priority.
func (r *Registry[T]) Hooks(kind Kind, event Event) []Hook[T] {
	var ret []Hook[T]
	if r.parent != nil {
		ret = r.parent.Hooks(kind, event)
	}

	r.mu.RLock()
	var entries []entry[T]
	switch kind {
	case Before:
		entries = append(entries, r.before[event]...)
	case After:
		entries = append(entries, r.after[event]...)
	}
	r.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority > entries[j].priority
	})

	for pos := range entries {
		ret = append(ret, entries[pos].hook)
	}

	return ret
}

// Call invokes every kind/event hook with owner, halting on the first error
func (r *Registry[T]) Call(owner T, kind Kind, event Event) error {
	for _, hook := range r.Hooks(kind, event) {
		if err := hook(owner); err != nil {
			return fmt.Errorf("%s:%s hook: %w", kind, event, err)
		}
	}
	return nil
}

// CallAround calls the before hooks, body and after hooks for event. Any
// error stops everything after it.
func (r *Registry[T]) CallAround(owner T, event Event, body func() error) error {
	if err := r.Call(owner, Before, event); err != nil {
		return err
	}

	if body != nil {
		if err := body(); err != nil {
			return err
		}
	}

	return r.Call(owner, After, event)
}

func containsEvent(events []Event, event Event) bool {
	for _, e := range events {
		if e == event {
			return true
		}
	}
	return false
}
