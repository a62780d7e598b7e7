// Package domain holds pieces shared by the domain services.
package domain

import "context"

// HookEvent is a lifecycle point a hook can attach to.
type HookEvent string

const (
	BeforePlace HookEvent = "before_place"
	AfterPlace  HookEvent = "after_place"
)

// Hook runs at a lifecycle point.
type Hook[T any] func(ctx context.Context, v T) error

// HookRegistry stores lifecycle hooks for one type.
// Registration is not synchronised; register during wiring only.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the event's hooks in registration order and stops at the
// first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, v T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of hooks registered for the event.
func (r *HookRegistry[T]) Len(event HookEvent) int {
	return len(r.hooks[event])
}
