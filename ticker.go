package main

import "time"

// TickResult tells the scheduler whether a task wants another frame.
type TickResult int

const (
	TickContinue TickResult = iota
	TickRemove
)

// TickFunc runs once per frame with the current frame time.
type TickFunc func(now time.Time) TickResult

// TickTask is a handle to a scheduled per-frame callback.
type TickTask struct {
	fn        TickFunc
	cancelled bool
}

// Cancel removes the task; it will not run again.
func (t *TickTask) Cancel() {
	t.cancelled = true
}

// TickScheduler drives per-frame callbacks from the game loop. Animation
// playback and eased increment scrolling run here, never on goroutines, so
// all widget state stays on the UI loop.
type TickScheduler struct {
	tasks []*TickTask
}

func NewTickScheduler() *TickScheduler {
	return &TickScheduler{}
}

// Add schedules fn to run every frame until it returns TickRemove or its
// handle is cancelled.
func (s *TickScheduler) Add(fn TickFunc) *TickTask {
	task := &TickTask{fn: fn}
	s.tasks = append(s.tasks, task)
	return task
}

// Tick runs all live tasks once. Tasks added during a tick start on the next
// frame.
func (s *TickScheduler) Tick(now time.Time) {
	tasks := s.tasks
	kept := s.tasks[:0]
	for _, task := range tasks {
		if task.cancelled {
			continue
		}
		if task.fn(now) == TickRemove {
			task.cancelled = true
			continue
		}
		kept = append(kept, task)
	}
	// Preserve tasks appended by callbacks while compacting the slice.
	for _, task := range s.tasks[len(tasks):] {
		kept = append(kept, task)
	}
	s.tasks = kept
}

// Len reports the number of live tasks.
func (s *TickScheduler) Len() int {
	n := 0
	for _, task := range s.tasks {
		if !task.cancelled {
			n++
		}
	}
	return n
}
