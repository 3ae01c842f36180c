package main

import (
	"testing"
	"time"
)

func TestTickSchedulerRemove(t *testing.T) {
	scheduler := NewTickScheduler()

	count := 0
	scheduler.Add(func(now time.Time) TickResult {
		count++
		if count >= 3 {
			return TickRemove
		}
		return TickContinue
	})

	now := time.Now()
	for i := 0; i < 5; i++ {
		scheduler.Tick(now)
		now = now.Add(16 * time.Millisecond)
	}

	if count != 3 {
		t.Errorf("Expected 3 ticks, got %d", count)
	}
	if scheduler.Len() != 0 {
		t.Errorf("Expected 0 live tasks, got %d", scheduler.Len())
	}
}

func TestTickSchedulerCancel(t *testing.T) {
	scheduler := NewTickScheduler()

	count := 0
	task := scheduler.Add(func(now time.Time) TickResult {
		count++
		return TickContinue
	})

	now := time.Now()
	scheduler.Tick(now)
	task.Cancel()
	scheduler.Tick(now.Add(16 * time.Millisecond))

	if count != 1 {
		t.Errorf("Expected 1 tick before cancel, got %d", count)
	}
	if scheduler.Len() != 0 {
		t.Errorf("Expected 0 live tasks, got %d", scheduler.Len())
	}
}

func TestTickSchedulerAddDuringTick(t *testing.T) {
	scheduler := NewTickScheduler()

	nestedRuns := 0
	scheduler.Add(func(now time.Time) TickResult {
		scheduler.Add(func(now time.Time) TickResult {
			nestedRuns++
			return TickRemove
		})
		return TickRemove
	})

	now := time.Now()
	scheduler.Tick(now)
	if nestedRuns != 0 {
		t.Error("Task added during a tick must not run in the same tick")
	}

	scheduler.Tick(now.Add(16 * time.Millisecond))
	if nestedRuns != 1 {
		t.Errorf("Expected nested task to run once, got %d", nestedRuns)
	}
}
