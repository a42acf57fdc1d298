package scheduler

import "sync"

// A submission host talks to exactly one batch system, so the scheduler
// picked by Init lives in a single package-level slot. The mutex exists
// for tests that swap schedulers in and out.
var active struct {
	sync.RWMutex
	sched Scheduler
}

// SetActiveScheduler installs the scheduler that submit and doctor consult.
// Passing nil is equivalent to ClearActiveScheduler.
func SetActiveScheduler(s Scheduler) {
	active.Lock()
	defer active.Unlock()
	active.sched = s
}

// ActiveScheduler returns the installed scheduler, or nil when running
// on a host without one (local execution).
func ActiveScheduler() Scheduler {
	active.RLock()
	defer active.RUnlock()
	return active.sched
}

// ClearActiveScheduler drops the installed scheduler.
func ClearActiveScheduler() {
	SetActiveScheduler(nil)
}
