package tictactoe

import "time"

// Scheduler - runs fn once after delay. The returned cancel func reports
// whether it stopped fn from running.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) (cancel func() bool)
}

type timerScheduler struct{}

func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) Schedule(delay time.Duration, fn func()) func() bool {
	timer := time.AfterFunc(delay, fn)
	return timer.Stop
}
