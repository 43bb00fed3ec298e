package watch

import (
	"sync"
	"time"
)

// newDebouncer returns a request channel of capacity one and a trigger that
// sends on it once no trigger has happened for delay. stop cancels a pending
// send.
func newDebouncer(delay time.Duration) (requests chan struct{}, trigger func(), stop func()) {
	var mu sync.Mutex
	var timer *time.Timer
	requests = make(chan struct{}, 1)

	trigger = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case requests <- struct{}{}:
			default:
			}
		})
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return requests, trigger, stop
}
