package scheduler

import (
	"sync"
	"time"

	"github.com/lunfardo314/unitrie/common"
	"go.uber.org/atomic"
)

// Scheduler runs callbacks periodically or once after a delay.
// Callbacks of one periodic task never overlap, a tick is skipped while the previous call runs
type Scheduler struct {
	mutex   sync.Mutex
	stopped atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	timers  map[*time.Timer]struct{}
}

func New() *Scheduler {
	return &Scheduler{
		stopCh: make(chan struct{}),
		timers: make(map[*time.Timer]struct{}),
	}
}

// Every calls fun each period until cancel or Stop is called.
// If immediately is true, the first call happens right away
func (s *Scheduler) Every(period time.Duration, immediately bool, fun func()) (cancel func()) {
	common.Assert(!s.stopped.Load(), "Scheduler already stopped")
	common.Assert(period > 0, "Scheduler: period must be positive, got %v", period)

	done := make(chan struct{})
	var once sync.Once
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if immediately {
			fun()
		}
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fun()
			case <-done:
				return
			case <-s.stopCh:
				return
			}
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
}

// CallDelayed calls fun once after the delay unless the scheduler is stopped before
func (s *Scheduler) CallDelayed(d time.Duration, fun func()) {
	common.Assert(!s.stopped.Load(), "Scheduler already stopped")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mutex.Lock()
		delete(s.timers, t)
		s.mutex.Unlock()

		if !s.stopped.Load() {
			fun()
		}
	})
	s.timers[t] = struct{}{}
}

// Stop cancels all tasks and waits until running periodic calls return
func (s *Scheduler) Stop() {
	if s.stopped.Swap(true) {
		return
	}
	close(s.stopCh)

	s.mutex.Lock()
	for t := range s.timers {
		t.Stop()
	}
	s.timers = make(map[*time.Timer]struct{})
	s.mutex.Unlock()

	s.wg.Wait()
}
