package dashboard

import (
	"time"

	"github.com/lunfardo314/widgetfl/formula"
	"github.com/lunfardo314/widgetfl/util/fifoqueue"
	"github.com/lunfardo314/widgetfl/util/logger"
	"github.com/lunfardo314/widgetfl/util/scheduler"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ReadingSource supplies the latest reading per sensor key
type ReadingSource interface {
	Readings() (map[string]formula.Value, error)
}

type ReadingSourceFunc func() (map[string]formula.Value, error)

func (f ReadingSourceFunc) Readings() (map[string]formula.Value, error) {
	return f()
}

// StaticReadings always returns the same readings
func StaticReadings(r map[string]formula.Value) ReadingSource {
	return ReadingSourceFunc(func() (map[string]formula.Value, error) {
		return r, nil
	})
}

const (
	DefaultRefreshPeriod = 30 * time.Second
	DefaultQueueCapacity = 16
)

type RefresherOptions struct {
	Period time.Duration
	// Delay postpones the first refresh, e.g. until the sensors report after a restart.
	// 0 means the first refresh happens on Start
	Delay time.Duration
	// QueueCapacity bounds number of pending updates, the oldest are dropped
	QueueCapacity int
	Log           *zap.SugaredLogger
}

// Refresher renders the board every period and queues the result for the consumer
type Refresher struct {
	board   *Board
	source  ReadingSource
	period  time.Duration
	delay   time.Duration
	stopped atomic.Bool
	queue   *fifoqueue.FIFOQueue[[]Display]
	sched   *scheduler.Scheduler
	log     *zap.SugaredLogger
}

func NewRefresher(board *Board, source ReadingSource, opt RefresherOptions) *Refresher {
	ret := &Refresher{
		board:  board,
		source: source,
		period: opt.Period,
		delay:  opt.Delay,
		sched:  scheduler.New(),
		log:    logger.OrNop(opt.Log),
	}
	if ret.period <= 0 {
		ret.period = DefaultRefreshPeriod
	}
	if opt.QueueCapacity <= 0 {
		opt.QueueCapacity = DefaultQueueCapacity
	}
	ret.queue = fifoqueue.New[[]Display](opt.QueueCapacity)
	return ret
}

// Start refreshes immediately or after the delay, and then every period
func (r *Refresher) Start() {
	if r.delay > 0 {
		r.sched.CallDelayed(r.delay, r.Refresh)
		r.sched.Every(r.period, false, r.Refresh)
		r.log.Infof("refreshing %d widget(s) every %v, first in %v", len(r.board.widgets), r.period, r.delay)
		return
	}
	r.sched.Every(r.period, true, r.Refresh)
	r.log.Infof("refreshing %d widget(s) every %v", len(r.board.widgets), r.period)
}

// Refresh renders the board once. If readings are not available the tick is skipped.
// After Stop it does nothing
func (r *Refresher) Refresh() {
	if r.stopped.Load() {
		return
	}
	readings, err := r.source.Readings()
	if err != nil {
		r.log.Warnf("readings are not available: %v", err)
		return
	}
	if !r.queue.TryWrite(r.board.Render(readings)) {
		r.log.Debugf("refresher stopped, update discarded")
	}
}

// Updates calls fun for each rendered update. Blocks until Stop
func (r *Refresher) Updates(fun func([]Display)) {
	r.queue.Consume(fun)
}

// Dropped is number of updates lost because the consumer was too slow
func (r *Refresher) Dropped() uint64 {
	return r.queue.Dropped()
}

// Stop stops refreshing. Pending updates are still delivered to the consumer
func (r *Refresher) Stop() {
	if r.stopped.Swap(true) {
		return
	}
	r.sched.Stop()
	r.queue.Close()
}
