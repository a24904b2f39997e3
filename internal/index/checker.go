package index

import (
	"time"

	"github.com/tliron/commonlog"

	"leaflet/internal/scheduler"
)

// BackgroundChecker keeps the index fresh while the application is
// otherwise idle: it periodically re-walks the notebook and drains any
// staleness it finds. Explicit work, e.g. after a file watcher event,
// can be pushed ahead of the periodic sweep with CheckNow.
type BackgroundChecker struct {
	ix    *Index
	sched *scheduler.Scheduler
	log   commonlog.Logger
}

func NewBackgroundChecker(ix *Index) *BackgroundChecker {
	return &BackgroundChecker{
		ix:    ix,
		sched: scheduler.New(16),
		log:   commonlog.GetLogger("index.checker"),
	}
}

// Start launches the worker and the periodic sweep.
func (c *BackgroundChecker) Start(interval time.Duration) {
	c.sched.Run()
	c.sched.SchedulePeriodic(interval, scheduler.Task{
		Name:    "check-and-update",
		Execute: c.ix.CheckAndUpdate,
	})
}

// CheckNow queues an immediate check of one path, recursively for
// folders, followed by an update pass.
func (c *BackgroundChecker) CheckNow(rel string, recursive bool) {
	c.sched.ScheduleNow(scheduler.Task{
		Name: "check " + rel,
		Execute: func() error {
			if err := c.ix.QueueCheck(rel, recursive); err != nil {
				return err
			}
			for {
				more, outOfDate, err := c.ix.CheckStep()
				if err != nil {
					return err
				}
				if outOfDate {
					if err := c.ix.Update(); err != nil {
						return err
					}
				}
				if !more {
					return nil
				}
			}
		},
	})
}

// Stop drains queued work and shuts the checker down.
func (c *BackgroundChecker) Stop() {
	c.sched.Stop()
}
