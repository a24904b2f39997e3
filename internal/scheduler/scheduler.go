// Package scheduler runs index maintenance tasks on a single worker,
// so background passes never overlap interactive ones. Periodic tasks
// are best effort and skipped when the worker is busy; high priority
// tasks always queue.
package scheduler

import (
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

type Task struct {
	Name    string
	Execute func() error
}

type Scheduler struct {
	taskQueue    chan Task
	periodicLock sync.Mutex
	stopChan     chan struct{}
	wg           sync.WaitGroup
	log          commonlog.Logger
}

func New(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
		log:       commonlog.GetLogger("scheduler"),
	}
}

// Run starts the worker loop.
func (s *Scheduler) Run() {
	go func() {
		for {
			select {
			case task, ok := <-s.taskQueue:
				if !ok {
					return
				}
				s.run(task)
			case <-s.stopChan:
				// Drain what was already queued, then exit.
				for task := range s.taskQueue {
					s.run(task)
				}
				return
			}
		}
	}()
}

func (s *Scheduler) run(task Task) {
	defer s.wg.Done()
	s.log.Debugf("running task %s", task.Name)
	if err := task.Execute(); err != nil {
		s.log.Errorf("task %s failed: %s", task.Name, err.Error())
	}
}

// SchedulePeriodic queues task every interval, and once right away.
// An enqueue is skipped when the queue is full: periodic work that
// could not run now is simply picked up by the next tick.
func (s *Scheduler) SchedulePeriodic(interval time.Duration, task Task) {
	go func() {
		s.periodicLock.Lock()
		defer s.periodicLock.Unlock()
		if err := task.Execute(); err != nil {
			s.log.Errorf("task %s failed: %s", task.Name, err.Error())
		}
	}()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				go func() {
					s.periodicLock.Lock()
					defer s.periodicLock.Unlock()

					select {
					case <-s.stopChan:
						return
					default:
					}

					// Add must precede the send: the worker may finish
					// the task, and Done, before this goroutine resumes.
					s.wg.Add(1)
					select {
					case s.taskQueue <- task:
					default:
						s.wg.Done()
						s.log.Debugf("queue full, skipping %s", task.Name)
					}
				}()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// ScheduleNow queues task for the next free worker slot, blocking when
// the queue is full.
func (s *Scheduler) ScheduleNow(task Task) {
	s.wg.Add(1)
	s.taskQueue <- task
}

// Stop waits for queued tasks to finish and shuts the worker down. No
// task may be scheduled after Stop.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	// The lock fences out tick goroutines that are between their stop
	// check and their send, so the queue never closes under them.
	s.periodicLock.Lock()
	close(s.taskQueue)
	s.periodicLock.Unlock()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}
