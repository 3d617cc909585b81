package daemon

import (
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TaskFunc runs one scheduled capture.
type TaskFunc func() error

// CaptureScheduler drives interval (timelapse) captures from a cron
// expression. At most one schedule is active; setting a new expression
// replaces the old one, and Clear disarms it.
type CaptureScheduler struct {
	task   TaskFunc
	parser cron.Parser

	mu       sync.Mutex
	schedule cron.Schedule
	expr     string
	nextRun  time.Time
	running  bool

	recalcCh chan struct{}
	stopCh   chan struct{}
}

func NewCaptureScheduler(task TaskFunc) *CaptureScheduler {
	if task == nil {
		panic("task function cannot be nil")
	}
	return &CaptureScheduler{
		task:     task,
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		recalcCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Schedule arms the scheduler with a cron expression.
func (s *CaptureScheduler) Schedule(cronExpr string) error {
	sh, err := s.parser.Parse(cronExpr)
	if err != nil {
		return pkgerrors.Wrapf(err, "invalid cron expression %q", cronExpr)
	}

	s.mu.Lock()
	s.schedule = sh
	s.expr = cronExpr
	s.nextRun = sh.Next(time.Now())
	s.mu.Unlock()

	logrus.Infof("interval capture scheduled: %s", cronExpr)
	s.notifyRecalc()
	return nil
}

// Clear disarms the scheduler. The loop keeps running, idle.
func (s *CaptureScheduler) Clear() {
	s.mu.Lock()
	s.schedule = nil
	s.expr = ""
	s.nextRun = time.Time{}
	s.mu.Unlock()

	logrus.Info("interval capture cleared")
	s.notifyRecalc()
}

// Status reports the active expression and the next run time; expr is empty
// when disarmed.
func (s *CaptureScheduler) Status() (expr string, nextRun time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expr, s.nextRun
}

func (s *CaptureScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.loop()
}

func (s *CaptureScheduler) Stop() {
	select {
	case <-s.stopCh: // already closed
	default:
		close(s.stopCh)
	}
}

func (s *CaptureScheduler) notifyRecalc() {
	select {
	case s.recalcCh <- struct{}{}:
	default:
	}
}

func (s *CaptureScheduler) snapshot() (cron.Schedule, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule, s.nextRun
}

func (s *CaptureScheduler) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return
	}
	s.nextRun = s.schedule.Next(time.Now())
}

func (s *CaptureScheduler) loop() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("capture scheduler stopped")
	}()

	logrus.Debug("capture scheduler started")

	for {
		schedule, nextRun := s.snapshot()

		var timer *time.Timer
		if schedule == nil || nextRun.IsZero() {
			timer = time.NewTimer(time.Hour * 10000) // idle until rearmed
		} else {
			wait := time.Until(nextRun)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
		}

		select {
		case <-timer.C:
			if schedule == nil {
				continue
			}
			logrus.Debugf("running scheduled capture at %s", nextRun.Format(time.DateTime))
			if err := s.task(); err != nil {
				logrus.Errorf("scheduled capture failed: %v", err)
			}
			s.advance()
		case <-s.recalcCh:
			timer.Stop()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}
