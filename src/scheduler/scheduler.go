// Package scheduler provides the built-in task runner. The scheduler is
// always running; all periodic work (schedule refresh, health checks) is
// managed here, never via external cron.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// defaultTimezone is the default timezone for scheduled tasks.
var defaultTimezone = "America/New_York"

// TaskID identifies a task.
type TaskID string

// Built-in task IDs.
const (
	TaskScheduleRefresh TaskID = "schedule.refresh"
	TaskHealthcheckSelf TaskID = "healthcheck.self"
)

// TaskStatus is the result of the most recent run.
type TaskStatus string

const (
	StatusSuccess  TaskStatus = "success"
	StatusFailed   TaskStatus = "failed"
	StatusRunning  TaskStatus = "running"
	StatusRetrying TaskStatus = "retrying"
)

// Default retry policy.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Minute
)

// Task is a registered periodic task.
type Task struct {
	ID          TaskID
	Name        string
	Description string
	Schedule    string // "@every 30m", "@hourly", "@daily"
	Run         func(ctx context.Context) error
	RunOnStart  bool

	MaxRetries int
	RetryDelay time.Duration
	RunTimeout time.Duration

	// Runtime state.
	LastRun    time.Time
	LastStatus TaskStatus
	LastError  string
	NextRun    time.Time
	RunCount   int64
	FailCount  int64
	Enabled    bool
}

// StateStore persists task run records. *database.Repository satisfies it.
type StateStore interface {
	SaveTaskState(ctx context.Context, taskID string, lastRun time.Time, lastErr string) error
}

// Scheduler manages periodic tasks. It is always running once started.
type Scheduler struct {
	mu       sync.RWMutex
	tasks    map[TaskID]*Task
	store    StateStore
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	wg       sync.WaitGroup
	timezone *time.Location
	tick     time.Duration
}

// New creates a scheduler. store may be nil to skip persistence.
func New(store StateStore) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	tz, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		tz = time.Local
	}

	return &Scheduler{
		tasks:    make(map[TaskID]*Task),
		store:    store,
		ctx:      ctx,
		cancel:   cancel,
		timezone: tz,
		tick:     time.Second,
	}
}

// SetTimezone sets the timezone used for day-boundary schedules.
func (s *Scheduler) SetTimezone(tz string) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %s: %w", tz, err)
	}
	s.mu.Lock()
	s.timezone = loc
	s.mu.Unlock()
	return nil
}

// Register adds a task.
func (s *Scheduler) Register(task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		return fmt.Errorf("task ID is required")
	}
	if task.Schedule == "" {
		return fmt.Errorf("task schedule is required")
	}
	if task.Run == nil {
		return fmt.Errorf("task run function is required")
	}

	task.NextRun = s.calculateNextRun(task.Schedule)
	task.Enabled = true
	s.tasks[task.ID] = task
	return nil
}

// Start begins the run loop and fires RunOnStart tasks.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.runStartupTasks()

	s.wg.Add(1)
	go s.run()

	log.Println("[Scheduler] Started")
}

// Stop cancels the run loop and waits for in-flight checks to settle.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) runStartupTasks() {
	s.mu.RLock()
	var startup []*Task
	for _, task := range s.tasks {
		if task.Enabled && task.RunOnStart {
			startup = append(startup, task)
		}
	}
	s.mu.RUnlock()

	for _, task := range startup {
		go s.runTask(task)
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.checkAndRunTasks(now)
		}
	}
}

func (s *Scheduler) checkAndRunTasks(now time.Time) {
	s.mu.Lock()
	var dueTasks []*Task
	for _, task := range s.tasks {
		if task.Enabled && task.LastStatus != StatusRunning && now.After(task.NextRun) {
			// Claim the slot before the goroutine starts so one slow task
			// never runs twice concurrently.
			task.LastStatus = StatusRunning
			task.NextRun = s.calculateNextRun(task.Schedule)
			dueTasks = append(dueTasks, task)
		}
	}
	s.mu.Unlock()

	for _, task := range dueTasks {
		go s.runTask(task)
	}
}

// runTask executes a task with exponential backoff retries.
func (s *Scheduler) runTask(task *Task) {
	maxRetries := task.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	retryDelay := task.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	runTimeout := task.RunTimeout
	if runTimeout <= 0 {
		runTimeout = 10 * time.Minute
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoffDelay := retryDelay * time.Duration(1<<(attempt-1))

			s.mu.Lock()
			task.LastStatus = StatusRetrying
			s.mu.Unlock()

			log.Printf("[Scheduler] Task %s retry %d/%d in %v", task.ID, attempt, maxRetries, backoffDelay)

			select {
			case <-s.ctx.Done():
				return
			case <-time.After(backoffDelay):
			}
		}

		s.mu.Lock()
		task.LastRun = time.Now()
		task.LastStatus = StatusRunning
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
		lastErr = task.Run(ctx)
		cancel()

		if lastErr == nil {
			s.mu.Lock()
			task.LastStatus = StatusSuccess
			task.LastError = ""
			task.RunCount++
			lastRun := task.LastRun
			s.mu.Unlock()

			s.saveState(task.ID, lastRun, "")
			return
		}

		log.Printf("[Scheduler] Task %s attempt %d/%d failed: %v", task.ID, attempt+1, maxRetries+1, lastErr)
	}

	s.mu.Lock()
	task.LastStatus = StatusFailed
	task.LastError = lastErr.Error()
	task.FailCount++
	lastRun := task.LastRun
	s.mu.Unlock()

	log.Printf("[Scheduler] Task %s failed after %d attempts: %v", task.ID, maxRetries+1, lastErr)
	s.saveState(task.ID, lastRun, lastErr.Error())
}

func (s *Scheduler) saveState(id TaskID, lastRun time.Time, lastErr string) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveTaskState(ctx, string(id), lastRun, lastErr); err != nil {
		log.Printf("[Scheduler] Failed to persist state for %s: %v", id, err)
	}
}

// calculateNextRun computes the next run time from a schedule expression.
func (s *Scheduler) calculateNextRun(schedule string) time.Time {
	now := time.Now().In(s.timezone)

	if strings.HasPrefix(schedule, "@every ") {
		interval := strings.TrimPrefix(schedule, "@every ")
		d, err := time.ParseDuration(interval)
		if err != nil {
			log.Printf("[Scheduler] Invalid interval %s: %v", interval, err)
			return now.Add(1 * time.Hour)
		}
		return now.Add(d)
	}

	switch schedule {
	case "@hourly":
		return now.Truncate(time.Hour).Add(time.Hour)
	case "@daily":
		return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, s.timezone)
	}

	log.Printf("[Scheduler] Unknown schedule %q, defaulting to hourly", schedule)
	return now.Add(1 * time.Hour)
}

// GetTask returns a snapshot copy of a task's state.
func (s *Scheduler) GetTask(id TaskID) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Tasks returns snapshot copies of all registered tasks.
func (s *Scheduler) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *task)
	}
	return out
}

// SetEnabled toggles a task.
func (s *Scheduler) SetEnabled(id TaskID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	task.Enabled = enabled
	return nil
}

// RunNow triggers a task immediately, outside its schedule.
func (s *Scheduler) RunNow(id TaskID) error {
	s.mu.RLock()
	task, ok := s.tasks[id]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("task %s not found", id)
	}
	go s.runTask(task)
	return nil
}
