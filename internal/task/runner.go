package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/cizu-api/internal/redact"
)

// ErrQueueFull is returned by Submit when the in-memory queue has no room.
var ErrQueueFull = errors.New("task queue is full, try again later")

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner manages background task processing
type TaskRunner struct {
	store      TaskStore
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "task_runner")),
		errHandler: func(task Task, err error) {},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit persists a task and adds it to the queue
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	select {
	case r.taskChan <- task:
		return nil
	default:
		// The task stays pending in the store and is picked up on the next recovery.
		return ErrQueueFull
	}
}

// Start recovers unfinished tasks, then starts the workers and the stuck task monitor.
func (r *TaskRunner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop cancels running tasks and waits for the workers to exit.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

// Recover loads any unfinished tasks from the database
func (r *TaskRunner) Recover(ctx context.Context) error {
	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Tasks left in processing were interrupted by a crash, whatever their age.
	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		slog.Int("pending_count", len(pendingTasks)),
		slog.Int("processing_count", len(processingTasks)))

	for _, task := range pendingTasks {
		r.requeue(task, "pending")
	}

	for _, task := range processingTasks {
		r.resetAndRequeue(ctx, task, "Reset after recovery")
	}

	return nil
}

func (r *TaskRunner) requeue(task Task, reason string) {
	select {
	case r.taskChan <- task:
		r.logger.Debug("requeued task",
			slog.String("task_id", task.ID().String()),
			slog.String("reason", reason))
	default:
		r.logger.Error("failed to requeue task, queue is full",
			slog.String("task_id", task.ID().String()),
			slog.String("task_type", task.Type()),
			slog.String("reason", reason))
	}
}

func (r *TaskRunner) resetAndRequeue(ctx context.Context, task Task, message string) {
	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending, message); err != nil {
		r.logger.Error("failed to reset task status",
			slog.String("task_id", task.ID().String()),
			slog.String("task_type", task.Type()),
			redact.ErrorAttr(err))
		return
	}
	r.requeue(task, message)
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", slog.Int("worker_id", id))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return

		case task := <-r.taskChan:
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(task Task, workerID int) {
	logger := r.logger.With(
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.Int("worker_id", workerID),
	)

	// Status writes must land even when Stop cancels the task itself.
	statusCtx := context.WithoutCancel(r.ctx)

	if err := r.store.UpdateTaskStatus(statusCtx, task.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to update task status to processing", redact.ErrorAttr(err))
		return
	}

	logger.Info("processing task")

	err := task.Execute(r.ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) && r.ctx.Err() != nil {
			// Shutdown: leave the task in processing so the next start recovers it.
			logger.Info("task interrupted by shutdown")
			return
		}
		logger.Error("task execution failed", redact.ErrorAttr(err))
		if updateErr := r.store.UpdateTaskStatus(statusCtx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", redact.ErrorAttr(updateErr))
		}
		r.errHandler(task, err)
		return
	}

	logger.Info("task completed successfully")
	if updateErr := r.store.UpdateTaskStatus(statusCtx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		logger.Error("failed to update task status to completed", redact.ErrorAttr(updateErr))
	}
}

// stuckTaskMonitor periodically resets tasks that have been in the
// processing state for longer than StuckTaskAge.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			stuckTasks, err := r.store.GetProcessingTasks(r.ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", redact.ErrorAttr(err))
				continue
			}

			if len(stuckTasks) > 0 {
				r.logger.Info("found stuck tasks", slog.Int("count", len(stuckTasks)))
			}
			for _, task := range stuckTasks {
				r.resetAndRequeue(r.ctx, task, "Reset after being stuck in processing state")
			}
		}
	}
}
