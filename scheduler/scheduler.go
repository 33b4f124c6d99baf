package scheduler

import (
	"context"
	"log/slog"
	"time"

	vkteamsbot "github.com/vkteams-go/bot"
)

// tickInterval is fixed at one second: tasks are persisted with second
// granularity and a faster tick buys nothing, a slower one would miss
// sub-minute Interval schedules.
const tickInterval = time.Second

// Dispatcher is the subset of *vkteamsbot.Bot the scheduler drives. Declared
// as an interface so tests can supply a stub instead of a live bot.
type Dispatcher interface {
	SendText(ctx context.Context, req vkteamsbot.SendTextRequest) (vkteamsbot.SendTextResponse, error)
	SendFile(ctx context.Context, req vkteamsbot.SendFileRequest) (vkteamsbot.SendFileResponse, error)
	SendVoice(ctx context.Context, req vkteamsbot.SendVoiceRequest) (vkteamsbot.SendFileResponse, error)
	ChatSendActions(ctx context.Context, req vkteamsbot.ChatSendActionsRequest) error
}

// Scheduler owns a Store and a Dispatcher and, while Run is active, checks
// once a second for due tasks and fires them.
type Scheduler struct {
	store  *Store
	bot    Dispatcher
	logger *slog.Logger
}

// New builds a Scheduler over an already-open Store.
func New(store *Store, bot Dispatcher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: store, bot: bot, logger: logger}
}

// AddTask validates and persists a new task, returning it with its
// generated ID and computed initial next_run.
func (s *Scheduler) AddTask(p NewTaskParams) (Task, error) {
	t, err := NewTask(p, time.Now())
	if err != nil {
		return Task{}, err
	}
	if err := s.store.Put(t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// RemoveTask deletes the task with the given ID. Deleting an unknown ID is
// a no-op, matching Store.Delete.
func (s *Scheduler) RemoveTask(id string) error {
	return s.store.Delete(id)
}

// EnableTask sets a task's enabled flag to true.
func (s *Scheduler) EnableTask(id string) error {
	return s.setEnabled(id, true)
}

// DisableTask sets a task's enabled flag to false.
func (s *Scheduler) DisableTask(id string) error {
	return s.setEnabled(id, false)
}

func (s *Scheduler) setEnabled(id string, enabled bool) error {
	tasks, err := s.store.Load()
	if err != nil {
		return err
	}
	found := false
	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].Enabled = enabled
			found = true
			break
		}
	}
	if !found {
		return &vkteamsbot.ErrValidation{Field: "id", Message: "task not found"}
	}
	return s.store.Replace(tasks)
}

// GetTask returns the task with the given ID, or ok=false if none matches.
func (s *Scheduler) GetTask(id string) (task Task, ok bool, err error) {
	tasks, err := s.store.Load()
	if err != nil {
		return Task{}, false, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, true, nil
		}
	}
	return Task{}, false, nil
}

// ListTasks returns every persisted task, enabled or not.
func (s *Scheduler) ListTasks() ([]Task, error) {
	return s.store.Load()
}

// RunTaskOnce dispatches the named task immediately, bypassing its
// schedule. It does not advance next_run, bump run_count, or set last_run —
// it is a manual out-of-band trigger, not a tick.
func (s *Scheduler) RunTaskOnce(ctx context.Context, id string) error {
	tasks, err := s.store.Load()
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.ID == id {
			return s.dispatch(ctx, t)
		}
	}
	return &vkteamsbot.ErrValidation{Field: "id", Message: "task not found"}
}

// Run blocks, ticking every second, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				s.logger.Error("scheduler tick failed", "error", err)
			}
		}
	}
}

// tick loads the task set, dispatches everything due, advances schedules,
// and writes the whole set back in one pass.
func (s *Scheduler) tick(ctx context.Context) error {
	tasks, err := s.store.Load()
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	changed := false
	for i := range tasks {
		t := &tasks[i]
		if !t.dueAt(now) {
			continue
		}
		changed = true
		if err := s.dispatch(ctx, *t); err != nil {
			s.logger.Warn("task dispatch failed", "task_id", t.ID, "chat_id", t.ChatID, "error", err)
			// Dispatch failures still advance NextRun, anchored at now: a
			// persistently broken task (bad chat ID, revoked token) should
			// not spin the tick loop retrying it every second. RunCount and
			// LastRun are only bumped on success.
			if next, ok := t.Schedule.NextRun(now); ok {
				t.NextRun = next
			} else {
				t.Enabled = false
			}
			continue
		}
		t.LastRun = now
		t.RunCount++
		if t.reachedMaxRuns() {
			t.Enabled = false
			continue
		}
		if next, ok := t.Schedule.NextRun(now); ok {
			t.NextRun = next
		} else {
			t.Enabled = false
		}
	}
	if !changed {
		return nil
	}
	return s.store.Replace(tasks)
}

func (s *Scheduler) dispatch(ctx context.Context, t Task) error {
	switch t.Type {
	case TaskSendText:
		_, err := s.bot.SendText(ctx, vkteamsbot.SendTextRequest{ChatID: t.ChatID, Text: t.Text})
		return err

	case TaskSendFile:
		file, err := vkteamsbot.NewMultipartFromPath("file", t.FilePath)
		if err != nil {
			return err
		}
		_, err = s.bot.SendFile(ctx, vkteamsbot.SendFileRequest{
			ChatID:  t.ChatID,
			Caption: t.Caption,
			File:    file,
		})
		return err

	case TaskSendVoice:
		voice, err := vkteamsbot.NewMultipartFromPath("voice", t.FilePath)
		if err != nil {
			return err
		}
		_, err = s.bot.SendVoice(ctx, vkteamsbot.SendVoiceRequest{
			ChatID: t.ChatID,
			Voice:  voice,
		})
		return err

	case TaskSendAction:
		return s.bot.ChatSendActions(ctx, vkteamsbot.ChatSendActionsRequest{ChatID: t.ChatID, Action: t.Action})

	default:
		return &vkteamsbot.ErrValidation{Field: "type", Message: "unknown task type"}
	}
}
