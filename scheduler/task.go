package scheduler

import (
	"time"

	vkteamsbot "github.com/vkteams-go/bot"
)

// TaskType selects which Bot method a Task dispatches to.
type TaskType int

const (
	TaskSendText TaskType = iota
	TaskSendFile
	TaskSendVoice
	TaskSendAction
)

func (t TaskType) String() string {
	switch t {
	case TaskSendText:
		return "send_text"
	case TaskSendFile:
		return "send_file"
	case TaskSendVoice:
		return "send_voice"
	case TaskSendAction:
		return "send_action"
	default:
		return "unknown"
	}
}

// Task is a single scheduled action against one chat.
type Task struct {
	ID     string            `json:"id"`
	ChatID vkteamsbot.ChatId `json:"chatId"`
	Type   TaskType          `json:"type"`

	// SendText
	Text string `json:"text,omitempty"`

	// SendFile / SendVoice
	FilePath string `json:"filePath,omitempty"`
	Caption  string `json:"caption,omitempty"`

	// SendAction
	Action string `json:"action,omitempty"`

	Schedule Schedule `json:"schedule"`

	Enabled   bool   `json:"enabled"`
	NextRun   int64  `json:"nextRun"`
	LastRun   int64  `json:"lastRun,omitempty"` // 0 = never run
	RunCount  int    `json:"runCount"`
	MaxRuns   *int   `json:"maxRuns,omitempty"` // nil = unlimited
	CreatedAt int64  `json:"createdAt"`
}

// dueAt reports whether the task should fire at or before nowUnix.
func (t Task) dueAt(nowUnix int64) bool {
	return t.Enabled && t.NextRun != 0 && t.NextRun <= nowUnix
}

// reachedMaxRuns reports whether RunCount has hit a configured MaxRuns.
func (t Task) reachedMaxRuns() bool {
	return t.MaxRuns != nil && t.RunCount >= *t.MaxRuns
}

// NewTaskParams describes a task to create via AddTask.
type NewTaskParams struct {
	ChatID   vkteamsbot.ChatId
	Type     TaskType
	Text     string
	FilePath string
	Caption  string
	Action   string
	Schedule Schedule
	MaxRuns  *int // nil = unlimited, else must be >= 1
}

// NewTask builds a Task with a fresh ID, validating MaxRuns and computing
// its initial next_run relative to the given creation time.
func NewTask(p NewTaskParams, createdAt time.Time) (Task, error) {
	if p.MaxRuns != nil && *p.MaxRuns < 1 {
		return Task{}, &vkteamsbot.ErrValidation{Field: "maxRuns", Message: "must be at least 1 when set"}
	}
	next, err := p.Schedule.InitialNextRun(createdAt.Unix())
	if err != nil {
		return Task{}, err
	}
	return Task{
		ID:        vkteamsbot.NewTaskID(),
		ChatID:    p.ChatID,
		Type:      p.Type,
		Text:      p.Text,
		FilePath:  p.FilePath,
		Caption:   p.Caption,
		Action:    p.Action,
		Schedule:  p.Schedule,
		Enabled:   true,
		NextRun:   next,
		MaxRuns:   p.MaxRuns,
		CreatedAt: createdAt.Unix(),
	}, nil
}
