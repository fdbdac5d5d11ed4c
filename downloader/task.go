package downloader

import (
	"github.com/google/uuid"
	"github.com/spotDL/spotify-downloader-sub000/entity"
)

// Task wraps one Song through the scheduler. A task is driven by a
// single goroutine at a time, so its transitions need no locking and
// per-song event ordering holds by construction.
type Task struct {
	ID         string
	Song       *entity.Song
	Attempts   int
	Status     Status
	OutputPath string

	total    int
	events   chan<- Event
	terminal bool
}

func newTask(song *entity.Song, outputPath string, total int, events chan<- Event) *Task {
	return &Task{
		ID:         uuid.NewString(),
		Song:       song,
		Status:     StatusPending,
		OutputPath: outputPath,
		total:      total,
		events:     events,
	}
}

// transition moves the task to the given status and emits the
// matching event. Once a terminal status has been emitted, late
// transitions are dropped.
func (task *Task) transition(status Status, message string) {
	if task.terminal {
		return
	}
	task.Status = status
	if status.Terminal() {
		task.terminal = true
	}

	if task.events == nil {
		return
	}
	task.events <- Event{
		SongID:  task.Song.ID,
		Status:  status,
		Attempt: task.Attempts,
		Total:   task.total,
		Message: message,
	}
}
