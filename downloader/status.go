package downloader

// Status is a download task's position in its lifecycle. Terminal
// statuses are emitted exactly once per song per run.
type Status string

const (
	StatusPending     Status = "pending"
	StatusMatching    Status = "matching"
	StatusDownloading Status = "downloading"
	StatusConverting  Status = "converting"
	StatusTagging     Status = "tagging"
	StatusDone        Status = "done"
	StatusFailed      Status = "failed"
	StatusSkipped     Status = "skipped"
	StatusCancelled   Status = "cancelled"
)

func (status Status) Terminal() bool {
	switch status {
	case StatusDone, StatusFailed, StatusSkipped, StatusCancelled:
		return true
	}
	return false
}

// Event is the sole channel through which callers observe progress.
// Events for the same song arrive in transition order; no cross-song
// ordering is guaranteed.
type Event struct {
	SongID  string
	Status  Status
	Attempt int
	Total   int
	Message string
}
