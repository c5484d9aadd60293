package models

import "time"

// Work statuses. A work starts queued, a render worker moves it to
// rendering and finally to completed.
const (
	WorkStatusQueued    = "queued"
	WorkStatusRendering = "rendering"
	WorkStatusCompleted = "completed"
)

// Work is a single text-to-animation job. StorageKey points at the rendered
// video object; it is empty until rendering completes.
type Work struct {
	ID         string
	UserID     string
	Prompt     string
	Status     string
	StorageKey string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
