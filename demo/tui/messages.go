package tui

import "time"

// Messages for the tea program (polling-based)

// StatusUpdateMsg is sent when we receive status from the service
type StatusUpdateMsg struct {
	Status *StatusResponse
	Err    error
}

// ArticlesUpdateMsg is sent when we receive the recent article list
type ArticlesUpdateMsg struct {
	Articles []Article
	Err      error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}

// RunTriggeredMsg is sent when the user triggers an ingestion pass
type RunTriggeredMsg struct {
	Force bool
	Err   error
}
