package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Stage mirrors the pipeline stage reported by the service
type Stage string

const (
	StageIdle          Stage = "idle"
	StageFetching      Stage = "fetching"
	StageValidating    Stage = "validating"
	StageDeduplicating Stage = "deduplicating"
	StageClassifying   Stage = "classifying"
	StagePersisting    Stage = "persisting"
	StageDone          Stage = "done"
	StageFailed        Stage = "failed"
)

// StatusResponse is the JSON response from the status endpoint
type StatusResponse struct {
	Stage         Stage     `json:"stage"`
	Running       bool      `json:"running"`
	LastRun       time.Time `json:"last_run,omitempty"`
	ItemsFound    int       `json:"items_found"`
	ItemsAccepted int       `json:"items_accepted"`
	LastError     string    `json:"last_error,omitempty"`
}

// Article is a trimmed view of an ingested article
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	Importance  int       `json:"importance"`
	PublishedAt time.Time `json:"published_at"`
}

// Model represents the TUI client state (thin client)
type Model struct {
	Client *ServiceClient

	// Local UI state (synced from the service)
	Status   *StatusResponse
	Articles []Article
	Err      error

	// Connection status
	Connected bool
}

// NewModel creates a new TUI model
func NewModel(serviceURL string) Model {
	return Model{
		Client: NewServiceClient(serviceURL),
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	// Start polling immediately
	return tea.Batch(
		pollStatus(m.Client),
		fetchArticles(m.Client),
		tickCmd(),
	)
}
