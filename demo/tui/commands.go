package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// pollStatus creates a command to poll the pipeline status
func pollStatus(client *ServiceClient) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return StatusUpdateMsg{
			Status: status,
			Err:    err,
		}
	}
}

// fetchArticles creates a command to load the recent article list
func fetchArticles(client *ServiceClient) tea.Cmd {
	return func() tea.Msg {
		articles, err := client.GetRecentArticles(10)
		return ArticlesUpdateMsg{
			Articles: articles,
			Err:      err,
		}
	}
}

// triggerRun creates a command that starts an ingestion pass
func triggerRun(client *ServiceClient, force bool) tea.Cmd {
	return func() tea.Msg {
		err := client.RunIngestion(force)
		return RunTriggeredMsg{Force: force, Err: err}
	}
}

// tickCmd creates a command that ticks every 500ms for polling
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
