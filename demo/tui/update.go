package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case TickMsg:
		// Every tick refreshes the status; article refresh piggybacks on
		// status transitions instead.
		return m, tea.Batch(pollStatus(m.Client), tickCmd())
	case StatusUpdateMsg:
		return m.handleStatusUpdate(msg)
	case ArticlesUpdateMsg:
		if msg.Err == nil {
			m.Articles = msg.Articles
		}
		return m, nil
	case RunTriggeredMsg:
		if msg.Err != nil {
			m.Err = msg.Err
		}
		return m, nil
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r", "R":
		return m, triggerRun(m.Client, false)
	case "f", "F":
		return m, triggerRun(m.Client, true)
	case "a", "A":
		return m, fetchArticles(m.Client)
	}
	return m, nil
}

// handleStatusUpdate syncs local state from the service
func (m Model) handleStatusUpdate(msg StatusUpdateMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Connected = false
		m.Err = msg.Err
		return m, nil
	}

	wasRunning := m.Status != nil && m.Status.Running
	m.Connected = true
	m.Err = nil
	m.Status = msg.Status

	// Refresh the article list once a pass finishes
	if wasRunning && !msg.Status.Running {
		return m, fetchArticles(m.Client)
	}
	return m, nil
}
