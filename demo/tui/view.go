package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	// Title
	b.WriteString(TitleStyle.Render("📰 MarketBrief Ingestion Console"))
	b.WriteString("\n\n")

	// Current state
	b.WriteString(m.stateText())
	b.WriteString("\n\n")

	// Statistics
	if m.Status != nil {
		stats := fmt.Sprintf("📊 Items found: %d | Accepted: %d", m.Status.ItemsFound, m.Status.ItemsAccepted)
		b.WriteString(InfoStyle.Render(stats))
		b.WriteString("\n")
		if !m.Status.LastRun.IsZero() {
			b.WriteString(InfoStyle.Render("   Last run: " + m.Status.LastRun.Format("15:04:05")))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	// Recent articles
	if len(m.Articles) > 0 {
		var list strings.Builder
		list.WriteString(HighlightStyle.Render("Recent Articles"))
		list.WriteString("\n\n")
		for _, a := range m.Articles {
			title := a.Title
			if len(title) > 70 {
				title = title[:70] + "..."
			}
			badge := ImportanceStyle.Render(fmt.Sprintf("[%d]", a.Importance))
			list.WriteString(fmt.Sprintf("%s %-14s %s\n", badge, a.Type, title))
		}
		b.WriteString(BoxStyle.Render(list.String()))
		b.WriteString("\n\n")
	}

	// Help text
	b.WriteString(InfoStyle.Render("Press 'r' to run a pass | 'f' to force a fresh pass | 'a' to refresh articles | 'q' to quit"))

	return b.String()
}

// stateText returns the appropriate state message
func (m Model) stateText() string {
	if !m.Connected {
		msg := "❌ Not connected to ingestion service"
		if m.Err != nil {
			msg += ": " + m.Err.Error()
		}
		return ErrorStyle.Render(msg)
	}

	switch m.Status.Stage {
	case StageIdle:
		return HighlightStyle.Render("👋 Idle") + "\n\n" +
			InfoStyle.Render("Press 'r' to run an ingestion pass")
	case StageFetching:
		return StatusStyle.Render("⏳ Fetching feed items...")
	case StageValidating:
		return StatusStyle.Render("🔎 Validating items...")
	case StageDeduplicating:
		return StatusStyle.Render("🔍 Deduplicating items...")
	case StageClassifying:
		return StatusStyle.Render("🏷️  Classifying articles...")
	case StagePersisting:
		return StatusStyle.Render("💾 Persisting articles...")
	case StageDone:
		return HighlightStyle.Render("✅ Pass complete")
	case StageFailed:
		return ErrorStyle.Render("❌ Pass failed: " + m.Status.LastError)
	default:
		return ""
	}
}
