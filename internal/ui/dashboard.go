// Package ui renders the terminal dashboard: live tallies, the voter's
// cooldown countdown, and the happy leaderboard for the selected network.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pittpv/happy-vote-app/internal/app"
	"github.com/pittpv/happy-vote-app/internal/chain"
	"github.com/pittpv/happy-vote-app/internal/votes"
)

const barWidth = 30

type tickMsg time.Time

type refreshDoneMsg struct{}

// DashboardModel is the bubbletea model behind `happyvote watch`.
type DashboardModel struct {
	coordinator *app.Coordinator
	registry    *chain.Registry
	interval    time.Duration

	view     app.View
	showAll  bool
	quitting bool
}

// NewDashboard creates the dashboard model. interval is the read refresh
// cadence; the countdown ticks every second regardless.
func NewDashboard(c *app.Coordinator, registry *chain.Registry, interval time.Duration) DashboardModel {
	if interval < time.Second {
		interval = time.Second
	}
	return DashboardModel{
		coordinator: c,
		registry:    registry,
		interval:    interval,
		view:        c.View(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m DashboardModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.interval)
		defer cancel()
		m.coordinator.Refresh(ctx)
		return refreshDoneMsg{}
	}
}

// Init starts the second ticker and the first read.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(tick(), m.refresh())
}

// Update handles keys, the countdown tick, and refresh completions.
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "l":
			m.showAll = !m.showAll
		}

	case tickMsg:
		m.view = m.coordinator.View()
		cmds := []tea.Cmd{tick()}
		if time.Time(msg).Unix()%int64(m.interval/time.Second) == 0 {
			cmds = append(cmds, m.refresh())
		}
		return m, tea.Batch(cmds...)

	case refreshDoneMsg:
		m.view = m.coordinator.View()
	}
	return m, nil
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}
	v := m.view

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Happy Vote") + "\n")

	network := v.EffectiveNetwork
	if n, err := m.registry.Resolve(network); err == nil {
		network = n.DisplayName
	}
	b.WriteString("Network: " + StyleNetwork.Render(network) + "\n")
	if v.Warning != "" {
		b.WriteString(Warn(v.Warning) + "\n")
	}
	if v.Connected {
		b.WriteString("Wallet:  " + StyleAddress.Render(ShortAddress(v.Address)) + "\n")
	} else {
		b.WriteString(StyleMeta.Render("Wallet:  not connected") + "\n")
	}
	b.WriteString("\n")

	b.WriteString(renderTally(v.Tally))
	b.WriteString("\n")

	if v.CanVote {
		b.WriteString(Happy("You can vote now.") + "\n")
	} else if v.CooldownRemaining != nil {
		b.WriteString("Next vote in " + StyleWarning.Render(FormatCountdown(*v.CooldownRemaining)) + "\n")
	}

	if len(v.Leaderboard) > 0 {
		b.WriteString("\n" + renderLeaderboard(v.Leaderboard, m.showAll))
	}

	b.WriteString("\n" + StyleMeta.Render("q quit · l toggle full leaderboard"))
	return StyleBorder.Render(b.String())
}

func renderTally(t votes.Tally) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s  %s\n",
		Happy(fmt.Sprintf("Happy %d", t.Happy)),
		bar(t.HappyPercent(), StyleHappy),
		StyleMeta.Render(fmt.Sprintf("%.1f%%", t.HappyPercent()))))
	b.WriteString(fmt.Sprintf("%s %s  %s\n",
		Sad(fmt.Sprintf("Sad   %d", t.Sad)),
		bar(t.SadPercent(), StyleSad),
		StyleMeta.Render(fmt.Sprintf("%.1f%%", t.SadPercent()))))
	return b.String()
}

func renderLeaderboard(entries []votes.LeaderboardEntry, showAll bool) string {
	visible, rest := votes.SplitLeaderboard(entries)
	if showAll {
		visible = entries
		rest = nil
	}

	var b strings.Builder
	b.WriteString(StyleNetwork.Render("Happy leaderboard") + "\n")
	for i, e := range visible {
		b.WriteString(fmt.Sprintf("%2d. %s  %s\n",
			i+1, StyleAddress.Render(ShortAddress(e.Address)), Happy(fmt.Sprintf("%d", e.HappyCount))))
	}
	if len(rest) > 0 {
		b.WriteString(StyleMeta.Render(fmt.Sprintf("… and %d more (press l)", len(rest))) + "\n")
	}
	return b.String()
}

func bar(percent float64, style interface{ Render(...string) string }) string {
	filled := int(percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return style.Render(strings.Repeat("█", filled)) + StyleMeta.Render(strings.Repeat("░", barWidth-filled))
}

// FormatCountdown renders seconds as h/m/s, dropping zero leading units.
func FormatCountdown(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
