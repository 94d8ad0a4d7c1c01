package cli

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

const trendPoints = 10

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if m.activeList().FilterState() == list.Filtering {
		return updateActiveList(msg, m)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.mode == panelRoles {
			m.mode = panelOptions
		} else {
			m.mode = panelRoles
		}
		return m, nil
	case "t":
		m.showTrend = !m.showTrend
		if m.showTrend {
			m = loadTrend(m)
		}
		return m, nil
	case "enter":
		if m.mode == panelRoles {
			m = refreshOptions(m)
			m.mode = panelOptions
			return m, nil
		}
	case "esc":
		if m.mode == panelOptions && m.optionList.FilterState() == list.Unfiltered {
			m.mode = panelRoles
			return m, nil
		}
	}

	return updateActiveList(msg, m)
}

func (m model) activeList() list.Model {
	if m.mode == panelOptions {
		return m.optionList
	}
	return m.roleList
}

func updateActiveList(msg tea.Msg, m model) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.mode == panelOptions {
		m.optionList, cmd = m.optionList.Update(msg)
		return m, cmd
	}
	m.roleList, cmd = m.roleList.Update(msg)
	m = refreshOptions(m)
	if m.showTrend {
		m = loadTrend(m)
	}
	return m, cmd
}

func selectedRole(m model) string {
	selected, ok := m.roleList.SelectedItem().(item)
	if !ok {
		return ""
	}
	return selected.title
}

// refreshOptions shows the options of the highlighted role.
func refreshOptions(m model) model {
	role := selectedRole(m)
	m.optionList.Title = "Options"
	if role == "" {
		m.optionList.SetItems(nil)
		return m
	}
	m.optionList.Title = "Options: " + role
	m.optionList.SetItems(optionItems(m.roles[role].analysis))
	return m
}

func loadTrend(m model) model {
	role := selectedRole(m)
	switch {
	case m.store == nil:
		m.trend = statusStyle.Render("Trend unavailable (enable [history] to record runs).")
		return m
	case role == "":
		m.trend = statusStyle.Render("No role selected.")
		return m
	}

	points, err := m.store.RoleTrend(role, time.Time{})
	if err != nil {
		slog.Warn("failed to load role trend", "role", role, "error", err)
		m.trend = failureStyle.Render("Trend unavailable: " + err.Error())
		return m
	}
	if len(points) > trendPoints {
		points = points[len(points)-trendPoints:]
	}
	m.trend = renderTrend(role, points)
	return m
}
