package cli

import (
	"argspec/internal/core/ports"
	"argspec/internal/engine/spec"
	"argspec/internal/shared/util"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var docStyle = lipgloss.NewStyle().Margin(1, 2)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type panelMode int

const (
	panelRoles panelMode = iota
	panelOptions
)

// roleState is the latest outcome seen for one role. Watch batches only
// carry the roles they regenerated, so states accumulate across results.
type roleState struct {
	analysis *spec.RoleAnalysis
	err      string
	written  bool
}

type model struct {
	roleList   list.Model
	optionList list.Model
	mode       panelMode
	store      ports.HistoryStore
	showTrend  bool
	trend      string
	roles      map[string]roleState
	lastUpdate time.Time
	lastRunID  string
	runs       int
}

type resultMsg struct {
	res ports.GenerateResult
}

func initialModel(store ports.HistoryStore) model {
	roleList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	roleList.Title = "Roles"
	roleList.SetShowStatusBar(false)
	roleList.SetFilteringEnabled(true)

	optionList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	optionList.Title = "Options"
	optionList.SetShowStatusBar(false)
	optionList.SetFilteringEnabled(true)

	return model{
		roleList:   roleList,
		optionList: optionList,
		mode:       panelRoles,
		store:      store,
		roles:      make(map[string]roleState),
		lastUpdate: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.roleList.SetSize(width, height)
		m.optionList.SetSize(width, height)
	case resultMsg:
		m.runs++
		m.lastRunID = msg.res.RunID
		m.lastUpdate = time.Now()
		for _, outcome := range msg.res.Roles {
			st := roleState{analysis: outcome.Analysis, written: outcome.Written}
			if outcome.Err != nil {
				st.err = outcome.Err.Error()
			}
			m.roles[outcome.Role] = st
		}
		m.roleList.SetItems(roleItems(m.roles))
		m = refreshOptions(m)
		if m.showTrend {
			m = loadTrend(m)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.mode == panelRoles {
		m.roleList, cmd = m.roleList.Update(msg)
	} else {
		m.optionList, cmd = m.optionList.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	options, failing := 0, 0
	for _, st := range m.roles {
		if st.err != "" {
			failing++
			continue
		}
		if st.analysis != nil {
			options += st.analysis.OptionCount()
		}
	}

	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %d roles | %d options | run %s (#%d)",
		m.lastUpdate.Format("15:04:05"), len(m.roles), options, shortID(m.lastRunID), m.runs))

	summary := successStyle.Render("All roles generated")
	if failing > 0 {
		summary = failureStyle.Render(fmt.Sprintf("%d roles failing", failing))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle.Render("Argument Spec Monitor"), status, summary)
	body := m.roleList.View()
	if m.mode == panelOptions {
		body = m.optionList.View()
	}
	if m.showTrend {
		body += "\n\n" + m.trend
	}
	return docStyle.Render(header + "\n" + renderHelp(m) + "\n\n" + body)
}

func roleItems(roles map[string]roleState) []list.Item {
	items := make([]list.Item, 0, len(roles))
	for _, name := range util.SortedStringKeys(roles) {
		st := roles[name]
		desc := "failed: " + st.err
		if st.err == "" && st.analysis != nil {
			d := st.analysis.Diagnostics
			desc = fmt.Sprintf("entry_points=%d options=%d files=%d skipped=%d malformed=%d",
				len(st.analysis.EntryPoints), st.analysis.OptionCount(), d.FilesScanned, d.FilesSkipped, d.MalformedExpressions)
		}
		items = append(items, item{title: name, desc: desc})
	}
	return items
}

func optionItems(analysis *spec.RoleAnalysis) []list.Item {
	if analysis == nil {
		return nil
	}
	var items []list.Item
	for i := range analysis.EntryPoints {
		ep := &analysis.EntryPoints[i]
		for _, name := range ep.OptionNames() {
			opt := ep.Options[name]
			requirement := "optional"
			if opt.Required {
				requirement = "required"
			}
			items = append(items, item{
				title: ep.Name + "." + name,
				desc:  fmt.Sprintf("%s, %s - %s", opt.Type, requirement, opt.Description),
			})
		}
	}
	return items
}

func renderHelp(m model) string {
	keys := "Keys: tab panel | enter options | / filter | t trend | q quit"
	if m.mode == panelOptions {
		keys = "Keys: tab panel | esc roles | / filter | t trend | q quit"
	}
	return statusStyle.Render(keys)
}
