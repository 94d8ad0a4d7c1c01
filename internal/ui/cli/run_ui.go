package cli

import (
	coreapp "argspec/internal/core/app"
	"argspec/internal/core/ports"
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// runUI drives watch mode behind the dashboard. Quitting the dashboard stops
// the watcher and a failing watcher closes the dashboard.
func runUI(ctx context.Context, app *coreapp.App, store ports.HistoryStore, req ports.GenerateRequest) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(initialModel(store), tea.WithAltScreen())

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- app.Watch(ctx, req, func(res ports.GenerateResult) {
			p.Send(resultMsg{res: res})
		})
		p.Quit()
	}()

	_, err := p.Run()
	cancel()
	if wErr := <-watchErr; wErr != nil {
		return wErr
	}
	return err
}
