package browser

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the browser full screen and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, load LoadFunc, opts ...Option) error {
	m := New(load, append([]Option{WithContext(ctx)}, opts...)...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.cancel()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
