package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

// =============================================================================
// BatchModel - live view of a batch resolution
// =============================================================================

const (
	progressWidth = 30
	recentShown   = 6
)

var (
	progressDoneStyle = lipgloss.NewStyle().Foreground(colorCyan)
	progressTodoStyle = lipgloss.NewStyle().Foreground(colorDim)
)

type (
	resultMsg    resolver.Result
	batchDoneMsg struct{}
	tickMsg      time.Time
)

// BatchModel is the bubbletea model shown by resolve --progress. It is fed
// one resultMsg per finished package and quits on batchDoneMsg or when the
// user presses q or ctrl+c.
type BatchModel struct {
	Ecosystem   string
	Total       int
	Done        int
	Failed      int
	Recent      []resolver.Result
	Interrupted bool

	start time.Time
}

// NewBatchModel creates a model for total packages of ecosystem.
func NewBatchModel(ecosystem string, total int) BatchModel {
	return BatchModel{Ecosystem: ecosystem, Total: total, start: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m BatchModel) Init() tea.Cmd {
	return tick()
}

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Interrupted = true
			return m, tea.Quit
		}
	case resultMsg:
		m.Done++
		if msg.Err != nil {
			m.Failed++
		}
		m.Recent = append(m.Recent, resolver.Result(msg))
		if len(m.Recent) > recentShown {
			m.Recent = m.Recent[len(m.Recent)-recentShown:]
		}
	case batchDoneMsg:
		return m, tea.Quit
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m BatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Resolving %d %s packages", m.Total, m.Ecosystem)))
	b.WriteString("\n\n")

	filled := 0
	if m.Total > 0 {
		filled = m.Done * progressWidth / m.Total
	}
	b.WriteString("  ")
	b.WriteString(progressDoneStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(progressTodoStyle.Render(strings.Repeat("░", progressWidth-filled)))
	b.WriteString(fmt.Sprintf("  %s/%d", StyleNumber.Render(fmt.Sprint(m.Done)), m.Total))
	if m.Failed > 0 {
		b.WriteString(styleIconError.Render(fmt.Sprintf("  %d failed", m.Failed)))
	}
	b.WriteString("\n\n")

	for _, r := range m.Recent {
		b.WriteString("  ")
		b.WriteString(resultLine(r))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s  q: stop", time.Since(m.start).Round(time.Second))))
	b.WriteString("\n")
	return b.String()
}

// resultLine renders one finished package.
func resultLine(r resolver.Result) string {
	if r.Err != nil {
		code := errors.GetCode(r.Err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		return styleIconError.Render(iconError) + " " + r.ID + " " + StyleDim.Render(string(code))
	}
	version := r.Record.Version
	if version == "" {
		version = "(no release)"
	}
	return styleIconSuccess.Render(iconSuccess) + " " + r.ID + " " +
		StyleHighlight.Render(version) + " " + StyleDim.Render(r.Record.License)
}

// =============================================================================
// Runner
// =============================================================================

// runBatchProgress resolves ids while BatchModel renders on stderr.
// Stopping the view cancels the packages that have not started yet.
func runBatchProgress(ctx context.Context, r *resolver.Resolver, eco string, ids []string) (resolver.Results, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewBatchModel(eco, len(ids)), tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	type outcome struct {
		results resolver.Results
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, err := r.ResolveBatch(ctx, eco, ids, resolver.BatchOptions{
			OnResult: func(res resolver.Result) { p.Send(resultMsg(res)) },
		})
		p.Send(batchDoneMsg{})
		done <- outcome{results, err}
	}()

	final, err := p.Run()
	if m, ok := final.(BatchModel); ok && m.Interrupted {
		cancel()
	}
	out := <-done
	if out.err != nil {
		return nil, out.err
	}
	if err != nil && ctx.Err() == nil {
		return out.results, err
	}
	return out.results, nil
}
