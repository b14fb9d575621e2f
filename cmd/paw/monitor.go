package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/presenter/pkg/motor"
	"github.com/gwillem/presenter/pkg/operate"
	"github.com/gwillem/presenter/pkg/paw"
)

type MonitorCommand struct {
	Hz int `long:"hz" default:"30" description:"Sampling frequency"`
}

const (
	headerHeight = 3 // title, status line, blank
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Chart series, drawn on separate bands so they never overlap.
const (
	seriesFront = "front"
	seriesMotor = "motor"
	seriesRear  = "rear"
)

var seriesColors = map[string]string{
	seriesFront: "46",  // green
	seriesMotor: "226", // yellow
	seriesRear:  "51",  // cyan
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pressedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

type monitorModel struct {
	op       *operate.Operator
	ctx      context.Context
	chart    *streamlinechart.Model
	width    int      // terminal width
	height   int      // terminal height
	logs     []string // last N log messages
	state    operate.State
	quitting bool
}

func (m *monitorModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the operator
type stateMsg operate.State
type logMsg string

func waitForState(op *operate.Operator) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-op.States())
	}
}

func waitForLog(op *operate.Operator) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-op.Logs())
	}
}

// runMotion queues a motion; its outcome arrives through the operator log.
func runMotion(ctx context.Context, op *operate.Operator, phase paw.Phase) tea.Cmd {
	return func() tea.Msg {
		if phase == paw.Retract {
			op.Retract(ctx)
		} else {
			op.Present(ctx)
		}
		return nil
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 16 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 8 {
		height = 8
	}
	return width, height
}

func (m *monitorModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialMonitorModel(ctx context.Context, op *operate.Operator) monitorModel {
	chart := streamlinechart.New(80, 16,
		streamlinechart.WithYRange(-3, 3),
	)

	for name, color := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return monitorModel{
		op:    op,
		ctx:   ctx,
		chart: &chart,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.op),
		waitForLog(m.op),
	)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "p":
			return m, runMotion(m.ctx, m.op, paw.Present)
		case "r":
			return m, runMotion(m.ctx, m.op, paw.Retract)
		}

	case stateMsg:
		m.state = operate.State(msg)
		m.chart.PushDataSet(seriesFront, band(2, m.state.Front))
		m.chart.PushDataSet(seriesMotor, direction(m.state.Motor))
		m.chart.PushDataSet(seriesRear, band(-2, m.state.Rear))
		m.chart.DrawAll()
		return m, waitForState(m.op)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.op)
	}

	return m, nil
}

// band places a switch level around center, high when pressed.
func band(center float64, pressed bool) float64 {
	if pressed {
		return center + 0.5
	}
	return center - 0.5
}

func direction(s motor.State) float64 {
	switch s {
	case motor.Forward:
		return 1
	case motor.Backward:
		return -1
	default:
		return 0
	}
}

func switchLabel(name string, pressed bool) string {
	if pressed {
		return pressedStyle.Render(name + ": pressed")
	}
	return name + ": open"
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Paw Monitor"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.op.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n")

	status := []string{
		"motor: " + m.state.Motor.String(),
		switchLabel("front", m.state.Front),
		switchLabel("rear", m.state.Rear),
	}
	if m.state.Busy {
		status = append(status, pressedStyle.Render("moving"))
	}
	sb.WriteString(strings.Join(status, "   "))
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4)

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'p' to present, 'r' to retract, 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, name := range []string{seriesFront, seriesMotor, seriesRear} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func (c *MonitorCommand) Execute(args []string) error {
	// Keep controller logs from drawing over the alt screen.
	if opts.LogLevel == "" {
		opts.LogLevel = "error"
	}
	ctrl, err := openPaw()
	if err != nil {
		return err
	}

	op := operate.New(ctrl, operate.Config{Hz: c.Hz})

	// Start operator in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := op.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Operator error: %v", err)
		}
	}()

	// Run TUI
	p := tea.NewProgram(initialMonitorModel(ctx, op), tea.WithAltScreen())
	_, runErr := p.Run()

	// Halt any motion in progress before the process exits.
	cancel()
	<-stopped

	if runErr != nil {
		return fmt.Errorf("run monitor: %w", runErr)
	}
	return nil
}
