package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rocketrl/internal/dynamo"
	"github.com/san-kum/rocketrl/internal/experiment"
	"github.com/san-kum/rocketrl/internal/rocket"
)

const (
	width          = 60
	height         = 24
	rewardCapacity = 200
)

type TickMsg time.Time

// Model flies one rocket at a time. With the autopilot engaged the policy
// picks every action and a new episode starts when one ends; otherwise the
// keyboard queues the next action.
type Model struct {
	sim       *rocket.Simulator
	policy    experiment.Policy
	autopilot bool
	pending   rocket.Action
	maxSteps  int
	tick      time.Duration

	snap       rocket.Snapshot
	episode    int
	steps      int
	ret        float64
	lastReward float64
	done       bool
	rewards    []float64
	returns    []float64

	tuner     dynamo.Configurable
	paramKeys []string
	selected  int
	tuneErr   error

	canvas   *Canvas
	scene    *Scene
	theme    Theme
	styles   styles
	running  bool
	showHelp bool
}

// NewModel resets sim and returns a model ready to run. A nil policy starts
// in manual mode with the autopilot unavailable.
func NewModel(sim *rocket.Simulator, policy experiment.Policy, maxSteps int) Model {
	p := sim.Params()
	canvas := NewCanvas(width, height)
	keys := make([]string, 0)
	for k := range sim.GetParams() {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := Model{
		sim:       sim,
		tuner:     sim,
		paramKeys: keys,
		policy:    policy,
		autopilot: policy != nil,
		maxSteps:  maxSteps,
		tick:      time.Duration(p.MacroStep() * float64(time.Second)),
		canvas:    canvas,
		scene:     NewScene(canvas, p),
		theme:     ThemeMission,
		styles:    newStyles(ThemeMission),
		running:   true,
		rewards:   make([]float64, 0, rewardCapacity),
	}
	m.snap = sim.Reset()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.nextTick()
}

func (m Model) nextTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.newEpisode()
		case "a":
			if m.policy != nil {
				m.autopilot = !m.autopilot
			}
		case "up", "w":
			m.pending = rocket.ToggleIgnition
		case "left", "h":
			m.pending = rocket.RotateLeft
		case "right", "l":
			m.pending = rocket.RotateRight
		case "tab":
			m.selected = (m.selected + 1) % len(m.paramKeys)
		case "+", "=":
			m.adjustParam(1.05)
		case "-", "_":
			m.adjustParam(0.95)
		case "t":
			m.theme = m.theme.next()
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, m.nextTick()
	}
	return m, nil
}

// adjustParam scales the selected parameter. A rejected value leaves the
// parameter unchanged and is reported under the status line.
func (m *Model) adjustParam(factor float64) {
	key := m.paramKeys[m.selected]
	m.tuneErr = m.tuner.SetParam(key, m.tuner.GetParams()[key]*factor)
}

// advance plays one macro-step.
func (m *Model) advance() {
	if m.done || m.steps >= m.maxSteps {
		if !m.autopilot {
			return
		}
		m.newEpisode()
	}

	a := m.pending
	m.pending = rocket.NoOp
	if m.autopilot {
		a = m.policy.Act(m.snap)
	}

	res, err := m.sim.Step(a)
	if err != nil {
		return
	}
	m.snap = res.Snapshot()
	m.steps++
	m.lastReward = res.Reward()
	m.ret += m.lastReward
	m.done = !res.WithinBounds()

	m.rewards = append(m.rewards, m.lastReward)
	if len(m.rewards) > rewardCapacity {
		m.rewards = m.rewards[1:]
	}
	if m.done || m.steps >= m.maxSteps {
		m.returns = append(m.returns, m.ret)
	}
}

func (m *Model) newEpisode() {
	if m.steps > 0 && !m.done && m.steps < m.maxSteps {
		m.returns = append(m.returns, m.ret)
	}
	m.snap = m.sim.Reset()
	m.episode++
	m.steps = 0
	m.ret = 0
	m.lastReward = 0
	m.done = false
	m.pending = rocket.NoOp
	m.rewards = m.rewards[:0]
}

func (m Model) status() string {
	switch {
	case m.done:
		return m.styles.bad.Render("OUT OF BOUNDS")
	case m.steps >= m.maxSteps:
		return m.styles.ok.Render("EPISODE COMPLETE")
	case !m.running:
		return m.styles.warn.Render("PAUSED")
	case m.autopilot:
		return m.styles.ok.Render("AUTOPILOT")
	default:
		return m.styles.warn.Render("MANUAL")
	}
}

func (m Model) View() string {
	m.scene.Draw(m.snap)
	canvasView := m.styles.canvas.Render(m.canvas.String())

	st := m.styles
	row := func(label, value string) string {
		return st.label.Render(label) + st.value.Render(value) + "\n"
	}
	onOff := func(v float64) string {
		if v != 0 {
			return "on"
		}
		return "off"
	}

	var s strings.Builder
	s.WriteString(st.header.Render(fmt.Sprintf("EPISODE %d", m.episode)) + "\n")
	s.WriteString(m.status() + "\n")
	if m.tuneErr != nil {
		s.WriteString(st.bad.Render(m.tuneErr.Error()) + "\n")
	}
	s.WriteString("\n")
	if len(m.rewards) > 1 {
		chart := asciigraph.Plot(m.rewards, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Reward"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}
	s.WriteString(row("Step", fmt.Sprintf("%d / %d", m.steps, m.maxSteps)))
	s.WriteString(row("Time", fmt.Sprintf("%.2fs", m.sim.Elapsed())))
	s.WriteString(row("Position", fmt.Sprintf("(%.2f, %.2f)", m.snap[rocket.IdxX], m.snap[rocket.IdxY])))
	s.WriteString(row("Velocity", fmt.Sprintf("(%.2f, %.2f)", m.snap[rocket.IdxU], m.snap[rocket.IdxV])))
	s.WriteString(row("Tilt", fmt.Sprintf("%.3f rad", m.snap[rocket.IdxPhi])))
	s.WriteString(row("Nozzle", fmt.Sprintf("%.3f rad", m.snap[rocket.IdxTheta])))
	s.WriteString(row("Engine", onOff(m.snap[rocket.IdxIgnition])))
	s.WriteString(row("Rotation", fmt.Sprintf("%+d", int(m.snap[rocket.IdxRotation]))))
	s.WriteString(row("Reward", fmt.Sprintf("%.2f", m.lastReward)))
	s.WriteString(row("Return", fmt.Sprintf("%.2f", m.ret)))
	if n := len(m.returns); n > 0 {
		s.WriteString(row("Last", fmt.Sprintf("%.2f", m.returns[n-1])))
	}
	s.WriteString("\nPARAMETERS\n")
	params := m.tuner.GetParams()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-10s %.3f", k, params[k])
		if i == m.selected {
			s.WriteString(st.ok.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}
	s.WriteString(st.help.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\nA:Autopilot T:Theme ?:Help\nTab/+/-:Tune"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Start a new episode      ║
║  A        - Toggle autopilot         ║
║  Up/W     - Toggle ignition          ║
║  Left/H   - Rotate nozzle left       ║
║  Right/L  - Rotate nozzle right      ║
║  Tab      - Cycle parameters         ║
║  +/-      - Scale parameter by 5%    ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Returns lists the returns of finished episodes.
func (m Model) Returns() []float64 {
	return append([]float64(nil), m.returns...)
}
