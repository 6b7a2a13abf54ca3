// Package viz renders a live terminal view of a running co-simulation:
// concentration charts on the left, culture state and tunable kinetics on
// the right.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/janpeter19/cobsim/internal/flux"
	"github.com/janpeter19/cobsim/internal/reactor"
)

const historyCapacity = 600

type TickMsg time.Time

// OptimizerFactory rebuilds the flux optimizer after a kinetic parameter is
// tuned from the keyboard.
type OptimizerFactory func(flux.Params) flux.Optimizer

// tunable kinetics, cycled with tab
var paramKeys = []string{"qO2max", "alpha", "beta", "kog", "koe"}

// LiveModel steps the optimize-advance loop one interval per tick and keeps
// rolling histories of the observed concentrations.
type LiveModel struct {
	batch  *reactor.Batch
	newOpt OptimizerFactory
	opt    flux.Optimizer

	params  flux.Params
	initial flux.Params

	dt  float64
	t   float64
	sol flux.Solution

	histG, histE, histX []float64

	running  bool
	selected int
	showHelp bool
	err      error
}

func NewLiveModel(batch *reactor.Batch, newOpt OptimizerFactory, params flux.Params, dt float64) LiveModel {
	return LiveModel{
		batch:   batch,
		newOpt:  newOpt,
		opt:     newOpt(params),
		params:  params,
		initial: params,
		dt:      dt,
		histG:   make([]float64, 0, historyCapacity),
		histE:   make([]float64, 0, historyCapacity),
		histX:   make([]float64, 0, historyCapacity),
		running: true,
	}
}

func (m LiveModel) Init() tea.Cmd {
	return tea.Tick(time.Second/20, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(paramKeys)
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tea.Tick(time.Second/20, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// step runs one optimize-advance interval, mirroring the batch driver loop.
func (m *LiveModel) step() {
	g, e := m.lastReading()

	sol, err := m.opt.Solve(g, e)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.sol = sol

	m.batch.SetParameters(map[string]float64{
		reactor.ParamMu:  sol.Mu,
		reactor.ParamQGr: sol.QGr,
		reactor.ParamQEr: sol.QEr,
		reactor.ParamQO2: sol.QO2,
	})

	if err := m.batch.Advance(m.dt, true); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.t += m.dt

	g, e = m.lastReading()
	out := m.batch.LastOutput()
	x := out[reactor.OutBiomass][len(out[reactor.OutBiomass])-1]

	m.histG = appendCapped(m.histG, g)
	m.histE = appendCapped(m.histE, e)
	m.histX = appendCapped(m.histX, x)
}

func (m *LiveModel) lastReading() (g, e float64) {
	out := m.batch.LastOutput()
	gs := out[reactor.OutGlucose]
	es := out[reactor.OutEthanol]
	return gs[len(gs)-1], es[len(es)-1]
}

func appendCapped(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[1:]
	}
	return hist
}

func (m *LiveModel) adjustParam(factor float64) {
	key := paramKeys[m.selected]
	switch key {
	case "qO2max":
		m.params.QO2Max *= factor
	case "alpha":
		m.params.Alpha *= factor
	case "beta":
		m.params.Beta *= factor
	case "kog":
		m.params.Kog *= factor
	case "koe":
		m.params.Koe *= factor
	}
	m.opt = m.newOpt(m.params)
}

func (m *LiveModel) paramValue(key string) (current, initial float64) {
	switch key {
	case "qO2max":
		return m.params.QO2Max, m.initial.QO2Max
	case "alpha":
		return m.params.Alpha, m.initial.Alpha
	case "beta":
		return m.params.Beta, m.initial.Beta
	case "kog":
		return m.params.Kog, m.initial.Kog
	case "koe":
		return m.params.Koe, m.initial.Koe
	}
	return 0, 0
}

func (m *LiveModel) reset() {
	m.batch.Reset()
	m.t = 0
	m.sol = flux.Solution{}
	m.histG = m.histG[:0]
	m.histE = m.histE[:0]
	m.histX = m.histX[:0]
	m.params = m.initial
	m.opt = m.newOpt(m.params)
	m.err = nil
	m.running = true
}

func (m LiveModel) View() string {
	var charts strings.Builder
	if len(m.histG) > 1 {
		charts.WriteString(graphStyle.Render(asciigraph.Plot(m.histG,
			asciigraph.Height(7), asciigraph.Width(60), asciigraph.Caption("Glucose [g/L]"))) + "\n")
		charts.WriteString(graphStyle.Render(asciigraph.Plot(m.histX,
			asciigraph.Height(7), asciigraph.Width(60), asciigraph.Caption("Biomass [g/L]"))) + "\n")
	} else {
		charts.WriteString(graphStyle.Render("collecting samples..."))
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render("BATCH CULTIVATION") + "\n")

	switch {
	case m.err != nil:
		s.WriteString(statusErr.Render("STOPPED: "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	g, e := 0.0, 0.0
	if len(m.histG) > 0 {
		g = m.histG[len(m.histG)-1]
		e = m.histE[len(m.histE)-1]
	}
	x := 0.0
	if len(m.histX) > 0 {
		x = m.histX[len(m.histX)-1]
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2f h", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Glucose") + valueStyle.Render(fmt.Sprintf("%.4f g/L", g)) + "\n")
	s.WriteString(labelStyle.Render("Ethanol") + valueStyle.Render(fmt.Sprintf("%.4f g/L", e)) + "\n")
	s.WriteString(labelStyle.Render("Biomass") + valueStyle.Render(fmt.Sprintf("%.4f g/L", x)) + "\n")
	s.WriteString(labelStyle.Render("Growth mu") + valueStyle.Render(fmt.Sprintf("%.4e /h", m.sol.Mu)) + "\n")
	s.WriteString(labelStyle.Render("Oxygen") + valueStyle.Render(
		ProgressBar(safeRatio(m.sol.QO2, m.params.QO2Max), 10)+fmt.Sprintf(" %.0f%%", 100*safeRatio(m.sol.QO2, m.params.QO2Max))) + "\n")

	s.WriteString("\nKINETICS\n")
	for i, key := range paramKeys {
		val, initial := m.paramValue(key)
		bar := ProgressBar(safeRatio(val, 2*initial), 10)
		line := fmt.Sprintf("%-8s %s %.3e", key, bar, val)
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("\nSP:Pause R:Reset Q:Quit\nTab:Select ↑↓:Tune ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, charts.String(), statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

func safeRatio(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return v / max
}

const helpText = `
  Space    pause/resume
  R        reset culture and kinetics
  Tab      select kinetic parameter
  Up/K     increase selected (+5%)
  Down/J   decrease selected (-5%)
  ?        toggle this help
  Q        quit
`
