package viz

import (
	"fmt"
	"math"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	canvasCols      = 100
	canvasRows      = 12
	frameBuffer     = 8
	historyCapacity = 200
)

// frameMsg carries one field snapshot plus the layout known at the time.
type frameMsg struct {
	field      []float64
	step       int
	probes     []int
	sources    []int
	boundaries []int
}

// LiveDisplay renders Ez in the terminal while the engine runs. Frames that
// arrive faster than the terminal can draw are dropped.
type LiveDisplay struct {
	title string
	total int
	limit float64

	mu         sync.Mutex
	probes     []int
	sources    []int
	boundaries []int

	frames  chan frameMsg
	program *tea.Program
	opts    []tea.ProgramOption
	onQuit  func()
	wg      sync.WaitGroup
	dropped int
	err     error
}

type LiveOption func(*LiveDisplay)

// WithLimit fixes the vertical axis to [-limit, limit].
func WithLimit(limit float64) LiveOption {
	return func(d *LiveDisplay) { d.limit = limit }
}

// WithProgramOptions passes options through to the bubbletea program.
func WithProgramOptions(opts ...tea.ProgramOption) LiveOption {
	return func(d *LiveDisplay) { d.opts = append(d.opts, opts...) }
}

// WithQuitHandler registers fn to be called when the user quits the view.
func WithQuitHandler(fn func()) LiveOption {
	return func(d *LiveDisplay) { d.onQuit = fn }
}

func NewLiveDisplay(title string, totalSteps int, opts ...LiveOption) *LiveDisplay {
	d := &LiveDisplay{
		title: title,
		total: totalSteps,
		limit: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *LiveDisplay) Activate() {
	d.frames = make(chan frameMsg, frameBuffer)
	d.program = tea.NewProgram(newLiveModel(d.title, d.total, d.limit, d.onQuit), d.opts...)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if _, err := d.program.Run(); err != nil {
			d.mu.Lock()
			d.err = err
			d.mu.Unlock()
		}
	}()
	go func() {
		defer d.wg.Done()
		for f := range d.frames {
			d.program.Send(f)
		}
	}()
}

func (d *LiveDisplay) DrawProbes(positions []int) {
	d.mu.Lock()
	d.probes = append(d.probes, positions...)
	d.mu.Unlock()
}

func (d *LiveDisplay) DrawSources(positions []int) {
	d.mu.Lock()
	d.sources = append(d.sources, positions...)
	d.mu.Unlock()
}

func (d *LiveDisplay) DrawBoundary(index int) {
	d.mu.Lock()
	d.boundaries = append(d.boundaries, index)
	d.mu.Unlock()
}

func (d *LiveDisplay) UpdateData(field []float64, step int) {
	if d.frames == nil {
		return
	}
	d.mu.Lock()
	f := frameMsg{
		field:      field,
		step:       step,
		probes:     append([]int(nil), d.probes...),
		sources:    append([]int(nil), d.sources...),
		boundaries: append([]int(nil), d.boundaries...),
	}
	d.mu.Unlock()

	select {
	case d.frames <- f:
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
	}
}

// Stop drains pending frames, closes the view and waits for it to exit.
func (d *LiveDisplay) Stop() {
	if d.frames == nil {
		return
	}
	close(d.frames)
	d.program.Send(doneMsg{})
	d.program.Quit()
	d.wg.Wait()
	d.frames = nil
}

// Dropped reports how many frames were skipped.
func (d *LiveDisplay) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Err returns the error the terminal program exited with, if any.
func (d *LiveDisplay) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

type doneMsg struct{}

type liveModel struct {
	title  string
	total  int
	limit  float64
	onQuit func()

	frame   frameMsg
	canvas  *Canvas
	peaks   []float64
	paused  bool
	done    bool
	frames  int
	quitted bool
}

func newLiveModel(title string, total int, limit float64, onQuit func()) liveModel {
	return liveModel{
		title:  title,
		total:  total,
		limit:  limit,
		onQuit: onQuit,
		canvas: NewCanvas(canvasCols, canvasRows),
		peaks:  make([]float64, 0, historyCapacity),
	}
}

func (m liveModel) Init() tea.Cmd { return nil }

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.onQuit != nil && !m.quitted {
				m.onQuit()
			}
			m.quitted = true
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		}
	case frameMsg:
		m.frames++
		m.peaks = append(m.peaks, maxAbs(msg.field))
		if len(m.peaks) > historyCapacity {
			m.peaks = m.peaks[1:]
		}
		if !m.paused {
			m.frame = msg
		}
	case doneMsg:
		m.done = true
	}
	return m, nil
}

func (m liveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	if m.paused {
		b.WriteString("  " + pausedStyle.Render("paused"))
	}
	b.WriteString("\n\n")

	m.canvas.Clear()
	cells := len(m.frame.field)
	if cells > 0 {
		for _, x := range m.frame.boundaries {
			m.canvas.Marker(m.canvas.CellX(x, cells))
		}
		m.canvas.Field(m.frame.field, m.limit)
	}
	b.WriteString(fieldStyle.Render(m.canvas.String() + "\n" + m.markerRow(cells)))
	b.WriteString("\n")

	progress := 0.0
	if m.total > 0 {
		progress = float64(m.frame.step+1) / float64(m.total)
	}
	b.WriteString(labelStyle.Render("step") + valueStyle.Render(fmt.Sprintf("%d / %d", m.frame.step, m.total)) + "  " + ProgressBar(progress, 30) + "\n")
	b.WriteString(labelStyle.Render("max |Ez|") + valueStyle.Render(fmt.Sprintf("%.4f", maxAbs(m.frame.field))) + "\n")
	b.WriteString(labelStyle.Render("frames") + valueStyle.Render(fmt.Sprintf("%d", m.frames)) + "\n")

	if len(m.peaks) > 1 {
		b.WriteString("\n")
		b.WriteString(graphStyle.Render(asciigraph.Plot(m.peaks,
			asciigraph.Height(5),
			asciigraph.Width(60),
			asciigraph.Caption("max |Ez| per frame"),
		)))
		b.WriteString("\n")
	}

	help := "space pause  q quit"
	if m.done {
		help = "run finished  q quit"
	}
	b.WriteString("\n" + helpStyle.Render(help) + "\n")
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// markerRow places probe and source letters under the field plot.
func (m liveModel) markerRow(cells int) string {
	row := make([]string, canvasCols)
	for i := range row {
		row[i] = " "
	}
	if cells == 0 {
		return strings.Join(row, "")
	}
	place := func(positions []int, mark string) {
		for _, p := range positions {
			col := m.canvas.CellX(p, cells) / 2
			if col >= 0 && col < len(row) {
				row[col] = mark
			}
		}
	}
	place(m.frame.boundaries, boundaryMark)
	place(m.frame.probes, probeMark)
	place(m.frame.sources, sourceMark)
	return strings.Join(row, "")
}

func maxAbs(v []float64) float64 {
	peak := 0.0
	for _, x := range v {
		if !math.IsNaN(x) {
			peak = math.Max(peak, math.Abs(x))
		}
	}
	return peak
}
