package viz

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ArinaShifrina/PZ4/internal/fdtd"
)

func TestLiveModelFrames(t *testing.T) {
	m := newLiveModel("vacuum", 100, 1, nil)

	field := make([]float64, 50)
	field[20] = 0.5
	next, _ := m.Update(frameMsg{field: field, step: 40, probes: []int{10}, sources: []int{5}, boundaries: []int{25}})
	m = next.(liveModel)

	if m.frames != 1 || m.frame.step != 40 {
		t.Fatalf("frame not applied: frames=%d step=%d", m.frames, m.frame.step)
	}
	view := m.View()
	for _, want := range []string{"vacuum", "40 / 100", "0.5000"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestLiveModelPause(t *testing.T) {
	m := newLiveModel("pause", 10, 1, nil)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(liveModel)
	if !m.paused {
		t.Fatal("space did not pause")
	}

	next, _ = m.Update(frameMsg{field: []float64{1, 2}, step: 5})
	m = next.(liveModel)
	if m.frame.step != 0 {
		t.Error("paused view still advanced")
	}
	if m.frames != 1 || len(m.peaks) != 1 {
		t.Error("paused view should still count frames")
	}
}

func TestLiveModelQuit(t *testing.T) {
	called := 0
	m := newLiveModel("quit", 10, 1, func() { called++ })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	next.(liveModel).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if called != 1 {
		t.Errorf("quit handler called %d times, want 1", called)
	}
}

func TestLiveModelHistoryBounded(t *testing.T) {
	m := newLiveModel("history", 1000, 1, nil)
	for i := 0; i < historyCapacity+50; i++ {
		next, _ := m.Update(frameMsg{field: []float64{float64(i)}, step: i})
		m = next.(liveModel)
	}
	if len(m.peaks) != historyCapacity {
		t.Errorf("history = %d, want %d", len(m.peaks), historyCapacity)
	}
}

func TestLiveDisplayInactive(t *testing.T) {
	d := NewLiveDisplay("idle", 10)
	d.DrawProbes([]int{1})
	d.UpdateData([]float64{1}, 0)
	d.Stop()
	if d.Dropped() != 0 {
		t.Error("inactive display should ignore frames")
	}
}

func TestLiveDisplayWithEngine(t *testing.T) {
	e, err := fdtd.New(fdtd.Config{
		Size:      120,
		Steps:     200,
		Courant:   1,
		SourcePos: 30,
		Pulse:     fdtd.Pulse{Delay: 40, Width: 10, Magnitude: 1},
		Probes:    []int{20, 90},
	})
	if err != nil {
		t.Fatal(err)
	}

	var in bytes.Buffer
	d := NewLiveDisplay("engine", 200, WithProgramOptions(tea.WithInput(&in), tea.WithOutput(io.Discard)))
	e.AddDisplay(d)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if err := d.Err(); err != nil {
		t.Errorf("program error: %v", err)
	}
}
