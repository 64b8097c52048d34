package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ArinaShifrina/PZ4/internal/config"
	"github.com/ArinaShifrina/PZ4/internal/fdtd"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	probesFile   = "probes.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Steps      int                `json:"steps"`
	Size       int                `json:"size"`
	Dx         float64            `json:"dx"`
	Dt         float64            `json:"dt"`
	Courant    float64            `json:"courant"`
	SourcePos  int                `json:"source_pos"`
	Pulse      fdtd.Pulse         `json:"pulse"`
	Probes     []int              `json:"probes"`
	Boundaries []int              `json:"boundaries"`
	Metrics    map[string]float64 `json:"metrics"`
	Scenario   *config.Config     `json:"scenario"`
}

// ProbeSeries is a probe read back from disk.
type ProbeSeries struct {
	Position int
	E, H     []float64
}

// Save writes the run metadata and probe series to a new run directory.
func (s *Store) Save(cfg *config.Config, ec fdtd.Config, result *fdtd.Result) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       name,
		Timestamp:  time.Now(),
		Steps:      result.Steps,
		Size:       ec.Size,
		Dx:         cfg.Dx,
		Dt:         cfg.Dt(),
		Courant:    ec.Courant,
		SourcePos:  ec.SourcePos,
		Pulse:      ec.Pulse,
		Probes:     ec.Probes,
		Boundaries: ec.Boundaries,
		Metrics:    result.Metrics,
		Scenario:   cfg,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeProbes(filepath.Join(runDir, probesFile), cfg.Dt(), result.Probes); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeProbes(path string, dt float64, probes []*fdtd.Probe) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"step", "time"}
	steps := 0
	for _, p := range probes {
		header = append(header, fmt.Sprintf("E%d", p.Position()), fmt.Sprintf("H%d", p.Position()))
		steps = max(steps, p.Len())
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for q := 0; q < steps; q++ {
		row := []string{strconv.Itoa(q), strconv.FormatFloat(float64(q)*dt, 'g', -1, 64)}
		for _, p := range probes {
			row = append(row,
				strconv.FormatFloat(p.E()[q], 'g', -1, 64),
				strconv.FormatFloat(p.H()[q], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadProbes reads the probe series and the time axis of a run.
func (s *Store) LoadProbes(runID string) ([]ProbeSeries, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, probesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty probe file", runID)
	}

	header := records[0]
	probes := make([]ProbeSeries, 0, (len(header)-2)/2)
	for col := 2; col+1 < len(header); col += 2 {
		pos, err := strconv.Atoi(strings.TrimPrefix(header[col], "E"))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: bad probe column %q", runID, header[col])
		}
		probes = append(probes, ProbeSeries{
			Position: pos,
			E:        make([]float64, 0, len(records)-1),
			H:        make([]float64, 0, len(records)-1),
		})
	}

	times := make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: bad time %q", runID, record[1])
		}
		times = append(times, t)

		for i := range probes {
			e, err := strconv.ParseFloat(record[2+2*i], 64)
			if err != nil {
				return nil, nil, err
			}
			h, err := strconv.ParseFloat(record[3+2*i], 64)
			if err != nil {
				return nil, nil, err
			}
			probes[i].E = append(probes[i].E, e)
			probes[i].H = append(probes[i].H, h)
		}
	}
	return probes, times, nil
}

// ProbesPath is the CSV file holding the probe series of a run.
func (s *Store) ProbesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, probesFile)
}
