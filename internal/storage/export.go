package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run    *RunMetadata  `json:"run"`
	Times  []float64     `json:"times"`
	Probes []ExportProbe `json:"probes"`
}

type ExportProbe struct {
	Position int       `json:"position"`
	E        []float64 `json:"e"`
	H        []float64 `json:"h"`
}

// ExportJSON writes a run with its probe series as indented JSON.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	probes, times, err := s.LoadProbes(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:    meta,
		Times:  times,
		Probes: make([]ExportProbe, len(probes)),
	}
	for i, p := range probes {
		data.Probes[i] = ExportProbe{Position: p.Position, E: p.E, H: p.H}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
