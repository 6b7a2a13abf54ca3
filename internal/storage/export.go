package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/janpeter19/cobsim/internal/cosim"
)

type ExportData struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Optimizer  string             `json:"optimizer"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Horizon    float64            `json:"horizon"`
	Status     string             `json:"status"`
	Samples    int                `json:"samples"`
	Trajectory cosim.Trajectory   `json:"trajectory"`
	Metrics    map[string]float64 `json:"metrics"`
}

func exportData(meta *RunMetadata, traj cosim.Trajectory) ExportData {
	return ExportData{
		ID:         meta.ID,
		Scenario:   meta.Scenario,
		Optimizer:  meta.Optimizer,
		Integrator: meta.Integrator,
		Dt:         meta.Dt,
		Horizon:    meta.Horizon,
		Status:     meta.Status,
		Samples:    len(traj),
		Trajectory: traj,
		Metrics:    meta.Metrics,
	}
}

func ExportJSON(w io.Writer, meta *RunMetadata, traj cosim.Trajectory) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData(meta, traj))
}

func ExportJSONFile(path string, meta *RunMetadata, traj cosim.Trajectory) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, meta, traj)
}
