// Package storage persists co-simulation runs under a data directory: one
// subdirectory per run holding metadata.json and trajectory.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/janpeter19/cobsim/internal/cosim"
)

var csvHeader = []string{"time", "G", "E", "X", "mu", "qGr", "qEr", "qO2"}

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
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Horizon    float64            `json:"horizon"`
	Optimizer  string             `json:"optimizer"`
	Integrator string             `json:"integrator"`
	Status     string             `json:"status"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (s *Store) Save(scenario string, dt, horizon float64, optimizer, integrator string, result *cosim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   scenario,
		Timestamp:  time.Now(),
		Dt:         dt,
		Horizon:    horizon,
		Optimizer:  optimizer,
		Integrator: integrator,
		Status:     result.Status.String(),
		Steps:      result.Steps,
		Metrics:    result.Metrics,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "trajectory.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}

	for _, rec := range result.Trajectory {
		row := []string{
			strconv.FormatFloat(rec.Time, 'f', 6, 64),
			strconv.FormatFloat(rec.State.Glucose, 'f', 6, 64),
			strconv.FormatFloat(rec.State.Ethanol, 'f', 6, 64),
			strconv.FormatFloat(rec.Biomass, 'f', 6, 64),
			strconv.FormatFloat(rec.Flux.Mu, 'g', -1, 64),
			strconv.FormatFloat(rec.Flux.QGr, 'g', -1, 64),
			strconv.FormatFloat(rec.Flux.QEr, 'g', -1, 64),
			strconv.FormatFloat(rec.Flux.QO2, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
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

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrajectory reads back the per-step samples of a saved run.
func (s *Store) LoadTrajectory(runID string) (cosim.Trajectory, error) {
	csvPath := filepath.Join(s.baseDir, runID, "trajectory.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return cosim.Trajectory{}, nil
	}

	traj := make(cosim.Trajectory, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		row := records[i]
		if len(row) < len(csvHeader) {
			continue
		}

		vals := make([]float64, len(csvHeader))
		bad := false
		for j := range vals {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				bad = true
				break
			}
			vals[j] = v
		}
		if bad {
			continue
		}

		rec := cosim.Record{
			Time:    vals[0],
			State:   cosim.SubstrateState{Glucose: vals[1], Ethanol: vals[2]},
			Biomass: vals[3],
		}
		rec.Flux.Mu = vals[4]
		rec.Flux.QGr = vals[5]
		rec.Flux.QEr = vals[6]
		rec.Flux.QO2 = vals[7]
		traj = append(traj, rec)
	}

	return traj, nil
}
