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
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/magball/internal/experiment"
	"github.com/san-kum/magball/internal/physics"
	"github.com/san-kum/magball/internal/sim"
)

var ErrNoRun = errors.New("storage: run not found")

var stateColumns = []string{"x1", "x2", "i"}

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
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Ts         float64            `json:"ts"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Kp         float64            `json:"kp"`
	Kd         float64            `json:"kd"`
	Ki         float64            `json:"ki"`
	Setpoint   float64            `json:"setpoint"`
	Bias       float64            `json:"bias"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
	Params     physics.Params     `json:"params"`
}

func newMetadata(id string, cfg experiment.Config, result *sim.Result) RunMetadata {
	return RunMetadata{
		ID:         id,
		Model:      cfg.Model,
		Timestamp:  time.Now(),
		Ts:         cfg.Gains.Ts,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
		Kp:         cfg.Gains.Kp,
		Kd:         cfg.Gains.Kd,
		Ki:         cfg.Gains.Ki,
		Setpoint:   cfg.Setpoint,
		Bias:       cfg.Bias,
		Steps:      result.StepsTaken,
		Metrics:    result.Metrics,
		Params:     cfg.Params,
	}
}

// Save writes metadata.json and states.csv under a fresh run directory and
// returns the run ID.
func (s *Store) Save(cfg experiment.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", cfg.Model, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := newMetadata(runID, cfg, result)
	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	header := append([]string{"time"}, stateColumns...)
	header = append(header, "v")
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'g', -1, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		// The held voltage on [t_i, t_i+ts); the last sample has none.
		if i < len(result.Controls) {
			row = append(row, strconv.FormatFloat(result.Controls[i], 'g', -1, 64))
		} else {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	ix, err := s.OpenIndex()
	if err != nil {
		return "", err
	}
	defer ix.Close()
	if err := ix.Add(meta); err != nil {
		return "", fmt.Errorf("index run: %w", err)
	}

	return runID, nil
}

// List returns all runs, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadResult reads a stored run back into a sim.Result.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(stateColumns) + 2

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	result := &sim.Result{Metrics: meta.Metrics, StepsTaken: meta.Steps}
	for i := 1; i < len(records); i++ {
		record := records[i]
		values := make([]float64, len(stateColumns)+1)
		for j := range values {
			values[j], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("states.csv line %d: %w", i+1, err)
			}
		}
		result.Times = append(result.Times, values[0])
		result.States = append(result.States, values[1:])
		if v := record[len(record)-1]; v != "" {
			u, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("states.csv line %d: %w", i+1, err)
			}
			result.Controls = append(result.Controls, u)
		}
	}

	return result, nil
}
