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

	"github.com/san-kum/contactdyn/internal/config"
	"github.com/san-kum/contactdyn/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	forcesFile   = "forces.csv"
	jointsFile   = "qddot.csv"
)

var ErrMalformed = errors.New("storage: malformed run file")

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
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario,omitempty"`
	Model     string             `json:"model"`
	Method    string             `json:"method"`
	Solver    string             `json:"solver"`
	Timestamp time.Time          `json:"timestamp"`
	Repeat    int                `json:"repeat"`
	Dofs      int                `json:"dofs"`
	Contacts  int                `json:"contacts"`
	Metrics   map[string]float64 `json:"metrics"`
}

// ForceRecord is one row of forces.csv.
type ForceRecord struct {
	Name      string
	Body      int
	Normal    string
	Target    float64
	Force     float64
	Violation float64
}

// JointRecord is one row of qddot.csv.
type JointRecord struct {
	Index  int
	Q      float64
	QDot   float64
	Tau    float64
	Output float64
}

var (
	forceHeader = []string{"contact", "body", "normal", "target", "force", "violation"}
	jointHeader = []string{"dof", "q", "qdot", "tau", "output"}
)

func (s *Store) Save(sc *config.Scenario, res *experiment.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", sc.ModelName, res.Method, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  sc.Name,
		Model:     sc.ModelName,
		Method:    res.Method,
		Solver:    sc.Solver.String(),
		Timestamp: now,
		Repeat:    len(res.Timings),
		Dofs:      sc.Model.DofCount,
		Contacts:  len(sc.Contacts),
		Metrics:   res.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	forces := make([][]string, 0, len(sc.Contacts))
	for i, c := range sc.Contacts {
		forces = append(forces, []string{
			sc.ContactNames[i],
			strconv.Itoa(c.BodyID),
			formatNormal(c.Normal),
			formatFloat(res.Targets[i]),
			formatFloat(res.Forces[i]),
			formatFloat(res.Violation[i]),
		})
	}
	if err := writeCSV(filepath.Join(runDir, forcesFile), forceHeader, forces); err != nil {
		return "", err
	}

	joints := make([][]string, 0, len(res.Output))
	for i := range res.Output {
		joints = append(joints, []string{
			strconv.Itoa(i),
			formatFloat(sc.Q[i]),
			formatFloat(sc.QDot[i]),
			formatFloat(sc.Tau[i]),
			formatFloat(res.Output[i]),
		})
	}
	if err := writeCSV(filepath.Join(runDir, jointsFile), jointHeader, joints); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns the stored runs, oldest first.
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
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadForces(runID string) ([]ForceRecord, error) {
	rows, err := readCSV(filepath.Join(s.baseDir, runID, forcesFile), len(forceHeader))
	if err != nil {
		return nil, err
	}

	records := make([]ForceRecord, 0, len(rows))
	for _, row := range rows {
		body, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("%w: body %q", ErrMalformed, row[1])
		}
		vals, err := parseFloats(row[3:])
		if err != nil {
			return nil, err
		}
		records = append(records, ForceRecord{
			Name:      row[0],
			Body:      body,
			Normal:    row[2],
			Target:    vals[0],
			Force:     vals[1],
			Violation: vals[2],
		})
	}
	return records, nil
}

func (s *Store) LoadJoints(runID string) ([]JointRecord, error) {
	rows, err := readCSV(filepath.Join(s.baseDir, runID, jointsFile), len(jointHeader))
	if err != nil {
		return nil, err
	}

	records := make([]JointRecord, 0, len(rows))
	for _, row := range rows {
		idx, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: dof %q", ErrMalformed, row[0])
		}
		vals, err := parseFloats(row[1:])
		if err != nil {
			return nil, err
		}
		records = append(records, JointRecord{Index: idx, Q: vals[0], QDot: vals[1], Tau: vals[2], Output: vals[3]})
	}
	return records, nil
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

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

// readCSV returns the data rows, skipping the header.
func readCSV(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		vals[i] = v
	}
	return vals, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatNormal(n [3]float64) string {
	parts := make([]string, len(n))
	for i, v := range n {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, " ")
}
