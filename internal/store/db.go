package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"supplyline/internal/model"
)

var db *sql.DB

// InitDB opens the sqlite database and creates the schema
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			name TEXT,
			content TEXT,
			metrics TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS agents_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			content TEXT,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			status TEXT,
			error TEXT,
			started_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS step_runs (
			run_id TEXT,
			position INTEGER,
			step_id TEXT,
			status TEXT,
			output TEXT,
			error TEXT,
			updated_at DATETIME,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS run_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			level TEXT,
			message TEXT,
			detail TEXT,
			created_at DATETIME
		);`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveDataset stores a parsed dataset with its computed metrics
func SaveDataset(id, name, content string, metrics model.Metrics) error {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO datasets (id, name, content, metrics, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, content, metricsJSON, now)
	return err
}

// ListDatasets returns all datasets with basic info
func ListDatasets() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, name, metrics, created_at FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []map[string]interface{}
	for rows.Next() {
		var id, name, metricsJSON string
		var createdAt time.Time
		if err := rows.Scan(&id, &name, &metricsJSON, &createdAt); err != nil {
			return nil, err
		}
		var metrics model.Metrics
		if err := json.Unmarshal([]byte(metricsJSON), &metrics); err != nil {
			return nil, err
		}
		datasets = append(datasets, map[string]interface{}{
			"id":        id,
			"name":      name,
			"metrics":   metrics,
			"createdAt": createdAt,
		})
	}
	return datasets, rows.Err()
}

// GetDataset fetches one dataset's raw content and metrics
func GetDataset(id string) (string, model.Metrics, error) {
	var content, metricsJSON string
	err := db.QueryRow(`SELECT content, metrics FROM datasets WHERE id = ?`, id).
		Scan(&content, &metricsJSON)
	if err != nil {
		return "", model.Metrics{}, err
	}
	var metrics model.Metrics
	if err := json.Unmarshal([]byte(metricsJSON), &metrics); err != nil {
		return "", model.Metrics{}, err
	}
	return content, metrics, nil
}

// SaveAgentsConfig replaces the current agents configuration text
func SaveAgentsConfig(content string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO agents_config (id, content, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		content, now)
	return err
}

// GetAgentsConfig returns the current agents configuration text, or
// "" when none has been stored yet.
func GetAgentsConfig() (string, error) {
	var content string
	err := db.QueryRow(`SELECT content FROM agents_config WHERE id = 1`).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return content, err
}

// CreateRun stores a new pipeline run with one idle row per step
func CreateRun(runID string, p model.Pipeline) error {
	now := time.Now().UTC()
	if _, err := db.Exec(`INSERT INTO runs (id, status, error, started_at, updated_at) VALUES (?, ?, '', ?, ?)`,
		runID, "pending", now, now); err != nil {
		return err
	}
	for i, step := range p.Steps {
		if _, err := db.Exec(`INSERT INTO step_runs (run_id, position, step_id, status, output, error, updated_at)
			VALUES (?, ?, ?, ?, '', '', ?)`,
			runID, i, step.ID, string(step.Status), now); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRunStatus updates a run's status
func UpdateRunStatus(runID, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SaveRunError records a run-level failure
func SaveRunError(runID string, runErr error) error {
	if runErr == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET error = ?, updated_at = ? WHERE id = ?`, runErr.Error(), now, runID)
	return err
}

// SaveStepState persists one step's status and output for a run
func SaveStepState(runID string, position int, step model.Step) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE step_runs SET step_id = ?, status = ?, output = ?, updated_at = ?
		WHERE run_id = ? AND position = ?`,
		step.ID, string(step.Status), step.Output, now, runID, position)
	return err
}

// GetRunSteps returns a run's steps as typed values in submission
// order, for restoring engine state.
func GetRunSteps(runID string) ([]model.Step, error) {
	rows, err := db.Query(`SELECT step_id, status, output FROM step_runs WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []model.Step
	for rows.Next() {
		var step model.Step
		var status string
		if err := rows.Scan(&step.ID, &status, &step.Output); err != nil {
			return nil, err
		}
		step.Status = model.StepStatus(status)
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, sql.ErrNoRows
	}
	return steps, nil
}

// GetRun fetches a run with its per-step state in submission order
func GetRun(runID string) (map[string]interface{}, error) {
	var status, runErr string
	var startedAt, updatedAt time.Time
	err := db.QueryRow(`SELECT status, error, started_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&status, &runErr, &startedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT position, step_id, status, output FROM step_runs WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []map[string]interface{}
	for rows.Next() {
		var position int
		var stepID, stepStatus, output string
		if err := rows.Scan(&position, &stepID, &stepStatus, &output); err != nil {
			return nil, err
		}
		steps = append(steps, map[string]interface{}{
			"position": position,
			"stepId":   stepID,
			"status":   stepStatus,
			"output":   output,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        runID,
		"status":    status,
		"error":     runErr,
		"startedAt": startedAt,
		"updatedAt": updatedAt,
		"steps":     steps,
	}, nil
}

// SaveRunLog appends a structured log entry for a run
func SaveRunLog(runID, level, message string, detail map[string]interface{}) error {
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO run_logs (run_id, level, message, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, level, message, detailJSON, now)
	return err
}

// GetRunLogs returns a run's log entries oldest first
func GetRunLogs(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT level, message, detail, created_at FROM run_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []map[string]interface{}
	for rows.Next() {
		var level, message, detailJSON string
		var createdAt time.Time
		if err := rows.Scan(&level, &message, &detailJSON, &createdAt); err != nil {
			return nil, err
		}
		var detail map[string]interface{}
		_ = json.Unmarshal([]byte(detailJSON), &detail)
		logs = append(logs, map[string]interface{}{
			"level":     level,
			"message":   message,
			"detail":    detail,
			"createdAt": createdAt,
		})
	}
	return logs, rows.Err()
}
