// Package sqlitestore implements workflow.Store on top of SQLite, for
// single-instance daemon deployments that need runs to survive a restart.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/blockrun/blockrun/internal/workspace"
	"github.com/blockrun/blockrun/pkg/errors"
	"github.com/blockrun/blockrun/pkg/workflow"
)

// Store is a SQLite-backed workflow.Store. Paused run state is encrypted
// at rest with AES-256-GCM (workspace.AESEncryptor) since it may carry
// resolved $secrets values captured at pause time.
type Store struct {
	db        *sql.DB
	encryptor *workspace.AESEncryptor
}

// Config configures a Store.
type Config struct {
	// Path is the SQLite database file path.
	Path string
	// MasterKey is the 32-byte AES-256 key used to encrypt paused run state.
	MasterKey []byte
}

// New opens (creating if necessary) a SQLite-backed Store at cfg.Path.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, &errors.ConfigError{Key: "path", Reason: "sqlite database path is required"}
	}

	encryptor, err := workspace.NewAESEncryptor(cfg.MasterKey)
	if err != nil {
		return nil, &errors.ConfigError{Key: "masterKey", Reason: "invalid master key", Cause: err}
	}

	connStr := cfg.Path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_foreign_keys=ON"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to sqlite database: %w", err)
	}

	s := &Store{db: db, encryptor: encryptor}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY,
	org_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	current_version INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS workflow_versions (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL REFERENCES workflows(id),
	version INTEGER NOT NULL,
	blocks_json TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	workflow_version_id TEXT NOT NULL,
	org_id TEXT NOT NULL,
	status TEXT NOT NULL,
	trigger_event_json TEXT,
	error_json TEXT,
	current_block_id TEXT,
	started_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS steps (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(id),
	block_id TEXT NOT NULL,
	execution_order INTEGER NOT NULL,
	status TEXT NOT NULL,
	state_delta_json TEXT,
	cache_delta_json TEXT,
	artifacts_delta_json TEXT,
	event_delta_json TEXT,
	error_json TEXT,
	started_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_steps_run_order ON steps(run_id, execution_order);

CREATE TABLE IF NOT EXISTS paused_run_states (
	run_id TEXT PRIMARY KEY,
	ciphertext BLOB NOT NULL,
	paused_at TIMESTAMP NOT NULL
);
`)
	return err
}

func (s *Store) CreateWorkflow(ctx context.Context, w *workflow.Workflow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workflows (id, org_id, name, description, current_version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.OrgID, w.Name, w.Description, w.CurrentVersion, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

func (s *Store) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, name, description, current_version, created_at, updated_at FROM workflows WHERE id = ?`, id)
	w := &workflow.Workflow{}
	if err := row.Scan(&w.ID, &w.OrgID, &w.Name, &w.Description, &w.CurrentVersion, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &errors.NotFoundError{Resource: "workflow", ID: id}
		}
		return nil, fmt.Errorf("query workflow: %w", err)
	}
	return w, nil
}

func (s *Store) CreateVersion(ctx context.Context, v *workflow.WorkflowVersion) error {
	blocksJSON, err := json.Marshal(v.Blocks)
	if err != nil {
		return fmt.Errorf("marshal blocks: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflow_versions (id, workflow_id, version, blocks_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.WorkflowID, v.Version, string(blocksJSON), v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert workflow version: %w", err)
	}
	return nil
}

func (s *Store) GetVersion(ctx context.Context, id string) (*workflow.WorkflowVersion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, workflow_id, version, blocks_json, created_at FROM workflow_versions WHERE id = ?`, id)
	v := &workflow.WorkflowVersion{}
	var blocksJSON string
	if err := row.Scan(&v.ID, &v.WorkflowID, &v.Version, &blocksJSON, &v.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &errors.NotFoundError{Resource: "workflow_version", ID: id}
		}
		return nil, fmt.Errorf("query workflow version: %w", err)
	}
	if err := json.Unmarshal([]byte(blocksJSON), &v.Blocks); err != nil {
		return nil, fmt.Errorf("unmarshal blocks: %w", err)
	}
	return v, nil
}

func (s *Store) CreateRun(ctx context.Context, r *workflow.Run) error {
	triggerJSON, errJSON, err := marshalRun(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, workflow_id, workflow_version_id, org_id, status, trigger_event_json, error_json, current_block_id, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.WorkflowID, r.WorkflowVersionID, r.OrgID, string(r.Status), triggerJSON, errJSON, r.CurrentBlockID, r.StartedAt, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *Store) UpdateRun(ctx context.Context, r *workflow.Run) error {
	triggerJSON, errJSON, err := marshalRun(r)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, trigger_event_json = ?, error_json = ?, current_block_id = ?, completed_at = ? WHERE id = ?`,
		string(r.Status), triggerJSON, errJSON, r.CurrentBlockID, r.CompletedAt, r.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.NotFoundError{Resource: "run", ID: r.ID}
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*workflow.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, workflow_id, workflow_version_id, org_id, status, trigger_event_json, error_json, current_block_id, started_at, completed_at FROM runs WHERE id = ?`, id)
	r := &workflow.Run{}
	var status string
	var triggerJSON, errJSON sql.NullString
	if err := row.Scan(&r.ID, &r.WorkflowID, &r.WorkflowVersionID, &r.OrgID, &status, &triggerJSON, &errJSON, &r.CurrentBlockID, &r.StartedAt, &r.CompletedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &errors.NotFoundError{Resource: "run", ID: id}
		}
		return nil, fmt.Errorf("query run: %w", err)
	}
	r.Status = workflow.RunStatus(status)
	if triggerJSON.Valid && triggerJSON.String != "" {
		if err := json.Unmarshal([]byte(triggerJSON.String), &r.TriggerEvent); err != nil {
			return nil, fmt.Errorf("unmarshal trigger event: %w", err)
		}
	}
	if errJSON.Valid && errJSON.String != "" {
		r.Error = &workflow.StepError{}
		if err := json.Unmarshal([]byte(errJSON.String), r.Error); err != nil {
			return nil, fmt.Errorf("unmarshal run error: %w", err)
		}
	}
	return r, nil
}

func marshalRun(r *workflow.Run) (triggerJSON, errJSON string, err error) {
	if r.TriggerEvent != nil {
		b, err := json.Marshal(r.TriggerEvent)
		if err != nil {
			return "", "", fmt.Errorf("marshal trigger event: %w", err)
		}
		triggerJSON = string(b)
	}
	if r.Error != nil {
		b, err := json.Marshal(r.Error)
		if err != nil {
			return "", "", fmt.Errorf("marshal run error: %w", err)
		}
		errJSON = string(b)
	}
	return triggerJSON, errJSON, nil
}

func (s *Store) AppendSteps(ctx context.Context, runID string, steps []workflow.Step) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO steps (id, run_id, block_id, execution_order, status, state_delta_json, cache_delta_json, artifacts_delta_json, event_delta_json, error_json, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status=excluded.status, state_delta_json=excluded.state_delta_json,
			cache_delta_json=excluded.cache_delta_json, artifacts_delta_json=excluded.artifacts_delta_json,
			event_delta_json=excluded.event_delta_json, error_json=excluded.error_json, completed_at=excluded.completed_at`)
	if err != nil {
		return fmt.Errorf("prepare step insert: %w", err)
	}
	defer stmt.Close()

	for _, step := range steps {
		stateJSON, _ := json.Marshal(step.StateDelta)
		cacheJSON, _ := json.Marshal(step.CacheDelta)
		artifactsJSON, _ := json.Marshal(step.ArtifactsDelta)
		eventJSON, _ := json.Marshal(step.EventDelta)
		var errJSON []byte
		if step.Error != nil {
			errJSON, _ = json.Marshal(step.Error)
		}
		if _, err := stmt.ExecContext(ctx, step.ID, runID, step.BlockID, step.ExecutionOrder, string(step.Status),
			string(stateJSON), string(cacheJSON), string(artifactsJSON), string(eventJSON), string(errJSON),
			step.StartedAt, step.CompletedAt); err != nil {
			return fmt.Errorf("insert step %s: %w", step.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) ListSteps(ctx context.Context, runID string) ([]workflow.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, block_id, execution_order, status, state_delta_json, cache_delta_json, artifacts_delta_json, event_delta_json, error_json, started_at, completed_at
		FROM steps WHERE run_id = ? ORDER BY execution_order ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []workflow.Step
	for rows.Next() {
		var step workflow.Step
		var status string
		var stateJSON, cacheJSON, artifactsJSON, eventJSON, errJSON sql.NullString
		if err := rows.Scan(&step.ID, &step.BlockID, &step.ExecutionOrder, &status, &stateJSON, &cacheJSON, &artifactsJSON, &eventJSON, &errJSON, &step.StartedAt, &step.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.RunID = runID
		step.Status = workflow.StepStatus(status)
		if stateJSON.Valid && stateJSON.String != "" && stateJSON.String != "null" {
			json.Unmarshal([]byte(stateJSON.String), &step.StateDelta)
		}
		if cacheJSON.Valid && cacheJSON.String != "" && cacheJSON.String != "null" {
			json.Unmarshal([]byte(cacheJSON.String), &step.CacheDelta)
		}
		if artifactsJSON.Valid && artifactsJSON.String != "" && artifactsJSON.String != "null" {
			json.Unmarshal([]byte(artifactsJSON.String), &step.ArtifactsDelta)
		}
		if eventJSON.Valid && eventJSON.String != "" && eventJSON.String != "null" {
			json.Unmarshal([]byte(eventJSON.String), &step.EventDelta)
		}
		if errJSON.Valid && errJSON.String != "" {
			step.Error = &workflow.StepError{}
			json.Unmarshal([]byte(errJSON.String), step.Error)
		}
		out = append(out, step)
	}
	return out, rows.Err()
}

func (s *Store) SavePausedState(ctx context.Context, ps workflow.PausedRunState) error {
	plaintext, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("marshal paused run state: %w", err)
	}
	ciphertext, err := s.encryptor.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt paused run state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO paused_run_states (run_id, ciphertext, paused_at) VALUES (?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET ciphertext = excluded.ciphertext, paused_at = excluded.paused_at`,
		ps.RunID, ciphertext, ps.PausedAt)
	if err != nil {
		return fmt.Errorf("insert paused run state: %w", err)
	}
	return nil
}

func (s *Store) LoadPausedState(ctx context.Context, runID string) (*workflow.PausedRunState, error) {
	row := s.db.QueryRowContext(ctx, `SELECT ciphertext FROM paused_run_states WHERE run_id = ?`, runID)
	var ciphertext []byte
	if err := row.Scan(&ciphertext); err != nil {
		if err == sql.ErrNoRows {
			return nil, &errors.NotFoundError{Resource: "paused_run_state", ID: runID}
		}
		return nil, fmt.Errorf("query paused run state: %w", err)
	}
	plaintext, err := s.encryptor.Decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt paused run state: %w", err)
	}
	var ps workflow.PausedRunState
	if err := json.Unmarshal(plaintext, &ps); err != nil {
		return nil, fmt.Errorf("unmarshal paused run state: %w", err)
	}
	return &ps, nil
}

func (s *Store) DeletePausedState(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM paused_run_states WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete paused run state: %w", err)
	}
	return nil
}

var _ workflow.Store = (*Store)(nil)
