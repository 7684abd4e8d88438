package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/eduvid/videogen-worker/internal/models"
)

// Store persists jobs, their stage results, and the resulting video and
// asset records in PostgreSQL. Commits happen at stage boundaries, so a
// crash mid-stage leaves the last completed stage's state intact.
type Store struct {
	db *sql.DB
}

// NewStore connects to PostgreSQL and initializes the schema.
func NewStore(postgresURL string) (*Store, error) {
	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	tableSchema := `
	CREATE SCHEMA IF NOT EXISTS videogen;

	-- Generation jobs with stage results accumulated as JSONB
	CREATE TABLE IF NOT EXISTS videogen.jobs (
		job_id VARCHAR(255) PRIMARY KEY,
		content TEXT NOT NULL,
		status VARCHAR(50) NOT NULL,
		progress INT NOT NULL DEFAULT 0,
		analysis JSONB,
		script JSONB,
		visual_plan JSONB,
		assets JSONB,
		output_reference TEXT,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Rendered output videos
	CREATE TABLE IF NOT EXISTS videogen.videos (
		job_id VARCHAR(255) PRIMARY KEY REFERENCES videogen.jobs(job_id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		file_url TEXT NOT NULL,
		duration INT,
		quality VARCHAR(20),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Generated media assets
	CREATE TABLE IF NOT EXISTS videogen.assets (
		asset_id VARCHAR(255) PRIMARY KEY,
		job_id VARCHAR(255) NOT NULL REFERENCES videogen.jobs(job_id) ON DELETE CASCADE,
		asset_type VARCHAR(50) NOT NULL,
		scene_number INT NOT NULL,
		file_path TEXT,
		metadata JSONB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := s.db.Exec(tableSchema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	indexStatements := []string{
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON videogen.jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON videogen.jobs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_assets_job_id ON videogen.assets(job_id)`,
	}
	for _, stmt := range indexStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// CreateJob inserts the job row, or resets it if a prior run of the
// same job left partial state behind.
func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO videogen.jobs (job_id, content, status, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (job_id) DO UPDATE SET
			content = EXCLUDED.content,
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			analysis = NULL,
			script = NULL,
			visual_plan = NULL,
			assets = NULL,
			output_reference = NULL,
			error = NULL,
			updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.Content, string(job.Status), job.Progress, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// SaveStageResult commits the job's accumulated state at a stage boundary.
func (s *Store) SaveStageResult(ctx context.Context, job *models.Job) error {
	analysisJSON, err := marshalNullable(job.Analysis)
	if err != nil {
		return err
	}
	scriptJSON, err := marshalNullable(job.Script)
	if err != nil {
		return err
	}
	planJSON, err := marshalNullable(job.VisualPlan)
	if err != nil {
		return err
	}
	var assetsJSON []byte
	if job.Assets != nil {
		assetsJSON, err = json.Marshal(job.Assets)
		if err != nil {
			return fmt.Errorf("failed to marshal assets: %w", err)
		}
	}

	query := `
		UPDATE videogen.jobs SET
			status = $2,
			progress = $3,
			analysis = $4,
			script = $5,
			visual_plan = $6,
			assets = $7,
			output_reference = NULLIF($8, ''),
			updated_at = $9
		WHERE job_id = $1`

	_, err = s.db.ExecContext(ctx, query,
		job.ID, string(job.Status), job.Progress,
		analysisJSON, scriptJSON, planJSON, assetsJSON,
		job.OutputReference, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save stage result: %w", err)
	}
	return nil
}

// UpdateJobStatus updates status, progress and error cause only.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, progress int, errMsg string) error {
	query := `
		UPDATE videogen.jobs SET
			status = $2,
			progress = $3,
			error = NULLIF($4, ''),
			updated_at = $5
		WHERE job_id = $1`

	_, err := s.db.ExecContext(ctx, query, jobID, string(status), progress, errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// GetJob loads one job with all accumulated stage results.
func (s *Store) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	query := `
		SELECT job_id, content, status, progress,
			analysis, script, visual_plan, assets,
			COALESCE(output_reference, ''), COALESCE(error, ''),
			created_at, updated_at
		FROM videogen.jobs WHERE job_id = $1`

	var (
		job                                        models.Job
		status                                     string
		analysisJSON, scriptJSON, planJSON, assets []byte
	)
	err := s.db.QueryRowContext(ctx, query, jobID).Scan(
		&job.ID, &job.Content, &status, &job.Progress,
		&analysisJSON, &scriptJSON, &planJSON, &assets,
		&job.OutputReference, &job.Error,
		&job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	job.Status = models.JobStatus(status)

	if err := unmarshalNullable(analysisJSON, &job.Analysis); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(scriptJSON, &job.Script); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(planJSON, &job.VisualPlan); err != nil {
		return nil, err
	}
	if len(assets) > 0 {
		if err := json.Unmarshal(assets, &job.Assets); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assets: %w", err)
		}
	}

	return &job, nil
}

// StoreVideo writes the output video record for a completed job.
func (s *Store) StoreVideo(ctx context.Context, video *models.VideoRecord) error {
	query := `
		INSERT INTO videogen.videos (job_id, title, file_url, duration, quality, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id) DO UPDATE SET
			title = EXCLUDED.title,
			file_url = EXCLUDED.file_url,
			duration = EXCLUDED.duration,
			quality = EXCLUDED.quality`

	_, err := s.db.ExecContext(ctx, query,
		video.JobID, video.Title, video.FileURL, video.Duration, video.Quality, video.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store video: %w", err)
	}
	return nil
}

// StoreAsset writes one generated asset record.
func (s *Store) StoreAsset(ctx context.Context, jobID string, asset *models.Asset) error {
	metadataJSON, err := json.Marshal(asset.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal asset metadata: %w", err)
	}

	query := `
		INSERT INTO videogen.assets (asset_id, job_id, asset_type, scene_number, file_path, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (asset_id) DO NOTHING`

	_, err = s.db.ExecContext(ctx, query,
		asset.ID, jobID, string(asset.Type), asset.SceneNumber, asset.Path, metadataJSON)
	if err != nil {
		return fmt.Errorf("failed to store asset: %w", err)
	}
	return nil
}

func marshalNullable(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case *models.ContentAnalysis:
		if val == nil {
			return nil, nil
		}
	case *models.VideoScript:
		if val == nil {
			return nil, nil
		}
	case *models.VisualPlan:
		if val == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stage result: %w", err)
	}
	return data, nil
}

func unmarshalNullable(data []byte, out interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal stage result: %w", err)
	}
	return nil
}
