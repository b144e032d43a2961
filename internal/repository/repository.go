package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

// ErrNotFound is returned when an analysis or one of its documents does not exist.
var ErrNotFound = errors.New("not found")

type Repository interface {
	CreateAnalysis(ctx context.Context, analysis *models.Analysis, docs []models.Document) error
	GetAnalysis(ctx context.Context, id string) (*models.Analysis, error)
	ListDocuments(ctx context.Context, analysisID string) ([]models.Document, error)
	GetDocument(ctx context.Context, analysisID string, position int) (*models.Document, error)
	AppendDocuments(ctx context.Context, analysis *models.Analysis, docs []models.Document) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type analysisRow struct {
	ID            string    `db:"id"`
	DocumentCount int       `db:"document_count"`
	ResultJSON    string    `db:"result_json"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

const insertDocumentQuery = `
	INSERT INTO documents (id, analysis_id, position, filename, file_size, file_type, content_type, s3_key, extracted_text, created_at)
	VALUES (:id, :analysis_id, :position, :filename, :file_size, :file_type, :content_type, :s3_key, :extracted_text, :created_at)
`

// CreateAnalysis stores an analysis and its documents in one transaction.
func (r *repository) CreateAnalysis(ctx context.Context, analysis *models.Analysis, docs []models.Document) error {
	resultJSON, err := json.Marshal(analysis.Result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}

	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO analyses (id, document_count, result_json, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query,
			analysis.ID,
			analysis.DocumentCount,
			string(resultJSON),
			analysis.CreatedAt.UTC(),
			analysis.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert analysis: %w", err)
		}

		return insertDocuments(ctx, tx, docs)
	})
}

func (r *repository) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	var row analysisRow

	query := `
		SELECT id, document_count, result_json, created_at, updated_at
		FROM analyses
		WHERE id = ?
	`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var result models.MultiDocumentAnalysisResult
	if err := json.Unmarshal([]byte(row.ResultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis result: %w", err)
	}

	return &models.Analysis{
		ID:            row.ID,
		DocumentCount: row.DocumentCount,
		Result:        &result,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

// ListDocuments returns the archived documents of an analysis in upload order.
func (r *repository) ListDocuments(ctx context.Context, analysisID string) ([]models.Document, error) {
	docs := []models.Document{}

	query := `
		SELECT id, analysis_id, position, filename, file_size, file_type, content_type, s3_key, extracted_text, created_at
		FROM documents
		WHERE analysis_id = ?
		ORDER BY position
	`

	if err := r.db.SelectContext(ctx, &docs, query, analysisID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (r *repository) GetDocument(ctx context.Context, analysisID string, position int) (*models.Document, error) {
	var doc models.Document

	query := `
		SELECT id, analysis_id, position, filename, file_size, file_type, content_type, s3_key, extracted_text, created_at
		FROM documents
		WHERE analysis_id = ? AND position = ?
	`

	err := r.db.GetContext(ctx, &doc, query, analysisID, position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// AppendDocuments replaces the stored result of an existing analysis and adds
// docs to it.
func (r *repository) AppendDocuments(ctx context.Context, analysis *models.Analysis, docs []models.Document) error {
	resultJSON, err := json.Marshal(analysis.Result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}

	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE analyses
			SET document_count = ?, result_json = ?, updated_at = ?
			WHERE id = ?
		`
		res, err := tx.ExecContext(ctx, query,
			analysis.DocumentCount,
			string(resultJSON),
			analysis.UpdatedAt.UTC(),
			analysis.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update analysis: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}

		return insertDocuments(ctx, tx, docs)
	})
}

func insertDocuments(ctx context.Context, tx *sqlx.Tx, docs []models.Document) error {
	for _, doc := range docs {
		doc.CreatedAt = doc.CreatedAt.UTC()
		if _, err := tx.NamedExecContext(ctx, insertDocumentQuery, doc); err != nil {
			return fmt.Errorf("failed to insert document %q: %w", doc.Filename, err)
		}
	}
	return nil
}

func (r *repository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
