package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/db"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

func newSQLiteRepository(t *testing.T) Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analyses.db")
	require.NoError(t, db.RunMigrations(path))

	conn, err := db.NewSQLiteDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewRepository(conn)
}

func sampleAnalysis(id string, at time.Time) *models.Analysis {
	return &models.Analysis{
		ID:            id,
		DocumentCount: 1,
		Result: &models.MultiDocumentAnalysisResult{
			CombinedSimulationParams: models.DisruptionSimulationParams{
				SiteID:         "002",
				DisruptionType: "IMP Delay",
				Severity:       models.LevelHigh,
				Product:        "Drug B",
			},
			ExtractedData: models.ExtractedData{
				Finance: []models.FinanceData{{Category: "Personnel", Amount: decimal.RequireFromString("1250.75"), Currency: "USD"}},
			},
			Model: models.ModelInfo{Name: "protocol-rules", Version: "1.0.0", Deterministic: true, DocumentCount: 1, AnalyzedAt: at},
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func sampleDocument(analysisID string, position int, name string, at time.Time) models.Document {
	return models.Document{
		ID:            analysisID + "-" + name,
		AnalysisID:    analysisID,
		Position:      position,
		Filename:      name,
		FileSize:      42,
		FileType:      models.FileTypePDF,
		ContentType:   "application/pdf",
		S3Key:         "analyses/" + analysisID + "/" + name,
		ExtractedText: "Site 002 IMP Delay Drug B critical shortage",
		CreatedAt:     at,
	}
}

func TestCreateAndGetAnalysis(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	analysis := sampleAnalysis("a1", now)
	require.NoError(t, repo.CreateAnalysis(ctx, analysis, []models.Document{sampleDocument("a1", 0, "protocol.pdf", now)}))

	got, err := repo.GetAnalysis(ctx, "a1")
	require.NoError(t, err)

	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, 1, got.DocumentCount)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.Equal(t, analysis.Result.CombinedSimulationParams, got.Result.CombinedSimulationParams)
	require.Len(t, got.Result.ExtractedData.Finance, 1)
	assert.True(t, decimal.RequireFromString("1250.75").Equal(got.Result.ExtractedData.Finance[0].Amount))
	assert.True(t, now.Equal(got.Result.Model.AnalyzedAt))

	docs, err := repo.ListDocuments(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "protocol.pdf", docs[0].Filename)
	assert.Equal(t, models.FileTypePDF, docs[0].FileType)
	assert.Equal(t, "Site 002 IMP Delay Drug B critical shortage", docs[0].ExtractedText)
}

func TestGetAnalysisNotFound(t *testing.T) {
	repo := newSQLiteRepository(t)

	_, err := repo.GetAnalysis(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err := repo.ListDocuments(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestAppendDocuments(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.CreateAnalysis(ctx, sampleAnalysis("a1", now), []models.Document{sampleDocument("a1", 0, "protocol.pdf", now)}))

	later := now.Add(time.Hour)
	updated := sampleAnalysis("a1", now)
	updated.DocumentCount = 3
	updated.UpdatedAt = later
	require.NoError(t, repo.AppendDocuments(ctx, updated, []models.Document{
		sampleDocument("a1", 1, "budget.xlsx", later),
		sampleDocument("a1", 2, "memo.txt", later),
	}))

	got, err := repo.GetAnalysis(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.DocumentCount)
	assert.True(t, later.Equal(got.UpdatedAt))
	assert.True(t, now.Equal(got.CreatedAt))

	docs, err := repo.ListDocuments(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"protocol.pdf", "budget.xlsx", "memo.txt"}, []string{docs[0].Filename, docs[1].Filename, docs[2].Filename})
}

func TestGetDocument(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.CreateAnalysis(ctx, sampleAnalysis("a1", now), []models.Document{
		sampleDocument("a1", 0, "protocol.pdf", now),
		sampleDocument("a1", 1, "budget.xlsx", now),
	}))

	doc, err := repo.GetDocument(ctx, "a1", 1)
	require.NoError(t, err)
	assert.Equal(t, "budget.xlsx", doc.Filename)
	assert.Equal(t, "analyses/a1/budget.xlsx", doc.S3Key)
	assert.Equal(t, "application/pdf", doc.ContentType)

	_, err = repo.GetDocument(ctx, "a1", 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetDocument(ctx, "missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendDocumentsUnknownAnalysis(t *testing.T) {
	repo := newSQLiteRepository(t)
	now := time.Now().UTC()

	err := repo.AppendDocuments(context.Background(), sampleAnalysis("missing", now), []models.Document{sampleDocument("missing", 0, "a.pdf", now)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicatePositionRollsBack(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	docs := []models.Document{sampleDocument("a1", 0, "a.pdf", now), sampleDocument("a1", 0, "b.pdf", now)}
	require.Error(t, repo.CreateAnalysis(ctx, sampleAnalysis("a1", now), docs))

	_, err := repo.GetAnalysis(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestCreateAnalysisRollsBackOnDocumentFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO analyses").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO documents").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := repo.CreateAnalysis(context.Background(), sampleAnalysis("a1", now), []models.Document{sampleDocument("a1", 0, "a.pdf", now)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAnalysisBeginFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	err := repo.CreateAnalysis(context.Background(), sampleAnalysis("a1", time.Now()), nil)
	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAnalysisQueryFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT id, document_count, result_json").
		WithArgs("a1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetAnalysis(context.Background(), "a1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAnalysisCorruptResult(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "document_count", "result_json", "created_at", "updated_at"}).
		AddRow("a1", 1, "{not json", now, now)
	mock.ExpectQuery("SELECT id, document_count, result_json").WithArgs("a1").WillReturnRows(rows)

	_, err := repo.GetAnalysis(context.Background(), "a1")
	assert.ErrorContains(t, err, "failed to decode analysis result")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendDocumentsMissingRowMock(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE analyses").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AppendDocuments(context.Background(), sampleAnalysis("a1", time.Now()), nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
