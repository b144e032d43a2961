package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/analyzer"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/extractor"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/metrics"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/report"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/repository"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/simulation"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/storage"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/utils"
)

const (
	storageAttempts   = 3
	defaultRetryDelay = 200 * time.Millisecond
)

type AnalysisService interface {
	CreateAnalysis(ctx context.Context, uploads []*models.UploadRequest) (*models.AnalysisResponse, error)
	AddDocuments(ctx context.Context, id string, uploads []*models.UploadRequest) (*models.AnalysisResponse, error)
	GetAnalysis(ctx context.Context, id string) (*models.AnalysisResponse, error)
	GetDocument(ctx context.Context, id string, position int) (*models.Document, []byte, error)
	Report(ctx context.Context, id, format string) ([]byte, report.Format, error)
	DeriveSimulationParams(ctx context.Context, text string) (*models.DisruptionSimulationParams, error)
	TriggerSimulation(ctx context.Context, params models.DisruptionSimulationParams) (*models.TriggerResponse, error)
}

type analysisService struct {
	repo       repository.Repository
	storage    storage.Storage
	analyzer   analyzer.Analyzer
	simulator  *simulation.Simulator
	logger     *utils.Logger
	now        func() time.Time
	retryDelay time.Duration
}

func NewService(repo repository.Repository, store storage.Storage, engine analyzer.Analyzer, logger *utils.Logger) AnalysisService {
	return &analysisService{
		repo:       repo,
		storage:    store,
		analyzer:   engine,
		simulator:  simulation.NewSimulator(),
		logger:     logger,
		now:        time.Now,
		retryDelay: defaultRetryDelay,
	}
}

// extractedUpload is an upload whose text has been read.
type extractedUpload struct {
	req      *models.UploadRequest
	fileType models.FileType
	text     string
}

func (e extractedUpload) raw() models.RawDocument {
	return models.RawDocument{
		Name:         e.req.Filename,
		ByteSize:     int64(len(e.req.File)),
		DeclaredType: e.fileType,
		Text:         e.text,
	}
}

func (s *analysisService) CreateAnalysis(ctx context.Context, uploads []*models.UploadRequest) (*models.AnalysisResponse, error) {
	start := s.now()

	accepted, skipped, err := s.extractAll(uploads)
	if err != nil {
		return nil, err
	}

	result, err := s.analyzer.AnalyzeDocuments(ctx, raws(accepted))
	if err != nil {
		s.logger.Error("Failed to analyze documents", "error", err, "documents", len(accepted))
		return nil, utils.WrapInternal("Failed to analyze documents", err)
	}
	result.Skipped = skipped
	result.Model.AnalyzedAt = s.now().UTC()

	id := utils.GenerateID()
	docs, err := s.storeBlobs(ctx, id, 0, accepted)
	if err != nil {
		return nil, err
	}

	analysis := &models.Analysis{
		ID:            id,
		DocumentCount: len(result.Sources),
		Result:        result,
		CreatedAt:     result.Model.AnalyzedAt,
		UpdatedAt:     result.Model.AnalyzedAt,
	}
	if err := s.repo.CreateAnalysis(ctx, analysis, docs); err != nil {
		s.logger.Error("Failed to save analysis", "error", err, "analysis_id", id)
		s.deleteBlobs(ctx, docs)
		return nil, utils.WrapInternal("Failed to save analysis", err)
	}

	s.observe("create", start, result)
	s.logger.Info("Analysis created",
		"analysis_id", id,
		"documents", len(result.Sources),
		"skipped", len(skipped),
		"risk_score", result.RiskAssessment.Overall.RiskScore)

	return &models.AnalysisResponse{
		ID:        id,
		Result:    result,
		CreatedAt: analysis.CreatedAt,
		UpdatedAt: analysis.UpdatedAt,
		Message:   "Analysis complete. Use /analyses/{id}/documents to add more files.",
	}, nil
}

func (s *analysisService) AddDocuments(ctx context.Context, id string, uploads []*models.UploadRequest) (*models.AnalysisResponse, error) {
	start := s.now()

	analysis, err := s.loadAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}

	prevDocs, err := s.repo.ListDocuments(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "analysis_id", id)
		return nil, utils.WrapInternal("Failed to retrieve analysis documents", err)
	}

	accepted, skipped, err := s.extractAll(uploads)
	if err != nil {
		return nil, err
	}

	prevRaws := make([]models.RawDocument, len(prevDocs))
	for i := range prevDocs {
		prevRaws[i] = prevDocs[i].Raw()
	}

	result, err := s.analyzer.Extend(ctx, analysis.Result, prevRaws, raws(accepted))
	if err != nil {
		s.logger.Error("Failed to extend analysis", "error", err, "analysis_id", id)
		return nil, utils.WrapInternal("Failed to analyze documents", err)
	}
	result.Skipped = append(result.Skipped, skipped...)
	result.Model.AnalyzedAt = s.now().UTC()

	docs, err := s.storeBlobs(ctx, id, len(prevDocs), accepted)
	if err != nil {
		return nil, err
	}

	analysis.Result = result
	analysis.DocumentCount = len(result.Sources)
	analysis.UpdatedAt = result.Model.AnalyzedAt
	if err := s.repo.AppendDocuments(ctx, analysis, docs); err != nil {
		s.logger.Error("Failed to save analysis", "error", err, "analysis_id", id)
		s.deleteBlobs(ctx, docs)
		return nil, utils.WrapInternal("Failed to save analysis", err)
	}

	s.observe("extend", start, result)
	s.logger.Info("Documents added to analysis",
		"analysis_id", id,
		"added", len(accepted),
		"skipped", len(skipped),
		"documents", len(result.Sources))

	return &models.AnalysisResponse{
		ID:        id,
		Result:    result,
		CreatedAt: analysis.CreatedAt,
		UpdatedAt: analysis.UpdatedAt,
	}, nil
}

func (s *analysisService) GetAnalysis(ctx context.Context, id string) (*models.AnalysisResponse, error) {
	analysis, err := s.loadAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisResponse{
		ID:        analysis.ID,
		Result:    analysis.Result,
		CreatedAt: analysis.CreatedAt,
		UpdatedAt: analysis.UpdatedAt,
	}, nil
}

// GetDocument returns an archived document together with its original bytes.
func (s *analysisService) GetDocument(ctx context.Context, id string, position int) (*models.Document, []byte, error) {
	doc, err := s.repo.GetDocument(ctx, id, position)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, utils.NewNotFoundError("Document not found")
	}
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "analysis_id", id, "position", position)
		return nil, nil, utils.WrapInternal("Failed to retrieve document", err)
	}

	var data []byte
	err = s.withRetry(ctx, "download", func() error {
		var err error
		data, err = s.storage.Download(ctx, doc.S3Key)
		return err
	})
	if errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("Document blob missing", "analysis_id", id, "s3_key", doc.S3Key)
		return nil, nil, utils.NewNotFoundError("Document content is no longer available")
	}
	if err != nil {
		s.logger.Error("Failed to download document", "error", err, "s3_key", doc.S3Key)
		return nil, nil, utils.WrapInternal("Failed to retrieve document", err)
	}

	return doc, data, nil
}

func (s *analysisService) Report(ctx context.Context, id, format string) ([]byte, report.Format, error) {
	f, err := report.ParseFormat(format)
	if err != nil {
		return nil, "", utils.NewBadRequestError("Report format must be markdown or html")
	}

	analysis, err := s.loadAnalysis(ctx, id)
	if err != nil {
		return nil, "", err
	}

	out, err := report.Render(analysis.ID, analysis.Result, f)
	if err != nil {
		s.logger.Error("Failed to render report", "error", err, "analysis_id", id)
		return nil, "", utils.WrapInternal("Failed to render report", err)
	}
	return out, f, nil
}

func (s *analysisService) DeriveSimulationParams(_ context.Context, text string) (*models.DisruptionSimulationParams, error) {
	if strings.TrimSpace(text) == "" {
		return nil, utils.NewBadRequestError("Text is required")
	}

	params := analyzer.AnalyzeTrialText(text)
	s.logger.Debug("Derived simulation parameters",
		"site_id", params.SiteID,
		"disruption_type", params.DisruptionType,
		"severity", params.Severity)
	return &params, nil
}

func (s *analysisService) TriggerSimulation(_ context.Context, params models.DisruptionSimulationParams) (*models.TriggerResponse, error) {
	resp, err := s.simulator.Trigger(params)
	if errors.Is(err, simulation.ErrInvalidParams) {
		return nil, utils.NewBadRequestError(err.Error())
	}
	if err != nil {
		return nil, utils.WrapInternal("Failed to run simulation", err)
	}

	metrics.SimulationsTriggered.WithLabelValues(params.DisruptionType, string(params.Severity)).Inc()
	s.logger.Info("Simulation triggered", "trigger_id", resp.TriggerID, "message", resp.Message)
	return resp, nil
}

func (s *analysisService) loadAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	analysis, err := s.repo.GetAnalysis(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewNotFoundError("Analysis not found")
	}
	if err != nil {
		s.logger.Error("Failed to get analysis", "error", err, "analysis_id", id)
		return nil, utils.WrapInternal("Failed to retrieve analysis", err)
	}
	return analysis, nil
}

// extractAll reads the text of every upload. Documents in a format that
// cannot be read are reported as skipped; a batch where nothing is readable
// is rejected.
func (s *analysisService) extractAll(uploads []*models.UploadRequest) ([]extractedUpload, []models.SkippedDocument, error) {
	if len(uploads) == 0 {
		return nil, nil, utils.NewBadRequestError("No files provided")
	}

	accepted := make([]extractedUpload, 0, len(uploads))
	skipped := []models.SkippedDocument{}
	for _, req := range uploads {
		fileType := extractor.ClassifyFile(req.Filename)
		text, err := extractor.ExtractText(req.File, req.Filename, fileType)
		switch {
		case errors.Is(err, extractor.ErrUnsupportedFormat):
			s.logger.Warn("Skipping unreadable document", "filename", req.Filename, "file_type", fileType, "error", err)
			metrics.DocumentsProcessed.WithLabelValues(string(fileType), metrics.OutcomeSkipped).Inc()
			skipped = append(skipped, models.SkippedDocument{FileName: req.Filename, Reason: err.Error()})
			continue
		case err != nil:
			s.logger.Error("Failed to extract text", "error", err, "filename", req.Filename)
			return nil, nil, utils.WrapInternal(fmt.Sprintf("Failed to extract text from %s", req.Filename), err)
		}

		metrics.DocumentsProcessed.WithLabelValues(string(fileType), metrics.OutcomeAnalyzed).Inc()
		accepted = append(accepted, extractedUpload{req: req, fileType: fileType, text: text})
	}

	if len(accepted) == 0 {
		return nil, nil, utils.NewBadRequestError("None of the uploaded documents could be read. Supported formats are PDF, DOCX, XLSX and plain text")
	}
	return accepted, skipped, nil
}

// storeBlobs uploads the raw bytes of each document, numbering them from
// firstPosition. Already uploaded blobs are removed when a later one fails.
func (s *analysisService) storeBlobs(ctx context.Context, analysisID string, firstPosition int, uploads []extractedUpload) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(uploads))
	now := s.now().UTC()

	for i, u := range uploads {
		position := firstPosition + i
		key := storage.DocumentKey(analysisID, position, u.req.Filename)
		contentType := u.req.ContentType
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = extractor.ContentTypeFor(u.fileType, u.req.Filename)
		}

		err := s.withRetry(ctx, "upload", func() error {
			return s.storage.Upload(ctx, key, u.req.File, contentType)
		})
		if err != nil {
			s.logger.Error("Failed to upload document", "error", err, "s3_key", key)
			s.deleteBlobs(ctx, docs)
			return nil, utils.WrapInternal("Failed to store document", err)
		}

		docs = append(docs, models.Document{
			ID:            utils.GenerateID(),
			AnalysisID:    analysisID,
			Position:      position,
			Filename:      u.req.Filename,
			FileSize:      int64(len(u.req.File)),
			FileType:      u.fileType,
			ContentType:   contentType,
			S3Key:         key,
			ExtractedText: u.text,
			CreatedAt:     now,
		})
	}
	return docs, nil
}

func (s *analysisService) deleteBlobs(ctx context.Context, docs []models.Document) {
	for _, d := range docs {
		if err := s.storage.Delete(ctx, d.S3Key); err != nil {
			s.logger.Warn("Failed to clean up document blob", "error", err, "s3_key", d.S3Key)
		}
	}
}

func (s *analysisService) withRetry(ctx context.Context, operation string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(storageAttempts),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, storage.ErrObjectNotFound)
		}),
		retry.OnRetry(func(n uint, err error) {
			metrics.StorageRetries.WithLabelValues(operation).Inc()
			s.logger.Warn("Retrying storage operation", "operation", operation, "attempt", n+1, "error", err)
		}),
	)
}

func (s *analysisService) observe(operation string, start time.Time, result *models.MultiDocumentAnalysisResult) {
	metrics.AnalysisDuration.WithLabelValues(operation).Observe(s.now().Sub(start).Seconds())
	metrics.RiskScore.Observe(result.RiskAssessment.Overall.RiskScore)
}

func raws(uploads []extractedUpload) []models.RawDocument {
	out := make([]models.RawDocument, len(uploads))
	for i, u := range uploads {
		out[i] = u.raw()
	}
	return out
}
