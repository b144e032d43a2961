package analyzer

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

const (
	ModelName    = "protocol-rules"
	ModelVersion = "1.0.0"
)

// ErrEmptyInput is returned when a batch contains no documents.
var ErrEmptyInput = errors.New("no documents to analyze")

// Analyzer runs the document analysis pipeline over a batch.
type Analyzer interface {
	AnalyzeDocuments(ctx context.Context, docs []models.RawDocument) (*models.MultiDocumentAnalysisResult, error)
	Extend(ctx context.Context, prev *models.MultiDocumentAnalysisResult, prevDocs, newDocs []models.RawDocument) (*models.MultiDocumentAnalysisResult, error)
}

// Engine is the rule-based Analyzer. Per-document work runs on up to
// workers goroutines; folding happens in input order.
type Engine struct {
	workers int
}

func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{workers: workers}
}

// AnalyzeDocument runs every per-document stage on one document in isolation.
func AnalyzeDocument(doc models.RawDocument) models.DocumentSource {
	keywords := ExtractKeywords(doc.Text)
	protocol := AnalyzeProtocol(doc.Text, keywords)
	records := extractRecords(doc, keywords)

	return models.DocumentSource{
		FileName:         doc.Name,
		FileType:         doc.DeclaredType,
		FileSize:         doc.ByteSize,
		ExtractedContent: contentPreview(doc.Text),
		SectorInsights:   records.insights,
		ExtractedData:    records.data,
		Keywords:         keywords,
		SimulationParams: AnalyzeTrialText(doc.Text),
		ProtocolAnalysis: protocol,
		RiskAssessment:   AssessRisks(protocol, keywords),
	}
}

func (e *Engine) AnalyzeDocuments(ctx context.Context, docs []models.RawDocument) (*models.MultiDocumentAnalysisResult, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}

	sources, err := e.analyzeAll(ctx, docs)
	if err != nil {
		return nil, err
	}

	acc := newAccumulator()
	for _, src := range sources {
		acc = acc.fold(src)
	}
	return acc.result(docs), nil
}

// Extend folds newDocs into a previous aggregate. Records, sources and
// keywords already in prev are kept as they are; only newDocs are analyzed.
// prevDocs supplies the texts behind prev so the batch-level protocol and
// risk analysis can be recomputed over the whole corpus.
func (e *Engine) Extend(ctx context.Context, prev *models.MultiDocumentAnalysisResult, prevDocs, newDocs []models.RawDocument) (*models.MultiDocumentAnalysisResult, error) {
	if prev == nil {
		return e.AnalyzeDocuments(ctx, newDocs)
	}
	if len(newDocs) == 0 {
		return nil, ErrEmptyInput
	}

	sources, err := e.analyzeAll(ctx, newDocs)
	if err != nil {
		return nil, err
	}

	acc := accumulatorFrom(prev)
	for _, src := range sources {
		acc = acc.fold(src)
	}

	corpus := make([]models.RawDocument, 0, len(prevDocs)+len(newDocs))
	corpus = append(corpus, prevDocs...)
	corpus = append(corpus, newDocs...)
	res := acc.result(corpus)
	res.Skipped = slices.Clone(prev.Skipped)
	return res, nil
}

func (e *Engine) analyzeAll(ctx context.Context, docs []models.RawDocument) ([]models.DocumentSource, error) {
	sources := make([]models.DocumentSource, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sources[i] = AnalyzeDocument(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// accumulator is the immutable state of a batch fold. Folded sources live in
// a persistent list, newest first, whose nodes are never modified, so fold is
// constant time and every earlier state stays valid. result merges the list
// into the base in input order.
type accumulator struct {
	baseSources  []models.DocumentSource
	baseKeywords models.KeywordSet
	baseData     models.ExtractedData
	head         *contribution
	count        int
	params       *models.DisruptionSimulationParams
}

type contribution struct {
	src  models.DocumentSource
	prev *contribution
}

func newAccumulator() accumulator {
	return accumulator{}
}

func accumulatorFrom(prev *models.MultiDocumentAnalysisResult) accumulator {
	acc := accumulator{
		baseSources:  prev.Sources,
		baseKeywords: prev.Keywords,
		baseData:     prev.ExtractedData,
	}
	if len(prev.Sources) > 0 {
		params := prev.CombinedSimulationParams
		acc.params = &params
	}
	return acc
}

func (a accumulator) fold(src models.DocumentSource) accumulator {
	next := a
	next.head = &contribution{src: src, prev: a.head}
	next.count = a.count + 1

	// First document sets the fallback; the first one naming a specific site
	// or product takes over from a default-bearing selection.
	if next.params == nil || (isDefaultBearing(*next.params) && !isDefaultBearing(src.SimulationParams)) {
		params := src.SimulationParams
		next.params = &params
	}
	return next
}

// folded returns the folded sources in input order.
func (a accumulator) folded() []models.DocumentSource {
	out := make([]models.DocumentSource, a.count)
	i := a.count - 1
	for c := a.head; c != nil; c = c.prev {
		out[i] = c.src
		i--
	}
	return out
}

func (a accumulator) result(corpus []models.RawDocument) *models.MultiDocumentAnalysisResult {
	texts := make([]string, len(corpus))
	for i, d := range corpus {
		texts[i] = d.Text
	}
	merged := strings.Join(texts, "\n\n")

	added := a.folded()
	sources := make([]models.DocumentSource, 0, len(a.baseSources)+len(added))
	sources = append(sources, a.baseSources...)
	sources = append(sources, added...)

	keywordSets := make([]models.KeywordSet, 0, len(added)+1)
	dataParts := make([]models.ExtractedData, 0, len(added)+1)
	keywordSets = append(keywordSets, a.baseKeywords)
	dataParts = append(dataParts, a.baseData)
	for _, src := range added {
		keywordSets = append(keywordSets, src.Keywords)
		dataParts = append(dataParts, src.ExtractedData)
	}
	keywords := UnionKeywords(keywordSets...)

	protocol := AnalyzeProtocol(merged, keywords)
	params := DefaultSimulationParams()
	if a.params != nil {
		params = *a.params
	}

	return &models.MultiDocumentAnalysisResult{
		CombinedSimulationParams: params,
		ProtocolAnalysis:         protocol,
		RiskAssessment:           AssessRisks(protocol, keywords),
		Sources:                  sources,
		Keywords:                 keywords,
		ExtractedData:            concatData(dataParts...),
		Model: models.ModelInfo{
			Name:          ModelName,
			Version:       ModelVersion,
			Deterministic: true,
			DocumentCount: len(sources),
		},
		Skipped: []models.SkippedDocument{},
	}
}

func concatData(parts ...models.ExtractedData) models.ExtractedData {
	out := models.ExtractedData{
		Logistics:  []models.LogisticsData{},
		Enrollment: []models.EnrollmentData{},
		Regulatory: []models.RegulatoryData{},
		Finance:    []models.FinanceData{},
	}
	for _, p := range parts {
		out.Logistics = append(out.Logistics, p.Logistics...)
		out.Enrollment = append(out.Enrollment, p.Enrollment...)
		out.Regulatory = append(out.Regulatory, p.Regulatory...)
		out.Finance = append(out.Finance, p.Finance...)
	}
	return out
}
