package reports

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/synaptica-ai/bloodwork/pkg/analysis"
	"github.com/synaptica-ai/bloodwork/pkg/common/kafka"
	"github.com/synaptica-ai/bloodwork/pkg/common/logger"
	"github.com/synaptica-ai/bloodwork/pkg/common/models"
	"github.com/synaptica-ai/bloodwork/pkg/observability/metrics"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
	"golang.org/x/sync/errgroup"
)

const ServiceName = "analysis-service"

var ErrUnknownParameter = errors.New("unknown parameter")

// Publisher is the event sink for analyzed reports.
type Publisher interface {
	Publish(ctx context.Context, key string, event models.Event) error
}

type Service struct {
	pipeline    *analysis.Pipeline
	validator   *Validator
	store       Store
	cache       Cache
	producer    Publisher
	dlq         Publisher
	concurrency int
	maxBatch    int
}

// NewService wires the report service. cache, producer and dlq may be nil.
func NewService(pipeline *analysis.Pipeline, validator *Validator, store Store, cache Cache, producer, dlq Publisher, concurrency, maxBatch int) *Service {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		pipeline:    pipeline,
		validator:   validator,
		store:       store,
		cache:       cache,
		producer:    producer,
		dlq:         dlq,
		concurrency: concurrency,
		maxBatch:    maxBatch,
	}
}

// Analyze interprets one report, stores it and announces it on the bus.
func (s *Service) Analyze(ctx context.Context, req models.AnalyzeRequest) (*analysis.Report, error) {
	if err := s.validator.Validate(req); err != nil {
		metrics.ObserveFailure()
		return nil, err
	}

	report, err := s.pipeline.Analyze(req.Data)
	if err != nil {
		metrics.ObserveFailure()
		if analysis.IsInputError(err) {
			return nil, ValidationError{reason: err}
		}
		return nil, fmt.Errorf("analyzing report: %w", err)
	}

	rec, err := newRecord(req, report)
	if err != nil {
		metrics.ObserveFailure()
		return nil, err
	}
	if err := s.store.Create(ctx, rec); err != nil {
		metrics.ObserveFailure()
		return nil, fmt.Errorf("persisting report: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, report); err != nil {
			logger.WithReport(report.ID).WithError(err).Warn("failed to cache report")
		}
	}

	s.publish(ctx, req, report)
	metrics.ObserveReport(string(report.RiskAssessment.Level), len(report.Patterns))

	logger.WithReport(report.ID).WithFields(map[string]interface{}{
		"risk_level": report.RiskAssessment.Level,
		"score":      report.RiskAssessment.Score,
		"patterns":   len(report.Patterns),
	}).Info("Report analyzed")
	return report, nil
}

// publish announces the report. The report is already stored, so a failed
// publish is routed to the dead letter topic instead of failing the call.
func (s *Service) publish(ctx context.Context, req models.AnalyzeRequest, report *analysis.Report) {
	if s.producer == nil {
		return
	}
	payload := map[string]interface{}{
		"report_id":     report.ID,
		"patient_ref":   req.PatientRef,
		"source":        req.Source,
		"overall_score": report.RiskAssessment.Score,
		"risk_level":    string(report.RiskAssessment.Level),
		"patterns":      patternNames(report),
		"generated_at":  report.GeneratedAt,
	}
	event := kafka.NewEvent(models.EventReportAnalyzed, ServiceName, payload)
	event.Metadata = req.Metadata

	sendErr := s.producer.Publish(ctx, report.ID, event)
	if sendErr == nil {
		return
	}
	logger.WithReport(report.ID).WithError(sendErr).Error("failed to publish analyzed report")
	if s.dlq != nil {
		if dlqErr := s.dlq.Publish(ctx, report.ID, event); dlqErr != nil {
			logger.WithReport(report.ID).WithError(dlqErr).Error("failed to push event to DLQ")
		}
	}
}

func patternNames(report *analysis.Report) []string {
	names := make([]string, 0, len(report.Patterns))
	for _, f := range report.Patterns {
		names = append(names, f.Name)
	}
	return names
}

// BatchResult is the outcome of one report in a batch. Exactly one of Report
// and Error is set.
type BatchResult struct {
	Index  int              `json:"index"`
	Report *analysis.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// AnalyzeBatch runs reqs concurrently. Per-report failures are reported in the
// results; only a cancelled context fails the batch.
func (s *Service) AnalyzeBatch(ctx context.Context, reqs []models.AnalyzeRequest) ([]BatchResult, error) {
	if len(reqs) == 0 {
		return nil, ValidationError{reason: errors.New("empty batch")}
	}
	if s.maxBatch > 0 && len(reqs) > s.maxBatch {
		return nil, ValidationError{reason: fmt.Errorf("batch of %d reports exceeds limit of %d", len(reqs), s.maxBatch)}
	}

	results := make([]BatchResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range reqs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Index = i
			report, err := s.Analyze(gctx, reqs[i])
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Report = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Get returns a stored report, preferring the cache.
func (s *Service) Get(ctx context.Context, id string) (*analysis.Report, error) {
	if s.cache != nil {
		report, err := s.cache.Get(ctx, id)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.WithReport(id).WithError(err).Warn("report cache lookup failed")
		}
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	report, err := decodeReport(rec)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, report); err != nil {
			logger.WithReport(id).WithError(err).Warn("failed to cache report")
		}
	}
	return report, nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]Summary, error) {
	recs, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Summary())
	}
	return out, nil
}

// Reference resolves the range that would apply to name for the given
// demographics. gender and age are optional and use the report spellings.
func (s *Service) Reference(name, gender, age string) (reference.Resolution, error) {
	var patient reference.Patient
	if g, ok := reference.ParseGender(gender); ok {
		patient.Gender = g
	} else {
		return reference.Resolution{}, ValidationError{reason: fmt.Errorf("unrecognised gender %q", gender)}
	}
	if age = strings.TrimSpace(age); age != "" {
		years, err := strconv.ParseFloat(age, 64)
		if err != nil || years < 0 || years > 150 {
			return reference.Resolution{}, ValidationError{reason: fmt.Errorf("invalid age %q", age)}
		}
		patient.Age = models.Present(years)
	}

	resolver := s.pipeline.Resolver()
	if _, ok := resolver.Canonical(name); !ok {
		return reference.Resolution{}, fmt.Errorf("%s: %w", name, ErrUnknownParameter)
	}
	res, ok := resolver.Resolve(name, patient)
	if !ok {
		return reference.Resolution{}, fmt.Errorf("%s has no reference range: %w", name, ErrNotFound)
	}
	return res, nil
}

// HandleEvent analyzes a report.extracted event. Other event types and
// invalid reports are skipped rather than retried.
func (s *Service) HandleEvent(ctx context.Context, event models.Event) error {
	if event.Type != models.EventReportExtracted {
		return fmt.Errorf("event type %q: %w", event.Type, kafka.ErrSkip)
	}
	_, err := s.Analyze(ctx, RequestFromEvent(event))
	if IsValidationError(err) {
		return fmt.Errorf("event %s: %v: %w", event.ID, err, kafka.ErrSkip)
	}
	return err
}

// RequestFromEvent reads the report from an extraction event. The report may
// sit under "data" or be the event data itself.
func RequestFromEvent(event models.Event) models.AnalyzeRequest {
	req := models.AnalyzeRequest{Data: event.Data, Metadata: event.Metadata}
	if nested, ok := event.Data["data"].(map[string]interface{}); ok {
		req.Data = nested
	}
	if ref, ok := event.Data["patient_ref"].(string); ok {
		req.PatientRef = ref
	}
	if src, ok := event.Data["source"].(string); ok {
		req.Source = src
	}
	return req
}
