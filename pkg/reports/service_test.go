package reports

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/synaptica-ai/bloodwork/pkg/analysis"
	"github.com/synaptica-ai/bloodwork/pkg/common/kafka"
	"github.com/synaptica-ai/bloodwork/pkg/common/models"
	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
	"github.com/synaptica-ai/bloodwork/pkg/risk"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	order   []string
	fail    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]*Record)}
}

func (m *memoryStore) Create(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (m *memoryStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.records[m.order[i]])
	}
	return out, nil
}

type memoryCache struct {
	mu      sync.Mutex
	reports map[string]*analysis.Report
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{reports: make(map[string]*analysis.Report)}
}

func (c *memoryCache) Get(ctx context.Context, id string) (*analysis.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	return r, nil
}

func (c *memoryCache) Set(ctx context.Context, report *analysis.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[report.ID] = report
	c.sets++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
	keys   []string
	fail   error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, event)
	p.keys = append(p.keys, key)
	return nil
}

type fixture struct {
	service  *Service
	store    *memoryStore
	cache    *memoryCache
	producer *recordingPublisher
	dlq      *recordingPublisher
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMemoryStore(),
		cache:    newMemoryCache(),
		producer: &recordingPublisher{},
		dlq:      &recordingPublisher{},
	}
	pipeline := analysis.New(reference.DefaultTable(), risk.DefaultRules(), interpret.DefaultBorderlineMargin)
	validator := NewValidator([]string{"json", "pdf"}, 10)
	f.service = NewService(pipeline, validator, f.store, f.cache, f.producer, f.dlq, 4, 5)
	return f
}

func anemiaRequest() models.AnalyzeRequest {
	return models.AnalyzeRequest{
		PatientRef: "patient-7",
		Source:     "json",
		Data: map[string]interface{}{
			"age":    35.0,
			"gender": "female",
			"parameters": map[string]interface{}{
				"Hemoglobin": map[string]interface{}{"value": 9.0},
				"RBC":        map[string]interface{}{"value": 3.8},
				"HCT":        map[string]interface{}{"value": 29.0},
			},
		},
	}
}

func TestAnalyzeStoresCachesAndPublishes(t *testing.T) {
	f := newFixture()

	report, err := f.service.Analyze(context.Background(), anemiaRequest())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	rec, err := f.store.Get(context.Background(), report.ID)
	if err != nil {
		t.Fatalf("expected stored record: %v", err)
	}
	if rec.PatientRef != "patient-7" || rec.Status != StatusAnalyzed || rec.PatternCount != len(report.Patterns) {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.RiskLevel != string(report.RiskAssessment.Level) {
		t.Fatalf("record risk level %q, report %q", rec.RiskLevel, report.RiskAssessment.Level)
	}
	if f.cache.sets != 1 {
		t.Fatalf("expected report to be cached once, got %d", f.cache.sets)
	}
	if len(f.producer.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.producer.events))
	}
	ev := f.producer.events[0]
	if ev.Type != models.EventReportAnalyzed || ev.Data["report_id"] != report.ID || f.producer.keys[0] != report.ID {
		t.Fatalf("unexpected event %+v key %q", ev, f.producer.keys[0])
	}
}

func TestAnalyzeRejectsSourceAndStructure(t *testing.T) {
	f := newFixture()

	req := anemiaRequest()
	req.Source = "fax"
	if _, err := f.service.Analyze(context.Background(), req); !IsValidationError(err) {
		t.Fatalf("expected validation error for source, got %v", err)
	}

	req = anemiaRequest()
	req.Data["parameters"] = []interface{}{1, 2}
	_, err := f.service.Analyze(context.Background(), req)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for parameters, got %v", err)
	}
	if !analysis.IsInputError(err) {
		t.Fatalf("expected wrapped input error, got %v", err)
	}

	req = anemiaRequest()
	req.Data = nil
	if _, err := f.service.Analyze(context.Background(), req); !errors.Is(err, errMissingData) {
		t.Fatalf("expected missing data, got %v", err)
	}
	if len(f.store.records) != 0 {
		t.Fatalf("nothing should be stored for rejected requests")
	}
}

func TestAnalyzeRejectsTooManyParameters(t *testing.T) {
	f := newFixture()
	params := make(map[string]interface{})
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		params[name] = 1.0
	}
	_, err := f.service.Analyze(context.Background(), models.AnalyzeRequest{Data: map[string]interface{}{"parameters": params}})
	if !errors.Is(err, errTooLarge) {
		t.Fatalf("expected too many parameters, got %v", err)
	}
}

func TestPublishFailureGoesToDeadLetter(t *testing.T) {
	f := newFixture()
	f.producer.fail = errors.New("broker down")

	report, err := f.service.Analyze(context.Background(), anemiaRequest())
	if err != nil {
		t.Fatalf("publish failure must not fail the request: %v", err)
	}
	if len(f.dlq.events) != 1 || f.dlq.keys[0] != report.ID {
		t.Fatalf("expected event on dead letter topic, got %+v", f.dlq.events)
	}
}

func TestStoreFailureFailsAnalyze(t *testing.T) {
	f := newFixture()
	f.store.fail = errors.New("db down")

	if _, err := f.service.Analyze(context.Background(), anemiaRequest()); err == nil || IsValidationError(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(f.producer.events) != 0 {
		t.Fatalf("nothing should be published when the store fails")
	}
}

func TestGetFallsBackToStore(t *testing.T) {
	f := newFixture()
	report, err := f.service.Analyze(context.Background(), anemiaRequest())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	f.cache.reports = make(map[string]*analysis.Report)

	got, err := f.service.Get(context.Background(), report.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != report.ID || got.RiskAssessment.Level != report.RiskAssessment.Level {
		t.Fatalf("decoded report differs: %+v", got.RiskAssessment)
	}
	if len(got.Parameters) != len(report.Parameters) || len(got.Patterns) != len(report.Patterns) {
		t.Fatalf("decoded report lost content")
	}
	if _, ok := f.cache.reports[report.ID]; !ok {
		t.Fatalf("expected report to be re-cached")
	}

	if _, err := f.service.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	f := newFixture()
	bad := anemiaRequest()
	bad.Source = "fax"
	reqs := []models.AnalyzeRequest{
		anemiaRequest(),
		bad,
		{Source: "json", Data: map[string]interface{}{"WBC": 16.0}},
	}

	results, err := f.service.AnalyzeBatch(context.Background(), reqs)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Fatalf("result %d has index %d", i, r.Index)
		}
	}
	if results[0].Report == nil || results[1].Error == "" || results[2].Report == nil {
		t.Fatalf("unexpected results %+v", results)
	}
	if _, ok := results[2].Report.Pattern("Significant Infection/Inflammation"); !ok {
		t.Fatalf("expected infection pattern in third report")
	}
	if len(f.store.records) != 2 {
		t.Fatalf("expected 2 stored reports, got %d", len(f.store.records))
	}
}

func TestAnalyzeBatchLimits(t *testing.T) {
	f := newFixture()
	if _, err := f.service.AnalyzeBatch(context.Background(), nil); !IsValidationError(err) {
		t.Fatalf("expected validation error for empty batch, got %v", err)
	}
	reqs := make([]models.AnalyzeRequest, 6)
	if _, err := f.service.AnalyzeBatch(context.Background(), reqs); !IsValidationError(err) {
		t.Fatalf("expected validation error for oversized batch, got %v", err)
	}
}

func TestRecent(t *testing.T) {
	f := newFixture()
	var ids []string
	for i := 0; i < 3; i++ {
		report, err := f.service.Analyze(context.Background(), anemiaRequest())
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		ids = append(ids, report.ID)
	}

	summaries, err := f.service.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != ids[2] || summaries[1].ID != ids[1] {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
}

func TestReferenceLookup(t *testing.T) {
	f := newFixture()

	res, err := f.service.Reference("Hb", "female", "35")
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	if res.Parameter != "Hemoglobin" || res.Source != reference.SourceGender || res.Range.String() != "12-15.5" {
		t.Fatalf("unexpected resolution %+v", res)
	}

	res, err = f.service.Reference("creatinine", "", "10")
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	if res.Source != reference.SourceAgeGroup || res.AgeGroup != reference.AgeChild {
		t.Fatalf("expected child range, got %+v", res)
	}

	if _, err := f.service.Reference("Unobtainium", "", ""); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected unknown parameter, got %v", err)
	}
	if _, err := f.service.Reference("Hb", "robot", ""); !IsValidationError(err) {
		t.Fatalf("expected validation error for gender, got %v", err)
	}
	if _, err := f.service.Reference("Hb", "", "-4"); !IsValidationError(err) {
		t.Fatalf("expected validation error for age, got %v", err)
	}
}

func TestPatternNamesInEvent(t *testing.T) {
	f := newFixture()
	if _, err := f.service.Analyze(context.Background(), anemiaRequest()); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	names, ok := f.producer.events[0].Data["patterns"].([]string)
	if !ok {
		t.Fatalf("patterns payload has type %T", f.producer.events[0].Data["patterns"])
	}
	sort.Strings(names)
	if i := sort.SearchStrings(names, "Anemia Indicators"); i == len(names) || names[i] != "Anemia Indicators" {
		t.Fatalf("expected anemia pattern in %v", names)
	}
}

func TestHandleEvent(t *testing.T) {
	f := newFixture()

	event := models.Event{
		ID:   "evt-1",
		Type: models.EventReportExtracted,
		Data: map[string]interface{}{
			"patient_ref": "patient-9",
			"source":      "pdf",
			"data":        map[string]interface{}{"parameters": map[string]interface{}{"WBC": 16.0}},
		},
		Metadata: map[string]string{"trace": "t-1"},
	}
	if err := f.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.store.records) != 1 || len(f.producer.events) != 1 {
		t.Fatalf("expected one stored and published report")
	}
	if got := f.producer.events[0]; got.Data["patient_ref"] != "patient-9" || got.Metadata["trace"] != "t-1" {
		t.Fatalf("unexpected analyzed event %+v", got)
	}

	err := f.service.HandleEvent(context.Background(), models.Event{Type: models.EventReportAnalyzed})
	if !errors.Is(err, kafka.ErrSkip) {
		t.Fatalf("expected skip for foreign event type, got %v", err)
	}

	bad := models.Event{Type: models.EventReportExtracted, Data: map[string]interface{}{"age": "ancient"}}
	if err := f.service.HandleEvent(context.Background(), bad); !errors.Is(err, kafka.ErrSkip) {
		t.Fatalf("expected skip for invalid report, got %v", err)
	}
}

func TestRequestFromBareEvent(t *testing.T) {
	req := RequestFromEvent(models.Event{Data: map[string]interface{}{"Hb": 9.0, "gender": "f"}})
	if req.Data["Hb"] != 9.0 || req.PatientRef != "" {
		t.Fatalf("unexpected request %+v", req)
	}
}
