package analysis

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/bloodwork/pkg/common/logger"
	"github.com/synaptica-ai/bloodwork/pkg/common/models"
	"github.com/synaptica-ai/bloodwork/pkg/contextual"
	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/patterns"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
	"github.com/synaptica-ai/bloodwork/pkg/risk"
)

// Pipeline runs one report through classification, contextual adjustment,
// pattern detection and risk scoring. It is immutable after New and safe to
// share between goroutines.
type Pipeline struct {
	resolver   *reference.Resolver
	classifier *interpret.Classifier
	adjuster   *contextual.Adjuster
	detector   *patterns.Detector
	calculator *risk.Calculator
	now        func() time.Time
}

func New(table reference.Table, rules risk.Rules, margin float64) *Pipeline {
	resolver := reference.NewResolver(table)
	classifier := interpret.NewClassifier(margin)
	return &Pipeline{
		resolver:   resolver,
		classifier: classifier,
		adjuster:   contextual.NewAdjuster(resolver, classifier),
		detector:   patterns.NewDetector(),
		calculator: risk.NewCalculator(rules),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (p *Pipeline) Resolver() *reference.Resolver {
	return p.resolver
}

// Analyze parses raw and runs it. Only structural problems return an error.
func (p *Pipeline) Analyze(raw interface{}) (*Report, error) {
	in, err := ParseInput(raw)
	if err != nil {
		return nil, err
	}
	return p.Run(in), nil
}

// Run always produces a complete report; per-parameter problems degrade the
// affected parameter to Unknown or N/A.
func (p *Pipeline) Run(in Input) *Report {
	report := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: p.now(),
		Patient:     in.Patient,
	}
	log := logger.WithReport(report.ID)

	set := p.classify(in.Readings, log)
	report.ContextualSummary = p.adjuster.Adjust(set, in.Patient)
	report.Patterns = p.detector.Detect(set, in.Patient)
	report.RiskAssessment = p.calculator.CalculateOverallRisk(set, in.Patient)
	report.Parameters = set.Sorted()
	report.Confidence = confidenceScores(in.Readings, report.Parameters, report.Patterns)
	report.Summary = summarize(report.Parameters, report.Patterns, report.RiskAssessment)
	report.Recommendations = recommend(report.Parameters, report.Patterns, report.RiskAssessment)

	log.WithFields(logrus.Fields{
		"parameters": len(report.Parameters),
		"patterns":   len(report.Patterns),
		"risk_level": report.RiskAssessment.Level,
	}).Debug("report analyzed")
	return report
}

// classify is the first, context-free pass: the lab-printed range when it
// parses, otherwise the general table range.
func (p *Pipeline) classify(readings []Reading, log *logrus.Entry) interpret.Set {
	set := interpret.Set{}
	for _, r := range readings {
		canonical, ok := p.resolver.Canonical(r.Name)
		if !ok {
			log.WithField("parameter", r.Name).Warn("unrecognised parameter")
			if _, dup := set[r.Name]; !dup {
				set[r.Name] = &interpret.Parameter{
					Name:        r.Name,
					Value:       r.Value,
					RawValue:    r.Raw,
					Unit:        r.Unit,
					Status:      interpret.StatusUnknown,
					Explanation: "Parameter not recognised",
				}
			}
			continue
		}
		if prev, dup := set[canonical]; dup {
			log.WithFields(logrus.Fields{"parameter": canonical, "kept": prev.ReportedName, "dropped": r.Name}).
				Warn("duplicate parameter reading")
			continue
		}
		set[canonical] = p.classifyReading(canonical, r, log)
	}
	return set
}

func (p *Pipeline) classifyReading(canonical string, r Reading, log *logrus.Entry) *interpret.Parameter {
	def, _ := p.resolver.Definition(canonical)
	param := &interpret.Parameter{
		Name:         canonical,
		ReportedName: r.Name,
		Value:        r.Value,
		RawValue:     r.Raw,
		Unit:         r.Unit,
		Recognized:   true,
	}
	if param.Unit == "" {
		param.Unit = def.Unit
	}

	if r.Raw != "" {
		param.Status = interpret.StatusNotApplicable
		param.Explanation = "Non-numeric value"
		return param
	}

	if v, ok := r.Value.Get(); ok {
		if scaled, changed := def.Rescale(v); changed {
			param.Value = models.Present(scaled)
			param.RawValue = reference.FormatNumber(v)
			param.Unit = def.Unit
			log.WithFields(logrus.Fields{"parameter": canonical, "reported": v, "scaled": scaled}).
				Debug("rescaled reading")
		}
	}

	res, ok := p.resolver.Resolve(canonical, reference.Patient{})
	if printed := r.PrintedRange; printed != "" {
		if rng, err := ParseRange(printed); err == nil {
			// Printed ranges follow the lab's unit, so they get the same
			// scale rules as the value.
			if f, changed := def.ScaleFactor(rng.Max); changed {
				rng = rng.Scaled(f)
			}
			res.Parameter = canonical
			res.Range = rng
			res.Source = reference.SourceReport
			ok = true
		} else {
			log.WithError(err).WithField("parameter", canonical).Warn("ignoring printed reference range")
		}
	}
	if !ok {
		param.Status = interpret.StatusUnknown
		param.Explanation = "Reference range not available"
		return param
	}

	result := p.classifier.Classify(param.Value, res.Range, res.Critical)
	param.Apply(result, res.Range, res.Source)
	param.Critical = res.Critical
	param.Significance = interpret.Significance(def, result.Status)
	if result.Status.Known() {
		param.Confidence = r.Confidence
	}
	return param
}
