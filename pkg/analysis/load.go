package analysis

import (
	"github.com/synaptica-ai/bloodwork/pkg/common/logger"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
	"github.com/synaptica-ai/bloodwork/pkg/risk"
)

// Load builds a pipeline from the configured table and rule files. A file that
// cannot be read or validated is logged and the built-in default is used.
func Load(tablePath, rulesPath string, margin float64) *Pipeline {
	table, err := reference.Load(tablePath)
	if err != nil {
		logger.WithField("path", tablePath).WithError(err).Warn("Using built-in reference table")
		table = reference.DefaultTable()
	}
	rules, err := risk.LoadRules(rulesPath)
	if err != nil {
		logger.WithField("path", rulesPath).WithError(err).Warn("Using built-in risk rules")
		rules = risk.DefaultRules()
	}
	logger.WithFields(map[string]interface{}{
		"parameters": len(table.Parameters),
		"categories": len(rules.Categories),
		"margin":     margin,
	}).Info("Interpretation pipeline loaded")
	return New(table, rules, margin)
}
