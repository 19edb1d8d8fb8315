package reports

import (
	"errors"
	"fmt"
	"strings"

	"github.com/synaptica-ai/bloodwork/pkg/common/models"
)

var (
	errInvalidSource = errors.New("invalid source")
	errMissingData   = errors.New("missing data payload")
	errTooLarge      = errors.New("too many parameters")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

type Validator struct {
	allowedSources map[string]struct{}
	maxParameters  int
}

func NewValidator(sources []string, maxParameters int) *Validator {
	vs := make(map[string]struct{})
	for _, src := range sources {
		if trimmed := strings.TrimSpace(strings.ToLower(src)); trimmed != "" {
			vs[trimmed] = struct{}{}
		}
	}
	return &Validator{allowedSources: vs, maxParameters: maxParameters}
}

// Validate checks the request envelope. The report body itself is checked by
// the analysis pipeline.
func (v *Validator) Validate(req models.AnalyzeRequest) error {
	if v == nil {
		return ValidationError{reason: errors.New("validator not initialised")}
	}

	if source := strings.TrimSpace(strings.ToLower(req.Source)); source != "" && len(v.allowedSources) > 0 {
		if _, ok := v.allowedSources[source]; !ok {
			return ValidationError{reason: fmt.Errorf("source '%s' not allowed: %w", source, errInvalidSource)}
		}
	}

	if req.Data == nil {
		return ValidationError{reason: errMissingData}
	}

	if v.maxParameters > 0 {
		count := len(req.Data)
		if params, ok := req.Data["parameters"].(map[string]interface{}); ok {
			count = len(params)
		}
		if count > v.maxParameters {
			return ValidationError{reason: fmt.Errorf("%d parameters, limit is %d: %w", count, v.maxParameters, errTooLarge)}
		}
	}

	return nil
}
