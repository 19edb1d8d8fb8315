package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/synaptica-ai/bloodwork/pkg/common/logger"
	"github.com/synaptica-ai/bloodwork/pkg/common/models"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
)

// InputError reports a structurally invalid report. Per-parameter problems
// never produce one.
type InputError struct {
	reason string
}

func (e InputError) Error() string {
	return e.reason
}

func IsInputError(err error) bool {
	var ie InputError
	return errors.As(err, &ie)
}

func inputErrorf(format string, args ...interface{}) error {
	return InputError{reason: fmt.Sprintf(format, args...)}
}

// Reading is one parameter as extracted from the report.
type Reading struct {
	Name  string
	Value models.OptionalFloat
	// Raw holds the printed text when the value is not a number.
	Raw          string
	Unit         string
	PrintedRange string
	Confidence   float64
}

type Input struct {
	Readings []Reading
	Patient  reference.Patient
}

var reservedKeys = map[string]struct{}{
	"age":         {},
	"gender":      {},
	"sex":         {},
	"patient_ref": {},
	"source":      {},
	"metadata":    {},
}

// ParseInput converts a decoded JSON document into an Input. Readings are
// taken from the "parameters" object when present, otherwise from every
// non-reserved top-level key.
func ParseInput(raw interface{}) (Input, error) {
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return Input{}, inputErrorf("report must be an object, got %s", typeName(raw))
	}

	var in Input
	age, err := parseAge(doc["age"])
	if err != nil {
		return Input{}, err
	}
	in.Patient.Age = age

	genderValue, found := doc["gender"]
	if !found {
		genderValue = doc["sex"]
	}
	if in.Patient.Gender, err = parseGender(genderValue); err != nil {
		return Input{}, err
	}

	params, topLevel := doc, true
	if p, found := doc["parameters"]; found {
		if params, ok = p.(map[string]interface{}); !ok {
			return Input{}, inputErrorf("parameters must be an object, got %s", typeName(p))
		}
		topLevel = false
	}

	names := make([]string, 0, len(params))
	for name := range params {
		if _, reserved := reservedKeys[strings.ToLower(name)]; reserved && topLevel {
			continue
		}
		if strings.TrimSpace(name) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		in.Readings = append(in.Readings, parseReading(strings.TrimSpace(name), params[name]))
	}
	return in, nil
}

func parseAge(v interface{}) (models.OptionalFloat, error) {
	switch val := v.(type) {
	case nil:
		return models.Missing(), nil
	case string:
		if strings.TrimSpace(val) == "" {
			return models.Missing(), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return models.Missing(), inputErrorf("age %q is not a number", val)
		}
		return checkAge(f)
	default:
		f, ok := toFloat(val)
		if !ok {
			return models.Missing(), inputErrorf("age must be a number, got %s", typeName(v))
		}
		return checkAge(f)
	}
}

func checkAge(f float64) (models.OptionalFloat, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 150 {
		return models.Missing(), inputErrorf("age %v out of range", f)
	}
	return models.Present(f), nil
}

func parseGender(v interface{}) (reference.Gender, error) {
	if v == nil {
		return reference.GenderUnspecified, nil
	}
	s, ok := v.(string)
	if !ok {
		return reference.GenderUnspecified, inputErrorf("gender must be a string, got %s", typeName(v))
	}
	g, ok := reference.ParseGender(s)
	if !ok {
		logger.WithField("gender", s).Warn("unrecognised gender, using general ranges")
	}
	return g, nil
}

func parseReading(name string, v interface{}) Reading {
	r := Reading{Name: name, Confidence: 1}

	entry, isMap := v.(map[string]interface{})
	if !isMap {
		// Bare value: {"WBC": 16.0}
		entry = map[string]interface{}{"value": v}
	}

	r.Value, r.Raw = parseValue(entry["value"])
	r.Unit = getString(entry["unit"])
	r.PrintedRange = printedRange(entry["reference_range"])
	if c, ok := toFloat(entry["confidence"]); ok {
		if c > 1 {
			c /= 100
		}
		r.Confidence = math.Max(0, math.Min(c, 1))
	}
	return r
}

func parseValue(v interface{}) (models.OptionalFloat, string) {
	switch val := v.(type) {
	case nil:
		return models.Missing(), ""
	case string:
		text := strings.TrimSpace(val)
		if text == "" {
			return models.Missing(), ""
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return models.Present(f), ""
		}
		return models.Missing(), text
	default:
		if f, ok := toFloat(val); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return models.Present(f), ""
		}
		return models.Missing(), fmt.Sprintf("%v", val)
	}
}

// printedRange renders the lab-printed range as text. Two-element arrays are
// written as "min-max" so both forms go through the same parser.
func printedRange(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []interface{}:
		if len(val) == 2 {
			lo, okLo := toFloat(val[0])
			hi, okHi := toFloat(val[1])
			if okLo && okHi {
				return reference.FormatNumber(lo) + "-" + reference.FormatNumber(hi)
			}
		}
		return fmt.Sprintf("%v", val)
	default:
		return getString(val)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func getString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return ""
	}
}

func typeName(v interface{}) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]interface{}:
		return "object"
	default:
		return "number"
	}
}
