package reports

import (
	"encoding/json"

	"github.com/synaptica-ai/bloodwork/pkg/common/models"
)

// RequestWrapper accepts either the full envelope or a bare report body
// ({"parameters": ..., "age": ..., "gender": ...}) posted directly.
type RequestWrapper struct {
	PatientRef string                 `json:"patient_ref,omitempty"`
	Source     string                 `json:"source,omitempty"`
	Data       map[string]interface{} `json:"data"`
	Metadata   map[string]string      `json:"metadata,omitempty"`
}

func (r *RequestWrapper) UnmarshalJSON(raw []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if _, ok := doc["data"]; !ok {
		var body map[string]interface{}
		if err := json.Unmarshal(raw, &body); err != nil {
			return err
		}
		r.Data = body
		if ref, ok := body["patient_ref"].(string); ok {
			r.PatientRef = ref
		}
		if src, ok := body["source"].(string); ok {
			r.Source = src
		}
		return nil
	}

	type envelope RequestWrapper
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	*r = RequestWrapper(env)
	return nil
}

func (r RequestWrapper) ToModel() models.AnalyzeRequest {
	return models.AnalyzeRequest{
		PatientRef: r.PatientRef,
		Source:     r.Source,
		Data:       r.Data,
		Metadata:   r.Metadata,
	}
}

type BatchRequest struct {
	Reports []RequestWrapper `json:"reports"`
}

func (b BatchRequest) ToModels() []models.AnalyzeRequest {
	out := make([]models.AnalyzeRequest, 0, len(b.Reports))
	for _, r := range b.Reports {
		out = append(out, r.ToModel())
	}
	return out
}
