package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// OptionalFloat is a numeric value that may be missing. The zero value is Missing.
type OptionalFloat struct {
	value   float64
	present bool
}

func Present(v float64) OptionalFloat {
	return OptionalFloat{value: v, present: true}
}

func Missing() OptionalFloat {
	return OptionalFloat{}
}

func (o OptionalFloat) Get() (float64, bool) {
	return o.value, o.present
}

func (o OptionalFloat) IsPresent() bool {
	return o.present
}

// OrElse returns the value when present, otherwise fallback.
func (o OptionalFloat) OrElse(fallback float64) float64 {
	if !o.present {
		return fallback
	}
	return o.value
}

func (o OptionalFloat) String() string {
	if !o.present {
		return "n/a"
	}
	return strconv.FormatFloat(o.value, 'f', -1, 64)
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Missing()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Present(v)
	return nil
}
