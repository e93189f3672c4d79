// internal/pipeline/document.go
package pipeline

import (
	"maps"

	"github.com/go-viper/mapstructure/v2"
)

// Document is the state threaded between stages. Stages only add top-level
// fields; nothing an earlier stage wrote is removed.
type Document map[string]any

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	out := make(Document, len(d)+4)
	maps.Copy(out, d)
	return out
}

// Input returns the "data" member when it is itself a document, else d.
func (d Document) Input() Document {
	switch data := d["data"].(type) {
	case Document:
		return data
	case map[string]any:
		return Document(data)
	}
	return d
}

// decodeField maps d[key] onto out. It reports false when the key is absent.
func (d Document) decodeField(key string, out any) (bool, error) {
	raw, ok := d[key]
	if !ok || raw == nil {
		return false, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return false, err
	}
	return true, dec.Decode(raw)
}

// Counts is the result attached by the process stage. A nil count was
// absent or not a number.
type Counts struct {
	RecordCount      *float64 `json:"recordCount"`
	ProcessedRecords *float64 `json:"processedRecords"`
}

// readCounts extracts the counts from d["result"]. Each count is read on its
// own, so one unreadable value does not hide the other.
func (d Document) readCounts() Counts {
	var result map[string]any
	if err := mapstructure.Decode(d["result"], &result); err != nil {
		return Counts{}
	}
	return Counts{
		RecordCount:      number(result["recordCount"]),
		ProcessedRecords: number(result["processedRecords"]),
	}
}

// number accepts any numeric kind and json.Number; strings are not numbers.
func number(v any) *float64 {
	if v == nil {
		return nil
	}
	var f float64
	if err := mapstructure.Decode(v, &f); err != nil {
		return nil
	}
	return &f
}

// Check is one named validation outcome.
type Check struct {
	Name    string `mapstructure:"name" json:"name"`
	Passed  bool   `mapstructure:"passed" json:"passed"`
	Message string `mapstructure:"message" json:"message"`
}

// ValidationResult groups the checks of the validate stage.
type ValidationResult struct {
	Checks []Check `mapstructure:"checks" json:"checks"`
}

// Failed returns the checks that did not pass.
func (v ValidationResult) Failed() []Check {
	failed := []Check{}
	for _, c := range v.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}
