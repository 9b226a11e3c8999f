// Package worker defines the response contract every analysis worker
// must satisfy.
package worker

import (
	"fmt"

	"github.com/Strob0t/FleetForge/internal/domain"
)

// Response is the contract returned by every worker call, and by the call
// executor itself on failure. Exactly one of Data and Error carries meaning
// when Confidence is 0; a positive Confidence requires Data and no Error.
type Response struct {
	Worker     string         `json:"worker"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
	Confidence float64        `json:"confidence"`
	Sources    []string       `json:"sources,omitempty"`
}

// Failure builds an error Response with confidence 0.
func Failure(workerName, msg string) Response {
	return Response{Worker: workerName, Error: msg, Confidence: 0}
}

// Validate checks the contract invariants on a response parsed from a
// worker body. Violations are not retryable.
func (r *Response) Validate() error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0, 1]", domain.ErrValidation, r.Confidence)
	}
	if r.Confidence > 0 {
		if r.Data == nil {
			return fmt.Errorf("%w: positive confidence without result data", domain.ErrValidation)
		}
		if r.Error != "" {
			return fmt.Errorf("%w: positive confidence with error message", domain.ErrValidation)
		}
	}
	return nil
}

// Bool reads a nested boolean from the result data.
func (r *Response) Bool(path ...string) bool {
	v, ok := r.lookup(path)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Float reads a nested number from the result data. JSON numbers decode as
// float64; anything else reads as 0.
func (r *Response) Float(path ...string) float64 {
	v, ok := r.lookup(path)
	if !ok {
		return 0
	}
	f, _ := v.(float64)
	return f
}

func (r *Response) lookup(path []string) (any, bool) {
	var cur any = r.Data
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
