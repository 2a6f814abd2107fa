package curriculum

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/llm"
)

// Validator checks one aspect of a candidate curriculum document.
// Implementations are stateless and safe for concurrent use.
type Validator interface {
	// Name identifies the validator in errors and logs, e.g. "schema".
	Name() string

	// Validate returns nil if the candidate passes.
	Validate(c *Candidate) *ValidationError
}

// ValidationError describes why a candidate was rejected. It matches
// apperr.ErrGenerationUnavailable: a rejected document is a failed
// generation, recovered through the catalog.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == apperr.ErrGenerationUnavailable }

// Candidate is an untrusted document moving through the validator chain.
type Candidate struct {
	Raw json.RawMessage

	doc       *planDocument
	decodeErr error
}

// NewCandidate wraps raw generator output. Markdown code fences are
// stripped.
func NewCandidate(raw []byte) *Candidate {
	return &Candidate{Raw: json.RawMessage(llm.StripFences(raw))}
}

// decode parses the candidate once and caches the result.
func (c *Candidate) decode() (*planDocument, error) {
	if c.doc == nil && c.decodeErr == nil {
		var d planDocument
		if err := json.Unmarshal(c.Raw, &d); err != nil {
			c.decodeErr = fmt.Errorf("malformed JSON: %w", err)
		} else {
			c.doc = &d
		}
	}
	return c.doc, c.decodeErr
}

// DefaultValidators is the standard chain: schema, structural, ordering.
func DefaultValidators(maxModules int) []Validator {
	return []Validator{
		&SchemaValidator{},
		&StructuralValidator{MaxModules: maxModules},
		&OrderingValidator{},
	}
}

// Accept runs chain over raw in order and, only if every validator passes,
// builds the trusted modules. The first failure stops the chain.
func Accept(raw []byte, chain []Validator) ([]Module, error) {
	c := NewCandidate(raw)
	for _, v := range chain {
		if verr := v.Validate(c); verr != nil {
			return nil, verr
		}
	}
	doc, err := c.decode()
	if err != nil {
		return nil, &ValidationError{Validator: "decode", Message: err.Error()}
	}
	return doc.modules(), nil
}
