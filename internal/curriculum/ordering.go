package curriculum

import "fmt"

// OrderingValidator checks that module positions are positive and unique.
// A module without an explicit order takes its array position.
type OrderingValidator struct{}

func (v *OrderingValidator) Name() string { return "ordering" }

func (v *OrderingValidator) Validate(c *Candidate) *ValidationError {
	doc, err := c.decode()
	if err != nil {
		return &ValidationError{Validator: v.Name(), Message: err.Error()}
	}
	seen := make(map[int]int, len(doc.Modules))
	for i, m := range doc.Modules {
		pos := m.position(i)
		if pos < 1 {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("module %d: order %d must be positive", i+1, pos)}
		}
		if prev, ok := seen[pos]; ok {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("modules %d and %d share order %d", prev+1, i+1, pos),
			}
		}
		seen[pos] = i
	}
	return nil
}
