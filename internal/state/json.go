package state

import (
	"encoding/json"
	"fmt"
)

// itemJSON is the wire form of an Item: a flat object tagged by "variant".
type itemJSON struct {
	Variant     Variant   `json:"variant"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Actions     []Action  `json:"actions,omitempty"`
	Thoughts    []Thought `json:"thoughts,omitempty"`
}

type testStateJSON struct {
	Status         Status       `json:"status"`
	StepsAndChecks []itemJSON   `json:"stepsAndChecks,omitempty"`
	Failure        *Failure     `json:"failure,omitempty"`
	ModelUsage     []ModelUsage `json:"modelUsage,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s TestState) MarshalJSON() ([]byte, error) {
	out := testStateJSON{
		Status:     s.Status,
		Failure:    s.Failure,
		ModelUsage: s.ModelUsage,
	}
	for _, item := range s.StepsAndChecks {
		switch it := item.(type) {
		case *StepDescriptor:
			out.StepsAndChecks = append(out.StepsAndChecks, itemJSON{
				Variant:     VariantStep,
				Description: it.Description,
				Status:      it.Status,
				Actions:     it.Actions,
				Thoughts:    it.Thoughts,
			})
		case *CheckDescriptor:
			out.StepsAndChecks = append(out.StepsAndChecks, itemJSON{
				Variant:     VariantCheck,
				Description: it.Description,
				Status:      it.Status,
			})
		default:
			return nil, fmt.Errorf("unsupported item type %T", item)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *TestState) UnmarshalJSON(data []byte) error {
	var in testStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	if !in.Status.Valid() {
		return fmt.Errorf("unknown test status %q", in.Status)
	}

	items := make([]Item, 0, len(in.StepsAndChecks))
	for i, raw := range in.StepsAndChecks {
		switch raw.Variant {
		case VariantStep:
			items = append(items, &StepDescriptor{
				Description: raw.Description,
				Status:      raw.Status,
				Actions:     raw.Actions,
				Thoughts:    raw.Thoughts,
			})
		case VariantCheck:
			items = append(items, &CheckDescriptor{
				Description: raw.Description,
				Status:      raw.Status,
			})
		default:
			return fmt.Errorf("stepsAndChecks[%d]: unknown variant %q", i, raw.Variant)
		}
	}

	*s = TestState{
		Status:         in.Status,
		StepsAndChecks: items,
		Failure:        in.Failure,
		ModelUsage:     in.ModelUsage,
	}
	return nil
}
