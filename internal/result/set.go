package result

import "fmt"

// DuplicateLabelError reports two grid cells canonicalizing to the same
// label, which would silently overwrite a prior aggregate. It usually means
// a rounding collision in the search space.
type DuplicateLabelError struct {
	Label string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("duplicate configuration label %q", e.Label)
}

// ExperimentResultSet maps configuration labels to their aggregates,
// preserving grid-generation order. Labels are never overwritten.
type ExperimentResultSet struct {
	labels  []string
	byLabel map[string]*Aggregate
}

func NewExperimentResultSet() *ExperimentResultSet {
	return &ExperimentResultSet{byLabel: make(map[string]*Aggregate)}
}

func (s *ExperimentResultSet) Add(label string, agg *Aggregate) error {
	if _, exists := s.byLabel[label]; exists {
		return &DuplicateLabelError{Label: label}
	}
	s.labels = append(s.labels, label)
	s.byLabel[label] = agg
	return nil
}

func (s *ExperimentResultSet) Get(label string) (*Aggregate, bool) {
	agg, ok := s.byLabel[label]
	return agg, ok
}

// Labels returns the insertion-ordered labels.
func (s *ExperimentResultSet) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

func (s *ExperimentResultSet) Len() int { return len(s.labels) }
