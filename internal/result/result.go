package result

import (
	"fmt"
	"math"
)

// RunResult is the outcome of one pipeline execution: named scalar metrics
// plus optional per-step series metrics (e.g. a loss curve over epochs).
type RunResult struct {
	Scalars map[string]float64
	Series  map[string][]float64
}

func (r *RunResult) Clone() *RunResult {
	out := &RunResult{}
	if r.Scalars != nil {
		out.Scalars = make(map[string]float64, len(r.Scalars))
		for k, v := range r.Scalars {
			out.Scalars[k] = v
		}
	}
	if r.Series != nil {
		out.Series = make(map[string][]float64, len(r.Series))
		for k, v := range r.Series {
			s := make([]float64, len(v))
			copy(s, v)
			out.Series[k] = s
		}
	}
	return out
}

// RunResultSet collects the results of repeated executions of one
// configuration. It moves through three states: empty, accumulating, and
// combined. Combining is terminal: the aggregate is computed once, cached,
// and further additions are rejected.
type RunResultSet struct {
	results  []*RunResult
	combined *Aggregate
}

func NewRunResultSet() *RunResultSet {
	return &RunResultSet{}
}

// Add appends one run's result. Fails once Combine has been called.
func (s *RunResultSet) Add(r *RunResult) error {
	if s.combined != nil {
		return fmt.Errorf("result set already combined")
	}
	s.results = append(s.results, r)
	return nil
}

func (s *RunResultSet) Len() int { return len(s.results) }

// Results returns a deep copy of the collected results. Callers cannot
// mutate the set through the returned slice.
func (s *RunResultSet) Results() []*RunResult {
	out := make([]*RunResult, len(s.results))
	for i, r := range s.results {
		out[i] = r.Clone()
	}
	return out
}

// Copy returns a deep copy of the set in its current state.
func (s *RunResultSet) Copy() *RunResultSet {
	return &RunResultSet{results: s.Results(), combined: s.combined}
}

// Combine aggregates every metric across the collected results: mean and
// sample standard deviation, with the number of contributing runs recorded
// per metric. Metrics present in only some runs are aggregated over that
// subset. Idempotent: repeated calls return the cached aggregate and never
// touch the source results.
func (s *RunResultSet) Combine() (*Aggregate, error) {
	if s.combined != nil {
		return s.combined, nil
	}
	if len(s.results) == 0 {
		return nil, fmt.Errorf("no results to combine")
	}
	agg := &Aggregate{
		Runs:    len(s.results),
		Scalars: make(map[string]ScalarStat),
		Series:  make(map[string]SeriesStat),
	}

	scalarValues := make(map[string][]float64)
	for _, r := range s.results {
		for name, v := range r.Scalars {
			scalarValues[name] = append(scalarValues[name], v)
		}
	}
	for name, values := range scalarValues {
		mean, std := meanStd(values)
		agg.Scalars[name] = ScalarStat{Mean: mean, Std: std, Count: len(values)}
	}

	seriesLen := make(map[string]int)
	for _, r := range s.results {
		for name, v := range r.Series {
			if len(v) > seriesLen[name] {
				seriesLen[name] = len(v)
			}
		}
	}
	for name, n := range seriesLen {
		stat := SeriesStat{
			Mean:  make([]float64, n),
			Std:   make([]float64, n),
			Count: make([]int, n),
		}
		for i := 0; i < n; i++ {
			var at []float64
			for _, r := range s.results {
				if series, ok := r.Series[name]; ok && i < len(series) {
					at = append(at, series[i])
				}
			}
			stat.Mean[i], stat.Std[i] = meanStd(at)
			stat.Count[i] = len(at)
		}
		agg.Series[name] = stat
	}

	s.combined = agg
	return agg, nil
}

// ScalarStat summarizes one scalar metric over the runs that reported it.
type ScalarStat struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
}

// SeriesStat summarizes one series metric elementwise. Count records the
// number of contributing runs at each index, so shorter series are visible
// rather than padded with zeros.
type SeriesStat struct {
	Mean  []float64 `json:"mean"`
	Std   []float64 `json:"std"`
	Count []int     `json:"count"`
}

// Aggregate is the combined record of one configuration's repeated runs.
type Aggregate struct {
	Runs    int                   `json:"runs"`
	Scalars map[string]ScalarStat `json:"scalars"`
	Series  map[string]SeriesStat `json:"series,omitempty"`
}

// meanStd returns the mean and sample standard deviation of values.
// Fewer than two values have zero deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(values)-1))
}
