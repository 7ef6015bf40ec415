package plugin

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/nasa-jpl/photron/ndarray"
	"github.com/nasa-jpl/photron/params"
)

// names of the parameters Stats mirrors into a table
const (
	ParamStatsMean  = "STATS_MEAN"
	ParamStatsSigma = "STATS_SIGMA"
	ParamStatsMin   = "STATS_MIN"
	ParamStatsMax   = "STATS_MAX"
	ParamStatsFrame = "STATS_FRAME"
)

// Result holds the statistics of one frame
type Result struct {
	UniqueID int     `json:"uniqueID"`
	Mean     float64 `json:"mean"`
	Sigma    float64 `json:"sigma"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Compute returns the statistics of a frame
func Compute(a *ndarray.Array) Result {
	x := a.Float64()
	r := Result{UniqueID: a.UniqueID}
	if len(x) == 0 {
		return r
	}
	r.Mean, r.Sigma = stat.MeanStdDev(x, nil)
	r.Min = floats.Min(x)
	r.Max = floats.Max(x)
	return r
}

// Stats computes frame statistics, keeping the latest result.  If it has a
// table, each result is also written to the STATS_* parameters.
type Stats struct {
	mu     sync.Mutex
	last   Result
	count  int
	params *params.Table
}

// NewStats returns a statistics plugin.  t may be nil.
func NewStats(t *params.Table) (*Stats, error) {
	s := &Stats{params: t}
	if t == nil {
		return s, nil
	}
	for _, name := range []string{ParamStatsMean, ParamStatsSigma, ParamStatsMin, ParamStatsMax} {
		if _, err := t.Create(name, params.Float64); err != nil {
			return nil, err
		}
	}
	if _, err := t.Create(ParamStatsFrame, params.Int32); err != nil {
		return nil, err
	}
	return s, nil
}

// Process implements ndarray.Plugin
func (s *Stats) Process(a *ndarray.Array) error {
	r := Compute(a)
	s.mu.Lock()
	s.last = r
	s.count++
	s.mu.Unlock()
	if s.params == nil {
		return nil
	}
	for _, kv := range []struct {
		name string
		v    float64
	}{
		{ParamStatsMean, r.Mean},
		{ParamStatsSigma, r.Sigma},
		{ParamStatsMin, r.Min},
		{ParamStatsMax, r.Max},
	} {
		if err := s.params.SetFloat(kv.name, kv.v); err != nil {
			return err
		}
	}
	return s.params.SetInt(ParamStatsFrame, int32(r.UniqueID))
}

// Last returns the latest result and the number of frames seen
func (s *Stats) Last() (Result, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.count
}
