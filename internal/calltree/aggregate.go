package calltree

import (
	"sort"

	"github.com/stackclock/timetrack"
	"github.com/stackclock/timetrack/internal/quantile"
)

type (
	// Aggregator folds the records of many runs into per-function self time
	// distributions.
	Aggregator struct {
		MaxUniqueFunctions uint
		MaxNumOfExamples   uint
		Functions          map[uint64]FunctionTimes
		FunctionsMetadata  map[uint64]FunctionsMetadata
	}

	// FunctionTimes is the self time distribution of one function across
	// every run seen so far.
	FunctionTimes struct {
		Name        string
		Package     string
		SelfTimesNS []float64
		SumSelfNS   uint64
	}

	FunctionsMetadata struct {
		MaxVal   uint64
		WorstID  string
		Examples []string
	}

	FunctionMetrics struct {
		Name        string   `json:"name"`
		Package     string   `json:"package,omitempty"`
		Fingerprint uint64   `json:"fingerprint"`
		P75         uint64   `json:"p75"`
		P95         uint64   `json:"p95"`
		P99         uint64   `json:"p99"`
		Avg         float64  `json:"avg"`
		StdDev      float64  `json:"std_dev"`
		Sum         uint64   `json:"sum"`
		Count       uint64   `json:"count"`
		Worst       string   `json:"worst"`
		Examples    []string `json:"examples"`
	}
)

func NewAggregator(maxUniqueFunctions, maxNumOfExamples uint) Aggregator {
	return Aggregator{
		MaxUniqueFunctions: maxUniqueFunctions,
		MaxNumOfExamples:   maxNumOfExamples,
		Functions:          make(map[uint64]FunctionTimes),
		FunctionsMetadata:  make(map[uint64]FunctionsMetadata),
	}
}

// AddRecords folds one run's records into the aggregate. id identifies the
// run for the worst and example references.
func (ma *Aggregator) AddRecords(records []timetrack.Record, id string) {
	runSums := make(map[uint64]uint64)
	for _, r := range records {
		fp := fingerprint(r.Package, r.Function)
		fn, ok := ma.Functions[fp]
		if !ok {
			fn = FunctionTimes{Name: r.Function, Package: r.Package}
		}
		fn.SelfTimesNS = append(fn.SelfTimesNS, float64(r.SelfNS))
		fn.SumSelfNS += r.SelfNS
		ma.Functions[fp] = fn
		runSums[fp] += r.SelfNS
	}

	for fp, sum := range runSums {
		md, ok := ma.FunctionsMetadata[fp]
		if !ok {
			ma.FunctionsMetadata[fp] = FunctionsMetadata{
				MaxVal:   sum,
				WorstID:  id,
				Examples: []string{id},
			}
			continue
		}
		if sum > md.MaxVal {
			md.MaxVal = sum
			md.WorstID = id
		}
		if len(md.Examples) < int(ma.MaxNumOfExamples) {
			md.Examples = append(md.Examples, id)
		}
		ma.FunctionsMetadata[fp] = md
	}
}

// ToMetrics returns per-function metrics sorted by total self time, keeping
// at most MaxUniqueFunctions entries.
func (ma *Aggregator) ToMetrics() []FunctionMetrics {
	metrics := make([]FunctionMetrics, 0, len(ma.Functions))

	for fp, fn := range ma.Functions {
		s := quantile.Sample{Xs: fn.SelfTimesNS}
		s.Sort()
		metrics = append(metrics, FunctionMetrics{
			Name:        fn.Name,
			Package:     fn.Package,
			Fingerprint: fp,
			P75:         uint64(s.Percentile(0.75)),
			P95:         uint64(s.Percentile(0.95)),
			P99:         uint64(s.Percentile(0.99)),
			Avg:         s.Mean(),
			StdDev:      s.StdDev(),
			Sum:         fn.SumSelfNS,
			Count:       uint64(len(fn.SelfTimesNS)),
			Worst:       ma.FunctionsMetadata[fp].WorstID,
			Examples:    ma.FunctionsMetadata[fp].Examples,
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].Sum > metrics[j].Sum
	})
	if len(metrics) > int(ma.MaxUniqueFunctions) {
		metrics = metrics[:ma.MaxUniqueFunctions]
	}
	return metrics
}
