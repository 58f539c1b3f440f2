package domain

// Observation is a single validated (date, region) occurrence extracted from
// one source row. Observations are ephemeral: they are folded into a
// FileAggregate as soon as they are produced and never merged individually.
type Observation struct {
	Date   Date   `json:"date"`
	Region Region `json:"region"`
}

// AggregateKey identifies one cell of a cross-tabulation.
type AggregateKey struct {
	Date   Date   `json:"date"`
	Region Region `json:"region"`
}

// FileAggregate is the (date, region) -> count tally for a single source
// file. One spreadsheet row contributes exactly one count.
type FileAggregate map[AggregateKey]int

// Add folds one observation into the aggregate.
func (a FileAggregate) Add(obs Observation) {
	a[AggregateKey{Date: obs.Date, Region: obs.Region}]++
}

// Total returns the number of observations folded into the aggregate.
func (a FileAggregate) Total() int {
	n := 0
	for _, count := range a {
		n += count
	}
	return n
}

// RejectedRow describes a source row dropped during extraction, for the
// per-file diagnostics log.
type RejectedRow struct {
	Row       int    `json:"row"`
	RawDate   string `json:"raw_date"`
	RawRegion string `json:"raw_region"`
}

// SheetResult is the outcome of extracting one sheet: the validated
// observations plus the rows that were dropped with their raw values.
type SheetResult struct {
	Sheet        string        `json:"sheet"`
	Observations []Observation `json:"observations"`
	Rejected     []RejectedRow `json:"rejected,omitempty"`
}
