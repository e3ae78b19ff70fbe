package collector

// Outcome is the overall verdict of one collection cycle.
type Outcome uint8

const (
	// Success: fetch succeeded and both sinks accepted the snapshot.
	Success Outcome = iota
	// PartialFailure: fetch succeeded but at least one sink write failed.
	PartialFailure
	// Aborted: no snapshot was produced (permanent error, exhausted
	// retries, or an invalid payload).
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case PartialFailure:
		return "partial_failure"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// CycleResult reports what happened during one fetch-and-fan-out cycle.
// Nothing is thrown away silently: the caller is expected to surface
// every Aborted and PartialFailure result.
type CycleResult struct {
	Symbol   string
	Outcome  Outcome
	Attempts int // gateway calls made, including the successful one

	FetchErr   error // set when Outcome == Aborted
	CacheErr   error // set when the cache write failed
	DurableErr error // set when the durable write failed
}

// FailedSinks names the sinks that rejected the snapshot.
func (r CycleResult) FailedSinks() []string {
	var sinks []string
	if r.CacheErr != nil {
		sinks = append(sinks, "cache")
	}
	if r.DurableErr != nil {
		sinks = append(sinks, "durable")
	}
	return sinks
}
