package model

import "time"

// RecomputeRequest asks the pipeline to recalculate an athlete's MPI as of a day.
type RecomputeRequest struct {
	ID         string    // request id, for logs
	AthleteID  string    // athlete to recompute
	AsOf       time.Time // calculation instant
	Reason     string    // what triggered it, e.g. "session_recorded", "sweep"
	EnqueuedAt time.Time
}

// Key identifies requests that produce the same snapshot; pending duplicates collapse on it.
func (r RecomputeRequest) Key() string {
	return r.AthleteID + "@" + Day(r.AsOf).Format(DateLayout)
}
