// Package jobs defines the background task types shared between the API
// process (which enqueues them) and the worker process (which runs them).
package jobs

const (
	TaskPopulatePool = "cache:populate"
	TaskRefillPool   = "cache:refill"
	TaskSweep        = "cache:sweep"
)

// Candidate is one upstream photo carried inside a populate task payload.
type Candidate struct {
	PhotoID          string `json:"photo_id"`
	RawURL           string `json:"raw_url"`
	Photographer     string `json:"photographer"`
	DownloadLocation string `json:"download_location,omitempty"`
}

// PopulatePoolPayload carries the candidates fetched during a cache miss so
// the worker can fill the pool without another random-photo call.
type PopulatePoolPayload struct {
	CacheKey   string      `json:"cache_key"`
	Candidates []Candidate `json:"candidates"`
}

// RefillPoolPayload requests a partial refill for one cache key.
type RefillPoolPayload struct {
	CacheKey string `json:"cache_key"`
}
