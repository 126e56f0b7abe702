package model

import "time"

// CycleStatus is the terminal state of a cycle.
type CycleStatus string

const (
	CycleStatusRunning  CycleStatus = "running"
	CycleStatusComplete CycleStatus = "complete"
	CycleStatusFailed   CycleStatus = "failed"
)

// CycleReport summarises one cycle for logs and the status endpoint.
type CycleReport struct {
	ID             string         `json:"id"`
	Status         CycleStatus    `json:"status"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at,omitempty"`
	AgenciesOK     int            `json:"agencies_ok"`
	AgenciesFailed int            `json:"agencies_failed"`
	NewURLs        map[string]int `json:"new_urls"`
	Classified     int            `json:"classified"`
	DetailPages    int            `json:"detail_pages"`
	Matches        int            `json:"matches"`
	Notified       bool           `json:"notified"`
	Persisted      bool           `json:"persisted"`
	Error          string         `json:"error,omitempty"`
}

// TotalNewURLs sums the per-agency new URL counts.
func (r *CycleReport) TotalNewURLs() int {
	n := 0
	for _, c := range r.NewURLs {
		n += c
	}
	return n
}
