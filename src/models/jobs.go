package models

import "time"

// MJobRunStats tracks the execution history of one scheduled job.
type MJobRunStats struct {
	JobKey       string    `json:"jobKey"`
	Running      bool      `json:"running"`
	LastRun      time.Time `json:"lastRun"`
	LastSuccess  time.Time `json:"lastSuccess"`
	SuccessCount int64     `json:"successCount"`
	FailCount    int64     `json:"failCount"`
}
