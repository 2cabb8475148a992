package models

import "time"

// WaitlistSnapshot is a point-in-time copy of the waitlist counters, taken
// by the scheduler.
type WaitlistSnapshot struct {
	ID               int64     `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	TotalUsers       int       `json:"total_users"`
	PendingUsers     int       `json:"pending_users"`
	ApprovedUsers    int       `json:"approved_users"`
	RejectedUsers    int       `json:"rejected_users"`
	ReferredUsers    int       `json:"referred_users"`
	AvgPriorityScore float64   `json:"avg_priority_score"`
}

// NewWaitlistSnapshot copies the counters of stats taken at ts
func NewWaitlistSnapshot(stats *WaitlistStats, ts time.Time) *WaitlistSnapshot {
	return &WaitlistSnapshot{
		Timestamp:        ts.UTC(),
		TotalUsers:       stats.TotalUsers,
		PendingUsers:     stats.PendingUsers,
		ApprovedUsers:    stats.ApprovedUsers,
		RejectedUsers:    stats.RejectedUsers,
		ReferredUsers:    stats.ReferredUsers,
		AvgPriorityScore: stats.AvgPriorityScore,
	}
}
