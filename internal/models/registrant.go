package models

import "time"

// Registrant statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Registrant is one entry on the waitlist
type Registrant struct {
	ID            int64     `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	CollegeName   string    `json:"college_name" db:"college_name"`
	Age           int       `json:"age" db:"age"`
	City          string    `json:"city" db:"city"`
	Instagram     string    `json:"instagram,omitempty" db:"instagram"`
	TeaserAnswer  string    `json:"teaser_answer,omitempty" db:"teaser_answer"`
	ReferralCode  string    `json:"referral_code" db:"referral_code"`
	ReferredBy    string    `json:"referred_by,omitempty" db:"referred_by"`
	ReferralCount int       `json:"referral_count" db:"referral_count"`
	PriorityScore int       `json:"priority_score" db:"priority_score"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	Status        string    `json:"status" db:"status"` // pending, approved, rejected
}

// Clone returns a copy that can be handed out without sharing state
func (r *Registrant) Clone() *Registrant {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// IsValidStatus reports whether status is one an admin may assign
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
