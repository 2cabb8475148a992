package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexibleInt decodes from a JSON number or a numeric string. Form posts
// from the landing page send age as a string.
type FlexibleInt struct {
	Value int
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = FlexibleInt{}
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = FlexibleInt{}
			return nil
		}
	}

	if n, err := strconv.Atoi(raw); err == nil {
		*f = FlexibleInt{Value: n, Set: true}
		return nil
	}

	// Whole-valued floats such as 20.0 are accepted
	fl, err := strconv.ParseFloat(raw, 64)
	if err != nil || fl != float64(int(fl)) {
		return fmt.Errorf("not an integer: %s", raw)
	}
	*f = FlexibleInt{Value: int(fl), Set: true}
	return nil
}

// MarshalJSON implements json.Marshaler
func (f FlexibleInt) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(f.Value)), nil
}

// RegisterRequest is the API request for joining the waitlist
type RegisterRequest struct {
	Email        string      `json:"email"`
	CollegeName  string      `json:"college_name"`
	Age          FlexibleInt `json:"age"`
	City         string      `json:"city"`
	Instagram    string      `json:"instagram"`
	TeaserAnswer string      `json:"teaser_answer"`
	ReferredBy   string      `json:"referred_by"`
}

// RegisterResponse is the API response for a successful registration
type RegisterResponse struct {
	Success       bool   `json:"success"`
	ReferralCode  string `json:"referralCode"`
	QueuePosition int    `json:"queuePosition"`
	TotalUsers    int    `json:"totalUsers"`
	PriorityScore int    `json:"priorityScore"`
}

// QueueStatus is the API response for a queue lookup
type QueueStatus struct {
	QueuePosition int    `json:"queuePosition"`
	TotalUsers    int    `json:"totalUsers"`
	ReferralCode  string `json:"referralCode"`
	ReferralCount int    `json:"referralCount"`
	PriorityScore int    `json:"priorityScore"`
}

// StatusUpdateRequest is the admin request to change one registrant's status
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// Bulk admin actions
const (
	BulkActionStatus        = "status"
	BulkActionPriorityBoost = "priority_boost"
	BulkActionDelete        = "delete"
)

// BulkRequest applies one admin action to many registrants
type BulkRequest struct {
	Emails []string        `json:"emails"`
	Action string          `json:"action"`
	Value  json.RawMessage `json:"value,omitempty"`
}

// BulkResult reports how many registrants a bulk action touched
type BulkResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
}

// ClearRequest must carry the literal confirmation "DELETE"
type ClearRequest struct {
	Confirm string `json:"confirm"`
}

// RankedRegistrant is a registrant with its current queue position
type RankedRegistrant struct {
	*Registrant
	QueuePosition int `json:"queue_position"`
}

// RegistrantList is the admin listing in queue order
type RegistrantList struct {
	Total int                 `json:"total"`
	Users []*RankedRegistrant `json:"users"`
}

// WaitlistStats holds aggregate counts over all registrants
type WaitlistStats struct {
	TotalUsers       int     `json:"total_users"`
	AnsweredTeaser   int     `json:"answered_teaser"`
	ReferredUsers    int     `json:"referred_users"`
	AvgPriorityScore float64 `json:"avg_priority_score"`
	HasInstagram     int     `json:"has_instagram"`
	PendingUsers     int     `json:"pending_users"`
	ApprovedUsers    int     `json:"approved_users"`
	RejectedUsers    int     `json:"rejected_users"`
}

// Referral is one edge of the referral graph
type Referral struct {
	ID              int       `json:"id"`
	ReferrerEmail   string    `json:"referrer_email"`
	ReferredEmail   string    `json:"referred_email"`
	ReferrerCode    string    `json:"referrer_code"`
	ReferredCollege string    `json:"referred_college"`
	CreatedAt       time.Time `json:"created_at"`
}

// PriorityDistribution buckets registrants by score
type PriorityDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// TopReferrer is a registrant ranked by referral count
type TopReferrer struct {
	Email         string `json:"email"`
	ReferralCount int    `json:"referral_count"`
	College       string `json:"college"`
}

// ReferralStats summarizes referral activity
type ReferralStats struct {
	TotalReferrals  int           `json:"total_referrals"`
	ActiveReferrers int           `json:"active_referrers"`
	TopReferrers    []TopReferrer `json:"top_referrers"`
}

// Analytics is the admin analytics payload
type Analytics struct {
	RegistrationTimeline map[string]int       `json:"registration_timeline"`
	CollegeDistribution  map[string]int       `json:"college_distribution"`
	PriorityDistribution PriorityDistribution `json:"priority_distribution"`
	ReferralStats        ReferralStats        `json:"referral_stats"`
}
