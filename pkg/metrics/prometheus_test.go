package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRegistration(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(RegistrationsTotal.WithLabelValues("success"))

	m.RecordRegistration("success")

	after := testutil.ToFloat64(RegistrationsTotal.WithLabelValues("success"))
	if after-before != 1 {
		t.Errorf("Expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordReferralCredit(t *testing.T) {
	m := NewMetrics()
	credited := testutil.ToFloat64(ReferralCreditsTotal.WithLabelValues("credited"))
	unmatched := testutil.ToFloat64(ReferralCreditsTotal.WithLabelValues("unmatched"))

	m.RecordReferralCredit(true)
	m.RecordReferralCredit(false)
	m.RecordReferralCredit(false)

	if got := testutil.ToFloat64(ReferralCreditsTotal.WithLabelValues("credited")) - credited; got != 1 {
		t.Errorf("Expected 1 credited, got %v", got)
	}
	if got := testutil.ToFloat64(ReferralCreditsTotal.WithLabelValues("unmatched")) - unmatched; got != 2 {
		t.Errorf("Expected 2 unmatched, got %v", got)
	}
}

func TestRecordStoreOperationCountsErrors(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("memory", "insert"))

	m.RecordStoreOperation("memory", "insert", time.Millisecond, nil)
	m.RecordStoreOperation("memory", "insert", time.Millisecond, errors.New("boom"))

	after := testutil.ToFloat64(StoreErrorsTotal.WithLabelValues("memory", "insert"))
	if after-before != 1 {
		t.Errorf("Expected exactly one recorded error, got %v", after-before)
	}
}

func TestUpdateRegistrantsCount(t *testing.T) {
	m := NewMetrics()
	m.UpdateRegistrantsCount("pending", 42)

	if got := testutil.ToFloat64(RegistrantsCount.WithLabelValues("pending")); got != 42 {
		t.Errorf("Expected gauge 42, got %v", got)
	}
}
