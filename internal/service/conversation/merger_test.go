package conversation

import (
	"reflect"
	"testing"
	"time"

	"github.com/bafoka-labs/voicebank/internal/domain"
)

func TestMerge_UnknownLeavesPendingUntouched(t *testing.T) {
	// Arrange
	now := time.Now()
	existing := &domain.PendingIntent{
		Intent:    domain.IntentTransfer,
		Collected: map[string]string{"amount": "5000"},
		Missing:   []string{"senderPhone", "recipientPhone"},
	}
	turn := &domain.NLUResult{Intent: domain.IntentUnknown}

	// Act
	outcome := Merge(existing, turn, now)

	// Assert
	if !outcome.Untouched {
		t.Error("expected outcome to be untouched")
	}
	if outcome.Pending != existing {
		t.Error("expected existing pending intent to survive unchanged")
	}
	if outcome.IsComplete || outcome.ExecutionReady {
		t.Error("unknown turn must not report completion")
	}
}

func TestMerge_UnknownWithNoPending(t *testing.T) {
	outcome := Merge(nil, &domain.NLUResult{Intent: domain.IntentUnknown}, time.Now())

	if !outcome.Untouched {
		t.Error("expected outcome to be untouched")
	}
	if outcome.Pending != nil {
		t.Errorf("expected nil pending, got %+v", outcome.Pending)
	}
}

func TestMerge_FirstTurnStartsPending(t *testing.T) {
	// Arrange
	now := time.Now()
	turn := &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"amount": "5000"},
	}

	// Act
	outcome := Merge(nil, turn, now)

	// Assert
	if outcome.Pending == nil {
		t.Fatal("expected a pending intent")
	}
	if outcome.Pending.Intent != domain.IntentTransfer {
		t.Errorf("expected intent %q, got %q", domain.IntentTransfer, outcome.Pending.Intent)
	}
	wantMissing := []string{"senderPhone", "recipientPhone"}
	if !reflect.DeepEqual(outcome.Pending.Missing, wantMissing) {
		t.Errorf("expected missing %v, got %v", wantMissing, outcome.Pending.Missing)
	}
	if outcome.IsComplete {
		t.Error("transfer with only an amount must not be complete")
	}
	if !outcome.Pending.RecordedAt.Equal(now) {
		t.Errorf("expected RecordedAt %v, got %v", now, outcome.Pending.RecordedAt)
	}
}

func TestMerge_SameIntentUnionNewValuesWin(t *testing.T) {
	// Arrange
	existing := &domain.PendingIntent{
		Intent: domain.IntentTransfer,
		Collected: map[string]string{
			"senderPhone": "690111111",
			"amount":      "1000",
		},
		Missing: []string{"recipientPhone"},
	}
	turn := &domain.NLUResult{
		Intent: domain.IntentTransfer,
		Parameters: map[string]string{
			"recipientPhone": "690222222",
			"amount":         "2500", // correction overrides the old value
		},
	}

	// Act
	outcome := Merge(existing, turn, time.Now())

	// Assert
	want := map[string]string{
		"senderPhone":    "690111111",
		"recipientPhone": "690222222",
		"amount":         "2500",
	}
	if !reflect.DeepEqual(outcome.Pending.Collected, want) {
		t.Errorf("expected collected %v, got %v", want, outcome.Pending.Collected)
	}
	if len(outcome.Pending.Missing) != 0 {
		t.Errorf("expected no missing params, got %v", outcome.Pending.Missing)
	}
	if !outcome.IsComplete {
		t.Error("expected completion once every required slot is filled")
	}
	if !outcome.ExecutionReady {
		t.Error("expected execution readiness without a security alert")
	}
}

func TestMerge_TopicSwitchDiscardsOldSlots(t *testing.T) {
	// Arrange
	existing := &domain.PendingIntent{
		Intent: domain.IntentTransfer,
		Collected: map[string]string{
			"senderPhone": "690111111",
			"amount":      "1000",
		},
	}
	turn := &domain.NLUResult{
		Intent:     domain.IntentBalance,
		Parameters: map[string]string{"phoneNumber": "690333333"},
	}

	// Act
	outcome := Merge(existing, turn, time.Now())

	// Assert
	if outcome.Pending.Intent != domain.IntentBalance {
		t.Errorf("expected intent %q, got %q", domain.IntentBalance, outcome.Pending.Intent)
	}
	if _, carried := outcome.Pending.Collected["amount"]; carried {
		t.Error("topic switch must not carry slots from the previous intent")
	}
	if !outcome.IsComplete {
		t.Error("balance check with a phone number should be complete")
	}
}

func TestMerge_ValidationErrorsBlockCompletion(t *testing.T) {
	// Arrange: every slot filled, but the NLU flagged a bad value.
	turn := &domain.NLUResult{
		Intent:           domain.IntentBalance,
		Parameters:       map[string]string{"phoneNumber": "123"},
		ValidationErrors: []string{"phoneNumber: invalid Cameroon mobile number"},
	}

	// Act
	outcome := Merge(nil, turn, time.Now())

	// Assert
	if outcome.IsComplete {
		t.Error("validation errors must block completion")
	}
	if outcome.ExecutionReady {
		t.Error("validation errors must block execution")
	}
}

func TestMerge_SecurityAlertBlocksExecutionOnly(t *testing.T) {
	// Arrange
	turn := &domain.NLUResult{
		Intent:        domain.IntentBalance,
		Parameters:    map[string]string{"phoneNumber": "690123456"},
		SecurityAlert: true,
	}

	// Act
	outcome := Merge(nil, turn, time.Now())

	// Assert
	if !outcome.IsComplete {
		t.Error("security alert must not affect completeness")
	}
	if outcome.ExecutionReady {
		t.Error("security alert must block execution readiness")
	}
}

func TestMerge_MissingRecomputedFromSchema(t *testing.T) {
	// Arrange: the NLU's own missing list is stale on purpose.
	existing := &domain.PendingIntent{
		Intent:    domain.IntentCreateAccount,
		Collected: map[string]string{"phoneNumber": "690123456", "name": "Amina"},
	}
	turn := &domain.NLUResult{
		Intent:        domain.IntentCreateAccount,
		Parameters:    map[string]string{"age": "30"},
		MissingParams: []string{"phoneNumber", "name", "sex"},
	}

	// Act
	outcome := Merge(existing, turn, time.Now())

	// Assert
	want := []string{"sex"}
	if !reflect.DeepEqual(outcome.Pending.Missing, want) {
		t.Errorf("expected missing %v, got %v", want, outcome.Pending.Missing)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	// Arrange
	now := time.Now()
	turn := &domain.NLUResult{
		Intent:     domain.IntentTransfer,
		Parameters: map[string]string{"senderPhone": "690111111", "amount": "1000"},
	}

	// Act: replay the same turn against its own outcome.
	first := Merge(nil, turn, now)
	second := Merge(first.Pending, turn, now)

	// Assert
	if !reflect.DeepEqual(first.Pending, second.Pending) {
		t.Errorf("re-merging the same turn changed the pending intent:\nfirst  %+v\nsecond %+v", first.Pending, second.Pending)
	}
}
