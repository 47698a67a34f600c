package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestParseStatuses(t *testing.T) {
	got, err := order.ParseStatuses([]string{"requested", " ready", ""})
	require.NoError(t, err)
	assert.Equal(t, []order.Status{order.StatusRequested, order.StatusReady}, got)

	_, err = order.ParseStatuses([]string{"ready", "shipped"})
	require.ErrorIs(t, err, order.ErrInvalidStatus)
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  order.Policy
		current order.Status
		t       order.Transition
		want    order.Status
		wantErr error
	}{
		{name: "confirm_with_eta", current: order.StatusRequested, t: order.Transition{Status: "confirmed", EtaMinutes: intPtr(15)}, want: order.StatusConfirmed},
		{name: "confirm_without_eta", current: order.StatusRequested, t: order.Transition{Status: "confirmed"}, wantErr: order.ErrInvalidEta},
		{name: "zero_eta", current: order.StatusConfirmed, t: order.Transition{Status: "preparing", EtaMinutes: intPtr(0)}, wantErr: order.ErrInvalidEta},
		{name: "negative_eta", current: order.StatusRequested, t: order.Transition{Status: "confirmed", EtaMinutes: intPtr(-5)}, wantErr: order.ErrInvalidEta},
		{name: "unknown_status", current: order.StatusRequested, t: order.Transition{Status: "shipped"}, wantErr: order.ErrInvalidStatus},
		{name: "unknown_status_before_terminal", current: order.StatusCompleted, t: order.Transition{Status: "shipped"}, wantErr: order.ErrInvalidStatus},
		{name: "completed_is_terminal", current: order.StatusCompleted, t: order.Transition{Status: "ready"}, wantErr: order.ErrOrderAlreadyTerminal},
		{name: "cancelled_is_terminal", current: order.StatusCancelled, t: order.Transition{Status: "requested"}, wantErr: order.ErrOrderAlreadyTerminal},
		{name: "terminal_before_eta", current: order.StatusCancelled, t: order.Transition{Status: "confirmed", EtaMinutes: intPtr(-1)}, wantErr: order.ErrOrderAlreadyTerminal},
		{name: "lenient_skip", current: order.StatusConfirmed, t: order.Transition{Status: "completed"}, want: order.StatusCompleted},
		{name: "lenient_backwards", current: order.StatusReady, t: order.Transition{Status: "preparing"}, want: order.StatusPreparing},
		{name: "strict_skip", policy: order.PolicyStrict, current: order.StatusConfirmed, t: order.Transition{Status: "ready"}, want: order.StatusReady},
		{name: "strict_backwards", policy: order.PolicyStrict, current: order.StatusReady, t: order.Transition{Status: "preparing"}, wantErr: order.ErrInvalidTransition},
		{name: "strict_back_to_requested", policy: order.PolicyStrict, current: order.StatusConfirmed, t: order.Transition{Status: "requested"}, wantErr: order.ErrInvalidTransition},
		{name: "strict_cancel", policy: order.PolicyStrict, current: order.StatusReady, t: order.Transition{Status: "cancelled"}, want: order.StatusCancelled},
		{name: "note_only", current: order.StatusPreparing, t: order.Transition{Status: "preparing", VendorNote: strPtr("5 more minutes")}, want: order.StatusPreparing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.policy.Validate(tt.current, tt.t)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidationError(t *testing.T) {
	verr := &order.ValidationError{}
	assert.True(t, verr.Empty())

	verr.Add("items", "must contain at least one item")
	verr.Add("items", "ignored duplicate")
	verr.Add("customerName", "is required")

	require.ErrorIs(t, verr, order.ErrValidation)
	assert.Equal(t, "validation failed: customerName: is required; items: must contain at least one item", verr.Error())
}
