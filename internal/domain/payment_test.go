package domain

import (
	"testing"
	"time"
)

func TestPendingExternalPayment_Validate(t *testing.T) {
	tests := []struct {
		name     string
		pending  *PendingExternalPayment
		wantErr  bool
		errCount int
	}{
		{
			name: "valid marker",
			pending: &PendingExternalPayment{
				OriginalOrderID: 42,
				TransactionID:   "t1",
				CreatedAt:       time.Now(),
			},
			wantErr:  false,
			errCount: 0,
		},
		{
			name: "missing order ID",
			pending: &PendingExternalPayment{
				TransactionID: "t1",
			},
			wantErr:  true,
			errCount: 1,
		},
		{
			name: "missing transaction",
			pending: &PendingExternalPayment{
				OriginalOrderID: 42,
			},
			wantErr:  true,
			errCount: 1,
		},
		{
			name:     "multiple errors",
			pending:  &PendingExternalPayment{},
			wantErr:  true,
			errCount: 1, // switch stops at first case
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.pending.Validate()

			if tt.wantErr && len(errs) == 0 {
				t.Error("expected validation errors, got none")
			}

			if !tt.wantErr && len(errs) > 0 {
				t.Errorf("expected no errors, got %d: %v", len(errs), errs)
			}

			if tt.wantErr && len(errs) != tt.errCount {
				t.Errorf("expected %d errors, got %d: %v", tt.errCount, len(errs), errs)
			}
		})
	}
}

func TestGatewayReturn_Succeeded(t *testing.T) {
	if !(GatewayReturn{OrderID: 42, ResultCode: "0"}).Succeeded() {
		t.Fatal("result code 0 must be success")
	}
	for _, code := range []string{"1", "", "49", "00"} {
		if (GatewayReturn{OrderID: 42, ResultCode: code}).Succeeded() {
			t.Fatalf("result code %q must be failure", code)
		}
	}
}
