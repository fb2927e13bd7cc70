package domain

import (
	"errors"
	"math"
	"testing"
)

func TestApplyMovement(t *testing.T) {
	tests := []struct {
		name          string
		previous      int64
		kind          MovementKind
		quantity      int64
		wantDelta     int64
		wantResulting int64
		wantErr       error
	}{
		{name: "inbound adds", previous: 0, kind: MovementInbound, quantity: 100, wantDelta: 100, wantResulting: 100},
		{name: "outbound subtracts", previous: 100, kind: MovementOutbound, quantity: 30, wantDelta: -30, wantResulting: 70},
		{name: "adjustment sets absolute target", previous: 70, kind: MovementAdjustment, quantity: 50, wantDelta: -20, wantResulting: 50},
		{name: "adjustment upwards", previous: 5, kind: MovementAdjustment, quantity: 12, wantDelta: 7, wantResulting: 12},
		{name: "adjustment to zero", previous: 5, kind: MovementAdjustment, quantity: 0, wantDelta: -5, wantResulting: 0},
		{name: "outbound clamps at zero", previous: 5, kind: MovementOutbound, quantity: 20, wantDelta: -5, wantResulting: 0},
		{name: "transfer clamps at zero", previous: 3, kind: MovementTransfer, quantity: 4, wantDelta: -3, wantResulting: 0},
		{name: "inbound zero rejected", previous: 10, kind: MovementInbound, quantity: 0, wantErr: ErrInvalidQuantity},
		{name: "inbound negative rejected", previous: 10, kind: MovementInbound, quantity: -1, wantErr: ErrInvalidQuantity},
		{name: "inbound up to max balance", previous: math.MaxInt64 - 10, kind: MovementInbound, quantity: 10, wantDelta: 10, wantResulting: math.MaxInt64},
		{name: "inbound overflow rejected", previous: math.MaxInt64, kind: MovementInbound, quantity: 10, wantErr: ErrInvalidQuantity},
		{name: "inbound overflow from large balance rejected", previous: math.MaxInt64 - 5, kind: MovementInbound, quantity: 6, wantErr: ErrInvalidQuantity},
		{name: "outbound huge quantity clamps", previous: 5, kind: MovementOutbound, quantity: math.MaxInt64, wantDelta: -5, wantResulting: 0},
		{name: "outbound zero rejected", previous: 10, kind: MovementOutbound, quantity: 0, wantErr: ErrInvalidQuantity},
		{name: "negative adjustment rejected", previous: 10, kind: MovementAdjustment, quantity: -1, wantErr: ErrNegativeResultingBalance},
		{name: "unknown kind rejected", previous: 10, kind: MovementKind("gift"), quantity: 1, wantErr: ErrInvalidMovementKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, resulting, err := ApplyMovement(tt.previous, tt.kind, tt.quantity)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if delta != tt.wantDelta {
				t.Errorf("expected delta %d, got %d", tt.wantDelta, delta)
			}
			if resulting != tt.wantResulting {
				t.Errorf("expected resulting %d, got %d", tt.wantResulting, resulting)
			}
			if resulting != tt.previous+delta {
				t.Errorf("resulting %d != previous %d + delta %d", resulting, tt.previous, delta)
			}
		})
	}
}

func TestApplyMovement_Sequence(t *testing.T) {
	steps := []struct {
		kind     MovementKind
		quantity int64
	}{
		{MovementInbound, 100},
		{MovementOutbound, 30},
		{MovementAdjustment, 50},
	}

	var balance int64
	var history []*Movement
	for _, s := range steps {
		delta, resulting, err := ApplyMovement(balance, s.kind, s.quantity)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		history = append(history, &Movement{
			Kind:              s.kind,
			RequestedQuantity: s.quantity,
			QuantityDelta:     delta,
			PreviousBalance:   balance,
			ResultingBalance:  resulting,
		})
		balance = resulting
	}

	if balance != 50 {
		t.Fatalf("expected balance 50, got %d", balance)
	}

	folded, brokenAt := FoldMovements(history)
	if folded != balance {
		t.Errorf("fold %d does not match balance %d", folded, balance)
	}
	if brokenAt != -1 {
		t.Errorf("expected intact chain, broken at %d", brokenAt)
	}
}

func TestFoldMovements_BrokenChain(t *testing.T) {
	history := []*Movement{
		{QuantityDelta: 10, PreviousBalance: 0, ResultingBalance: 10},
		{QuantityDelta: -2, PreviousBalance: 9, ResultingBalance: 7},
	}

	balance, brokenAt := FoldMovements(history)
	if balance != 8 {
		t.Errorf("expected folded balance 8, got %d", balance)
	}
	if brokenAt != 1 {
		t.Errorf("expected chain broken at 1, got %d", brokenAt)
	}
}

func TestFoldMovements_Empty(t *testing.T) {
	balance, brokenAt := FoldMovements(nil)
	if balance != 0 || brokenAt != -1 {
		t.Errorf("expected (0, -1), got (%d, %d)", balance, brokenAt)
	}
}

func TestMovement_Clamped(t *testing.T) {
	clamped := &Movement{Kind: MovementOutbound, RequestedQuantity: 20, QuantityDelta: -5}
	if !clamped.Clamped() {
		t.Error("expected clamped outbound movement")
	}

	full := &Movement{Kind: MovementOutbound, RequestedQuantity: 5, QuantityDelta: -5}
	if full.Clamped() {
		t.Error("expected unclamped outbound movement")
	}

	adjustment := &Movement{Kind: MovementAdjustment, RequestedQuantity: 0, QuantityDelta: -5}
	if adjustment.Clamped() {
		t.Error("adjustments are never clamped")
	}
}

func TestParseMovementKind(t *testing.T) {
	tests := []struct {
		input string
		want  MovementKind
	}{
		{"inbound", MovementInbound},
		{"Entrada", MovementInbound},
		{"SAIDA", MovementOutbound},
		{"Saída", MovementOutbound},
		{" ajuste ", MovementAdjustment},
		{"Transferência", MovementTransfer},
		{"transfer", MovementTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMovementKind(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := ParseMovementKind("borrowed"); !errors.Is(err, ErrInvalidMovementKind) {
		t.Errorf("expected ErrInvalidMovementKind, got %v", err)
	}
}
