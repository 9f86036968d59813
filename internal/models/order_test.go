package models

import "testing"

func TestPaidOrderOnlyCompletes(t *testing.T) {
	offered := OfferedTransitions(OrderPaid)
	if len(offered) != 1 || offered[0] != OrderCompleted {
		t.Fatalf("paid order transitions = %v, want [completed]", offered)
	}
	if CanTransition(OrderPaid, OrderCancelled) {
		t.Fatal("paid order must not be cancellable")
	}
	if !CanTransition(OrderPaid, OrderCompleted) {
		t.Fatal("paid order must be completable")
	}
}

func TestTerminalStatusesOfferNothing(t *testing.T) {
	for _, st := range []OrderStatus{OrderCompleted, OrderCancelled} {
		if got := OfferedTransitions(st); len(got) != 0 {
			t.Errorf("%s offers %v, want none", st, got)
		}
	}
}

func TestNormalizeOrderStatus(t *testing.T) {
	cases := []struct {
		in   string
		want OrderStatus
		ok   bool
	}{
		{"Cancelled", OrderCancelled, true},
		{"pending", OrderPending, true},
		{" Paid ", OrderPaid, true},
		{"PREPARING", OrderPreparing, true},
		{"refunded", OrderStatus("refunded"), false},
	}
	for _, tc := range cases {
		got, ok := NormalizeOrderStatus(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizeOrderStatus(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	if r, ok := NormalizeRole("Owner"); !ok || r != RoleOwner {
		t.Fatalf("NormalizeRole(Owner) = (%q, %v)", r, ok)
	}
	if _, ok := NormalizeRole("superhero"); ok {
		t.Fatal("unknown role must not normalize")
	}
}

func TestDashboardPath(t *testing.T) {
	if got := DashboardPath(RoleChef); got != "/chef-dashboard" {
		t.Fatalf("chef dashboard = %q", got)
	}
	if got := DashboardPath(Role("nope")); got != "/login" {
		t.Fatalf("unknown role dashboard = %q", got)
	}
}
