package fleet

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"available to workshop", StatusAvailable, StatusInWorkshop, true},
		{"available to accident", StatusAvailable, StatusAccident, true},
		{"available to out of service", StatusAvailable, StatusOutOfService, true},
		{"workshop receive", StatusInWorkshop, StatusAvailable, true},
		{"workshop to workshop", StatusInWorkshop, StatusInWorkshop, false},
		{"workshop to accident", StatusInWorkshop, StatusAccident, false},
		{"workshop to out of service", StatusInWorkshop, StatusOutOfService, true},
		{"accident close", StatusAccident, StatusAvailable, true},
		{"accident needs repair", StatusAccident, StatusInWorkshop, true},
		{"accident to out of service", StatusAccident, StatusOutOfService, true},
		{"out of service back via edit", StatusOutOfService, StatusAvailable, true},
		{"out of service to workshop", StatusOutOfService, StatusInWorkshop, false},
		{"out of service to accident", StatusOutOfService, StatusAccident, false},
		{"rented behaves like available", StatusRented, StatusInWorkshop, true},
		{"in_project behaves like available", StatusInProject, StatusAccident, true},
		{"no self transition", StatusAvailable, StatusAvailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, expected %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestValidateTransitionMessages(t *testing.T) {
	res := ValidateTransition(StatusInWorkshop, StatusInWorkshop)
	if res.OK {
		t.Fatalf("expected double workshop entry to be rejected")
	}
	if res.Message != "المركبة موجودة بالفعل في الورشة" {
		t.Errorf("unexpected message: %q", res.Message)
	}
	if res.Current != StatusInWorkshop {
		t.Errorf("expected current status echoed back, got %s", res.Current)
	}

	if res := ValidateTransition(StatusAvailable, StatusInWorkshop); !res.OK {
		t.Errorf("available -> in_workshop should pass, got %q", res.Message)
	}
	if res := ValidateTransition(StatusOutOfService, StatusInWorkshop); res.OK {
		t.Error("out_of_service -> in_workshop should be rejected")
	}
}

func TestHandoverEligibilityMessages(t *testing.T) {
	// The three ineligible states map to three distinct messages and anchors.
	ineligible := []Status{StatusInWorkshop, StatusAccident, StatusOutOfService}
	messages := map[string]bool{}
	anchors := map[string]bool{}
	for _, s := range ineligible {
		e := HandoverEligibility(s)
		if e.OK {
			t.Fatalf("status %s should be ineligible for handover", s)
		}
		if e.Message == "" || e.RedirectAnchor == "" {
			t.Fatalf("status %s missing message or anchor", s)
		}
		messages[e.Message] = true
		anchors[e.RedirectAnchor] = true
	}
	if len(messages) != 3 || len(anchors) != 3 {
		t.Errorf("expected 3 distinct messages and anchors, got %d and %d", len(messages), len(anchors))
	}

	for _, s := range []Status{StatusAvailable, StatusRented, StatusInProject} {
		if e := HandoverEligibility(s); !e.OK {
			t.Errorf("status %s should be eligible, got %q", s, e.Message)
		}
	}
}

func TestNormalizeAliases(t *testing.T) {
	if s, ok := NormalizeStatus("متاحة"); !ok || s != StatusAvailable {
		t.Errorf("Arabic alias for available not normalized, got %s", s)
	}
	if s, ok := NormalizeStatus("in_workshop"); !ok || s != StatusInWorkshop {
		t.Errorf("english token not normalized, got %s", s)
	}
	if _, ok := NormalizeStatus("bogus"); ok {
		t.Error("unknown token should not normalize")
	}

	if h, ok := NormalizeHandoverType("تسليم"); !ok || h != HandoverDelivery {
		t.Errorf("Arabic delivery alias not normalized, got %s", h)
	}
	if h, ok := NormalizeHandoverType("return"); !ok || h != HandoverReturn {
		t.Errorf("return token not normalized, got %s", h)
	}
}
