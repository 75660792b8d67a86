package utils

import "testing"

func TestMatchesPermission(t *testing.T) {
	tests := []struct {
		name     string
		granted  string
		required string
		expected bool
	}{
		{"exact match", "vehicle:create", "vehicle:create", true},
		{"different action", "vehicle:create", "vehicle:read", false},
		{"different resource", "vehicle:create", "tracking:create", false},

		{"full wildcard", "*", "vehicle:delete", true},
		{"star-star wildcard", "*:*", "workshop:update", true},

		{"resource wildcard matches create", "vehicle:*", "vehicle:create", true},
		{"resource wildcard matches delete", "vehicle:*", "vehicle:delete", true},
		{"resource wildcard other resource", "vehicle:*", "tracking:read", false},

		{"action wildcard matches vehicle", "*:read", "vehicle:read", true},
		{"action wildcard matches tracking", "*:read", "tracking:read", true},
		{"action wildcard other action", "*:read", "vehicle:create", false},

		{"single token exact", "admin", "admin", true},
		{"single token vs pair", "admin", "vehicle:read", false},
		{"empty granted", "", "vehicle:read", false},
		{"empty required", "vehicle:read", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesPermission(tt.granted, tt.required); got != tt.expected {
				t.Errorf("MatchesPermission(%q, %q) = %v, want %v",
					tt.granted, tt.required, got, tt.expected)
			}
		})
	}
}

func TestMatchesPermission_RoleSets(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required string
		expected bool
	}{
		{"admin covers everything", []string{"*"}, "vehicle:delete", true},
		{"supervisor approves operations", []string{"vehicle:read", "operation:*"}, "operation:approve", true},
		{"supervisor cannot delete vehicles", []string{"vehicle:read", "operation:*"}, "vehicle:delete", false},
		{"driver records handovers", []string{"handover:create", "vehicle:read"}, "handover:create", true},
		{"driver cannot approve", []string{"handover:create", "vehicle:read"}, "operation:approve", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := false
			for _, p := range tt.granted {
				if MatchesPermission(p, tt.required) {
					got = true
					break
				}
			}
			if got != tt.expected {
				t.Errorf("permissions %v for %q = %v, want %v", tt.granted, tt.required, got, tt.expected)
			}
		})
	}
}
