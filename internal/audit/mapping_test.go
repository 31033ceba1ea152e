package audit

import "testing"

func TestParseRoute(t *testing.T) {
	tests := []struct {
		method, pattern string
		want            ActionResource
	}{
		{"GET", "/api/v1/leads", ActionResource{Action: "list", Resource: "lead"}},
		{"GET", "/api/v1/leads/{leadID}/", ActionResource{Action: "get", Resource: "lead"}},
		{"POST", "/api/v1/leads", ActionResource{Action: "create", Resource: "lead"}},
		{"PUT", "/api/v1/contacts/{contactID}/", ActionResource{Action: "update", Resource: "contact"}},
		{"DELETE", "/api/v1/opportunities/{oppID}/", ActionResource{Action: "delete", Resource: "opportunity"}},
		{"POST", "/api/v1/leads/{leadID}/convert", ActionResource{Action: "convert", Resource: "lead"}},
		{"PUT", "/api/v1/opportunities/{oppID}/stage", ActionResource{Action: "stage_change", Resource: "opportunity"}},
		{"POST", "/api/v1/opportunities/{oppID}/close", ActionResource{Action: "close", Resource: "opportunity"}},
		{"PUT", "/api/v1/opportunities/{oppID}/meddpicc", ActionResource{Action: "assess", Resource: "opportunity"}},
		{"POST", "/api/v1/members", ActionResource{Action: "user_added", Resource: "user"}},
		{"DELETE", "/api/v1/members/{userID}", ActionResource{Action: "user_removed", Resource: "user"}},
		{"PUT", "/api/v1/members/{userID}", ActionResource{Action: "role_changed", Resource: "user"}},
		{"POST", "/api/v1/orgs/{orgID}/suspend", ActionResource{Action: "suspend", Resource: "organization"}},
		{"GET", "/healthz", ActionResource{Action: "get", Resource: "unknown"}},
	}

	for _, tc := range tests {
		got := ParseRoute(tc.method, tc.pattern)
		if got != tc.want {
			t.Errorf("ParseRoute(%q, %q) = %+v, want %+v", tc.method, tc.pattern, got, tc.want)
		}
	}
}
