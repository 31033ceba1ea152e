package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP method and chi route pattern.
type ActionResource struct {
	Action   string
	Resource string
}

// Membership route overrides: audit as user_added, user_removed, role_changed on resource "user".
var routeOverrides = map[string]ActionResource{
	"POST /api/v1/members":                       {Action: "user_added", Resource: "user"},
	"DELETE /api/v1/members/{userID}":            {Action: "user_removed", Resource: "user"},
	"PUT /api/v1/members/{userID}":               {Action: "role_changed", Resource: "user"},
	"POST /api/v1/leads/{leadID}/convert":        {Action: "convert", Resource: "lead"},
	"PUT /api/v1/opportunities/{oppID}/stage":    {Action: "stage_change", Resource: "opportunity"},
	"POST /api/v1/opportunities/{oppID}/close":   {Action: "close", Resource: "opportunity"},
	"PUT /api/v1/opportunities/{oppID}/meddpicc": {Action: "assess", Resource: "opportunity"},
	"POST /api/v1/orgs/{orgID}/suspend":          {Action: "suspend", Resource: "organization"},
	"POST /api/v1/sync/push":                     {Action: "push", Resource: "sync"},
	"POST /api/v1/sync/devices":                  {Action: "register", Resource: "device"},
}

// resourceNames maps the collection path segment to the audited resource name.
var resourceNames = map[string]string{
	"leads":         "lead",
	"contacts":      "contact",
	"opportunities": "opportunity",
	"orgs":          "organization",
	"members":       "user",
	"quotas":        "quota",
	"dashboards":    "dashboard",
	"exports":       "export",
	"connectors":    "connector",
	"policies":      "policy",
	"kpis":          "kpi",
	"scoring":       "scoring_config",
	"audit":         "audit",
	"sync":          "sync",
	"auth":          "auth",
}

// ParseRoute returns action and resource for an HTTP method and chi route pattern
// (e.g. "PUT", "/api/v1/leads/{id}"). Action is a verb: get, list, create, update,
// delete; overrides map membership and lifecycle routes to domain verbs.
func ParseRoute(method, pattern string) ActionResource {
	// Subrouter root routes match with a trailing slash in chi's RoutePattern.
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}

	rest := strings.TrimPrefix(pattern, "/api/v1/")
	if rest == pattern {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	segments := strings.Split(rest, "/")
	resource := resourceNames[segments[0]]
	if resource == "" {
		resource = segments[0]
	}

	hasParam := strings.Contains(pattern, "{")
	var action string
	switch method {
	case "GET":
		if hasParam {
			action = "get"
		} else {
			action = "list"
		}
	case "POST":
		action = "create"
	case "PUT", "PATCH":
		action = "update"
	case "DELETE":
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	return ActionResource{Action: action, Resource: resource}
}
