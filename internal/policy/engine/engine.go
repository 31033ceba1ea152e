package engine

import "context"

// AccessInput describes one authorization question: may this user perform
// this action on this resource?
type AccessInput struct {
	UserID        string
	Role          string
	Action        string // e.g. "lead.delete", "connector.update"
	ResourceType  string
	ResourceOwner string // owner user id, empty when not owner-scoped
}

// Evaluator answers authorization questions, layering org Rego policies over
// the built-in role ladder.
type Evaluator interface {
	Allow(ctx context.Context, orgID string, in AccessInput) (bool, error)
}
