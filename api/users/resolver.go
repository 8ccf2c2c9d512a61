package users

import (
	"context"
	"fmt"
	"strings"
)

// Resolver maps external panel identifiers to users, creating them on first
// sight. The memo cache lives for one import run only; across runs the
// unique constraint on user_id is what keeps identity consistent.
type Resolver struct {
	store Store
	memo  map[string]*User
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, memo: make(map[string]*User)}
}

// GetOrCreate returns the user for an external id, creating an empty user
// under the given company when none exists yet.
func (r *Resolver) GetOrCreate(ctx context.Context, externalID, companyID string) (*User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("empty user id")
	}
	if u, ok := r.memo[externalID]; ok {
		return u, nil
	}
	u, err := r.store.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", externalID, err)
	}
	if u == nil {
		u, err = r.store.Upsert(ctx, UpsertPayload{UserID: externalID, CompanyID: companyID})
		if err != nil {
			return nil, fmt.Errorf("create user %s: %w", externalID, err)
		}
	}
	r.memo[externalID] = u
	return u, nil
}

// Apply runs an aggregate-delta upsert and refreshes the memo entry so later
// rows in the same run observe the updated aggregates.
func (r *Resolver) Apply(ctx context.Context, p UpsertPayload) (*User, error) {
	u, err := r.store.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", p.UserID, err)
	}
	r.memo[p.UserID] = u
	return u, nil
}
