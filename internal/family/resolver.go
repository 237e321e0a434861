// Package family resolves raw participant identifiers into typed
// participants. A participant is either an account-holder (profile) or an
// account-less family member; the distinction is decided here, once, and
// never re-inferred downstream.
package family

import (
	"fmt"

	"github.com/dukerupert/homehq/internal/apperr"
	"github.com/dukerupert/homehq/internal/store"
)

type Kind string

const (
	KindAccount Kind = "account"
	KindMember  Kind = "member"
)

// Participant is the tagged union handed to the suggestion matcher and the
// persistence layer. Role is set for accounts, IsAdult for members.
type Participant struct {
	Kind    Kind   `json:"kind"`
	ID      int64  `json:"id"`
	Role    string `json:"role,omitempty"`
	IsAdult bool   `json:"is_adult,omitempty"`
}

type Resolver struct {
	profiles *store.ProfileStore
	members  *store.FamilyMemberStore
}

func NewResolver(profiles *store.ProfileStore, members *store.FamilyMemberStore) *Resolver {
	return &Resolver{profiles: profiles, members: members}
}

// Resolve looks up each id within the family and silently drops ids that do
// not resolve. Suggestion previews use this mode: a stale id should not
// break a preview.
func (r *Resolver) Resolve(familyID int64, accountIDs, memberIDs []int64) ([]Participant, error) {
	participants, _, err := r.resolve(familyID, accountIDs, memberIDs)
	return participants, err
}

// ResolveStrict looks up each id within the family and fails on the first
// id that is missing or belongs to another family. Event persistence uses
// this mode: a cross-family participant is a FORBIDDEN condition.
func (r *Resolver) ResolveStrict(familyID int64, accountIDs, memberIDs []int64) ([]Participant, error) {
	participants, dropped, err := r.resolve(familyID, accountIDs, memberIDs)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		return nil, apperr.New(apperr.CodeForbidden, "participant does not belong to this family").
			WithDetails(map[string]any{"invalid_ids": dropped})
	}
	return participants, nil
}

func (r *Resolver) resolve(familyID int64, accountIDs, memberIDs []int64) ([]Participant, []string, error) {
	var participants []Participant
	var dropped []string

	for _, id := range accountIDs {
		p, err := r.profiles.GetByIDInFamily(familyID, id)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve account participant: %w", err)
		}
		if p == nil {
			dropped = append(dropped, fmt.Sprintf("account:%d", id))
			continue
		}
		participants = append(participants, Participant{
			Kind: KindAccount,
			ID:   p.ID,
			Role: p.Role,
		})
	}

	for _, id := range memberIDs {
		m, err := r.members.GetByID(familyID, id)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve member participant: %w", err)
		}
		if m == nil {
			dropped = append(dropped, fmt.Sprintf("member:%d", id))
			continue
		}
		participants = append(participants, Participant{
			Kind:    KindMember,
			ID:      m.ID,
			IsAdult: m.IsAdult,
		})
	}

	return participants, dropped, nil
}
