package suggestion

import (
	"context"
	"time"

	"github.com/dukerupert/homehq/internal/family"
	"github.com/dukerupert/homehq/internal/store"
)

// Request is the suggestion-engine input contract. It is the same whether
// the engine runs in-process or behind HTTP.
type Request struct {
	Title                 string    `json:"title"`
	StartTime             time.Time `json:"start_time"`
	ParticipantAccountIDs []int64   `json:"participant_account_ids"`
	ParticipantMemberIDs  []int64   `json:"participant_member_ids"`
	RequesterRole         string    `json:"requester_role"`
}

// Engine produces task suggestions for an event draft.
type Engine interface {
	Suggest(ctx context.Context, familyID int64, req Request) ([]Suggestion, error)
}

// Service is the in-process engine: it resolves participants leniently,
// loads the family's children, and runs the pure matcher.
type Service struct {
	catalog  *Catalog
	resolver *family.Resolver
	members  *store.FamilyMemberStore
}

func NewService(catalog *Catalog, resolver *family.Resolver, members *store.FamilyMemberStore) *Service {
	return &Service{catalog: catalog, resolver: resolver, members: members}
}

func (s *Service) Suggest(ctx context.Context, familyID int64, req Request) ([]Suggestion, error) {
	// Preview semantics: unknown ids are dropped, not rejected.
	attendees, err := s.resolver.Resolve(familyID, req.ParticipantAccountIDs, req.ParticipantMemberIDs)
	if err != nil {
		return nil, err
	}

	children, err := s.members.ListChildren(familyID)
	if err != nil {
		return nil, err
	}

	return s.catalog.Match(req.Title, req.StartTime, attendees, children, req.RequesterRole), nil
}
