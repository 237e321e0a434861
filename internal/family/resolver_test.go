package family

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/dukerupert/homehq/internal/apperr"
	"github.com/dukerupert/homehq/internal/database"
	"github.com/dukerupert/homehq/internal/model"
	"github.com/dukerupert/homehq/internal/store"
)

func setupResolver(t *testing.T) (*Resolver, *sql.DB, int64, int64, int64, int64) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	families := store.NewFamilyStore(db)
	profiles := store.NewProfileStore(db)
	members := store.NewFamilyMemberStore(db)

	fam, err := families.Create("Nowak")
	if err != nil {
		t.Fatalf("failed to create family: %v", err)
	}
	other, err := families.Create("Wiśniewski")
	if err != nil {
		t.Fatalf("failed to create second family: %v", err)
	}

	admin, err := profiles.Create(fam.ID, "admin@example.com", "Admin", "hash", model.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	child, err := members.Create(fam.ID, "Staś", false, "#60a5fa")
	if err != nil {
		t.Fatalf("failed to create member: %v", err)
	}
	stranger, err := profiles.Create(other.ID, "stranger@example.com", "Stranger", "hash", model.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to create stranger profile: %v", err)
	}

	return NewResolver(profiles, members), db, fam.ID, admin.ID, child.ID, stranger.ID
}

func TestResolveMixedKinds(t *testing.T) {
	r, _, familyID, adminID, childID, _ := setupResolver(t)

	got, err := r.Resolve(familyID, []int64{adminID}, []int64{childID})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(got))
	}

	if got[0].Kind != KindAccount || got[0].ID != adminID || got[0].Role != model.RoleAdmin {
		t.Errorf("account participant = %+v", got[0])
	}
	if got[1].Kind != KindMember || got[1].ID != childID || got[1].IsAdult {
		t.Errorf("member participant = %+v", got[1])
	}
}

func TestResolveDropsUnknownIDs(t *testing.T) {
	r, _, familyID, adminID, _, strangerID := setupResolver(t)

	got, err := r.Resolve(familyID, []int64{adminID, strangerID}, []int64{7777})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only the resolvable participant, got %d", len(got))
	}
	if got[0].ID != adminID {
		t.Errorf("participant = %+v, want account %d", got[0], adminID)
	}
}

func TestResolveStrictRejectsCrossFamily(t *testing.T) {
	r, _, familyID, adminID, _, strangerID := setupResolver(t)

	_, err := r.ResolveStrict(familyID, []int64{adminID, strangerID}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := apperr.CodeOf(err); got != apperr.CodeForbidden {
		t.Errorf("code = %s, want %s", got, apperr.CodeForbidden)
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected an apperr.Error")
	}
	ids, ok := appErr.Details["invalid_ids"].([]string)
	if !ok || len(ids) != 1 || ids[0] != fmt.Sprintf("account:%d", strangerID) {
		t.Errorf("invalid_ids = %v", appErr.Details["invalid_ids"])
	}
}

func TestResolveStrictRejectsUnknownMember(t *testing.T) {
	r, _, familyID, _, _, _ := setupResolver(t)

	_, err := r.ResolveStrict(familyID, nil, []int64{7777})
	if got := apperr.CodeOf(err); got != apperr.CodeForbidden {
		t.Errorf("code = %s, want %s", got, apperr.CodeForbidden)
	}
}

func TestResolveStrictEmptyInput(t *testing.T) {
	r, _, familyID, _, _, _ := setupResolver(t)

	got, err := r.ResolveStrict(familyID, nil, nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no participants, got %d", len(got))
	}
}
