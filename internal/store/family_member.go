package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/homehq/internal/model"
)

type FamilyMemberStore struct {
	db *sql.DB
}

func NewFamilyMemberStore(db *sql.DB) *FamilyMemberStore {
	return &FamilyMemberStore{db: db}
}

const memberCols = `id, family_id, name, is_adult, color, sort_order, created_at, updated_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.FamilyMember, error) {
	var m model.FamilyMember
	var isAdultInt int
	err := scanner.Scan(&m.ID, &m.FamilyID, &m.Name, &isAdultInt, &m.Color, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.IsAdult = isAdultInt != 0
	return &m, nil
}

func (s *FamilyMemberStore) Create(familyID int64, name string, isAdult bool, color string) (*model.FamilyMember, error) {
	var maxOrder int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(sort_order), -1) FROM family_members WHERE family_id = ?`, familyID).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	var isAdultInt int
	if isAdult {
		isAdultInt = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO family_members (family_id, name, is_adult, color, sort_order) VALUES (?, ?, ?, ?, ?)`,
		familyID, name, isAdultInt, color, maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *FamilyMemberStore) GetByID(familyID, id int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM family_members WHERE id = ? AND family_id = ?`, id, familyID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return m, nil
}

func (s *FamilyMemberStore) ListByFamily(familyID int64) ([]model.FamilyMember, error) {
	rows, err := s.db.Query(`SELECT `+memberCols+` FROM family_members WHERE family_id = ? ORDER BY sort_order ASC, name ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

// ListChildren returns the account-less members of the family not flagged
// as adults. The babysitter suggestion rule is built on this set.
func (s *FamilyMemberStore) ListChildren(familyID int64) ([]model.FamilyMember, error) {
	rows, err := s.db.Query(`SELECT `+memberCols+` FROM family_members WHERE family_id = ? AND is_adult = 0 ORDER BY sort_order ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

func collectMembers(rows *sql.Rows) ([]model.FamilyMember, error) {
	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *FamilyMemberStore) Update(familyID, id int64, name string, isAdult bool, color string, sortOrder int) (*model.FamilyMember, error) {
	var isAdultInt int
	if isAdult {
		isAdultInt = 1
	}
	_, err := s.db.Exec(
		`UPDATE family_members SET name = ?, is_adult = ?, color = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		name, isAdultInt, color, sortOrder, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update family member: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *FamilyMemberStore) Delete(familyID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM family_members WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete family member: %w", err)
	}
	return nil
}
