package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/homehq/internal/model"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileCols = `id, family_id, email, name, role, created_at, updated_at`

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	err := scanner.Scan(&p.ID, &p.FamilyID, &p.Email, &p.Name, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProfileStore) Create(familyID int64, email, name, passwordHash, role string) (*model.Profile, error) {
	result, err := s.db.Exec(
		`INSERT INTO profiles (family_id, email, name, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		familyID, email, name, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProfileStore) GetByID(id int64) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetByIDInFamily returns the profile only if it belongs to the given family.
func (s *ProfileStore) GetByIDInFamily(familyID, id int64) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE id = ? AND family_id = ?`, id, familyID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile in family: %w", err)
	}
	return p, nil
}

// GetByEmailWithHash returns the profile and its password hash for login.
func (s *ProfileStore) GetByEmailWithHash(email string) (*model.Profile, string, error) {
	var p model.Profile
	var hash string
	err := s.db.QueryRow(
		`SELECT id, family_id, email, name, role, created_at, updated_at, password_hash
		 FROM profiles WHERE email = ?`, email,
	).Scan(&p.ID, &p.FamilyID, &p.Email, &p.Name, &p.Role, &p.CreatedAt, &p.UpdatedAt, &hash)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get profile by email: %w", err)
	}
	return &p, hash, nil
}

func (s *ProfileStore) ListByFamily(familyID int64) ([]model.Profile, error) {
	rows, err := s.db.Query(`SELECT `+profileCols+` FROM profiles WHERE family_id = ? ORDER BY name ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
