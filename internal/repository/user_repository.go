package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/bloodbank/internal/database"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/utils"
)

const userSelect = "SELECT u.id, u.name, u.email, u.password_hash, u.role, u.gender, u.phone, u.address, COALESCE(g.name, ''), u.created_at, u.updated_at " +
	"FROM `user` u LEFT JOIN blood_group g ON g.id = u.blood_group_id"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser is the input to Create.  Password is the plain text; it is
// hashed here and never stored.
type NewUser struct {
	Name       string
	Email      string
	Password   string
	Role       model.Role
	Gender     string
	Phone      string
	Address    string
	BloodGroup model.BloodGroup
}

// Create inserts a user and returns its ID.  The email is normalised to
// lower case; a duplicate yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO `user` (name, email, password_hash, role, gender, phone, address, blood_group_id) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT id FROM blood_group WHERE name = ?))",
		strings.TrimSpace(in.Name), email, hash, string(in.Role), in.Gender, in.Phone, in.Address, nullGroup(in.BloodGroup))
	if err != nil {
		if database.IsDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalised email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx, userSelect+" WHERE u.email = ? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, userSelect+" WHERE u.id = ? LIMIT 1", id))
}

// UpdateProfile overwrites the editable profile fields.  An empty blood
// group clears it.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p model.ProfileUpdate) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE `user` SET name = ?, gender = ?, phone = ?, address = ?, "+
			"blood_group_id = (SELECT id FROM blood_group WHERE name = ?) WHERE id = ?",
		strings.TrimSpace(p.Name), p.Gender, p.Phone, p.Address, nullGroup(p.BloodGroup), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// UpdateRole changes a user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role model.Role) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE `user` SET role = ? WHERE id = ?", string(role), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// List returns one page of users ordered by id, plus the total count.
func (r *UserRepo) List(ctx context.Context, page model.Page) ([]model.User, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM `user`").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, userSelect+" ORDER BY u.id LIMIT ? OFFSET ?", page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]model.User, 0, page.Size)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u     model.User
		role  string
		group string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Gender, &u.Phone, &u.Address, &group, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.BloodGroup = model.BloodGroup(group)
	return u, nil
}

// nullGroup turns an empty group into SQL NULL so the subselect yields
// NULL instead of matching nothing.
func nullGroup(g model.BloodGroup) any {
	if g == "" {
		return nil
	}
	return string(g)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
