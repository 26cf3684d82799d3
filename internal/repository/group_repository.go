package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-suite/attendance-api/internal/models"
)

// GroupRepository manages persistence for study groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns all groups ordered by name.
func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, "SELECT id, name FROM groups ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindByID fetches a group by id.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.GetContext(ctx, &group, "SELECT id, name FROM groups WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByName fetches a group by its unique name.
func (r *GroupRepository) FindByName(ctx context.Context, name string) (*models.Group, error) {
	var group models.Group
	if err := r.db.GetContext(ctx, &group, "SELECT id, name FROM groups WHERE name = $1", name); err != nil {
		return nil, err
	}
	return &group, nil
}

// ExistsByName checks whether a group name is already taken.
func (r *GroupRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM groups WHERE name = $1 LIMIT 1", name)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group name: %w", err)
	}
	return true, nil
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if _, err := r.db.ExecContext(ctx, "INSERT INTO groups (id, name) VALUES ($1, $2)", group.ID, group.Name); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Delete removes a group together with its students and attendance rows,
// which cascade at the schema level.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM groups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
