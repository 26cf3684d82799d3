package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-suite/attendance-api/internal/models"
)

// TeacherAssignmentRepository manages the user-to-subject authority links.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs a TeacherAssignmentRepository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// List returns all assignments with teacher and subject names.
func (r *TeacherAssignmentRepository) List(ctx context.Context) ([]models.TeacherAssignmentDetail, error) {
	const query = `SELECT ta.id, ta.user_id, ta.subject_id, ta.created_at,
        u.fio AS teacher_fio, s.name AS subject_name
        FROM teacher_assignments ta
        JOIN users u ON u.id = ta.user_id
        JOIN subjects s ON s.id = ta.subject_id
        ORDER BY u.fio ASC, s.name ASC`
	var assignments []models.TeacherAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// ListByUser returns the assignments of one teacher with subject names.
func (r *TeacherAssignmentRepository) ListByUser(ctx context.Context, userID string) ([]models.TeacherAssignmentDetail, error) {
	const query = `SELECT ta.id, ta.user_id, ta.subject_id, ta.created_at,
        u.fio AS teacher_fio, s.name AS subject_name
        FROM teacher_assignments ta
        JOIN users u ON u.id = ta.user_id
        JOIN subjects s ON s.id = ta.subject_id
        WHERE ta.user_id = $1 ORDER BY s.name ASC`
	var assignments []models.TeacherAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, userID); err != nil {
		return nil, fmt.Errorf("list assignments for user %s: %w", userID, err)
	}
	return assignments, nil
}

// FindByUserAndSubject fetches the assignment binding a teacher to a subject.
// Returns sql.ErrNoRows when the teacher has no authority over the subject.
func (r *TeacherAssignmentRepository) FindByUserAndSubject(ctx context.Context, userID, subjectID string) (*models.TeacherAssignment, error) {
	const query = `SELECT id, user_id, subject_id, created_at
        FROM teacher_assignments WHERE user_id = $1 AND subject_id = $2`
	var assignment models.TeacherAssignment
	if err := r.db.GetContext(ctx, &assignment, query, userID, subjectID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Exists checks whether the (user, subject) pair is already linked.
func (r *TeacherAssignmentRepository) Exists(ctx context.Context, userID, subjectID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists,
		"SELECT 1 FROM teacher_assignments WHERE user_id = $1 AND subject_id = $2 LIMIT 1", userID, subjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// Create inserts a new assignment.
func (r *TeacherAssignmentRepository) Create(ctx context.Context, assignment *models.TeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_assignments (id, user_id, subject_id, created_at)
        VALUES (:id, :user_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create teacher assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment along with its attendance rows via cascade.
func (r *TeacherAssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM teacher_assignments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete teacher assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
