package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campus-suite/attendance-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters, joined with their
// group name and ordered by name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	base := "FROM students s JOIN groups g ON g.id = s.group_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("s.group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.fio) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf(`SELECT s.id, s.fio, s.mail, s.photo_path, s.birth_date, s.education_form, s.face_encoding, s.group_id,
        g.name AS group_name
        %s WHERE %s ORDER BY s.fio ASC`, base, strings.Join(conditions, " AND "))

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student detail by card number.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.fio, s.mail, s.photo_path, s.birth_date, s.education_form, s.face_encoding, s.group_id,
        g.name AS group_name
        FROM students s JOIN groups g ON g.id = s.group_id
        WHERE s.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByID checks if a student with the given card number exists.
func (r *StudentRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM students WHERE id = $1 LIMIT 1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student id: %w", err)
	}
	return true, nil
}

// ExistsByMail checks if a student with the given mail exists, optionally
// excluding a card number.
func (r *StudentRepository) ExistsByMail(ctx context.Context, mail string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM students WHERE mail = $1"
	args := []interface{}{mail}
	if excludeID != 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student mail: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (id, fio, mail, photo_path, birth_date, education_form, face_encoding, group_id)
        VALUES (:id, :fio, :mail, :photo_path, :birth_date, :education_form, :face_encoding, :group_id)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Delete removes a student; attendance rows referencing it go with it via
// ON DELETE CASCADE.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRosterByGroupName returns, in enrollment order, the id and stored face
// encoding of every student in the named group. Students without an encoding
// are included with an empty string so the caller can log and skip them.
func (r *StudentRepository) ListRosterByGroupName(ctx context.Context, groupName string) ([]models.StudentRosterRow, error) {
	const query = `SELECT s.id, COALESCE(s.face_encoding, '') AS face_encoding
        FROM students s JOIN groups g ON g.id = s.group_id
        WHERE g.name = $1 ORDER BY s.id ASC`
	var rows []models.StudentRosterRow
	if err := r.db.SelectContext(ctx, &rows, query, groupName); err != nil {
		return nil, fmt.Errorf("load roster for group %s: %w", groupName, err)
	}
	return rows, nil
}

// ListByGroup returns all students of a group by group id.
func (r *StudentRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	const query = `SELECT id, fio, mail, photo_path, birth_date, education_form, face_encoding, group_id
        FROM students WHERE group_id = $1 ORDER BY id ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, groupID); err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	return students, nil
}
