package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-suite/attendance-api/internal/models"
)

// AttendanceRepository manages persistence for attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// CreateBatch writes all rows of one submission in a single transaction, so
// a session is recorded completely or not at all.
func (r *AttendanceRepository) CreateBatch(ctx context.Context, records []models.Attendance) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance batch: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance (id, ts, assignment_id, student_id, group_id)
        VALUES ($1, $2, $3, $4, $5)`
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.Timestamp.IsZero() {
			rec.Timestamp = now
		}
		if _, err := tx.ExecContext(ctx, query, rec.ID, rec.Timestamp, rec.AssignmentID, rec.StudentID, rec.GroupID); err != nil {
			return fmt.Errorf("insert attendance row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance batch: %w", err)
	}
	commit = true
	return nil
}

// ListJoined returns attendance rows joined with teacher, subject, group and
// student names, scoped by the filter and ordered chronologically. Rows with
// a NULL student (held-but-empty sessions) come back with nil StudentID.
func (r *AttendanceRepository) ListJoined(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceJoinedRow, error) {
	base := `FROM attendance a
        JOIN teacher_assignments ta ON ta.id = a.assignment_id
        JOIN users u ON u.id = ta.user_id
        JOIN subjects sub ON sub.id = ta.subject_id
        JOIN groups g ON g.id = a.group_id
        LEFT JOIN students st ON st.id = a.student_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.TeacherUserID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.user_id = $%d", len(args)+1))
		args = append(args, filter.TeacherUserID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("ta.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("a.group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.ts >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.ts < $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	query := fmt.Sprintf(`SELECT u.fio AS teacher_fio, sub.name AS subject_name, g.name AS group_name,
        a.student_id, st.fio AS student_fio, a.ts
        %s WHERE %s ORDER BY u.fio ASC, sub.name ASC, g.name ASC, a.ts ASC`, base, strings.Join(conditions, " AND "))

	var rows []models.AttendanceJoinedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}
