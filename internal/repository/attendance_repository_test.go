package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-suite/attendance-api/internal/models"
)

func TestAttendanceRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	studentID := int64(1001234)
	records := []models.Attendance{
		{AssignmentID: "assign-1", StudentID: &studentID, GroupID: "group-1"},
		{AssignmentID: "assign-1", StudentID: nil, GroupID: "group-1"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "assign-1", &studentID, "group-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "assign-1", nil, "group-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateBatch(context.Background(), records)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreateBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	studentID := int64(1001234)
	records := []models.Attendance{
		{AssignmentID: "assign-1", StudentID: &studentID, GroupID: "group-1"},
		{AssignmentID: "assign-1", StudentID: nil, GroupID: "group-1"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "assign-1", &studentID, "group-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "assign-1", nil, "group-1").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), records)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "no row may survive a failed batch")
}

func TestAttendanceRepositoryCreateBatchEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	require.NoError(t, repo.CreateBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListJoined(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	ts := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	studentID := int64(1001234)
	fio := "Иванов Иван Иванович"
	rows := sqlmock.NewRows([]string{"teacher_fio", "subject_name", "group_name", "student_id", "student_fio", "ts"}).
		AddRow("Петров П. П.", "Математика", "Б10", studentID, fio, ts).
		AddRow("Петров П. П.", "Математика", "Б10", nil, nil, ts)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT u.fio AS teacher_fio, sub.name AS subject_name, g.name AS group_name")).
		WithArgs("user-1").
		WillReturnRows(rows)

	result, err := repo.ListJoined(context.Background(), models.AttendanceFilter{TeacherUserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.NotNil(t, result[0].StudentID)
	assert.Equal(t, studentID, *result[0].StudentID)
	assert.Nil(t, result[1].StudentID, "held-but-empty marker rows keep a NULL student")
	assert.NoError(t, mock.ExpectationsWereMet())
}
