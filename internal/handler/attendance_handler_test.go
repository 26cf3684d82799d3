package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/internal/service"
)

type attendanceRepoStub struct {
	batches [][]models.Attendance
	err     error
}

func (s *attendanceRepoStub) CreateBatch(ctx context.Context, records []models.Attendance) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, records)
	return nil
}

type assignmentRepoStub struct {
	unassigned bool
}

func (s *assignmentRepoStub) FindByUserAndSubject(ctx context.Context, userID, subjectID string) (*models.TeacherAssignment, error) {
	if s.unassigned {
		return nil, sql.ErrNoRows
	}
	return &models.TeacherAssignment{ID: "assign-1", UserID: userID, SubjectID: subjectID}, nil
}

type groupStudentsStub struct{}

func (s *groupStudentsStub) ListByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	return []models.Student{
		{ID: 1001, FIO: "Первый", Mail: "one@example.com", GroupID: groupID},
		{ID: 1002, FIO: "Второй", Mail: "two@example.com", GroupID: groupID},
	}, nil
}

func (s *groupStudentsStub) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return id == 1001 || id == 1002, nil
}

type teacherLookupStub struct{}

func (s *teacherLookupStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, FIO: "Петров Пётр", Role: models.RoleTeacher}, nil
}

type subjectRepoStub struct{}

func (s *subjectRepoStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	return &models.Subject{ID: id, Name: "Математика"}, nil
}

type notifierStub struct {
	notices []service.AbsenceNotice
}

func (s *notifierStub) NotifyAbsences(absences []service.AbsenceNotice) {
	s.notices = append(s.notices, absences...)
}

func attendanceHandlerFixture(repo *attendanceRepoStub, assignments *assignmentRepoStub, notifier *notifierStub) *AttendanceHandler {
	svc := service.NewAttendanceService(repo, assignments, &groupRepoStub{}, &groupStudentsStub{}, &subjectRepoStub{}, &teacherLookupStub{}, nil, notifier, zap.NewNop(), nil)
	return NewAttendanceHandler(svc)
}

func TestSubmitEndpoint(t *testing.T) {
	repo := &attendanceRepoStub{}
	notifier := &notifierStub{}
	h := attendanceHandlerFixture(repo, &assignmentRepoStub{}, notifier)

	c, w := authedContext(t, http.MethodPost, "/attendance", gin.H{
		"subject_id": "subject-1",
		"group_id":   "group-1",
		"students":   []gin.H{{"id": 1001, "attended": true}},
	})
	h.Submit(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			SavedCount  int `json:"saved_count"`
			AbsentCount int `json:"absent_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, 1, envelope.Data.SavedCount)
	assert.Equal(t, 1, envelope.Data.AbsentCount)
	require.Len(t, repo.batches, 1)
	require.Len(t, notifier.notices, 1)
	assert.Equal(t, int64(1002), notifier.notices[0].StudentID)
}

func TestSubmitEndpointUnassignedSubject(t *testing.T) {
	repo := &attendanceRepoStub{}
	h := attendanceHandlerFixture(repo, &assignmentRepoStub{unassigned: true}, &notifierStub{})

	c, w := authedContext(t, http.MethodPost, "/attendance", gin.H{
		"subject_id": "subject-9",
		"group_id":   "group-1",
		"students":   []gin.H{{"id": 1001, "attended": true}},
	})
	h.Submit(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "not assigned")
	assert.Empty(t, repo.batches)
}

func TestSubmitEndpointMissingFields(t *testing.T) {
	h := attendanceHandlerFixture(&attendanceRepoStub{}, &assignmentRepoStub{}, &notifierStub{})

	c, w := authedContext(t, http.MethodPost, "/attendance", gin.H{"students": []gin.H{{"id": 1001, "attended": true}}})
	h.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitEndpointPersistenceFailure(t *testing.T) {
	repo := &attendanceRepoStub{err: sql.ErrConnDone}
	h := attendanceHandlerFixture(repo, &assignmentRepoStub{}, &notifierStub{})

	c, w := authedContext(t, http.MethodPost, "/attendance", gin.H{
		"subject_id": "subject-1",
		"group_id":   "group-1",
		"students":   []gin.H{{"id": 1001, "attended": true}},
	})
	h.Submit(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "persist")
}
