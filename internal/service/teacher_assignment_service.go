package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campus-suite/attendance-api/internal/models"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context) ([]models.TeacherAssignmentDetail, error)
	ListByUser(ctx context.Context, userID string) ([]models.TeacherAssignmentDetail, error)
	Exists(ctx context.Context, userID, subjectID string) (bool, error)
	Create(ctx context.Context, assignment *models.TeacherAssignment) error
	Delete(ctx context.Context, id string) error
}

type assignmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type assignmentSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// TeacherAssignmentService manages which teacher may record which subject.
type TeacherAssignmentService struct {
	assignments assignmentRepository
	users       assignmentUserRepository
	subjects    assignmentSubjectRepository
	logger      *zap.Logger
}

// NewTeacherAssignmentService constructs a TeacherAssignmentService.
func NewTeacherAssignmentService(assignments assignmentRepository, users assignmentUserRepository, subjects assignmentSubjectRepository, logger *zap.Logger) *TeacherAssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAssignmentService{assignments: assignments, users: users, subjects: subjects, logger: logger}
}

// List returns all assignments with display names.
func (s *TeacherAssignmentService) List(ctx context.Context) ([]models.TeacherAssignmentDetail, error) {
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListByUser returns a teacher's own assignments.
func (s *TeacherAssignmentService) ListByUser(ctx context.Context, userID string) ([]models.TeacherAssignmentDetail, error) {
	assignments, err := s.assignments.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Create links a teacher account to a subject. Only teacher-role users can
// hold assignments, and the pair must be unique.
func (s *TeacherAssignmentService) Create(ctx context.Context, userID, subjectID string) (*models.TeacherAssignment, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only teacher accounts can be assigned subjects")
	}

	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}

	exists, err := s.assignments.Exists(ctx, userID, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is already assigned to this subject")
	}

	assignment := &models.TeacherAssignment{UserID: userID, SubjectID: subjectID}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Delete removes an assignment together with its attendance history.
func (s *TeacherAssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}
