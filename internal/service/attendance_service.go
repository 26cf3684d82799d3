package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campus-suite/attendance-api/internal/models"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
)

type attendanceRepository interface {
	CreateBatch(ctx context.Context, records []models.Attendance) error
}

type attendanceAssignmentRepository interface {
	FindByUserAndSubject(ctx context.Context, userID, subjectID string) (*models.TeacherAssignment, error)
}

type attendanceGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type attendanceStudentRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.Student, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

type attendanceUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type attendanceSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type reportCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type absenceNotifier interface {
	NotifyAbsences(absences []AbsenceNotice)
}

// SubmittedStudent is one roster entry of a reviewed session, as the teacher
// confirmed it.
type SubmittedStudent struct {
	ID       int64 `json:"id"`
	Attended bool  `json:"attended"`
}

// SubmitAttendanceInput is one reviewed session submission.
type SubmitAttendanceInput struct {
	SubjectID string             `json:"subject_id" validate:"required"`
	GroupID   string             `json:"group_id" validate:"required"`
	Students  []SubmittedStudent `json:"students"`
}

// SubmitAttendanceResult reports what a submission persisted.
type SubmitAttendanceResult struct {
	SavedCount   int       `json:"saved_count"`
	SkippedCount int       `json:"skipped_count"`
	AbsentCount  int       `json:"absent_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// AttendanceService records reviewed attendance sessions.
type AttendanceService struct {
	attendance  attendanceRepository
	assignments attendanceAssignmentRepository
	groups      attendanceGroupRepository
	students    attendanceStudentRepository
	subjects    attendanceSubjectRepository
	users       attendanceUserRepository
	cache       reportCacheInvalidator
	notifier    absenceNotifier
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(
	attendance attendanceRepository,
	assignments attendanceAssignmentRepository,
	groups attendanceGroupRepository,
	students attendanceStudentRepository,
	subjects attendanceSubjectRepository,
	users attendanceUserRepository,
	cache reportCacheInvalidator,
	notifier absenceNotifier,
	logger *zap.Logger,
	metrics *MetricsService,
) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendance:  attendance,
		assignments: assignments,
		groups:      groups,
		students:    students,
		subjects:    subjects,
		users:       users,
		cache:       cache,
		notifier:    notifier,
		logger:      logger,
		metrics:     metrics,
	}
}

// Submit records one session. The teacher must hold an assignment for the
// subject. Attended ids that match no existing student are logged and
// skipped; when nothing valid remains a single NULL-student row still marks
// the session as held. Every accepted entry becomes its own row, repeats
// included. All rows land in one transaction, and absence notices go out only
// after the transaction commits.
func (s *AttendanceService) Submit(ctx context.Context, teacherUserID string, input SubmitAttendanceInput) (*SubmitAttendanceResult, error) {
	assignment, err := s.assignments.FindByUserAndSubject(ctx, teacherUserID, input.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSubjectNotAssigned, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject assignment")
	}

	group, err := s.groups.FindByID(ctx, input.GroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch group")
	}

	students, err := s.students.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch group students")
	}

	now := time.Now().UTC()
	present := make(map[int64]bool, len(input.Students))
	records := make([]models.Attendance, 0, len(input.Students))
	skipped := 0
	for _, entry := range input.Students {
		if !entry.Attended {
			continue
		}
		exists, err := s.students.ExistsByID(ctx, entry.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
		}
		if !exists {
			s.logger.Warn("unknown student id, skipping",
				zap.Int64("student_id", entry.ID), zap.String("group", group.Name))
			skipped++
			continue
		}
		// One row per attended entry: repeated ids produce repeated rows.
		present[entry.ID] = true
		studentID := entry.ID
		records = append(records, models.Attendance{
			Timestamp:    now,
			AssignmentID: assignment.ID,
			StudentID:    &studentID,
			GroupID:      group.ID,
		})
	}
	saved := len(records)

	// A session with nobody recognized still counts as held.
	if len(records) == 0 {
		records = append(records, models.Attendance{
			Timestamp:    now,
			AssignmentID: assignment.ID,
			StudentID:    nil,
			GroupID:      group.ID,
		})
	}

	if err := s.attendance.CreateBatch(ctx, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "reports:*"); err != nil {
			s.logger.Warn("failed to invalidate report cache", zap.Error(err))
		}
	}

	subjectName := input.SubjectID
	if s.subjects != nil {
		if subject, err := s.subjects.FindByID(ctx, input.SubjectID); err == nil {
			subjectName = subject.Name
		}
	}
	teacherFIO := ""
	if s.users != nil {
		if teacher, err := s.users.FindByID(ctx, assignment.UserID); err == nil {
			teacherFIO = teacher.FIO
		} else {
			s.logger.Warn("failed to resolve teacher name for notices",
				zap.String("user_id", assignment.UserID), zap.Error(err))
		}
	}

	notices := absenceNoticesFor(students, present, subjectName, group.Name, teacherFIO, now)
	if s.notifier != nil {
		s.notifier.NotifyAbsences(notices)
	}

	if s.metrics != nil {
		s.metrics.IncSubmission(len(present))
	}
	s.logger.Info("attendance submitted",
		zap.String("group", group.Name),
		zap.String("subject_id", input.SubjectID),
		zap.Int("present", len(present)),
		zap.Int("absent", len(notices)),
		zap.Int("skipped", skipped))

	return &SubmitAttendanceResult{
		SavedCount:   saved,
		SkippedCount: skipped,
		AbsentCount:  len(notices),
		Timestamp:    now,
	}, nil
}
