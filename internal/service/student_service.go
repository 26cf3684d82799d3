package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-suite/attendance-api/internal/facerec"
	"github.com/campus-suite/attendance-api/internal/models"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
	"github.com/campus-suite/attendance-api/pkg/storage"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByMail(ctx context.Context, mail string, excludeID int64) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

type studentGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// EnrollStudentInput carries the enrollment form plus the uploaded photo.
type EnrollStudentInput struct {
	ID            int64     `validate:"required,gt=0"`
	FIO           string    `validate:"required"`
	Mail          string    `validate:"required,email"`
	BirthDate     time.Time `validate:"required"`
	EducationForm string    `validate:"required"`
	GroupID       string    `validate:"required"`
	PhotoName     string
	Photo         []byte
}

// StudentView is a student enriched with a signed photo URL for the client.
type StudentView struct {
	models.StudentDetail
	DisplayID string `json:"display_id"`
	PhotoURL  string `json:"photo_url,omitempty"`
	HasFace   bool   `json:"has_face"`
}

// StudentService manages student enrollment and lifecycle. Enrollment runs
// the uploaded photo through the face engine once and stores the resulting
// encoding next to the student, so roster loads never touch the engine.
type StudentService struct {
	students  studentRepository
	groups    studentGroupRepository
	detector  facerec.Detector
	photos    *storage.PhotoStorage
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentRepository, groups studentGroupRepository, detector facerec.Detector, photos *storage.PhotoStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{
		students:  students,
		groups:    groups,
		detector:  detector,
		photos:    photos,
		signer:    signer,
		validator: validate,
		logger:    logger,
	}
}

// List returns students matching the filter, with signed photo URLs.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]StudentView, error) {
	details, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	views := make([]StudentView, 0, len(details))
	for _, d := range details {
		views = append(views, s.view(d))
	}
	return views, nil
}

// Get returns one student by card number.
func (s *StudentService) Get(ctx context.Context, id int64) (*StudentView, error) {
	detail, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	view := s.view(*detail)
	return &view, nil
}

// Enroll registers a student: validates uniqueness, extracts a face encoding
// from the photo, stores the photo and creates the record. A photo where the
// engine finds no face is kept, the student just enrolls without an encoding
// and is skipped on roster loads.
func (s *StudentService) Enroll(ctx context.Context, input EnrollStudentInput) (*StudentView, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if input.EducationForm != models.EducationFormBudget && input.EducationForm != models.EducationFormPaid {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown education form")
	}
	if len(input.Photo) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photo is required")
	}

	group, err := s.groups.FindByID(ctx, input.GroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch group")
	}

	if exists, err := s.students.ExistsByID(ctx, input.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student id")
	} else if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student with this card number already exists")
	}
	if exists, err := s.students.ExistsByMail(ctx, input.Mail, 0); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student mail")
	} else if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student with this mail already exists")
	}

	encoding := s.extractEncoding(ctx, input)

	filename := storage.SafeFilename(input.PhotoName)
	if filename == "" {
		filename = "photo.jpg"
	}
	relPath, err := s.photos.Save(group.Name, filename, input.Photo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}

	student := &models.Student{
		ID:            input.ID,
		FIO:           input.FIO,
		Mail:          input.Mail,
		PhotoPath:     relPath,
		BirthDate:     input.BirthDate,
		EducationForm: input.EducationForm,
		FaceEncoding:  encoding,
		GroupID:       group.ID,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if removeErr := s.photos.Delete(relPath); removeErr != nil {
			s.logger.Warn("failed to remove orphaned photo", zap.String("path", relPath), zap.Error(removeErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	view := s.view(models.StudentDetail{Student: *student, GroupName: group.Name})
	return &view, nil
}

// Delete removes a student and their stored photo.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	detail, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	if detail.PhotoPath != "" {
		if err := s.photos.Delete(detail.PhotoPath); err != nil {
			s.logger.Warn("failed to remove photo of deleted student",
				zap.Int64("student_id", id), zap.Error(err))
		}
	}
	return nil
}

// OpenPhoto resolves a signed photo token to the underlying file path.
func (s *StudentService) OpenPhoto(token string) (string, error) {
	relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired photo link")
	}
	return s.photos.Path(relPath), nil
}

func (s *StudentService) extractEncoding(ctx context.Context, input EnrollStudentInput) *string {
	if s.detector == nil {
		return nil
	}
	detections, err := s.detector.Detect(ctx, input.Photo)
	if err != nil {
		s.logger.Warn("face engine failed during enrollment, storing without encoding",
			zap.Int64("student_id", input.ID), zap.Error(err))
		return nil
	}
	if len(detections) == 0 {
		s.logger.Warn("no face found on enrollment photo",
			zap.Int64("student_id", input.ID), zap.String("photo", input.PhotoName))
		return nil
	}
	if len(detections) > 1 {
		s.logger.Warn("multiple faces on enrollment photo, using the first",
			zap.Int64("student_id", input.ID), zap.Int("faces", len(detections)))
	}
	raw, err := json.Marshal(detections[0].Encoding)
	if err != nil {
		s.logger.Warn("failed to serialize face encoding", zap.Error(err))
		return nil
	}
	encoded := string(raw)
	return &encoded
}

func (s *StudentService) view(detail models.StudentDetail) StudentView {
	view := StudentView{
		StudentDetail: detail,
		DisplayID:     detail.DisplayID(),
		HasFace:       detail.FaceEncoding != nil && *detail.FaceEncoding != "",
	}
	if detail.PhotoPath != "" && s.signer != nil {
		if token, _, err := s.signer.Generate(detail.PhotoPath); err == nil {
			view.PhotoURL = "/api/v1/photos/" + token
		}
	}
	return view
}
