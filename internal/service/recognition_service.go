package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campus-suite/attendance-api/internal/facerec"
	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/internal/roster"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
)

type rosterStudentRepository interface {
	ListRosterByGroupName(ctx context.Context, groupName string) ([]models.StudentRosterRow, error)
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
}

type rosterGroupRepository interface {
	FindByName(ctx context.Context, name string) (*models.Group, error)
}

// LoadFacesResult reports what a roster load actually pulled in.
type LoadFacesResult struct {
	Group        string `json:"group"`
	LoadedCount  int    `json:"loaded_count"`
	SkippedCount int    `json:"skipped_count"`
}

// RecognizedStudent is one identified face in a frame.
type RecognizedStudent struct {
	ID  int64  `json:"id"`
	FIO string `json:"fio"`
}

// RecognizeResult is the outcome of matching one frame against the loaded
// roster. FaceLocations covers every detected face, matched or not, in the
// engine's (top, right, bottom, left) order.
type RecognizeResult struct {
	Recognized    []RecognizedStudent `json:"recognized"`
	FaceLocations []facerec.Box       `json:"face_locations"`
}

// RecognitionService loads group rosters and matches camera frames against
// them. Each teacher gets an isolated roster slot.
type RecognitionService struct {
	students  rosterStudentRepository
	groups    rosterGroupRepository
	store     *roster.Store
	detector  facerec.Detector
	tolerance float64
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewRecognitionService constructs a RecognitionService.
func NewRecognitionService(students rosterStudentRepository, groups rosterGroupRepository, store *roster.Store, detector facerec.Detector, tolerance float64, logger *zap.Logger, metrics *MetricsService) *RecognitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tolerance <= 0 {
		tolerance = facerec.DefaultTolerance
	}
	return &RecognitionService{
		students:  students,
		groups:    groups,
		store:     store,
		detector:  detector,
		tolerance: tolerance,
		logger:    logger,
		metrics:   metrics,
	}
}

// LoadFaces replaces the owner's roster with the named group's stored
// encodings. Students whose encoding is missing or unreadable are logged and
// skipped; they can still be marked present manually.
func (s *RecognitionService) LoadFaces(ctx context.Context, ownerID, groupName string) (*LoadFacesResult, error) {
	if _, err := s.groups.FindByName(ctx, groupName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch group")
	}

	rows, err := s.students.ListRosterByGroupName(ctx, groupName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	snap := &roster.Snapshot{
		Group:      groupName,
		Faces:      make([]facerec.Encoding, 0, len(rows)),
		StudentIDs: make([]int64, 0, len(rows)),
	}
	skipped := 0
	for _, row := range rows {
		if row.FaceEncoding == "" {
			s.logger.Warn("student has no face encoding, skipping",
				zap.Int64("student_id", row.ID), zap.String("group", groupName))
			skipped++
			continue
		}
		enc, err := facerec.ParseEncoding(row.FaceEncoding)
		if err != nil {
			s.logger.Warn("unreadable face encoding, skipping",
				zap.Int64("student_id", row.ID), zap.String("group", groupName), zap.Error(err))
			skipped++
			continue
		}
		snap.Faces = append(snap.Faces, enc)
		snap.StudentIDs = append(snap.StudentIDs, row.ID)
	}

	s.store.Replace(ownerID, snap)
	if s.metrics != nil {
		s.metrics.IncRosterLoad()
	}
	s.logger.Info("roster loaded",
		zap.String("group", groupName),
		zap.Int("loaded", len(snap.Faces)),
		zap.Int("skipped", skipped))

	return &LoadFacesResult{Group: groupName, LoadedCount: len(snap.Faces), SkippedCount: skipped}, nil
}

// Recognize decodes one camera frame, detects faces via the engine and
// matches each one against the owner's loaded roster. A face matches the
// first roster entry within tolerance, so repeated frames of the same person
// resolve identically.
func (s *RecognitionService) Recognize(ctx context.Context, ownerID, imageData string) (*RecognizeResult, error) {
	raw, err := facerec.DecodeDataURL(imageData)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDecode.Code, appErrors.ErrDecode.Status, appErrors.ErrDecode.Message)
	}

	detections, err := s.detector.Detect(ctx, raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "face engine request failed")
	}

	// A frame with no faces is an empty success even before any roster load.
	if len(detections) == 0 {
		if s.metrics != nil {
			s.metrics.ObserveRecognition(0, 0)
		}
		return &RecognizeResult{Recognized: []RecognizedStudent{}, FaceLocations: []facerec.Box{}}, nil
	}

	snap := s.store.Get(ownerID)
	if snap.Empty() {
		return nil, appErrors.Clone(appErrors.ErrNoRosterLoaded, "")
	}

	result := &RecognizeResult{
		Recognized:    make([]RecognizedStudent, 0, len(detections)),
		FaceLocations: make([]facerec.Box, 0, len(detections)),
	}
	for _, det := range detections {
		result.FaceLocations = append(result.FaceLocations, det.Box)

		idx := facerec.FirstMatch(snap.Faces, det.Encoding, s.tolerance)
		if idx < 0 {
			continue
		}
		studentID := snap.StudentIDs[idx]
		detail, err := s.students.FindByID(ctx, studentID)
		if err != nil {
			// The student may have been deleted since the roster was loaded.
			s.logger.Warn("matched student not found, skipping",
				zap.Int64("student_id", studentID), zap.Error(err))
			continue
		}
		result.Recognized = append(result.Recognized, RecognizedStudent{ID: detail.ID, FIO: detail.FIO})
	}

	if s.metrics != nil {
		s.metrics.ObserveRecognition(len(detections), len(result.Recognized))
	}
	return result, nil
}
