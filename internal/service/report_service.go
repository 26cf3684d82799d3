package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campus-suite/attendance-api/internal/models"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
	"github.com/campus-suite/attendance-api/pkg/export"
)

const (
	markPresent = "✔"
	markAbsent  = "✖"
)

type reportAttendanceRepository interface {
	ListJoined(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceJoinedRow, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ReportConfig tunes report caching.
type ReportConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ReportService renders attendance matrices and their CSV/PDF exports.
type ReportService struct {
	attendance reportAttendanceRepository
	cache      reportCache
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	config     ReportConfig
	logger     *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(attendance reportAttendanceRepository, cache reportCache, config ReportConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		attendance: attendance,
		cache:      cache,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		config:     config,
		logger:     logger,
	}
}

// Matrix builds the per-group attendance matrix for the filter: one block per
// (teacher, subject, group) with a ✔/✖ cell per student per session date.
// Sessions recorded with a NULL student show up as a date column where every
// student is absent.
func (s *ReportService) Matrix(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceMatrix, error) {
	key := matrixCacheKey(filter)
	if s.cacheUsable() {
		var cached models.AttendanceMatrix
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("report cache read failed", zap.Error(err))
		}
	}

	rows, err := s.attendance.ListJoined(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}

	matrix := buildMatrix(rows)

	if s.cacheUsable() {
		if err := s.cache.Set(ctx, key, matrix, s.config.CacheTTL); err != nil {
			s.logger.Warn("report cache write failed", zap.Error(err))
		}
	}
	return matrix, nil
}

// ExportCSV renders the matrix as CSV, one section per group block.
func (s *ReportService) ExportCSV(ctx context.Context, filter models.AttendanceFilter) ([]byte, error) {
	matrix, err := s.Matrix(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.csv.Render(matrixDataset(matrix))
}

// ExportPDF renders the matrix as a PDF table.
func (s *ReportService) ExportPDF(ctx context.Context, filter models.AttendanceFilter) ([]byte, error) {
	matrix, err := s.Matrix(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.pdf.Render(matrixDataset(matrix), "Attendance report")
}

func (s *ReportService) cacheUsable() bool {
	return s.config.CacheEnabled && s.cache != nil
}

func matrixCacheKey(filter models.AttendanceFilter) string {
	from, to := "", ""
	if filter.DateFrom != nil {
		from = filter.DateFrom.Format("2006-01-02")
	}
	if filter.DateTo != nil {
		to = filter.DateTo.Format("2006-01-02")
	}
	return fmt.Sprintf("reports:matrix:%s:%s:%s:%s:%s",
		filter.TeacherUserID, filter.SubjectID, filter.GroupID, from, to)
}

type matrixKey struct {
	teacher string
	subject string
	group   string
}

func buildMatrix(rows []models.AttendanceJoinedRow) *models.AttendanceMatrix {
	type block struct {
		dates    map[string]bool
		students map[string]map[string]bool // fio -> date -> present
	}

	blocks := make(map[matrixKey]*block)
	order := make([]matrixKey, 0)
	for _, row := range rows {
		key := matrixKey{teacher: row.TeacherFIO, subject: row.SubjectName, group: row.GroupName}
		b, ok := blocks[key]
		if !ok {
			b = &block{dates: make(map[string]bool), students: make(map[string]map[string]bool)}
			blocks[key] = b
			order = append(order, key)
		}

		date := row.Timestamp.Format("02.01.2006")
		b.dates[date] = true
		if row.StudentID == nil || row.StudentFIO == nil {
			continue
		}
		marks, ok := b.students[*row.StudentFIO]
		if !ok {
			marks = make(map[string]bool)
			b.students[*row.StudentFIO] = marks
		}
		marks[date] = true
	}

	matrix := &models.AttendanceMatrix{Groups: make([]models.AttendanceMatrixGroup, 0, len(order))}
	for _, key := range order {
		b := blocks[key]

		dates := make([]string, 0, len(b.dates))
		for d := range b.dates {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool {
			di, _ := time.Parse("02.01.2006", dates[i])
			dj, _ := time.Parse("02.01.2006", dates[j])
			return di.Before(dj)
		})

		fios := make([]string, 0, len(b.students))
		for fio := range b.students {
			fios = append(fios, fio)
		}
		sort.Strings(fios)

		students := make([]models.AttendanceMatrixStudent, 0, len(fios))
		for _, fio := range fios {
			cells := make(map[string]string, len(dates))
			for _, d := range dates {
				if b.students[fio][d] {
					cells[d] = markPresent
				} else {
					cells[d] = markAbsent
				}
			}
			students = append(students, models.AttendanceMatrixStudent{FIO: fio, Attendance: cells})
		}

		matrix.Groups = append(matrix.Groups, models.AttendanceMatrixGroup{
			TeacherFIO:  key.teacher,
			SubjectName: key.subject,
			GroupName:   key.group,
			Students:    students,
			Dates:       dates,
		})
	}
	return matrix
}

func matrixDataset(matrix *models.AttendanceMatrix) export.Dataset {
	headers := []string{"Teacher", "Subject", "Group", "Student"}
	dateSet := make(map[string]bool)
	for _, group := range matrix.Groups {
		for _, d := range group.Dates {
			dateSet[d] = true
		}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		di, _ := time.Parse("02.01.2006", dates[i])
		dj, _ := time.Parse("02.01.2006", dates[j])
		return di.Before(dj)
	})
	headers = append(headers, dates...)

	rows := make([]map[string]string, 0)
	for _, group := range matrix.Groups {
		for _, student := range group.Students {
			row := map[string]string{
				"Teacher": group.TeacherFIO,
				"Subject": group.SubjectName,
				"Group":   group.GroupName,
				"Student": student.FIO,
			}
			for _, d := range dates {
				if mark, ok := student.Attendance[d]; ok {
					row[d] = mark
				} else {
					row[d] = ""
				}
			}
			rows = append(rows, row)
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
