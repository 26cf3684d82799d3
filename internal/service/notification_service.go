package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/pkg/jobs"
	"github.com/campus-suite/attendance-api/pkg/mailer"
)

// AbsenceNotice is the payload of one queued absence email.
type AbsenceNotice struct {
	StudentID  int64
	StudentFIO string
	Mail       string
	Subject    string
	Group      string
	TeacherFIO string
	Date       time.Time
}

// NotificationService delivers absence emails through a background worker
// queue. Delivery is at-most-once per submission: failures are retried by the
// queue a bounded number of times, logged and then dropped. Nothing here ever
// propagates back to the attendance submission.
type NotificationService struct {
	mailer      mailer.Mailer
	queue       *jobs.Queue
	sendTimeout time.Duration
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewNotificationService constructs the service and its queue. Call Start
// before enqueueing and Stop on shutdown to drain in-flight sends.
func NewNotificationService(m mailer.Mailer, cfg jobs.QueueConfig, sendTimeout time.Duration, logger *zap.Logger, metrics *MetricsService) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}
	s := &NotificationService{mailer: m, sendTimeout: sendTimeout, logger: logger, metrics: metrics}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("absence-notifications", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyAbsences enqueues one email per absent student. Students without a
// mail address are skipped up front. Errors are logged, never returned.
func (s *NotificationService) NotifyAbsences(absences []AbsenceNotice) {
	for _, notice := range absences {
		if notice.Mail == "" {
			s.logger.Warn("absent student has no mail address, skipping notice",
				zap.Int64("student_id", notice.StudentID))
			continue
		}
		err := s.queue.Enqueue(jobs.Job{Type: "absence-notice", Payload: notice})
		if err != nil {
			s.logger.Error("failed to enqueue absence notice",
				zap.Int64("student_id", notice.StudentID), zap.Error(err))
			if s.metrics != nil {
				s.metrics.IncNotificationFailed()
			}
		}
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(AbsenceNotice)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	msg := buildAbsenceMessage(notice)
	if err := s.mailer.Send(sendCtx, msg); err != nil {
		if s.metrics != nil {
			s.metrics.IncNotificationFailed()
		}
		return fmt.Errorf("send absence notice to %s: %w", notice.Mail, err)
	}

	if s.metrics != nil {
		s.metrics.IncNotificationSent()
	}
	s.logger.Info("absence notice sent",
		zap.Int64("student_id", notice.StudentID),
		zap.String("subject", notice.Subject))
	return nil
}

func buildAbsenceMessage(notice AbsenceNotice) mailer.Message {
	date := notice.Date.Format("02.01.2006")
	text := fmt.Sprintf(
		"Здравствуйте, %s!\n\nВы были отмечены отсутствующим на занятии по дисциплине «%s» (группа %s) %s.\nПреподаватель: %s.\n\nЕсли это ошибка, обратитесь к преподавателю.",
		notice.StudentFIO, notice.Subject, notice.Group, date, notice.TeacherFIO)
	html := fmt.Sprintf(
		`<html><body><p>Здравствуйте, <b>%s</b>!</p><p>Вы были отмечены отсутствующим на занятии по дисциплине «%s» (группа %s) %s.</p><p>Преподаватель: %s.</p><p>Если это ошибка, обратитесь к преподавателю.</p></body></html>`,
		notice.StudentFIO, notice.Subject, notice.Group, date, notice.TeacherFIO)

	return mailer.Message{
		To:      notice.Mail,
		ToName:  notice.StudentFIO,
		Subject: fmt.Sprintf("Пропуск занятия: %s, %s", notice.Subject, date),
		Text:    text,
		HTML:    html,
	}
}

// absenceNoticesFor builds notices for every student of the group that is not
// in the present set.
func absenceNoticesFor(students []models.Student, present map[int64]bool, subjectName, groupName, teacherFIO string, ts time.Time) []AbsenceNotice {
	notices := make([]AbsenceNotice, 0)
	for _, st := range students {
		if present[st.ID] {
			continue
		}
		notices = append(notices, AbsenceNotice{
			StudentID:  st.ID,
			StudentFIO: st.FIO,
			Mail:       st.Mail,
			Subject:    subjectName,
			Group:      groupName,
			TeacherFIO: teacherFIO,
			Date:       ts,
		})
	}
	return notices
}
