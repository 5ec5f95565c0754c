package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/pkg/jobs"
	"github.com/noah-isme/jiu-academy-api/pkg/mailer"
)

// JobAttendanceConfirmation is the job type carrying an AttendanceNotification.
const JobAttendanceConfirmation = "attendance_confirmation"

var attendanceEmail = template.Must(template.New("attendance").Parse(`<!doctype html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Presença registrada</h2>
  <p>Olá {{.StudentName}},</p>
  <p>Sua presença na aula de <strong>{{.LessonDate}}</strong> às <strong>{{.StartTime}}</strong>{{if .LessonTopic}} ({{.LessonTopic}}){{end}} foi registrada como <strong>{{.Status}}</strong>.</p>
  <p>Bons treinos!</p>
</body>
</html>`))

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService turns attendance writes into confirmation emails sent off the
// request path.
type NotificationService struct {
	queue   jobEnqueuer
	mailer  mailer.Mailer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. The queue is attached afterwards
// because the queue's handler is the service itself.
func NewNotificationService(m mailer.Mailer, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{mailer: m, metrics: metrics, logger: logger}
}

// AttachQueue sets the queue used by AttendanceRecorded.
func (s *NotificationService) AttachQueue(q jobEnqueuer) {
	s.queue = q
}

// AttendanceRecorded enqueues a confirmation email. Failures are logged only.
func (s *NotificationService) AttendanceRecorded(_ context.Context, attendance *models.Attendance, lesson *models.LessonDetail, user *models.User) {
	if s == nil || s.queue == nil || attendance == nil || lesson == nil || user == nil {
		return
	}
	payload := models.AttendanceNotification{
		AttendanceID: attendance.ID,
		To:           user.Email,
		StudentName:  user.Name,
		LessonDate:   lesson.Date,
		StartTime:    lesson.StartTime,
		Status:       attendance.Status,
	}
	if lesson.Topic != nil {
		payload.LessonTopic = *lesson.Topic
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobAttendanceConfirmation, Payload: payload}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordNotification("dropped")
		s.logger.Warn("failed to enqueue attendance confirmation",
			zap.String("attendance_id", attendance.ID),
			zap.Error(err),
		)
	}
}

// Handle is the queue handler. It renders and sends the email for one job.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobAttendanceConfirmation {
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	payload, ok := job.Payload.(models.AttendanceNotification)
	if !ok {
		return errors.New("attendance confirmation payload malformed")
	}
	body, err := renderAttendanceEmail(payload)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return errors.New("mailer not configured")
	}
	err = s.mailer.Send(ctx, mailer.Message{
		To:      payload.To,
		Subject: "Presença registrada - " + payload.LessonDate,
		HTML:    body,
	})
	if err != nil {
		s.metrics.RecordNotification("failed")
		return err
	}
	s.metrics.RecordNotification("sent")
	return nil
}

// Abandon records a confirmation the queue stopped retrying.
func (s *NotificationService) Abandon(job jobs.Job, err error) {
	s.metrics.RecordNotification("abandoned")
	s.logger.Error("attendance confirmation abandoned",
		zap.String("job_id", job.ID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err),
	)
}

func renderAttendanceEmail(payload models.AttendanceNotification) (string, error) {
	var buf bytes.Buffer
	if err := attendanceEmail.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("render attendance email: %w", err)
	}
	return buf.String(), nil
}
