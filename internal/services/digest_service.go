package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"time"

	"actionplan-tracker/internal/models"
	"actionplan-tracker/internal/report"
	"actionplan-tracker/internal/utils"

	"github.com/robfig/cron/v3"
)

// ErrEmailDisabled is returned when a report should be mailed but no mailer is configured
var ErrEmailDisabled = errors.New("email delivery is not configured")

// DigestSchedules are the cron specs of the scheduled report e-mails, in the reporting timezone
var DigestSchedules = map[report.Period]string{
	report.PeriodDaily:   "0 7 * * *", // every day at 07:00
	report.PeriodWeekly:  "0 7 * * 1", // Mondays at 07:00
	report.PeriodMonthly: "0 7 1 * *", // first day of the month at 07:00
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// DigestService e-mails reports to subscribers on a schedule
type DigestService struct {
	subs    SubscriptionStore
	reports *ReportService
	mailer  ReportMailer
	cron    *cron.Cron
	now     func() time.Time
}

// NewDigestService creates a new digest service. A nil mailer disables delivery.
func NewDigestService(subs SubscriptionStore, reports *ReportService, mailer ReportMailer, loc *time.Location) *DigestService {
	if loc == nil {
		loc = time.UTC
	}
	return &DigestService{
		subs:    subs,
		reports: reports,
		mailer:  mailer,
		cron:    cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		now:     time.Now,
	}
}

// Start registers one job per period and starts the cron scheduler
func (s *DigestService) Start() error {
	if s.mailer == nil {
		return ErrEmailDisabled
	}
	for _, period := range report.Periods {
		spec := DigestSchedules[period]
		if _, err := s.cron.AddFunc(spec, func() {
			sent, err := s.RunPeriod(context.Background(), period)
			if err != nil {
				log.Printf("[DIGEST] %s run failed: %v", period, err)
				return
			}
			log.Printf("[DIGEST] %s run sent %d reports", period, sent)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s digest: %w", period, err)
		}
		log.Printf("[DIGEST] Scheduled %s reports with schedule: %s", period, spec)
	}
	s.cron.Start()
	log.Println("[DIGEST] Cron scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *DigestService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[DIGEST] Cron scheduler stopped")
}

// RunPeriod sends the report of period to each of its subscribers and returns how many were sent.
// A failing subscription is logged and skipped.
func (s *DigestService) RunPeriod(ctx context.Context, period report.Period) (int, error) {
	if s.mailer == nil {
		return 0, ErrEmailDisabled
	}
	subs, err := s.subs.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		if sub.Period != string(period) {
			continue
		}
		artifact, err := s.reports.Generate(ctx, ReportRequest{
			ActionPlanID: sub.ActionPlanID,
			Period:       period,
			Format:       report.Format(sub.Format),
		})
		if err != nil {
			log.Printf("[DIGEST] Skipping subscription %s (%s): %v", sub.ID, sub.Email, err)
			continue
		}
		if err := s.mailer.SendReport(sub.Email, artifact); err != nil {
			log.Printf("[DIGEST] Failed to send %s to %s: %v", artifact.Filename, sub.Email, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// SendNow generates a report and e-mails it immediately
func (s *DigestService) SendNow(ctx context.Context, req models.EmailReportRequest) (*report.Artifact, error) {
	if s.mailer == nil {
		return nil, ErrEmailDisabled
	}
	email, period, format, err := parseDelivery(req.Email, req.Period, req.Format)
	if err != nil {
		return nil, err
	}
	artifact, err := s.reports.Generate(ctx, ReportRequest{
		ActionPlanID: req.ActionPlanID,
		Period:       period,
		Format:       format,
	})
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendReport(email, artifact); err != nil {
		return nil, err
	}
	log.Printf("[DIGEST] Sent %s to %s", artifact.Filename, email)
	return artifact, nil
}

// Subscribe stores a scheduled report subscription
func (s *DigestService) Subscribe(ctx context.Context, user models.User, req models.SubscriptionRequest) (*models.ReportSubscription, error) {
	email, period, format, err := parseDelivery(req.Email, req.Period, req.Format)
	if err != nil {
		return nil, err
	}
	sub := models.ReportSubscription{
		ID:           utils.GenerateUUID(),
		Email:        email,
		Period:       string(period),
		Format:       string(format),
		ActionPlanID: req.ActionPlanID,
		CreatedBy:    user.ID,
		CreatedAt:    s.now(),
	}
	if err := s.subs.CreateSubscription(ctx, &sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return &sub, nil
}

// List returns subscriptions. Admins and managers see all of them, users their own.
func (s *DigestService) List(ctx context.Context, user models.User) ([]models.ReportSubscription, error) {
	subs, err := s.subs.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if user.Role.CanManagePlans() {
		return subs, nil
	}
	own := make([]models.ReportSubscription, 0, len(subs))
	for _, sub := range subs {
		if sub.CreatedBy == user.ID {
			own = append(own, sub)
		}
	}
	return own, nil
}

// Unsubscribe deletes a subscription. Users may only delete their own.
func (s *DigestService) Unsubscribe(ctx context.Context, user models.User, id string) error {
	subs, err := s.List(ctx, models.User{Role: models.RoleAdmin})
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if sub.ID != id {
			continue
		}
		if sub.CreatedBy != user.ID && user.Role != models.RoleAdmin {
			return fmt.Errorf("%w: subscription belongs to another user", ErrForbidden)
		}
		return s.subs.DeleteSubscription(ctx, id)
	}
	return fmt.Errorf("subscription %s: %w", id, ErrNotFound)
}

func parseDelivery(email, period, format string) (string, report.Period, report.Format, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: email: %v", ErrInvalidInput, err)
	}
	p, err := report.ParsePeriod(period)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return addr.Address, p, f, nil
}
