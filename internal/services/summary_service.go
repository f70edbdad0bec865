package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/lumenave/visitor-pass-service/internal/repositories"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

// SummaryService emails the property manager a daily digest of pass
// activity for the facility.
type SummaryService struct {
	passes       repositories.PassRepository
	sgClient     *sendgrid.Client
	facilityID   uuid.UUID
	facilityName string
	fromEmail    string
	toEmail      string
	now          func() time.Time
}

func NewSummaryService(
	passes repositories.PassRepository,
	sgClient *sendgrid.Client,
	facilityID uuid.UUID,
	facilityName, fromEmail, toEmail string,
) *SummaryService {
	return &SummaryService{
		passes:       passes,
		sgClient:     sgClient,
		facilityID:   facilityID,
		facilityName: facilityName,
		fromEmail:    fromEmail,
		toEmail:      toEmail,
		now:          time.Now,
	}
}

func (s *SummaryService) SendDailySummary(ctx context.Context) error {
	since := s.now().Add(-24 * time.Hour)
	stats, err := s.passes.Stats(ctx, s.facilityID, since)
	if err != nil {
		return fmt.Errorf("fetching pass stats: %w", err)
	}

	subject := fmt.Sprintf("%s - visitor pass summary", s.facilityName)
	body := fmt.Sprintf(
		"Visitor pass activity for %s over the last 24 hours:\n\nPasses created: %d\nPasses redeemed: %d\nPasses expired: %d\n",
		s.facilityName, stats.Created, stats.Redeemed, stats.Expired,
	)

	from := mail.NewEmail(s.facilityName, s.fromEmail)
	to := mail.NewEmail("Property Manager", s.toEmail)
	msg := mail.NewSingleEmail(from, subject, to, body, "")

	resp, err := s.sgClient.Send(msg)
	if err != nil {
		return fmt.Errorf("sending summary email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sending summary email: sendgrid status %d", resp.StatusCode)
	}
	utils.Logger.Info("Sent daily pass summary email")
	return nil
}
