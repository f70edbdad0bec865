package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/repositories"
	"github.com/lumenave/visitor-pass-service/internal/transport"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

/*
   ChatRouterService is the conversational front door. Each inbound message
   is dispatched, in order, to: the sender's live visitor session, the
   sender's in-flight wizard, a bare pass-code redemption, or the resident
   main menu. A wizard in flight always sees the message first, so a visitor
   name that happens to look like a pass code still lands in the draft.
   Visitor-scoped numbers can never fall through to resident actions.
*/
type ChatRouterService struct {
	residents    repositories.ResidentRepository
	passes       *PassService
	wizard       *WizardService
	redemption   *RedemptionService
	visitorScope *VisitorScopeService
	messenger    transport.Messenger
	clock        *utils.CivilClock
	now          func() time.Time
}

func NewChatRouterService(
	residents repositories.ResidentRepository,
	passes *PassService,
	wizard *WizardService,
	redemption *RedemptionService,
	visitorScope *VisitorScopeService,
	messenger transport.Messenger,
	clock *utils.CivilClock,
) *ChatRouterService {
	return &ChatRouterService{
		residents:    residents,
		passes:       passes,
		wizard:       wizard,
		redemption:   redemption,
		visitorScope: visitorScope,
		messenger:    messenger,
		clock:        clock,
		now:          time.Now,
	}
}

func (s *ChatRouterService) HandleInbound(ctx context.Context, from, body string) error {
	if sess := s.visitorScope.Active(from); sess != nil {
		return s.visitorScope.Handle(ctx, from, body)
	}

	input := strings.TrimSpace(body)

	res, err := s.residents.FindByPhone(ctx, from)
	if err != nil {
		if sendErr := s.messenger.SendText(ctx, from, "We're having trouble right now. Please try again."); sendErr != nil {
			utils.Logger.WithError(sendErr).Warn("Failed to send lookup-failure reply")
		}
		return err
	}

	if res != nil && s.wizard.Active(res) {
		return s.wizard.HandleInput(ctx, res, input)
	}

	if utils.IsPassCodeShaped(utils.NormalizePassCode(input)) {
		return s.redeem(ctx, from, input)
	}

	if res == nil {
		return s.messenger.SendText(ctx, from,
			"This number isn't registered with us. If you're a visitor with a pass code, just send the code.")
	}

	switch strings.ToLower(input) {
	case "1", "pass", "new pass", "visitor", "visitor pass":
		return s.wizard.Start(ctx, res)
	case "2", "my passes", "passes":
		return s.listPasses(ctx, res)
	default:
		return s.messenger.SendChoices(ctx, res.Phone,
			"Hi "+res.Name+"! What would you like to do?", s.mainMenu())
	}
}

func (s *ChatRouterService) mainMenu() []transport.Choice {
	return []transport.Choice{
		{ID: "pass", Label: "Create a visitor pass"},
		{ID: "my passes", Label: "My passes"},
	}
}

func (s *ChatRouterService) listPasses(ctx context.Context, res *models.Resident) error {
	passes, err := s.passes.ListForResident(ctx, res.ID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to list passes")
		return s.messenger.SendText(ctx, res.Phone, "We couldn't load your passes right now. Please try again.")
	}
	if len(passes) == 0 {
		return s.messenger.SendText(ctx, res.Phone, "You have no passes yet. Send 'new pass' to create one.")
	}

	var b strings.Builder
	b.WriteString("Your passes:")
	for _, p := range passes {
		fmt.Fprintf(&b, "\n%s · %s (%s) · %s to %s · %s",
			p.Code, p.VisitorName, p.VisitorType,
			s.clock.ToCivilDisplay(p.ValidFrom), s.clock.ToCivilDisplay(p.ValidUntil),
			p.Status,
		)
	}
	return s.messenger.SendText(ctx, res.Phone, b.String())
}

// redeem runs the redemption engine for a bare code message and renders
// every business outcome with its own distinguishing reply.
func (s *ChatRouterService) redeem(ctx context.Context, from, rawCode string) error {
	p, err := s.redemption.Redeem(ctx, rawCode)
	if err == nil {
		sess := &models.VisitorSession{
			VisitorName: p.VisitorName,
			PassCode:    p.Code,
			UnitID:      p.UnitID,
			FacilityID:  p.FacilityID,
			ValidUntil:  p.ValidUntil,
			StartedAt:   s.now(),
		}
		return s.visitorScope.Start(ctx, from, sess)
	}

	var notActive *utils.PassNotActiveError
	switch {
	case errors.As(err, &notActive):
		return s.messenger.SendText(ctx, from, renderNotActive(notActive.Status))
	case errors.Is(err, utils.ErrExpired):
		return s.messenger.SendText(ctx, from, "This pass has expired.")
	case errors.Is(err, utils.ErrNotYetValid):
		msg := "This pass isn't valid yet."
		if p != nil {
			msg = "This pass isn't valid yet. It opens at " + s.clock.ToCivilDisplay(p.ValidFrom) + "."
		}
		return s.messenger.SendText(ctx, from, msg)
	case errors.Is(err, utils.ErrInvalidCode):
		return s.messenger.SendText(ctx, from, "That code doesn't match any pass. Check it and try again.")
	case errors.Is(err, utils.ErrTransientStore):
		return s.messenger.SendText(ctx, from, "We couldn't check your pass right now. Please try again.")
	default:
		utils.Logger.WithError(err).Error("Redemption failed unexpectedly")
		return s.messenger.SendText(ctx, from, "We couldn't check your pass right now. Please try again.")
	}
}

func renderNotActive(status models.PassStatus) string {
	switch status {
	case models.PassStatusUsed:
		return "This pass has already been used."
	case models.PassStatusExpired:
		return "This pass has expired."
	case models.PassStatusRevoked:
		return "This pass was revoked by the facility."
	case models.PassStatusCancelled:
		return "This pass was cancelled."
	default:
		return "This pass is no longer active."
	}
}
