package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/transport"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

type wizardStep int

const (
	stepVisitorName wizardStep = iota
	stepVisitorType
	stepWindow
	stepDurationOrSingleUse
	stepConfirm
)

const defaultSingleUseHours = 4

// wizardState is the draft pass being collected from one resident. It lives
// only in the keyed in-process store; an abandoned wizard is evicted after
// the idle TTL and produces no partial pass.
type wizardState struct {
	Step wizardStep

	VisitorName string
	VisitorType models.VisitorType

	WindowFixed bool // all-day windows arrive with both ends set
	ValidFrom   time.Time
	ValidUntil  time.Time

	SingleUse     bool
	RetriedCreate bool
}

/*
   WizardService drives the per-resident pass-creation conversation:
   COLLECT_VISITOR_NAME -> COLLECT_VISITOR_TYPE -> COLLECT_WINDOW ->
   COLLECT_DURATION_OR_SINGLE_USE -> CONFIRM. One instance per resident;
   'cancel' at any step discards everything.
*/
type WizardService struct {
	states    *gocache.Cache // resident id -> *wizardState
	passes    *PassService
	messenger transport.Messenger
	clock     *utils.CivilClock
	idleTTL   time.Duration
	now       func() time.Time
}

func NewWizardService(
	passes *PassService,
	messenger transport.Messenger,
	clock *utils.CivilClock,
	idleTTL time.Duration,
) *WizardService {
	return &WizardService{
		states:    gocache.New(idleTTL, 5*time.Minute),
		passes:    passes,
		messenger: messenger,
		clock:     clock,
		idleTTL:   idleTTL,
		now:       time.Now,
	}
}

// Active reports whether the resident has a wizard in flight.
func (s *WizardService) Active(res *models.Resident) bool {
	_, ok := s.states.Get(res.ID.String())
	return ok
}

// Start begins a fresh wizard for the resident, replacing any stale one.
func (s *WizardService) Start(ctx context.Context, res *models.Resident) error {
	s.put(res, &wizardState{Step: stepVisitorName})
	return s.messenger.SendText(ctx, res.Phone,
		"Let's set up a visitor pass. Who is visiting? Reply with the visitor's name, or 'cancel' anytime.")
}

// HandleInput advances the wizard with one inbound message.
func (s *WizardService) HandleInput(ctx context.Context, res *models.Resident, input string) error {
	input = strings.TrimSpace(input)

	st := s.get(res)
	if st == nil {
		return s.Start(ctx, res)
	}

	if strings.EqualFold(input, "cancel") {
		s.states.Delete(res.ID.String())
		return s.messenger.SendText(ctx, res.Phone, "Pass creation cancelled. Nothing was saved.")
	}

	switch st.Step {
	case stepVisitorName:
		return s.collectName(ctx, res, st, input)
	case stepVisitorType:
		return s.collectType(ctx, res, st, input)
	case stepWindow:
		return s.collectWindow(ctx, res, st, input)
	case stepDurationOrSingleUse:
		return s.collectDuration(ctx, res, st, input)
	case stepConfirm:
		return s.confirm(ctx, res, st, input)
	default:
		s.states.Delete(res.ID.String())
		return s.messenger.SendText(ctx, res.Phone, "Something went wrong; let's start over. Send 'new pass' to begin.")
	}
}

/* ---------- steps ---------- */

func (s *WizardService) collectName(ctx context.Context, res *models.Resident, st *wizardState, input string) error {
	if input == "" || len(input) > 80 {
		return s.messenger.SendText(ctx, res.Phone, "Please reply with the visitor's name (up to 80 characters).")
	}
	st.VisitorName = input
	st.Step = stepVisitorType
	s.put(res, st)
	return s.messenger.SendChoices(ctx, res.Phone, "What kind of visit is this?", visitorTypeChoices())
}

func (s *WizardService) collectType(ctx context.Context, res *models.Resident, st *wizardState, input string) error {
	vt, ok := parseVisitorTypeInput(input)
	if !ok {
		return s.messenger.SendChoices(ctx, res.Phone, "Please pick one of these:", visitorTypeChoices())
	}
	st.VisitorType = vt
	st.Step = stepWindow
	s.put(res, st)
	return s.messenger.SendChoices(ctx, res.Phone,
		"When should the pass start? Prefix with 'tomorrow' for tomorrow (e.g. 'tomorrow morning').",
		windowChoices())
}

func (s *WizardService) collectWindow(ctx context.Context, res *models.Resident, st *wizardState, input string) error {
	now := s.now()
	date := s.clock.DateOf(now)

	normalized := strings.ToLower(strings.TrimSpace(input))
	if rest, ok := strings.CutPrefix(normalized, "tomorrow"); ok {
		date = s.clock.NextDate(date)
		normalized = strings.TrimSpace(rest)
	}
	if n, err := strconv.Atoi(normalized); err == nil {
		if mapped, ok := windowChoiceByNumber(n); ok {
			normalized = mapped
		}
	}

	sel, err := utils.ParseTimeSelector(normalized)
	if err != nil {
		return s.messenger.SendChoices(ctx, res.Phone, "Please pick a start time:", windowChoices())
	}

	if sel == utils.SelectorAllDay {
		from, until := s.clock.AllDayWindow(date)
		if !now.Before(until) {
			return s.messenger.SendChoices(ctx, res.Phone,
				"Today's all-day window has already closed. Pick a start time, or prefix with 'tomorrow':",
				windowChoices())
		}
		st.ValidFrom, st.ValidUntil = from, until
		st.WindowFixed = true
		st.Step = stepDurationOrSingleUse
		s.put(res, st)
		return s.messenger.SendText(ctx, res.Phone,
			"All-day pass ("+s.clock.ToCivilDisplay(st.ValidFrom)+" to "+s.clock.ToCivilDisplay(st.ValidUntil)+
				"). Should it allow a single entry or multiple? Reply 'single' or 'multiple'.")
	}

	from, err := s.clock.ToAbsolute(date, sel, now)
	if err != nil {
		return s.messenger.SendChoices(ctx, res.Phone, "Please pick a start time:", windowChoices())
	}
	if sel != utils.SelectorNow && from.Before(now) {
		return s.messenger.SendChoices(ctx, res.Phone,
			"That time has already passed today. Pick a start time, or prefix with 'tomorrow':",
			windowChoices())
	}
	st.ValidFrom = from
	st.WindowFixed = false
	st.Step = stepDurationOrSingleUse
	s.put(res, st)
	return s.messenger.SendText(ctx, res.Phone,
		"Starting "+s.clock.ToCivilDisplay(from)+
			". How many hours should it stay valid? Reply with a number (e.g. 4), or 'single' for a single-entry pass.")
}

func (s *WizardService) collectDuration(ctx context.Context, res *models.Resident, st *wizardState, input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))

	if st.WindowFixed {
		switch normalized {
		case "single", "1":
			st.SingleUse = true
		case "multiple", "multi", "2":
			st.SingleUse = false
		default:
			return s.messenger.SendText(ctx, res.Phone, "Reply 'single' for one entry or 'multiple' for repeated entries.")
		}
		return s.toConfirm(ctx, res, st)
	}

	hours, single, ok := parseDurationInput(normalized)
	if !ok {
		return s.messenger.SendText(ctx, res.Phone,
			"Please reply with the number of hours (1-24), or 'single' for a single-entry pass.")
	}
	st.SingleUse = single
	st.ValidUntil = st.ValidFrom.Add(time.Duration(hours) * time.Hour)
	return s.toConfirm(ctx, res, st)
}

func (s *WizardService) toConfirm(ctx context.Context, res *models.Resident, st *wizardState) error {
	st.Step = stepConfirm
	s.put(res, st)

	entry := "multiple entries"
	if st.SingleUse {
		entry = "single entry"
	}
	summary := fmt.Sprintf(
		"Please confirm:\nVisitor: %s\nType: %s\nValid: %s to %s\nEntry: %s\nReply 'yes' to create the pass, or 'cancel'.",
		st.VisitorName, st.VisitorType,
		s.clock.ToCivilDisplay(st.ValidFrom), s.clock.ToCivilDisplay(st.ValidUntil),
		entry,
	)
	return s.messenger.SendText(ctx, res.Phone, summary)
}

func (s *WizardService) confirm(ctx context.Context, res *models.Resident, st *wizardState, input string) error {
	switch strings.ToLower(input) {
	case "yes", "y", "confirm":
	default:
		return s.messenger.SendText(ctx, res.Phone, "Reply 'yes' to create the pass, or 'cancel' to discard it.")
	}

	in := CreatePassInput{
		Resident:    res,
		VisitorName: st.VisitorName,
		VisitorType: st.VisitorType,
		ValidFrom:   st.ValidFrom,
		ValidUntil:  st.ValidUntil,
		SingleUse:   st.SingleUse,
	}
	p, err := s.passes.CreatePass(ctx, in)
	if errors.Is(err, utils.ErrDuplicateCodeExhausted) || errors.Is(err, utils.ErrTransientStore) {
		// One automatic retry before bothering the resident.
		p, err = s.passes.CreatePass(ctx, in)
	}
	if err == nil {
		s.states.Delete(res.ID.String())
		return s.messenger.SendText(ctx, res.Phone, fmt.Sprintf(
			"Pass created for %s.\nCode: %s\nValid: %s to %s\nShare the code with your visitor; they just send it to this number on arrival.",
			p.VisitorName, p.Code,
			s.clock.ToCivilDisplay(p.ValidFrom), s.clock.ToCivilDisplay(p.ValidUntil),
		))
	}

	if errors.Is(err, utils.ErrInvalidWindow) {
		// The chosen start has already passed (e.g. 'morning' confirmed in
		// the evening). Collected fields survive; re-collect the window.
		st.Step = stepWindow
		s.put(res, st)
		return s.messenger.SendChoices(ctx, res.Phone,
			"That time window has already passed. When should the pass start?", windowChoices())
	}

	if errors.Is(err, utils.ErrDuplicateCodeExhausted) || errors.Is(err, utils.ErrTransientStore) {
		if !st.RetriedCreate {
			st.RetriedCreate = true
			s.put(res, st)
			return s.messenger.SendText(ctx, res.Phone,
				"Saving the pass hit a snag. Nothing was lost - reply 'yes' to try once more, or 'cancel'.")
		}
		s.states.Delete(res.ID.String())
		utils.Logger.WithError(err).Error("Pass creation failed twice; discarding wizard")
		return s.messenger.SendText(ctx, res.Phone,
			"We couldn't create the pass right now. Please try again in a few minutes.")
	}

	s.states.Delete(res.ID.String())
	utils.Logger.WithError(err).Error("Pass creation failed")
	return s.messenger.SendText(ctx, res.Phone, "We couldn't create the pass. Please start over with 'new pass'.")
}

/* ---------- input parsing ---------- */

func visitorTypeChoices() []transport.Choice {
	return []transport.Choice{
		{ID: "guest", Label: "Guest"},
		{ID: "delivery", Label: "Delivery"},
		{ID: "contractor", Label: "Contractor"},
		{ID: "service", Label: "Service"},
		{ID: "other", Label: "Other"},
	}
}

func parseVisitorTypeInput(input string) (models.VisitorType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if n, err := strconv.Atoi(normalized); err == nil {
		choices := visitorTypeChoices()
		if n >= 1 && n <= len(choices) {
			normalized = choices[n-1].ID
		}
	}
	vt, err := models.ParseVisitorType(normalized)
	if err != nil {
		return "", false
	}
	return vt, true
}

func windowChoices() []transport.Choice {
	return []transport.Choice{
		{ID: "now", Label: "Now"},
		{ID: "morning", Label: "Morning (09:00)"},
		{ID: "afternoon", Label: "Afternoon (14:00)"},
		{ID: "evening", Label: "Evening (18:00)"},
		{ID: "all day", Label: "All day (07:00-23:00)"},
	}
}

func windowChoiceByNumber(n int) (string, bool) {
	choices := windowChoices()
	if n < 1 || n > len(choices) {
		return "", false
	}
	return choices[n-1].ID, true
}

// parseDurationInput accepts "4", "single", or "4 single".
func parseDurationInput(input string) (hours int, single bool, ok bool) {
	hours = defaultSingleUseHours
	for _, field := range strings.Fields(input) {
		if field == "single" {
			single = true
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > 24 {
			return 0, false, false
		}
		hours = n
	}
	if len(strings.Fields(input)) == 0 {
		return 0, false, false
	}
	return hours, single, true
}

/* ---------- state store ---------- */

func (s *WizardService) get(res *models.Resident) *wizardState {
	v, ok := s.states.Get(res.ID.String())
	if !ok {
		return nil
	}
	return v.(*wizardState)
}

func (s *WizardService) put(res *models.Resident, st *wizardState) {
	s.states.Set(res.ID.String(), st, s.idleTTL)
}
