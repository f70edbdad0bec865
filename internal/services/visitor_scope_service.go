package services

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/transport"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

// FacilityInfo is the static content a visitor-scoped session may read.
type FacilityInfo struct {
	Name             string
	InfoText         string
	Directions       string
	EmergencyContact string
}

/*
   VisitorScopeService holds the reduced-capability sessions granted by
   redemption. Sessions live only in process memory, evicted at the pass's
   valid_until; while one is active every inbound action from that number is
   matched against a fixed allow-list and nothing else is reachable.
*/
type VisitorScopeService struct {
	sessions  *gocache.Cache // phone -> *models.VisitorSession
	messenger transport.Messenger
	clock     *utils.CivilClock
	info      FacilityInfo
	now       func() time.Time
}

func NewVisitorScopeService(messenger transport.Messenger, clock *utils.CivilClock, info FacilityInfo) *VisitorScopeService {
	return &VisitorScopeService{
		sessions:  gocache.New(gocache.NoExpiration, 10*time.Minute),
		messenger: messenger,
		clock:     clock,
		info:      info,
		now:       time.Now,
	}
}

// Start installs the session and greets the visitor with the allowed menu.
func (s *VisitorScopeService) Start(ctx context.Context, phone string, sess *models.VisitorSession) error {
	ttl := sess.ValidUntil.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	s.sessions.Set(phone, sess, ttl)
	greeting := "Welcome, " + sess.VisitorName + "! You're checked in at " + s.info.Name + ". What do you need?"
	return s.messenger.SendChoices(ctx, phone, greeting, s.menu())
}

// Active returns the live session for the phone, expiring it on read when
// the pass window has since closed.
func (s *VisitorScopeService) Active(phone string) *models.VisitorSession {
	v, ok := s.sessions.Get(phone)
	if !ok {
		return nil
	}
	sess := v.(*models.VisitorSession)
	if !s.now().Before(sess.ValidUntil) {
		s.sessions.Delete(phone)
		return nil
	}
	return sess
}

// Handle serves one inbound action from a visitor-scoped number. Anything
// outside the allow-list gets a capability-denied reply and the menu again;
// resident actions are unreachable from here no matter the input.
func (s *VisitorScopeService) Handle(ctx context.Context, phone, input string) error {
	sess := s.Active(phone)
	if sess == nil {
		return s.messenger.SendText(ctx, phone, "Your visit has ended. If you have a new pass code, send just the code.")
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "info", "facility info":
		return s.messenger.SendText(ctx, phone, s.info.InfoText)
	case "2", "directions":
		return s.messenger.SendText(ctx, phone, s.info.Directions)
	case "3", "emergency", "emergency contact":
		return s.messenger.SendText(ctx, phone, s.info.EmergencyContact)
	case "4", "exit", "done", "bye":
		s.sessions.Delete(phone)
		return s.messenger.SendText(ctx, phone, "Thanks for visiting "+s.info.Name+". Goodbye!")
	default:
		return s.messenger.SendChoices(ctx, phone,
			"Sorry, that isn't available during a visit. You can:", s.menu())
	}
}

func (s *VisitorScopeService) menu() []transport.Choice {
	return []transport.Choice{
		{ID: "info", Label: "Facility info"},
		{ID: "directions", Label: "Directions"},
		{ID: "emergency", Label: "Emergency contact"},
		{ID: "exit", Label: "Exit"},
	}
}
