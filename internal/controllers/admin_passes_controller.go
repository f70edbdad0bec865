package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/lumenave/visitor-pass-service/internal/dtos"
	"github.com/lumenave/visitor-pass-service/internal/middleware"
	"github.com/lumenave/visitor-pass-service/internal/models"
	"github.com/lumenave/visitor-pass-service/internal/repositories"
	"github.com/lumenave/visitor-pass-service/internal/services"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

// AdminPassesController is the oversight HTTP surface: facility listings
// with filters plus mark-reviewed and revoke.
type AdminPassesController struct {
	admin      *services.AdminPassService
	clock      *utils.CivilClock
	facilityID uuid.UUID
}

func NewAdminPassesController(admin *services.AdminPassService, clock *utils.CivilClock, facilityID uuid.UUID) *AdminPassesController {
	return &AdminPassesController{admin: admin, clock: clock, facilityID: facilityID}
}

// ----------------------------------------------------------------
// GET /api/v1/admin/passes?status=&type=&from=&to=
// ----------------------------------------------------------------
func (c *AdminPassesController) ListHandler(w http.ResponseWriter, r *http.Request) {
	f, err := parsePassFilters(r)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, err.Error(), nil)
		return
	}

	passes, err := c.admin.ListFacilityPasses(r.Context(), c.facilityID, f)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Failed to list passes", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewPassResponses(passes, c.clock))
}

// ----------------------------------------------------------------
// POST /api/v1/admin/passes/{id}/review
// ----------------------------------------------------------------
func (c *AdminPassesController) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	passID, actor, ok := c.passIDAndActor(w, r)
	if !ok {
		return
	}

	var req dtos.ReviewPassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Malformed JSON body", nil, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeValidation, "Invalid review request", nil, err)
		return
	}

	p, err := c.admin.MarkReviewed(r.Context(), passID, actor, req.Notes)
	c.respondMutation(w, p, err)
}

// ----------------------------------------------------------------
// POST /api/v1/admin/passes/{id}/revoke
// ----------------------------------------------------------------
func (c *AdminPassesController) RevokeHandler(w http.ResponseWriter, r *http.Request) {
	passID, actor, ok := c.passIDAndActor(w, r)
	if !ok {
		return
	}

	var req dtos.RevokePassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Malformed JSON body", nil, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeValidation, "Invalid revoke request", nil, err)
		return
	}

	p, err := c.admin.Revoke(r.Context(), passID, actor, req.Reason)
	c.respondMutation(w, p, err)
}

/* ---------- helpers ---------- */

func (c *AdminPassesController) passIDAndActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	actor, _ := r.Context().Value(middleware.ContextKeyAdminID).(string)
	if actor == "" {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized,
			utils.ErrCodeUnauthorized, "No admin identity in context", nil)
		return uuid.Nil, "", false
	}

	passID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Invalid pass id", nil, err)
		return uuid.Nil, "", false
	}
	return passID, actor, true
}

func (c *AdminPassesController) respondMutation(w http.ResponseWriter, p *models.Pass, err error) {
	if err == nil {
		utils.RespondWithJSON(w, http.StatusOK, dtos.NewPassResponse(p, c.clock))
		return
	}

	var notActive *utils.PassNotActiveError
	switch {
	case errors.Is(err, utils.ErrInvalidCode):
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeNotFound, "Pass not found", nil)
	case errors.Is(err, utils.ErrPassImmutable):
		utils.RespondErrorWithCode(w, http.StatusConflict,
			utils.ErrCodePassImmutable, "A used pass is immutable", nil)
	case errors.As(err, &notActive):
		utils.RespondErrorWithCode(w, http.StatusConflict,
			utils.ErrCodeConflict, "Pass is already in a terminal state",
			map[string]string{"status": string(notActive.Status)})
	default:
		utils.RespondErrorWithCode(w, http.StatusInternalServerError,
			utils.ErrCodeInternal, "Pass update failed", nil, err)
	}
}

func parsePassFilters(r *http.Request) (repositories.PassFilters, error) {
	var f repositories.PassFilters
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status, err := models.ParsePassStatus(v)
		if err != nil {
			return f, err
		}
		f.Status = &status
	}
	if v := q.Get("type"); v != "" {
		vt, err := models.ParseVisitorType(v)
		if err != nil {
			return f, err
		}
		f.VisitorType = &vt
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.To = &t
	}
	return f, nil
}
