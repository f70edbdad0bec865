package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lumenave/visitor-pass-service/internal/dtos"
	"github.com/lumenave/visitor-pass-service/internal/services"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

var validate = validator.New()

// PassesController exposes the gate/kiosk redemption path. Chat-driven
// redemption and this endpoint share the same engine.
type PassesController struct {
	redemption *services.RedemptionService
}

func NewPassesController(redemption *services.RedemptionService) *PassesController {
	return &PassesController{redemption: redemption}
}

// ----------------------------------------------------------------
// POST /api/v1/passes/redeem
// ----------------------------------------------------------------
func (c *PassesController) RedeemHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Malformed JSON body", nil, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeValidation, "Invalid redeem request", nil, err)
		return
	}

	p, err := c.redemption.Redeem(r.Context(), req.Code)
	if err == nil {
		utils.RespondWithJSON(w, http.StatusOK, dtos.NewRedeemResponse(p))
		return
	}

	var notActive *utils.PassNotActiveError
	switch {
	case errors.As(err, &notActive):
		utils.RespondErrorWithCode(w, http.StatusConflict,
			utils.ErrCodePassNotActive, "Pass is no longer active",
			map[string]string{"status": string(notActive.Status)})
	case errors.Is(err, utils.ErrExpired):
		utils.RespondErrorWithCode(w, http.StatusGone,
			utils.ErrCodeExpired, "Pass validity window has closed", nil)
	case errors.Is(err, utils.ErrNotYetValid):
		var details any
		if p != nil {
			details = map[string]string{"valid_from": p.ValidFrom.Format("2006-01-02T15:04:05Z07:00")}
		}
		utils.RespondErrorWithCode(w, http.StatusConflict,
			utils.ErrCodeNotYetValid, "Pass validity window has not opened", details)
	case errors.Is(err, utils.ErrInvalidCode):
		utils.RespondErrorWithCode(w, http.StatusNotFound,
			utils.ErrCodeInvalidCode, "Code matches no pass", nil)
	default:
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable,
			utils.ErrCodeStoreUnhealthy, "Could not check the pass; please retry", nil, err)
	}
}
