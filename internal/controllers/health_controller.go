package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/lumenave/visitor-pass-service/internal/app"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

type HealthController struct {
	application *app.App
}

func NewHealthController(application *app.App) *HealthController {
	return &HealthController{application: application}
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := c.application.DB.Ping(ctx); err != nil {
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable,
			utils.ErrCodeStoreUnhealthy, "Database unreachable", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
