package controllers

import (
	"net/http"

	"github.com/lumenave/visitor-pass-service/internal/services"
	"github.com/lumenave/visitor-pass-service/internal/utils"
)

// MessageController receives Twilio's inbound-message webhook and feeds the
// chat router. Twilio only needs a 2xx back; replies go out through the
// Messenger, not this response.
type MessageController struct {
	router *services.ChatRouterService
}

func NewMessageController(router *services.ChatRouterService) *MessageController {
	return &MessageController{router: router}
}

// ----------------------------------------------------------------
// POST /webhook/twilio/message
// ----------------------------------------------------------------
func (c *MessageController) InboundMessageHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Malformed webhook payload", nil, err)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest,
			utils.ErrCodeInvalidPayload, "Missing From field", nil)
		return
	}

	if err := c.router.HandleInbound(r.Context(), from, body); err != nil {
		// The sender already got (or will get) a conversational reply;
		// Twilio itself only cares that we accepted delivery.
		utils.Logger.WithError(err).Error("Inbound message handling failed")
	}
	w.WriteHeader(http.StatusNoContent)
}
