package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/dojo-starter/internal/actions"
	"github.com/mcoot/dojo-starter/internal/api/response"
	"github.com/mcoot/dojo-starter/internal/model"
)

// ActionHandler performs gameplay actions
type ActionHandler struct {
	service *actions.Service
}

// NewActionHandler creates a new action handler
func NewActionHandler(service *actions.Service) *ActionHandler {
	return &ActionHandler{service: service}
}

// Perform handles POST /api/v1/actions/{action}
func (h *ActionHandler) Perform(w http.ResponseWriter, r *http.Request) {
	action, err := model.ParseAction(mux.Vars(r)["action"])
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.service.Perform(r.Context(), action)
	if err != nil {
		// a rejected transaction still has a result worth returning
		if result != nil && errors.Is(err, model.ErrTransactionRejected) {
			response.JSON(w, http.StatusConflict, result)
			return
		}
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}
