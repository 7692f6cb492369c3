package devnet

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/dojo-starter/internal/api/apierr"
	"github.com/mcoot/dojo-starter/internal/api/response"
	"github.com/mcoot/dojo-starter/internal/middleware"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/sign"
)

// maxPayloadBytes bounds a transaction body
const maxPayloadBytes = 64 << 10

// RouterConfig holds configuration for the devnet router
type RouterConfig struct {
	Logger *slog.Logger
	World  *World
}

// NewRouter creates the devnet HTTP router
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	h := &handler{world: cfg.World}

	r.Use(middleware.Logging(cfg.Logger, "/health"))
	r.Use(middleware.Recovery(cfg.Logger, panicHandler))

	r.HandleFunc("/tx/player/{action}", h.submit).Methods(http.MethodPost)
	r.HandleFunc("/query/player/{owner}", h.player).Methods(http.MethodGet)
	r.HandleFunc("/query/receipt/{hash}", h.receipt).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	return r
}

func panicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError(middleware.RequestID(r.Context())))
}

type handler struct {
	world *World
}

// submit handles POST /tx/player/{action}
func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	action := model.Action(mux.Vars(r)["action"])

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("unable to read body"))
		return
	}
	payload, err := sign.Unmarshal(body)
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid signed payload"))
		return
	}

	resp, err := h.world.Execute(r.Context(), action, payload)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// player handles GET /query/player/{owner}
func (h *handler) player(w http.ResponseWriter, r *http.Request) {
	p, err := h.world.Player(r.Context(), mux.Vars(r)["owner"])
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// receipt handles GET /query/receipt/{hash}
func (h *handler) receipt(w http.ResponseWriter, r *http.Request) {
	rc, err := h.world.Receipt(r.Context(), mux.Vars(r)["hash"])
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, rc)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"namespace": h.world.Namespace(),
	})
}
