package handler

import (
	"net/http"

	"fleetbook/internal/reservations/service"
	httputil "fleetbook/pkg/http"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var reservation model.Reservation
	if err := httputil.DecodeJSON(r, &reservation); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &reservation); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	h.writeSuccess(w, "GetByID", reservation)
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ReservationUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	outcome, err := h.service.Reschedule(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}
	h.writeSuccess(w, "Reschedule", outcome)
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	outcome, err := h.service.Confirm(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Confirm", err)
		return
	}
	h.writeSuccess(w, "Confirm", outcome)
}

func (h *ReservationHandler) Preflight(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	preflight, err := h.service.Preflight(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Preflight", err)
		return
	}
	h.writeSuccess(w, "Preflight", preflight)
}

func (h *ReservationHandler) AnalyzeEdit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.EditRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "AnalyzeEdit", err)
		return
	}

	analysis, err := h.service.AnalyzeEdit(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "AnalyzeEdit", err)
		return
	}
	h.writeSuccess(w, "AnalyzeEdit", analysis)
}

func (h *ReservationHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from, err := httputil.ParseTimeParam(r, "from")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	to, err := httputil.ParseTimeParam(r, "to")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	reservations, err := h.service.SearchByResource(r.Context(), r.URL.Query().Get("resource_id"), from, to)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	if reservations == nil {
		reservations = []*model.Reservation{}
	}
	h.writeSuccess(w, "Search", reservations)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations/search", h.Search)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PATCH("/api/v1/reservations/id/:id", h.Reschedule)
	router.DELETE("/api/v1/reservations/id/:id", h.Delete)
	router.POST("/api/v1/reservations/id/:id/confirm", h.Confirm)
	router.GET("/api/v1/reservations/id/:id/preflight", h.Preflight)
	router.POST("/api/v1/reservations/id/:id/edit-analysis", h.AnalyzeEdit)
}
