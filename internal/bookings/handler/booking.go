package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"resbook/internal/bookings/recurrence"
	"resbook/internal/bookings/service"
	apperrors "resbook/pkg/errors"
	httputil "resbook/pkg/http"
	"resbook/pkg/logger"
	"resbook/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// seriesResponse is the GET payload for one series together with its
// materialized occurrences.
type seriesResponse struct {
	Series    *model.BookingSeries     `json:"series"`
	Instances []*model.BookingInstance `json:"instances"`
}

type cancelOccurrenceRequest struct {
	Date time.Time `json:"date"`
}

// Create books a request. A granted booking answers 201; a request that
// loses to existing bookings answers 409 with the conflicts and suggested
// alternative slots in the body.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	result, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if !result.Booked() {
		if writeErr := httputil.WriteJSON(w, http.StatusConflict, httputil.SuccessResponse{Data: result}); writeErr != nil {
			h.log.Error("failed to write conflict response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetSeries(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	series, instances, err := h.service.GetSeries(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetSeries", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, seriesResponse{Series: series, Instances: instances}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSeries", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) DeleteSeries(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if _, err := h.service.DeleteSeries(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeleteSeries", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

// CancelOccurrence cancels one occurrence of a series. Any instant within
// the occurrence's UTC calendar day identifies it. Repeating the call for an
// already cancelled occurrence answers 200 with the same exception record.
func (h *BookingHandler) CancelOccurrence(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var req cancelOccurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CancelOccurrence", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if req.Date.IsZero() {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("date is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CancelOccurrence", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	instance, err := h.service.CancelOccurrence(r.Context(), id, req.Date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CancelOccurrence", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, instance); err != nil {
		h.log.Error("failed to write success response", "handler", "CancelOccurrence", "operation", "WriteSuccess", "error", err)
	}
}

// CheckConflicts previews a booking request without persisting anything.
// The answer is always 200; an empty conflict list means the slot is free.
func (h *BookingHandler) CheckConflicts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CheckConflicts", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	outcome, err := h.service.CheckConflicts(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CheckConflicts", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, outcome); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckConflicts", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resourceID := ps.ByName("resourceID")

	window, err := httputil.ExtractTimeRange(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	free, err := h.service.Availability(r.Context(), resourceID, window)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, free); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListOccurrences(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resourceID := ps.ByName("resourceID")

	window, err := httputil.ExtractTimeRange(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListOccurrences", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListOccurrences", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	occurrences, err := h.service.ListOccurrences(r.Context(), resourceID, window)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListOccurrences", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	total := int64(len(occurrences))
	page := paginateOccurrences(occurrences, limit, offset)

	if err := httputil.WritePaginated(w, page, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListOccurrences", "operation", "WritePaginated", "error", err)
	}
}

// paginateOccurrences slices one page out of the window's occurrence list.
// The service already orders occurrences by start time.
func paginateOccurrences(occurrences []model.Occurrence, limit int, offset int64) []model.Occurrence {
	if offset >= int64(len(occurrences)) {
		return []model.Occurrence{}
	}
	end := offset + int64(limit)
	if end > int64(len(occurrences)) {
		end = int64(len(occurrences))
	}
	return occurrences[offset:end]
}

// Suggest proposes free slots for a resource. `duration` is required; `from`
// defaults to now, `rule` (RFC 5545 text) makes the candidates follow a
// recurrence cadence, and `max_slots` caps the answer.
func (h *BookingHandler) Suggest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resourceID := ps.ByName("resourceID")

	duration, err := httputil.ExtractDuration(r, "duration")
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Suggest", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	from, err := httputil.ExtractTime(r, "from")
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Suggest", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	rule, err := recurrence.ParseRule(r.URL.Query().Get("rule"))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid rule parameter: "+err.Error())); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Suggest", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	maxSlots, err := httputil.ExtractInt(r, "max_slots", -1)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Suggest", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	slots, err := h.service.Suggest(r.Context(), resourceID, duration, from, rule, maxSlots)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Suggest", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "Suggest", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.POST("/api/v1/bookings/check", h.CheckConflicts)
	router.GET("/api/v1/bookings/id/:id", h.GetSeries)
	router.DELETE("/api/v1/bookings/id/:id", h.DeleteSeries)
	router.POST("/api/v1/bookings/id/:id/occurrences/cancel", h.CancelOccurrence)
	router.GET("/api/v1/resources/:resourceID/availability", h.Availability)
	router.GET("/api/v1/resources/:resourceID/occurrences", h.ListOccurrences)
	router.GET("/api/v1/resources/:resourceID/suggestions", h.Suggest)
}
