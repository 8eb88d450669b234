// Package transition_reservation обрабатывает переходы confirm, complete и no-show
package transition_reservation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "доступ запрещен"
	msgInvalidTransition    = "переход недоступен для текущего статуса бронирования"
	msgNoShowTooEarly       = "неявку можно отметить только после начала бронирования"
)

type Handler struct {
	route  string
	apply  TransitionFunc
	logger Logger
}

// NewConfirmHandler PATCH /api/v1/reservations/{reservationId}/confirm
func NewConfirmHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{route: "PATCH /reservations/{id}/confirm", apply: service.Confirm, logger: logger}
}

// NewCompleteHandler PATCH /api/v1/reservations/{reservationId}/complete
func NewCompleteHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{route: "PATCH /reservations/{id}/complete", apply: service.Complete, logger: logger}
}

// NewNoShowHandler PATCH /api/v1/reservations/{reservationId}/no-show
func NewNoShowHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{route: "PATCH /reservations/{id}/no-show", apply: service.MarkNoShow, logger: logger}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := strconv.ParseInt(mux.Vars(r)["reservationId"], 10, 64)
	if err != nil {
		h.logger.Warn("%s - Invalid reservation ID: %v", h.route, err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", h.route)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.apply(r.Context(), reservationID, &models.TransitionRequest{UserID: userID})
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			h.logger.Warn("%s - Reservation not found: reservation_id=%d", h.route, reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrAccessDenied), errors.Is(err, reservations.ErrShopNotFound):
			h.logger.Warn("%s - Access denied: reservation_id=%d, user_id=%d", h.route, reservationID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrInvalidTransition):
			h.logger.Warn("%s - Invalid transition: reservation_id=%d", h.route, reservationID)
			handlers.RespondConflict(w, msgInvalidTransition)

		case errors.Is(err, reservations.ErrNoShowTooEarly):
			h.logger.Warn("%s - Too early: reservation_id=%d", h.route, reservationID)
			handlers.RespondConflict(w, msgNoShowTooEarly)

		default:
			h.logger.Error("%s - Failed to apply transition: reservation_id=%d, error=%v", h.route, reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("%s - Transition applied: reservation_id=%d, status=%s, user_id=%d",
		h.route, reservationID, result.Status, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
