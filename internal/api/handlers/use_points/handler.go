package use_points

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/points"
)

const (
	msgInvalidCustomerID  = "некорректный ID клиента"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgForbidden          = "доступ запрещен"
	msgNotFound           = "бронирование не найдено"
	msgNotEditable        = "бронирование больше не принимает баллы"
	msgAlreadyApplied     = "баллы уже применены к бронированию"
	msgInsufficient       = "недостаточно доступных баллов"
)

type Handler struct {
	service PointsService
	logger  Logger
}

func NewHandler(service PointsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/customers/{customerId}/points/use
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(mux.Vars(r)["customerId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /customers/{id}/points/use - Invalid customer ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidCustomerID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /customers/{id}/points/use - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req UsePointsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /customers/{id}/points/use - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Use(r.Context(), req.ToServiceRequest(userID, customerID))
	if err != nil {
		switch {
		case errors.Is(err, points.ErrAccessDenied):
			h.logger.Warn("POST /customers/{id}/points/use - Access denied: customer_id=%d, user_id=%d", customerID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, points.ErrReservationNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, points.ErrReservationNotEditable):
			handlers.RespondConflict(w, msgNotEditable)

		case errors.Is(err, points.ErrPointsAlreadyApplied):
			handlers.RespondConflict(w, msgAlreadyApplied)

		case errors.Is(err, points.ErrInsufficientAvailableBalance):
			h.logger.Warn("POST /customers/{id}/points/use - Insufficient points: customer_id=%d, amount=%d",
				customerID, req.Amount)
			handlers.RespondConflict(w, msgInsufficient)

		case errors.Is(err, points.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /customers/{id}/points/use - Failed to use points: customer_id=%d, error=%v", customerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /customers/{id}/points/use - Points used: customer_id=%d, reservation_id=%d, amount=%d",
		customerID, req.ReservationID, req.Amount)
	handlers.RespondJSON(w, http.StatusOK, result)
}
