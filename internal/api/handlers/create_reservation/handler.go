package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	createReservation "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidReservedAt  = "некорректное время бронирования, ожидается RFC3339"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgSlotConflict       = "выбранное время пересекается с другим бронированием"
	msgShopNotFound       = "магазин не найден"
	msgServiceNotFound    = "услуга не найдена"
	msgShopInactive       = "магазин не принимает бронирования"
	msgServiceInactive    = "услуга недоступна"
	msgShopClosed         = "магазин закрыт в выбранную дату"
	msgOutsideHours       = "бронирование выходит за часы работы магазина"
	msgInvalidDate        = "нельзя забронировать время в прошлом"
	msgInsufficientPoints = "недостаточно доступных баллов"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /reservations - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservedAt)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createReservation.ErrSlotConflict):
			h.logger.Warn("POST /reservations - Slot conflict: user_id=%d, shop_id=%d", userID, req.ShopID)
			handlers.RespondConflict(w, msgSlotConflict)

		case errors.Is(err, createReservation.ErrInsufficientAvailableBalance):
			h.logger.Warn("POST /reservations - Insufficient points: user_id=%d, points=%d", userID, req.PointsToUse)
			handlers.RespondConflict(w, msgInsufficientPoints)

		case errors.Is(err, createReservation.ErrShopNotFound):
			h.logger.Warn("POST /reservations - Shop not found: shop_id=%d", req.ShopID)
			handlers.RespondNotFound(w, msgShopNotFound)

		case errors.Is(err, createReservation.ErrServiceNotFound):
			h.logger.Warn("POST /reservations - Service not found: user_id=%d, shop_id=%d", userID, req.ShopID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, createReservation.ErrShopInactive):
			handlers.RespondBadRequest(w, msgShopInactive)

		case errors.Is(err, createReservation.ErrServiceInactive):
			handlers.RespondBadRequest(w, msgServiceInactive)

		case errors.Is(err, createReservation.ErrShopClosed):
			h.logger.Warn("POST /reservations - Shop closed: user_id=%d, shop_id=%d", userID, req.ShopID)
			handlers.RespondBadRequest(w, msgShopClosed)

		case errors.Is(err, createReservation.ErrOutsideWorkingHours):
			handlers.RespondBadRequest(w, msgOutsideHours)

		case errors.Is(err, createReservation.ErrInvalidDate):
			h.logger.Warn("POST /reservations - Reservation in the past: user_id=%d, shop_id=%d", userID, req.ShopID)
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: user_id=%d: %v", userID, err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: user_id=%d, shop_id=%d, error=%v",
				userID, req.ShopID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reservation created successfully: reservation_id=%d, user_id=%d, shop_id=%d",
		result.ID, userID, req.ShopID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
