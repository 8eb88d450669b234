package create_reservation

import (
	"fmt"
	"unicode/utf8"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.CustomerID <= 0 {
		return fmt.Errorf("%w: customerID must be positive", ErrInvalidInput)
	}

	if req.ShopID <= 0 {
		return fmt.Errorf("%w: shopID must be positive", ErrInvalidInput)
	}

	if req.ReservedAt.IsZero() {
		return fmt.Errorf("%w: reservedAt is required", ErrInvalidInput)
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("%w: at least one service is required", ErrInvalidInput)
	}
	if len(req.Items) > domain.MaxLineItems {
		return fmt.Errorf("%w: at most %d services per reservation", ErrInvalidInput, domain.MaxLineItems)
	}

	seen := make(map[int64]struct{}, len(req.Items))
	for _, item := range req.Items {
		if item.ServiceID <= 0 {
			return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
		}
		if item.Quantity < 1 || item.Quantity > domain.MaxLineItemQuantity {
			return fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidInput, domain.MaxLineItemQuantity)
		}
		if _, dup := seen[item.ServiceID]; dup {
			return fmt.Errorf("%w: service id=%d is listed twice", ErrInvalidInput, item.ServiceID)
		}
		seen[item.ServiceID] = struct{}{}
	}

	if req.PointsToUse < 0 {
		return fmt.Errorf("%w: pointsToUse must not be negative", ErrInvalidInput)
	}

	if req.SpecialRequests != nil && utf8.RuneCountInString(*req.SpecialRequests) > domain.MaxSpecialRequestsLength {
		return fmt.Errorf("%w: special requests are too long", ErrInvalidInput)
	}

	return nil
}

// validateWorkingHours проверяет, что окно целиком попадает в часы работы магазина
func validateWorkingHours(shop *catalog.Shop, w domain.Window) error {
	opening, open, err := shop.ScheduleFor(w.Start).OpeningWindow(w.Start)
	if err != nil {
		return fmt.Errorf("%w: invalid working hours: %v", ErrInternal, err)
	}
	if !open {
		return ErrShopClosed
	}
	if w.Start.Before(opening.Start) || w.End.After(opening.End) {
		return ErrOutsideWorkingHours
	}
	return nil
}

// freezeLineItem фиксирует цену, депозит и длительность услуги на момент бронирования
func freezeLineItem(service *catalog.Service, quantity int, defaultDuration int) domain.ReservationLineItem {
	item := domain.ReservationLineItem{
		ServiceID:       service.ID,
		ServiceName:     service.Name,
		Quantity:        quantity,
		UnitPrice:       service.Price,
		UnitDeposit:     service.DepositAmount,
		DurationMinutes: defaultDuration,
	}
	if service.DurationMinutes != nil && *service.DurationMinutes > 0 {
		item.DurationMinutes = *service.DurationMinutes
	}
	return item
}
