package get_available_slots

import (
	"fmt"
	"strconv"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_slots"
)

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(shopID int64, dateStr, serviceIDStr, durationStr, excludeStr string) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	req := &getAvailableSlots.Request{
		ShopID: shopID,
		Date:   date,
	}

	if serviceIDStr != "" {
		serviceID, err := strconv.ParseInt(serviceIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid serviceId: %w", err)
		}
		req.ServiceID = &serviceID
	}

	if durationStr != "" {
		duration, err := strconv.Atoi(durationStr)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %w", err)
		}
		req.DurationMinutes = &duration
	}

	if excludeStr != "" {
		excludeID, err := strconv.ParseInt(excludeStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid excludeReservationId: %w", err)
		}
		req.ExcludeReservationID = &excludeID
	}

	return req, nil
}
