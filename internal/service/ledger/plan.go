package ledger

import (
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// PlanDebit распределяет списание по кредитам в порядке FIFO.
// credits должны быть отсортированы по available_from, затем по created_at.
// Кредиты, покрытые целиком, расходуются полностью; последний затронутый кредит
// может быть израсходован частично. Кредиты после него не затрагиваются.
func PlanDebit(credits []*domain.PointTransaction, amount int64) ([]Consumption, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var available int64
	for _, c := range credits {
		available += c.Amount
	}
	if available < amount {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientAvailableBalance, amount, available)
	}

	plan := make([]Consumption, 0)
	need := amount
	for _, c := range credits {
		if need == 0 {
			break
		}
		take := c.Amount
		if take > need {
			take = need
		}
		plan = append(plan, Consumption{
			TransactionID: c.ID,
			Taken:         take,
			Remaining:     c.Amount - take,
		})
		need -= take
	}

	return plan, nil
}
