package get_point_balance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/points"
	"github.com/m04kA/SMC-ReservationService/internal/service/points/models"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
)

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) Balance(ctx context.Context, userID, customerID int64) (*models.BalanceResponse, error) {
	args := m.Called(userID, customerID)
	if resp, ok := args.Get(0).(*models.BalanceResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(svc PointsService, customerID string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = mux.SetURLVars(req, map[string]string{"customerId": customerID})
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewDiscard()).Handle(rec, req)
	return rec
}

func TestHandleReturnsBalance(t *testing.T) {
	svc := &serviceMock{}
	svc.On("Balance", int64(42), int64(42)).Return(&models.BalanceResponse{CustomerID: 42, Available: 3000, Pending: 120}, nil)

	rec := serve(svc, "42", 42)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":3000`)
}

func TestHandleForbidsForeignBalance(t *testing.T) {
	svc := &serviceMock{}
	svc.On("Balance", int64(7), int64(42)).Return(nil, points.ErrAccessDenied)

	assert.Equal(t, http.StatusForbidden, serve(svc, "42", 7).Code)
}

func TestHandleRejectsInvalidCustomerID(t *testing.T) {
	svc := &serviceMock{}

	assert.Equal(t, http.StatusBadRequest, serve(svc, "me", 7).Code)
	svc.AssertNotCalled(t, "Balance", mock.Anything, mock.Anything)
}
