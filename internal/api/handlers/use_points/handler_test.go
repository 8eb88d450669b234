package use_points

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
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

func (m *serviceMock) Use(ctx context.Context, req *models.UseRequest) (*models.UseResponse, error) {
	args := m.Called(req)
	if resp, ok := args.Get(0).(*models.UseResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(svc PointsService, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"customerId": "42"})
	req = req.WithContext(middleware.WithUserID(req.Context(), 42))
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewDiscard()).Handle(rec, req)
	return rec
}

func TestHandleUsesPoints(t *testing.T) {
	svc := &serviceMock{}
	svc.On("Use", &models.UseRequest{UserID: 42, CustomerID: 42, ReservationID: 5, Amount: 300}).
		Return(&models.UseResponse{RemainingAmount: 700}, nil)

	rec := serve(svc, `{"reservationId":5,"amount":300}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"remainingAmount":700`)
	svc.AssertExpectations(t)
}

func TestHandleMapsPointsErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{points.ErrAccessDenied, http.StatusForbidden},
		{points.ErrReservationNotFound, http.StatusNotFound},
		{points.ErrReservationNotEditable, http.StatusConflict},
		{points.ErrPointsAlreadyApplied, http.StatusConflict},
		{points.ErrInsufficientAvailableBalance, http.StatusConflict},
		{points.ErrInvalidInput, http.StatusBadRequest},
		{points.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &serviceMock{}
			svc.On("Use", mock.Anything).Return(nil, tt.err)

			assert.Equal(t, tt.status, serve(svc, `{"reservationId":5,"amount":300}`).Code)
		})
	}
}
