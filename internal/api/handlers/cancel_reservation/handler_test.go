package cancel_reservation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
)

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) Cancel(ctx context.Context, id int64, req *models.CancelRequest) (*models.CancelResponse, error) {
	args := m.Called(id, req)
	if resp, ok := args.Get(0).(*models.CancelResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(svc ReservationService, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/", body)
	req = mux.SetURLVars(req, map[string]string{"reservationId": "5"})
	req = req.WithContext(middleware.WithUserID(req.Context(), 42))
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewDiscard()).Handle(rec, req)
	return rec
}

func TestHandleCancelsWithoutBody(t *testing.T) {
	svc := &serviceMock{}
	svc.On("Cancel", int64(5), &models.CancelRequest{UserID: 42}).
		Return(&models.CancelResponse{Refund: models.RefundResponse{Eligible: true, Percentage: 100, Amount: 1000}}, nil)

	rec := serve(svc, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"percentage":100`)
	svc.AssertExpectations(t)
}

func TestHandlePassesReason(t *testing.T) {
	svc := &serviceMock{}
	svc.On("Cancel", int64(5), mock.MatchedBy(func(req *models.CancelRequest) bool {
		return req.Reason != nil && *req.Reason == "sick"
	})).Return(&models.CancelResponse{}, nil)

	rec := serve(svc, strings.NewReader(`{"cancellationReason":"sick"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandleDropsBlankReason(t *testing.T) {
	svc := &serviceMock{}
	svc.On("Cancel", int64(5), &models.CancelRequest{UserID: 42}).Return(&models.CancelResponse{}, nil)

	rec := serve(svc, strings.NewReader(`{"cancellationReason":"   "}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandleMapsCancelErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{reservations.ErrReservationNotFound, http.StatusNotFound},
		{reservations.ErrAccessDenied, http.StatusForbidden},
		{reservations.ErrInvalidTransition, http.StatusConflict},
		{reservations.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &serviceMock{}
			svc.On("Cancel", int64(5), mock.Anything).Return(nil, tt.err)

			assert.Equal(t, tt.status, serve(svc, nil).Code)
		})
	}
}
