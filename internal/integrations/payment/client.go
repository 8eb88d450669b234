// Package payment клиент внешнего платёжного сервиса: списание депозита и возврат.
// Каждый вызов повторяется с экспоненциальной задержкой и несёт ключ идемпотентности,
// поэтому повтор уже прошедшей операции не приводит к двойному списанию или возврату.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig параметры повторов
type RetryConfig struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	JitterPct  uint64
}

// Client клиент платёжного сервиса
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	log        Logger
}

// NewClient создает новый экземпляр клиента платёжного сервиса
func NewClient(baseURL string, timeout time.Duration, retryCfg RetryConfig, log Logger) *Client {
	if retryCfg.BaseDelay <= 0 {
		retryCfg.BaseDelay = 200 * time.Millisecond
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry: retryCfg,
		log:   log,
	}
}

// ChargeDeposit списывает депозит за бронирование
func (c *Client) ChargeDeposit(ctx context.Context, reservationID int64, amount int64) (*Result, error) {
	c.log.Info("ChargeDeposit: reservation=%d amount=%d", reservationID, amount)

	result, err := c.post(ctx, "/internal/payments/deposits", fmt.Sprintf("deposit-%d", reservationID),
		ChargeRequest{ReservationID: reservationID, Amount: amount})
	if err != nil {
		c.log.Error("ChargeDeposit: failed for reservation=%d: %v", reservationID, err)
		return nil, err
	}

	c.log.Info("ChargeDeposit: charged reservation=%d payment_id=%s", reservationID, result.PaymentID)
	return result, nil
}

// Refund возвращает депозит за бронирование
func (c *Client) Refund(ctx context.Context, reservationID int64, amount int64) (*Result, error) {
	c.log.Info("Refund: reservation=%d amount=%d", reservationID, amount)

	result, err := c.post(ctx, "/internal/payments/refunds", fmt.Sprintf("refund-%d", reservationID),
		RefundRequest{ReservationID: reservationID, Amount: amount})
	if err != nil {
		c.log.Error("Refund: failed for reservation=%d: %v", reservationID, err)
		return nil, err
	}

	c.log.Info("Refund: refunded reservation=%d payment_id=%s", reservationID, result.PaymentID)
	return result, nil
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, payload interface{}) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	var result *Result
	attempt := 0
	err = retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		r, err := c.do(ctx, path, idempotencyKey, body)
		if err != nil {
			if errors.Is(err, ErrRejected) || errors.Is(err, ErrInternal) {
				return err
			}
			c.log.Warn("post: attempt %d to %s failed: %v", attempt, path, err)
			return retry.RetryableError(err)
		}
		result = r
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRejected) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrUnavailable, path, attempt, err)
	}

	return result, nil
}

func (c *Client) do(ctx context.Context, path, idempotencyKey string, body []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// Продолжаем обработку
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	default:
		var errResp ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("%w: status code %d: %s", ErrRejected, resp.StatusCode, errResp.Message)
	}

	// Парсим ответ
	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &result, nil
}

func (c *Client) backoff() retry.Backoff {
	b := retry.NewExponential(c.retry.BaseDelay)
	if c.retry.MaxDelay > 0 {
		b = retry.WithCappedDuration(c.retry.MaxDelay, b)
	}
	if c.retry.JitterPct > 0 {
		b = retry.WithJitterPercent(c.retry.JitterPct, b)
	}
	return retry.WithMaxRetries(c.retry.MaxRetries, b)
}
