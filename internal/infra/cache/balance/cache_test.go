package balance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

func TestEncodeDecode(t *testing.T) {
	b := &domain.PointBalance{
		CustomerID:       9,
		TotalEarned:      1250,
		TotalUsed:        1000,
		Available:        250,
		LastCalculatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}

	raw, err := encode(b)
	require.NoError(t, err)

	decoded, err := decode(raw)
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decode([]byte("not json"))
	assert.ErrorIs(t, err, ErrCache)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "points:balance:42", key(42))
}
