package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/plantshop-bot/internal/state"
)

func TestRecordBooking(t *testing.T) {
	before := testutil.ToFloat64(bookingsTotal.WithLabelValues("created"))
	RecordBooking("created")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingsTotal.WithLabelValues("created")))

	beforeUnknown := testutil.ToFloat64(bookingsTotal.WithLabelValues("unknown"))
	RecordBooking("")
	assert.Equal(t, beforeUnknown+1, testutil.ToFloat64(bookingsTotal.WithLabelValues("unknown")))
}

func TestRecordNotification(t *testing.T) {
	sent := testutil.ToFloat64(notificationsTotal.WithLabelValues("admin", "sent"))
	failed := testutil.ToFloat64(notificationsTotal.WithLabelValues("admin", "failed"))

	RecordNotification("admin", nil)
	RecordNotification("admin", errors.New("blocked"))

	assert.Equal(t, sent+1, testutil.ToFloat64(notificationsTotal.WithLabelValues("admin", "sent")))
	assert.Equal(t, failed+1, testutil.ToFloat64(notificationsTotal.WithLabelValues("admin", "failed")))
}

func TestStateCollector_Collect(t *testing.T) {
	storage := state.NewMemoryStorage()
	fsm := state.NewStateMachine(storage, nil, nil)
	ctx := context.Background()

	_, err := fsm.Begin(ctx, 1, state.DialogBooking, nil)
	require.NoError(t, err)
	_, err = fsm.Begin(ctx, 2, state.DialogBooking, nil)
	require.NoError(t, err)
	_, err = fsm.Begin(ctx, 3, state.DialogAddPlant, nil)
	require.NoError(t, err)

	collector := NewStateCollector(fsm)
	require.NoError(t, collector.Collect(ctx))

	assert.Equal(t, float64(3), testutil.ToFloat64(activeUsers))
	assert.Equal(t, float64(2), testutil.ToFloat64(usersByState.WithLabelValues(string(state.StateBookingName))))
	assert.Equal(t, float64(1), testutil.ToFloat64(usersByState.WithLabelValues(string(state.StateAddPlantName))))
	assert.Equal(t, float64(0), testutil.ToFloat64(usersByState.WithLabelValues(string(state.StateBookingPhone))))
}
