package salon

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday morning, well before opening.
var slotTestNow = time.Date(2026, time.September, 2, 7, 0, 0, 0, time.UTC)

func newTestChecker(t *testing.T, handler http.HandlerFunc) *AvailabilityChecker {
	t.Helper()
	checker := NewAvailabilityChecker(newTestClient(t, handler), nil)
	checker.now = func() time.Time { return slotTestNow }
	return checker
}

func catalogHandler(branches, services string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/branchs":
			_, _ = w.Write([]byte(`{"data":` + branches + `}`))
		case "/services":
			_, _ = w.Write([]byte(`{"data":` + services + `}`))
		default:
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	}
}

func TestCheckGeneratesSlotsWithinOpenHours(t *testing.T) {
	checker := newTestChecker(t, catalogHandler(
		`[{"id":10,"name":"Downtown Spa","openHourFrom":"10:00","openHourTo":"14:00"}]`,
		`[]`,
	))

	slots, err := checker.Check(context.Background(), AvailabilityQuery{Date: slotTestNow})
	require.NoError(t, err)

	// 10:00, 11:00, 13:00; 12:00 is the lunch break.
	require.Len(t, slots, 3)
	for _, slot := range slots {
		assert.Equal(t, "Downtown Spa", slot.Branch)
		assert.NotEqual(t, 12, slot.Start.Hour())
		assert.GreaterOrEqual(t, slot.Start.Hour(), 10)
		assert.Less(t, slot.Start.Hour(), 14)
		assert.Equal(t, defaultSlotMinutes, slot.Duration)
	}
}

func TestCheckExcludesPastSlots(t *testing.T) {
	checker := newTestChecker(t, catalogHandler(
		`[{"id":10,"name":"Downtown Spa","openHourFrom":"09:00","openHourTo":"18:00"}]`,
		`[]`,
	))
	checker.now = func() time.Time {
		return time.Date(2026, time.September, 2, 15, 30, 0, 0, time.UTC)
	}

	slots, err := checker.Check(context.Background(), AvailabilityQuery{})
	require.NoError(t, err)

	require.NotEmpty(t, slots)
	for _, slot := range slots {
		assert.GreaterOrEqual(t, slot.Start.Hour(), 16)
	}
}

func TestCheckNullOpenHoursFallBackToDefaults(t *testing.T) {
	checker := newTestChecker(t, catalogHandler(
		`[{"id":10,"name":"Downtown Spa","openHourFrom":null,"openHourTo":null}]`,
		`[]`,
	))

	slots, err := checker.Check(context.Background(), AvailabilityQuery{Date: slotTestNow})
	require.NoError(t, err)

	// 09:00 through 17:00 minus the lunch hour.
	assert.Len(t, slots, 8)
	assert.Equal(t, 9, slots[0].Start.Hour())
}

func TestCheckMatchesServiceDurationAndPrice(t *testing.T) {
	checker := newTestChecker(t, catalogHandler(
		`[{"id":10,"name":"Downtown Spa","openHourFrom":"10:00","openHourTo":"12:00"}]`,
		`[{"id":20,"name":"Haircut & Styling","price":150000,"time":45}]`,
	))

	slots, err := checker.Check(context.Background(), AvailabilityQuery{Date: slotTestNow, Service: "haircut"})
	require.NoError(t, err)

	require.NotEmpty(t, slots)
	assert.Equal(t, "Haircut & Styling", slots[0].Service)
	assert.Equal(t, 45, slots[0].Duration)
	assert.Equal(t, float64(150000), slots[0].Price)
}

func TestCheckBranchFetchErrorPropagates(t *testing.T) {
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	})

	_, err := checker.Check(context.Background(), AvailabilityQuery{})
	require.Error(t, err)
}
