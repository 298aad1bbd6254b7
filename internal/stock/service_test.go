package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fuelbook/fuelbook/internal/identity"
	"github.com/fuelbook/fuelbook/internal/shared"
)

type memoryRepo struct {
	supplies []Supply
	nextID   int64
}

func (m *memoryRepo) Insert(_ context.Context, supply Supply) (Supply, error) {
	m.nextID++
	supply.ID = m.nextID
	m.supplies = append(m.supplies, supply)
	return supply, nil
}

func (m *memoryRepo) ListByDay(_ context.Context, stationID int64, date time.Time) ([]Supply, error) {
	var supplies []Supply
	for _, s := range m.supplies {
		if s.StationID == stationID && s.Date.Equal(date) {
			supplies = append(supplies, s)
		}
	}
	return supplies, nil
}

func (m *memoryRepo) SupplyTotal(_ context.Context, stationID int64, through time.Time) (float64, error) {
	var total float64
	for _, s := range m.supplies {
		if s.StationID == stationID && !s.Date.After(through) {
			total += s.Liters
		}
	}
	return total, nil
}

type stubJournal struct {
	sold float64
}

func (j stubJournal) LitersThrough(context.Context, int64, time.Time) (float64, error) {
	return j.sold, nil
}

type fakeSnapshots struct {
	dropped []time.Time
}

func (f *fakeSnapshots) Invalidate(_ context.Context, _ int64, date time.Time) error {
	f.dropped = append(f.dropped, date)
	return nil
}

var (
	testDay = time.Date(2026, time.July, 20, 0, 0, 0, 0, time.UTC)
	staff   = identity.Actor{ID: 5, Name: "tono", Role: identity.RoleStaff}
)

func kg(v float64) *float64 { return &v }

func TestRecordSupplyConvertsKilograms(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubJournal{}, 1.96)

	supply, err := svc.RecordSupply(context.Background(), SupplyInput{
		StationID: 1, Date: testDay, Kilograms: kg(50), Supplier: "depot", InvoiceNo: "INV-12", Actor: staff,
	})
	require.NoError(t, err)
	require.InDelta(t, 98.0, supply.Liters, 0.0001)
	require.Equal(t, staff.ID, supply.CreatedBy)

	// Explicit liters win over the conversion.
	supply, err = svc.RecordSupply(context.Background(), SupplyInput{
		StationID: 1, Date: testDay, Liters: 120, Kilograms: kg(50), Actor: staff,
	})
	require.NoError(t, err)
	require.InDelta(t, 120.0, supply.Liters, 0.0001)
}

func TestRecordSupplyValidation(t *testing.T) {
	svc := NewService(&memoryRepo{}, stubJournal{}, 1.96)

	_, err := svc.RecordSupply(context.Background(), SupplyInput{StationID: 1, Date: testDay, Actor: staff})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordSupply(context.Background(), SupplyInput{StationID: 1, Date: testDay, Liters: -5, Actor: staff})
	require.ErrorIs(t, err, ErrNegativeLiters)
}

func TestRecordSupplyDropsReportSnapshot(t *testing.T) {
	snapshots := &fakeSnapshots{}
	svc := NewService(&memoryRepo{}, stubJournal{}, 1.96).WithSnapshots(snapshots)

	_, err := svc.RecordSupply(context.Background(), SupplyInput{
		StationID: 1, Date: testDay.Add(11 * time.Hour), Liters: 98, Actor: staff,
	})
	require.NoError(t, err)
	require.Equal(t, []time.Time{testDay}, snapshots.dropped, "invalidation uses the normalized day")

	_, err = svc.RecordSupply(context.Background(), SupplyInput{StationID: 1, Date: testDay, Liters: -5, Actor: staff})
	require.ErrorIs(t, err, ErrNegativeLiters)
	require.Len(t, snapshots.dropped, 1)
}

func TestLevel(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubJournal{sold: 320}, 1.96)

	_, err := svc.RecordSupply(context.Background(), SupplyInput{StationID: 1, Date: shared.PrevDay(testDay), Liters: 400, Actor: staff})
	require.NoError(t, err)
	_, err = svc.RecordSupply(context.Background(), SupplyInput{StationID: 1, Date: testDay, Liters: 100, Actor: staff})
	require.NoError(t, err)

	level, err := svc.Level(context.Background(), 1, testDay)
	require.NoError(t, err)
	require.InDelta(t, 500.0, level.SupplyLiters, 0.0001)
	require.InDelta(t, 320.0, level.SoldLiters, 0.0001)
	require.InDelta(t, 180.0, level.Liters, 0.0001)
	require.False(t, level.Anomaly)
}

func TestLevelFlagsNegativeAsAnomaly(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubJournal{sold: 150}, 1.96)

	_, err := svc.RecordSupply(context.Background(), SupplyInput{StationID: 1, Date: testDay, Liters: 100, Actor: staff})
	require.NoError(t, err)

	level, err := svc.Level(context.Background(), 1, testDay)
	require.NoError(t, err)
	require.InDelta(t, -50.0, level.Liters, 0.0001)
	require.True(t, level.Anomaly, "sales outrunning supply is reported, not clamped")
}
