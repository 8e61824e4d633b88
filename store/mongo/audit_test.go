package mongo_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crewlytics/attrition/pkg/hr"
	storemongo "github.com/crewlytics/attrition/store/mongo"
)

func TestRecordStatus_AppendOnly(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(t, clock)
	ctx := t.Context()

	first, err := store.RecordStatus(ctx, 1, "No")
	require.NoError(t, err)
	require.Equal(t, int64(1), first.EmployeeID)
	require.Equal(t, "No", first.AttritionStatus)
	require.True(t, first.LogDate.Equal(clock.Now()))

	clock.Advance(time.Hour)
	second, err := store.RecordStatus(ctx, 1, "Yes")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.True(t, second.LogDate.After(first.LogDate))

	// The earlier entry is untouched by the append.
	got, err := store.GetLog(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "No", got.AttritionStatus)
	require.True(t, got.LogDate.Equal(first.LogDate))
}

func TestListLogs_FilterAndOrder(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(t, clock)
	ctx := t.Context()

	for i, target := range []int64{1, 2, 1} {
		status := "No"
		if i == 1 {
			status = "Yes"
		}
		_, err := store.RecordStatus(ctx, target, status)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	all, err := store.ListLogs(ctx, storemongo.LogFilter{}, 100, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, int64(1), all[0].EmployeeID)
	require.True(t, all[0].LogDate.After(all[1].LogDate))

	empID := int64(2)
	filtered, err := store.ListLogs(ctx, storemongo.LogFilter{EmployeeID: &empID}, 100, 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "Yes", filtered[0].AttritionStatus)

	paged, err := store.ListLogs(ctx, storemongo.LogFilter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, all[1].ID, paged[0].ID)
}

func TestStatusHistory_NewestFirstAndRestartable(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := newTestStore(t, clock)
	ctx := t.Context()

	const total = 25
	for i := 0; i < total; i++ {
		status := "No"
		if i%2 == 1 {
			status = "Yes"
		}
		_, err := store.RecordStatus(ctx, 1, status)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	// Entries for other employees never leak into the history.
	_, err := store.RecordStatus(ctx, 2, "Yes")
	require.NoError(t, err)

	var (
		count    int
		lastDate time.Time
	)
	for entry, err := range store.StatusHistory(ctx, 1) {
		require.NoError(t, err)
		require.Equal(t, int64(1), entry.EmployeeID)
		if count > 0 {
			require.True(t, entry.LogDate.Before(lastDate))
		}
		lastDate = entry.LogDate
		count++
	}
	require.Equal(t, total, count)

	// Breaking out early stops the scan cleanly.
	count = 0
	for _, err := range store.StatusHistory(ctx, 1) {
		require.NoError(t, err)
		count++
		if count == 3 {
			break
		}
	}
	require.Equal(t, 3, count)

	// Each range opens a fresh cursor from the top.
	count = 0
	for _, err := range store.StatusHistory(ctx, 1) {
		require.NoError(t, err)
		count++
	}
	require.Equal(t, total, count)
}

func TestDeleteLog(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := t.Context()

	entry, err := store.RecordStatus(ctx, 1, "Yes")
	require.NoError(t, err)

	require.NoError(t, store.DeleteLog(ctx, entry.ID))

	_, err = store.GetLog(ctx, entry.ID)
	require.ErrorIs(t, err, hr.ErrNotFound)
	require.ErrorIs(t, store.DeleteLog(ctx, entry.ID), hr.ErrNotFound)
	require.ErrorIs(t, store.DeleteLog(ctx, primitive.NewObjectID()), hr.ErrNotFound)
}
