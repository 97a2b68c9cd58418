package listcore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestList(t *testing.T, svc Service[order], opts ...func(*Options[order])) (*List[order], *toastRecorder) {
	t.Helper()
	toasts := &toastRecorder{}
	o := Options[order]{
		Service:        svc,
		Dispatcher:     NewDispatcher[order](svc, allCaps, WithNotifier[order](toasts)),
		Matcher:        orderMatcher,
		Columns:        orderColumns,
		Notifier:       toasts,
		SearchDebounce: 20 * time.Millisecond,
	}
	for _, fn := range opts {
		fn(&o)
	}
	l := NewList(o)
	t.Cleanup(l.Close)
	return l, toasts
}

func twelveMatching() []order {
	records := makeOrders(25)
	for i := range records {
		if i < 12 {
			records[i].Customer = fmt.Sprintf("Northwind %d", i)
		}
	}
	return records
}

func TestList_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Should load the primary source and clear loading", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(3)))
		_, err := l.Load(ctx)
		require.NoError(t, err)
		assert.False(t, l.Loading())
		assert.True(t, l.Loaded())
		assert.Equal(t, 3, l.View().Total)
	})

	t.Run("Should toast and keep the cache when the primary source fails", func(t *testing.T) {
		svc := newFakeService(makeOrders(3))
		l, toasts := newTestList(t, svc)
		_, err := l.Load(ctx)
		require.NoError(t, err)

		svc.listErr = errors.New("offline")
		_, err = l.Load(ctx)
		require.Error(t, err)
		assert.False(t, l.Loading())
		assert.Equal(t, 3, l.View().Total)
		assert.Equal(t, ToastError, toasts.last().Level)
	})

	t.Run("Should tolerate a failing secondary source", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(2)), func(o *Options[order]) {
			o.Secondary = []Source{{Name: "customers", Fetch: func(context.Context) error {
				return errors.New("nope")
			}}}
		})
		report, err := l.Load(ctx)
		require.NoError(t, err)
		assert.True(t, report.Failed("customers"))
		assert.Equal(t, 2, l.View().Total)
	})

	t.Run("Should clear the selection on refresh", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(3)))
		_, _ = l.Load(ctx)
		l.ToggleRow("SO-001")
		_, _ = l.Load(ctx)
		assert.Zero(t, l.View().Selected)
	})
}

func TestList_SearchAndPaging(t *testing.T) {
	ctx := context.Background()

	t.Run("Should page twelve matches of twenty-five records as ten and two", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(twelveMatching()))
		_, err := l.Load(ctx)
		require.NoError(t, err)

		l.SetSearch("northwind")
		page := l.View()
		assert.Equal(t, 12, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Rows, 10)

		l.NextPage()
		page = l.View()
		assert.Equal(t, 1, page.Page)
		assert.Len(t, page.Rows, 2)
	})

	t.Run("Should apply the search only after typing pauses", func(t *testing.T) {
		var changes atomic.Int32
		l, _ := newTestList(t, newFakeService(twelveMatching()), func(o *Options[order]) {
			o.OnChange = func() { changes.Add(1) }
		})
		_, _ = l.Load(ctx)

		l.SetSearchInput("n")
		l.SetSearchInput("no")
		l.SetSearchInput("northwind")
		assert.Equal(t, "", l.Filter().SearchTerm)
		assert.Equal(t, "northwind", l.View().PendingSearch)

		assert.Eventually(t, func() bool { return changes.Load() == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, "northwind", l.Filter().SearchTerm)
		assert.Equal(t, 12, l.View().Total)
	})

	t.Run("Should flush a pending search immediately", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(twelveMatching()))
		_, _ = l.Load(ctx)
		l.SetSearchInput("northwind 1")
		l.FlushSearch()
		assert.Equal(t, "northwind 1", l.Filter().SearchTerm)
	})

	t.Run("Should keep filters across refreshes until cleared", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(twelveMatching()))
		_, _ = l.Load(ctx)
		l.SetSearch("northwind")
		l.SetStatus("Draft")
		_, _ = l.Load(ctx)
		assert.Equal(t, FilterState{SearchTerm: "northwind", Status: "Draft"}, l.Filter())

		l.ClearFilters()
		assert.True(t, l.Filter().IsZero())
		assert.Equal(t, 25, l.View().Total)
	})

	t.Run("Should clamp the page after a bulk delete shrinks the list", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(21)))
		_, _ = l.Load(ctx)
		l.GoToPage(2)
		require.Equal(t, 2, l.View().Page)
		l.TogglePageSelection()
		_, err := l.Bulk(ctx, BulkDelete)
		require.NoError(t, err)
		page := l.View()
		assert.Equal(t, 1, page.Page)
		assert.Len(t, page.Rows, 10)
		assert.Less(t, page.Page*page.PageSize, page.Total+page.PageSize)
	})

	t.Run("Should return filter order when sort is cleared", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(5)))
		_, _ = l.Load(ctx)
		before := ids(l.View().Rows)
		l.ToggleSort("total")
		l.ToggleSort("total")
		assert.Equal(t, "SO-005", l.View().Rows[0].ID)
		state := l.ToggleSort("total")
		assert.False(t, state.Active())
		assert.Equal(t, before, ids(l.View().Rows))
	})
}

func TestList_Selection(t *testing.T) {
	ctx := context.Background()

	t.Run("Should grow from one page to all pages and clear to zero", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(25)))
		_, _ = l.Load(ctx)

		l.TogglePageSelection()
		page := l.View()
		assert.Equal(t, 10, page.Selected)
		assert.Equal(t, SelectAll, page.PageSelection)
		assert.True(t, page.Banner)

		l.SelectAllPages()
		page = l.View()
		assert.Equal(t, 25, page.Selected)
		assert.True(t, page.AllPages)
		assert.False(t, page.Banner)

		l.ClearSelection()
		assert.Zero(t, l.View().Selected)
	})

	t.Run("Should show partial selection", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(25)))
		_, _ = l.Load(ctx)
		l.ToggleRow("SO-002")
		assert.Equal(t, SelectSome, l.View().PageSelection)
	})

	t.Run("Should clear the selection when switching partitions", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(5)))
		_, _ = l.Load(ctx)
		l.ToggleRow("SO-002")
		l.SetShowArchived(true)
		assert.Zero(t, l.View().Selected)
	})
}

func TestList_Mutations(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round-trip bulk archive and bulk restore", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(6)))
		_, _ = l.Load(ctx)
		original := l.Items()

		l.ToggleRow("SO-001")
		l.ToggleRow("SO-004")
		res, err := l.Bulk(ctx, BulkArchive)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, 4, l.View().Total)
		assert.Zero(t, l.View().Selected)

		l.SetShowArchived(true)
		assert.Equal(t, []string{"SO-001", "SO-004"}, ids(l.View().Rows))
		l.SelectAllPages()
		_, err = l.Bulk(ctx, BulkRestore)
		require.NoError(t, err)

		l.SetShowArchived(false)
		assert.Equal(t, original, l.Items())
		assert.Equal(t, 6, l.View().Total)
	})

	t.Run("Should remove only succeeded ids after a partial bulk delete", func(t *testing.T) {
		svc := newFakeService(makeOrders(5))
		svc.failIDs["SO-002"] = true
		svc.failIDs["SO-005"] = true
		l, toasts := newTestList(t, svc)
		_, _ = l.Load(ctx)
		l.TogglePageSelection()

		res, err := l.Bulk(ctx, BulkDelete)
		require.NoError(t, err)
		assert.Equal(t, 3, res.SuccessCount)
		assert.Equal(t, 2, res.FailedCount)
		assert.Equal(t, ToastWarning, toasts.last().Level)
		assert.Equal(t, []string{"SO-002", "SO-005"}, ids(l.Items()))
	})

	t.Run("Should refuse to restore a selection of active records", func(t *testing.T) {
		svc := newFakeService(makeOrders(4))
		l, toasts := newTestList(t, svc)
		_, _ = l.Load(ctx)
		loads := svc.callCount()

		l.ToggleRow("SO-001")
		l.ToggleRow("SO-002")
		res, err := l.Bulk(ctx, BulkRestore)
		require.NoError(t, err)
		assert.Zero(t, res.SuccessCount)
		assert.Equal(t, 2, res.FailedCount)
		assert.Equal(t, loads, svc.callCount())
		assert.Equal(t, ToastError, toasts.last().Level)
		assert.Equal(t, 4, l.View().Total)
		assert.Equal(t, 2, l.View().Selected, "selection is kept so the user can act again")
	})

	t.Run("Should keep the selection when every id fails", func(t *testing.T) {
		svc := newFakeService(makeOrders(3))
		svc.failIDs["SO-001"] = true
		svc.failIDs["SO-002"] = true
		l, _ := newTestList(t, svc)
		_, _ = l.Load(ctx)

		l.ToggleRow("SO-001")
		l.ToggleRow("SO-002")
		res, err := l.Bulk(ctx, BulkArchive)
		require.NoError(t, err)
		assert.Equal(t, 2, res.FailedCount)
		assert.Equal(t, []string{"SO-001", "SO-002"}, l.SelectedIDs())

		svc.failIDs = map[string]bool{}
		res, err = l.Bulk(ctx, BulkArchive)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Empty(t, l.SelectedIDs())
	})

	t.Run("Should append on create and leave state untouched on validation failure", func(t *testing.T) {
		svc := newFakeService(makeOrders(2))
		l, _ := newTestList(t, svc)
		_, _ = l.Load(ctx)
		calls := svc.callCount()

		_, err := l.Create(ctx, order{ID: "SO-X"})
		require.Error(t, err)
		assert.Equal(t, calls, svc.callCount())
		assert.Len(t, l.Items(), 2)

		created, err := l.Create(ctx, order{ID: "SO-X", Customer: "Acme"})
		require.NoError(t, err)
		assert.Equal(t, "SO-X", created.ID)
		assert.Len(t, l.Items(), 3)
	})

	t.Run("Should patch in place on update, archive and restore", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(makeOrders(2)))
		_, _ = l.Load(ctx)

		rec, _ := l.Find("SO-001")
		rec.Status = "Completed"
		_, err := l.Update(ctx, rec)
		require.NoError(t, err)
		got, _ := l.Find("SO-001")
		assert.Equal(t, "Completed", got.Status)

		require.NoError(t, l.Archive(ctx, "SO-001"))
		got, _ = l.Find("SO-001")
		assert.True(t, got.Archived)
		require.NoError(t, l.Restore(ctx, "SO-001"))
		got, _ = l.Find("SO-001")
		assert.False(t, got.Archived)

		require.NoError(t, l.Delete(ctx, "SO-002"))
		_, ok := l.Find("SO-002")
		assert.False(t, ok)
	})

	t.Run("Should fail for unknown ids", func(t *testing.T) {
		l, _ := newTestList(t, newFakeService(nil))
		require.ErrorIs(t, l.Archive(ctx, "missing"), ErrNotFound)
	})

	t.Run("Should narrow to the owner's records", func(t *testing.T) {
		records := makeOrders(4)
		records[0].Owner = "ana@example.com"
		records[2].Owner = "ana@example.com"
		l, _ := newTestList(t, newFakeService(records), func(o *Options[order]) {
			o.Owner = "ana@example.com"
		})
		_, _ = l.Load(ctx)
		assert.Equal(t, []string{"SO-001", "SO-003"}, ids(l.View().Rows))
	})
}
