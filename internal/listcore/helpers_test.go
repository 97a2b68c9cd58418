package listcore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type order struct {
	ID       string  `json:"name"`
	Customer string  `json:"customer" validate:"required"`
	Status   string  `json:"status"`
	Total    float64 `json:"grand_total"`
	Date     string  `json:"transaction_date"`
	Items    []string
	Owner    string
	Archived bool
}

func (o order) RecordID() string  { return o.ID }
func (o order) IsArchived() bool  { return o.Archived }
func (o order) WithArchived(a bool) order {
	o.Archived = a
	return o
}

var orderMatcher = Matcher[order]{
	Search: func(o order) []string { return append([]string{o.Customer}, o.Items...) },
	Status: func(o order) string { return o.Status },
	Owner:  func(o order) string { return o.Owner },
}

var orderColumns = Columns[order]{
	"customer": func(o order) any { return o.Customer },
	"total":    func(o order) any { return o.Total },
	"date": func(o order) any {
		if o.Date == "" {
			return nil
		}
		return o.Date
	},
}

func makeOrders(n int) []order {
	out := make([]order, n)
	for i := range out {
		status := "Draft"
		if i%2 == 1 {
			status = "Completed"
		}
		out[i] = order{
			ID:       fmt.Sprintf("SO-%03d", i+1),
			Customer: fmt.Sprintf("Customer %d", i+1),
			Status:   status,
			Total:    float64(i * 10),
		}
	}
	return out
}

// fakeService is an in-memory Service with injectable failures.
type fakeService struct {
	mu       sync.Mutex
	records  []order
	failIDs  map[string]bool
	listErr  error
	calls    int
	bulk     func(op BulkOp, ids []string) (BulkResult, error)
	created  []order
	failNext error
}

func newFakeService(records []order) *fakeService {
	return &fakeService{records: records, failIDs: map[string]bool{}}
}

func (f *fakeService) List(context.Context) ([]order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]order, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeService) Create(_ context.Context, o order) (order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return order{}, err
	}
	if o.ID == "" {
		o.ID = fmt.Sprintf("SO-NEW-%d", len(f.records)+1)
	}
	f.records = append(f.records, o)
	f.created = append(f.created, o)
	return o, nil
}

func (f *fakeService) Update(_ context.Context, o order) (order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	i := indexOf(f.records, o.ID)
	if i < 0 {
		return order{}, ErrNotFound
	}
	f.records[i] = o
	return o, nil
}

func (f *fakeService) setArchived(id string, a bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failIDs[id] {
		return errors.New("remote refused " + id)
	}
	i := indexOf(f.records, id)
	if i < 0 {
		return ErrNotFound
	}
	f.records[i].Archived = a
	return nil
}

func (f *fakeService) Archive(_ context.Context, id string) error { return f.setArchived(id, true) }
func (f *fakeService) Restore(_ context.Context, id string) error { return f.setArchived(id, false) }

func (f *fakeService) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failIDs[id] {
		return errors.New("remote refused " + id)
	}
	i := indexOf(f.records, id)
	if i < 0 {
		return ErrNotFound
	}
	f.records = append(f.records[:i], f.records[i+1:]...)
	return nil
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// bulkFake adds BulkService to fakeService.
type bulkFake struct {
	*fakeService
}

func (b bulkFake) Bulk(_ context.Context, op BulkOp, ids []string) (BulkResult, error) {
	return b.bulk(op, ids)
}

type toastRecorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *toastRecorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

func (r *toastRecorder) last() Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}
	}
	return r.toasts[len(r.toasts)-1]
}

var allCaps = Capabilities{CanCreate: true, CanEdit: true, CanDelete: true, CanPermanentlyDelete: true}
