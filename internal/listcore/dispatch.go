package listcore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

const defaultBulkLimit = 4

// Dispatcher issues mutations against a Service and turns confirmed results
// into cache events. It never retries.
type Dispatcher[T Record[T]] struct {
	service     Service[T]
	caps        Capabilities
	notifier    Notifier
	validate    func(T) error
	afterCreate func(context.Context, T)
	singular    string
	plural      string
	bulkLimit   int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption[T Record[T]] func(*Dispatcher[T])

// WithNotifier routes toasts to n.
func WithNotifier[T Record[T]](n Notifier) DispatcherOption[T] {
	return func(d *Dispatcher[T]) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithNoun sets the words used in toasts, e.g. "sales order", "sales orders".
func WithNoun[T Record[T]](singular, plural string) DispatcherOption[T] {
	return func(d *Dispatcher[T]) {
		d.singular, d.plural = singular, plural
	}
}

// WithValidator replaces the default struct-tag validation.
func WithValidator[T Record[T]](fn func(T) error) DispatcherOption[T] {
	return func(d *Dispatcher[T]) {
		d.validate = fn
	}
}

// WithAfterCreate runs fn after every successful create. fn must not block.
func WithAfterCreate[T Record[T]](fn func(context.Context, T)) DispatcherOption[T] {
	return func(d *Dispatcher[T]) {
		d.afterCreate = fn
	}
}

// WithBulkLimit caps concurrent requests for services without BulkService.
func WithBulkLimit[T Record[T]](n int) DispatcherOption[T] {
	return func(d *Dispatcher[T]) {
		if n > 0 {
			d.bulkLimit = n
		}
	}
}

// NewDispatcher builds a dispatcher for service with the given capabilities.
func NewDispatcher[T Record[T]](service Service[T], caps Capabilities, opts ...DispatcherOption[T]) *Dispatcher[T] {
	d := &Dispatcher[T]{
		service:   service,
		caps:      caps,
		notifier:  discardNotifier{},
		validate:  func(r T) error { return ValidateRecord(r) },
		singular:  "record",
		plural:    "records",
		bulkLimit: defaultBulkLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Capabilities returns what the dispatcher allows.
func (d *Dispatcher[T]) Capabilities() Capabilities {
	return d.caps
}

func (d *Dispatcher[T]) toast(level ToastLevel, format string, args ...any) {
	d.notifier.Notify(Toast{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (d *Dispatcher[T]) fail(action string, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		d.toast(ToastError, "%s", ve.Error())
		return err
	}
	msg := err.Error()
	if msg == "" {
		msg = "something went wrong"
	}
	d.toast(ToastError, "Failed to %s %s: %s", action, d.singular, msg)
	return err
}

func (d *Dispatcher[T]) noun(n int) string {
	if n == 1 {
		return d.singular
	}
	return d.plural
}

// Create validates record and creates it remotely.
func (d *Dispatcher[T]) Create(ctx context.Context, record T) (Event[T], error) {
	if !d.caps.CanCreate {
		return Event[T]{}, d.fail("create", ErrForbidden)
	}
	if err := d.validate(record); err != nil {
		return Event[T]{}, d.fail("create", err)
	}
	created, err := d.service.Create(ctx, record)
	if err != nil {
		return Event[T]{}, d.fail("create", err)
	}
	d.toast(ToastSuccess, "Created %s %s", d.singular, created.RecordID())
	if d.afterCreate != nil {
		d.afterCreate(ctx, created)
	}
	return Event[T]{Kind: Created, Record: created}, nil
}

// Update validates record and replaces it remotely.
func (d *Dispatcher[T]) Update(ctx context.Context, record T) (Event[T], error) {
	if !d.caps.CanEdit {
		return Event[T]{}, d.fail("update", ErrForbidden)
	}
	if record.IsArchived() {
		return Event[T]{}, d.fail("update", fmt.Errorf("%w: archived records are read-only", ErrInvalidTransition))
	}
	if err := d.validate(record); err != nil {
		return Event[T]{}, d.fail("update", err)
	}
	updated, err := d.service.Update(ctx, record)
	if err != nil {
		return Event[T]{}, d.fail("update", err)
	}
	d.toast(ToastSuccess, "Updated %s %s", d.singular, updated.RecordID())
	return Event[T]{Kind: Updated, Record: updated}, nil
}

// Archive soft-deletes an active record.
func (d *Dispatcher[T]) Archive(ctx context.Context, record T) (Event[T], error) {
	if !d.caps.CanDelete {
		return Event[T]{}, d.fail("archive", ErrForbidden)
	}
	if record.IsArchived() {
		return Event[T]{}, d.fail("archive", fmt.Errorf("%w: already archived", ErrInvalidTransition))
	}
	id := record.RecordID()
	if err := d.service.Archive(ctx, id); err != nil {
		return Event[T]{}, d.fail("archive", err)
	}
	d.toast(ToastSuccess, "Archived %s %s", d.singular, id)
	return Event[T]{Kind: Archived, IDs: []string{id}}, nil
}

// Restore brings an archived record back.
func (d *Dispatcher[T]) Restore(ctx context.Context, record T) (Event[T], error) {
	if !d.caps.CanDelete {
		return Event[T]{}, d.fail("restore", ErrForbidden)
	}
	if !record.IsArchived() {
		return Event[T]{}, d.fail("restore", fmt.Errorf("%w: not archived", ErrInvalidTransition))
	}
	id := record.RecordID()
	if err := d.service.Restore(ctx, id); err != nil {
		return Event[T]{}, d.fail("restore", err)
	}
	d.toast(ToastSuccess, "Restored %s %s", d.singular, id)
	return Event[T]{Kind: Restored, IDs: []string{id}}, nil
}

// Delete permanently removes a record.
func (d *Dispatcher[T]) Delete(ctx context.Context, record T) (Event[T], error) {
	if !d.caps.CanPermanentlyDelete {
		return Event[T]{}, d.fail("delete", ErrForbidden)
	}
	id := record.RecordID()
	if err := d.service.Delete(ctx, id); err != nil {
		return Event[T]{}, d.fail("delete", err)
	}
	d.toast(ToastSuccess, "Permanently deleted %s %s", d.singular, id)
	return Event[T]{Kind: Deleted, IDs: []string{id}}, nil
}

// Bulk applies op to ids. The returned event only names the ids that
// succeeded; a partial failure yields a warning toast and no error.
func (d *Dispatcher[T]) Bulk(ctx context.Context, op BulkOp, ids []string) (Event[T], BulkResult, error) {
	return d.bulk(ctx, op, ids, nil)
}

// BulkRecords applies op to records after checking each one against the
// two-tier rules. Records the rules reject count as failures with
// ErrInvalidTransition and are never sent.
func (d *Dispatcher[T]) BulkRecords(ctx context.Context, op BulkOp, records []T) (Event[T], BulkResult, error) {
	action := op.action()
	allowed := make([]string, 0, len(records))
	rejected := make(map[string]error)
	for _, r := range records {
		id := r.RecordID()
		if Allows(r, d.caps, action) {
			allowed = append(allowed, id)
			continue
		}
		state := "active"
		if r.IsArchived() {
			state = "archived"
		}
		rejected[id] = fmt.Errorf("%w: cannot %s %s records", ErrInvalidTransition, op, state)
	}
	return d.bulk(ctx, op, allowed, rejected)
}

func (d *Dispatcher[T]) bulk(ctx context.Context, op BulkOp, ids []string, rejected map[string]error) (Event[T], BulkResult, error) {
	if len(ids)+len(rejected) == 0 {
		return Event[T]{}, BulkResult{}, d.fail(op.String(), ErrNothingSelected)
	}
	if !d.caps.allowsBulk(op) {
		return Event[T]{}, BulkResult{}, d.fail(op.String(), ErrForbidden)
	}

	var (
		res BulkResult
		err error
	)
	if len(ids) > 0 {
		bs, ok := d.service.(BulkService)
		if ok {
			res, err = bs.Bulk(ctx, op, ids)
		}
		if !ok || errors.Is(err, ErrBulkUnsupported) {
			res, err = d.fanOut(ctx, op, ids)
		}
		if err != nil {
			return Event[T]{}, res, d.fail(op.String(), err)
		}
	}
	if len(rejected) > 0 {
		failed := make(map[string]error, len(res.Failed)+len(rejected))
		for id, err := range res.Failed {
			failed[id] = err
		}
		for id, err := range rejected {
			failed[id] = err
		}
		res = newBulkResult(res.Succeeded, failed)
	}

	ev := Event[T]{Kind: op.eventKind(), IDs: res.Succeeded}
	verb := op.pastTense()
	switch {
	case res.FailedCount == 0:
		d.toast(ToastSuccess, "%s %d %s", verb, res.SuccessCount, d.noun(res.SuccessCount))
	case res.SuccessCount == 0:
		d.toast(ToastError, "Failed to %s %d %s", op, res.FailedCount, d.noun(res.FailedCount))
	default:
		d.toast(ToastWarning, "%s %d of %d %s; %d failed",
			verb, res.SuccessCount, res.SuccessCount+res.FailedCount, d.plural, res.FailedCount)
	}
	return ev, res, nil
}

func (d *Dispatcher[T]) fanOut(ctx context.Context, op BulkOp, ids []string) (BulkResult, error) {
	call := d.service.Archive
	switch op {
	case BulkRestore:
		call = d.service.Restore
	case BulkDelete:
		call = d.service.Delete
	}

	ok := make([]bool, len(ids))
	failed := make(map[string]error)
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(d.bulkLimit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := call(ctx, id); err != nil {
				mu.Lock()
				failed[id] = err
				mu.Unlock()
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	succeeded := make([]string, 0, len(ids))
	for i, id := range ids {
		if ok[i] {
			succeeded = append(succeeded, id)
		}
	}
	return newBulkResult(succeeded, failed), nil
}

// BulkCreate validates and creates every record. Invalid records count as
// failures and are never sent.
func (d *Dispatcher[T]) BulkCreate(ctx context.Context, records []T) ([]Event[T], BulkResult, error) {
	if !d.caps.CanCreate {
		return nil, BulkResult{}, d.fail("create", ErrForbidden)
	}

	created := make([]*T, len(records))
	failed := make(map[string]error)
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(d.bulkLimit)
	for i, r := range records {
		i, r := i, r
		key := r.RecordID()
		if key == "" {
			key = fmt.Sprintf("row %d", i+1)
		}
		if err := d.validate(r); err != nil {
			failed[key] = err
			continue
		}
		g.Go(func() error {
			out, err := d.service.Create(ctx, r)
			if err != nil {
				mu.Lock()
				failed[key] = err
				mu.Unlock()
				return nil
			}
			created[i] = &out
			return nil
		})
	}
	_ = g.Wait()

	var events []Event[T]
	var succeeded []string
	for _, c := range created {
		if c == nil {
			continue
		}
		events = append(events, Event[T]{Kind: Created, Record: *c})
		succeeded = append(succeeded, (*c).RecordID())
		if d.afterCreate != nil {
			d.afterCreate(ctx, *c)
		}
	}
	res := newBulkResult(succeeded, failed)
	switch {
	case res.FailedCount == 0:
		d.toast(ToastSuccess, "Created %d %s", res.SuccessCount, d.noun(res.SuccessCount))
	case res.SuccessCount == 0:
		d.toast(ToastError, "Failed to create %d %s", res.FailedCount, d.noun(res.FailedCount))
	default:
		d.toast(ToastWarning, "Created %d of %d %s; %d failed",
			res.SuccessCount, len(records), d.plural, res.FailedCount)
	}
	return events, res, nil
}

func (op BulkOp) eventKind() EventKind {
	switch op {
	case BulkRestore:
		return Restored
	case BulkDelete:
		return Deleted
	}
	return Archived
}

func (op BulkOp) pastTense() string {
	switch op {
	case BulkRestore:
		return "Restored"
	case BulkDelete:
		return "Permanently deleted"
	}
	return "Archived"
}

func (op BulkOp) action() Action {
	switch op {
	case BulkRestore:
		return ActionRestore
	case BulkDelete:
		return ActionPermanentDelete
	}
	return ActionArchive
}
