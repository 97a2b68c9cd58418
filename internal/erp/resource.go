package erp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mikelcalvo/wms/internal/listcore"
	"github.com/mikelcalvo/wms/internal/logger"
)

// Resource is a listcore.Service over the /api/resource endpoints of one
// doctype.
type Resource[T listcore.Record[T]] struct {
	client  *Client
	doctype string
	fields  []string
	filters [][]any
	orderBy string
	lines   *lineSpec[T]
	log     logger.Logger
}

type lineSpec[T any] struct {
	doctype string
	attach  func(T, []Line) T
}

// ResourceOption configures a Resource.
type ResourceOption[T listcore.Record[T]] func(*Resource[T])

// WithOwnerFilter restricts listing to records created by email.
func WithOwnerFilter[T listcore.Record[T]](email string) ResourceOption[T] {
	return func(r *Resource[T]) {
		if email != "" {
			r.filters = append(r.filters, []any{"owner", "=", email})
		}
	}
}

// WithFilter adds a server-side filter.
func WithFilter[T listcore.Record[T]](field, op string, value any) ResourceOption[T] {
	return func(r *Resource[T]) {
		r.filters = append(r.filters, []any{field, op, value})
	}
}

// NewResource returns a service for doctype that lists fields.
func NewResource[T listcore.Record[T]](client *Client, doctype string, fields []string, opts ...ResourceOption[T]) *Resource[T] {
	r := &Resource[T]{
		client:  client,
		doctype: doctype,
		fields:  fields,
		orderBy: "modified desc",
		log:     client.log.With("doctype", doctype),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// withLines loads child rows from lineDoctype alongside the list.
func (r *Resource[T]) withLines(lineDoctype string, attach func(T, []Line) T) *Resource[T] {
	r.lines = &lineSpec[T]{doctype: lineDoctype, attach: attach}
	return r
}

// Doctype returns the remote doctype name.
func (r *Resource[T]) Doctype() string {
	return r.doctype
}

// List fetches every record. Child lines are fetched concurrently; if that
// call fails the records come back without lines.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	q, err := listQuery(r.fields, r.filters, r.orderBy)
	if err != nil {
		return nil, err
	}

	var (
		records []T
		lines   []Line
		lineErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.client.do(gctx, http.MethodGet, resourcePath(r.doctype), q, nil, &records); err != nil {
			return fmt.Errorf("list %s: %w", r.doctype, err)
		}
		return nil
	})
	if r.lines != nil {
		g.Go(func() error {
			lq, err := listQuery(lineFields, nil, "idx asc")
			if err != nil {
				lineErr = err
				return nil
			}
			lq.Set("parent", r.doctype)
			lineErr = r.client.do(gctx, http.MethodGet, resourcePath(r.lines.doctype), lq, nil, &lines)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if r.lines != nil {
		if lineErr != nil {
			r.log.Warn("line items unavailable", "err", lineErr)
		} else {
			byParent := make(map[string][]Line)
			for _, l := range lines {
				byParent[l.Parent] = append(byParent[l.Parent], l)
			}
			for i, rec := range records {
				records[i] = r.lines.attach(rec, byParent[rec.RecordID()])
			}
		}
	}
	return records, nil
}

// Get fetches one record with its child tables.
func (r *Resource[T]) Get(ctx context.Context, name string) (T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodGet, resourcePath(r.doctype, name), nil, nil, &out); err != nil {
		return out, fmt.Errorf("get %s %s: %w", r.doctype, name, err)
	}
	return out, nil
}

func (r *Resource[T]) Create(ctx context.Context, record T) (T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodPost, resourcePath(r.doctype), nil, record, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (r *Resource[T]) Update(ctx context.Context, record T) (T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodPut, resourcePath(r.doctype, record.RecordID()), nil, record, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (r *Resource[T]) setArchived(ctx context.Context, id string, archived Flag) error {
	body := map[string]any{"archived": archived}
	return r.client.do(ctx, http.MethodPut, resourcePath(r.doctype, id), nil, body, nil)
}

func (r *Resource[T]) Archive(ctx context.Context, id string) error {
	return r.setArchived(ctx, id, true)
}

func (r *Resource[T]) Restore(ctx context.Context, id string) error {
	return r.setArchived(ctx, id, false)
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, http.MethodDelete, resourcePath(r.doctype, id), nil, nil, nil)
}

type bulkUpdateDoc struct {
	Doctype  string `json:"doctype"`
	Docname  string `json:"docname"`
	Archived Flag   `json:"archived"`
}

// Bulk archives or restores every id in one frappe.client.bulk_update call.
// Deletes are left to the dispatcher's fan-out.
func (r *Resource[T]) Bulk(ctx context.Context, op listcore.BulkOp, ids []string) (listcore.BulkResult, error) {
	if op == listcore.BulkDelete {
		return listcore.BulkResult{}, listcore.ErrBulkUnsupported
	}
	docs := make([]bulkUpdateDoc, len(ids))
	for i, id := range ids {
		docs[i] = bulkUpdateDoc{Doctype: r.doctype, Docname: id, Archived: Flag(op == listcore.BulkArchive)}
	}
	encoded, err := json.Marshal(docs)
	if err != nil {
		return listcore.BulkResult{}, fmt.Errorf("encode bulk docs: %w", err)
	}

	var out struct {
		Message struct {
			FailedDocs []struct {
				Doc struct {
					Docname string `json:"docname"`
				} `json:"doc"`
				Exc string `json:"exc"`
			} `json:"failed_docs"`
		} `json:"message"`
	}
	var apiErr APIError
	resp, err := r.client.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"docs": string(encoded)}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/api/method/frappe.client.bulk_update")
	if err != nil {
		return listcore.BulkResult{}, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return listcore.BulkResult{}, &apiErr
	}

	failed := make(map[string]error)
	for _, f := range out.Message.FailedDocs {
		failed[f.Doc.Docname] = errors.New(lastLine(f.Exc))
	}
	succeeded := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, bad := failed[id]; !bad {
			succeeded = append(succeeded, id)
		}
	}
	return listcore.BulkResult{
		Success:      len(failed) == 0,
		SuccessCount: len(succeeded),
		FailedCount:  len(failed),
		Succeeded:    succeeded,
		Failed:       failed,
	}, nil
}

// lastLine keeps the exception line of a server traceback.
func lastLine(tb string) string {
	tb = strings.TrimSpace(tb)
	if i := strings.LastIndex(tb, "\n"); i >= 0 {
		return tb[i+1:]
	}
	return tb
}
