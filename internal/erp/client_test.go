package erp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/wms/internal/listcore"
	"github.com/mikelcalvo/wms/internal/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := &Config{
		URL:             srv.URL,
		APIKey:          "key",
		APISecret:       "secret",
		NginxCookie:     "cookie-value",
		NginxCookieName: "auth_cookie",
	}
	return NewClient(cfg, logger.Discard())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestParseConfig(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{
			"WMS_URL":        "https://erp.example.com/",
			"WMS_API_KEY":    "key",
			"WMS_API_SECRET": "secret",
		}
	}

	t.Run("Should apply defaults", func(t *testing.T) {
		cfg, err := ParseConfig(base())
		require.NoError(t, err)
		assert.Equal(t, "https://erp.example.com", cfg.URL)
		assert.Equal(t, "Warehouse", cfg.Brand)
		assert.Equal(t, "auth_cookie", cfg.NginxCookieName)
		assert.Equal(t, RoleStaff, cfg.Role)
		assert.Zero(t, cfg.PageSize)
	})

	t.Run("Should read optional settings", func(t *testing.T) {
		v := base()
		v["WMS_ROLE"] = "Manager"
		v["WMS_NOTIFY_USERS"] = "a@example.com, b@example.com,"
		v["WMS_PAGE_SIZE"] = "25"
		v["WMS_SEARCH_DEBOUNCE_MS"] = "150"
		v["WMS_BRAND"] = "Acme"
		cfg, err := ParseConfig(v)
		require.NoError(t, err)
		assert.Equal(t, RoleManager, cfg.Role)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.NotifyUsers)
		assert.Equal(t, 25, cfg.PageSize)
		assert.Equal(t, int64(150), cfg.SearchDebounce.Milliseconds())
		assert.Equal(t, "Acme", cfg.Brand)
	})

	t.Run("Should require credentials", func(t *testing.T) {
		v := base()
		delete(v, "WMS_API_SECRET")
		_, err := ParseConfig(v)
		assert.ErrorContains(t, err, "missing required config")
	})

	t.Run("Should reject a bad page size", func(t *testing.T) {
		v := base()
		v["WMS_PAGE_SIZE"] = "0"
		_, err := ParseConfig(v)
		assert.ErrorContains(t, err, "WMS_PAGE_SIZE")
	})

	t.Run("Should require a user for customers", func(t *testing.T) {
		v := base()
		v["WMS_ROLE"] = "customer"
		_, err := ParseConfig(v)
		assert.ErrorContains(t, err, "WMS_USER")
	})

	t.Run("Should reject unknown roles", func(t *testing.T) {
		v := base()
		v["WMS_ROLE"] = "owner"
		_, err := ParseConfig(v)
		assert.Error(t, err)
	})
}

func TestResourceList(t *testing.T) {
	t.Run("Should unwrap the data envelope and attach lines", func(t *testing.T) {
		var (
			mu      sync.Mutex
			queries = map[string]string{}
		)
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "token key:secret", r.Header.Get("Authorization"))
			cookie, err := r.Cookie("auth_cookie")
			if assert.NoError(t, err) {
				assert.Equal(t, "cookie-value", cookie.Value)
			}
			mu.Lock()
			queries[r.URL.Path] = r.URL.Query().Get("filters")
			mu.Unlock()
			switch r.URL.Path {
			case "/api/resource/Sales Order":
				assert.Equal(t, "0", r.URL.Query().Get("limit_page_length"))
				writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
					{"name": "SO-1", "customer": "Acme Corp", "delivery_date": "2026-10-30", "grand_total": 900, "archived": 0},
					{"name": "SO-2", "customer": "Globex", "delivery_date": "2026-11-02", "grand_total": "120.50", "archived": 1},
				}})
			case "/api/resource/Sales Order Item":
				assert.Equal(t, "Sales Order", r.URL.Query().Get("parent"))
				writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
					{"parent": "SO-1", "item_code": "CPU-I7", "qty": 2, "rate": 450},
				}})
			default:
				http.NotFound(w, r)
			}
		})

		svc := remote(c, salesOrderEntity(), WithOwnerFilter[SalesOrder]("orders@acme.example"))
		orders, err := svc.List(context.Background())
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "900", orders[0].GrandTotal.String())
		assert.False(t, orders[0].IsArchived())
		require.Len(t, orders[0].Items, 1)
		assert.Equal(t, "CPU-I7", orders[0].Items[0].ItemCode)
		assert.Empty(t, orders[1].Items)
		assert.True(t, orders[1].IsArchived())
		assert.Equal(t, "120.5", orders[1].GrandTotal.String())
		assert.JSONEq(t, `[["owner","=","orders@acme.example"]]`, queries["/api/resource/Sales Order"])
	})

	t.Run("Should keep records when lines fail", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/resource/Sales Order Item" {
				writeJSON(w, http.StatusForbidden, map[string]any{"exc_type": "PermissionError"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"name": "SO-1", "customer": "Acme Corp"}}})
		})
		orders, err := remote(c, salesOrderEntity()).List(context.Background())
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Empty(t, orders[0].Items)
	})

	t.Run("Should surface server errors", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"exception": "frappe.exceptions.ValidationError: broken"})
		})
		_, err := NewResource[Supplier](c, "Supplier", nil).List(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("Should wrap not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
		_, err := NewResource[Supplier](c, "Supplier", nil).Get(context.Background(), "Nope")
		assert.ErrorIs(t, err, ErrRemoteNotFound)
	})
}

func TestResourceMutations(t *testing.T) {
	t.Run("Should archive with a check flag", func(t *testing.T) {
		var body map[string]any
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/resource/Supplier/Northwind", r.URL.Path)
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"name": "Northwind"}})
		})
		err := NewResource[Supplier](c, "Supplier", nil).Archive(context.Background(), "Northwind")
		require.NoError(t, err)
		assert.Equal(t, float64(1), body["archived"])
	})

	t.Run("Should split bulk results by failed docs", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/method/frappe.client.bulk_update", r.URL.Path)
			var req struct {
				Docs string `json:"docs"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			var docs []map[string]any
			assert.NoError(t, json.Unmarshal([]byte(req.Docs), &docs))
			assert.Len(t, docs, 3)
			writeJSON(w, http.StatusOK, map[string]any{"message": map[string]any{
				"failed_docs": []map[string]any{{
					"doc": map[string]any{"docname": "SO-2"},
					"exc": "Traceback (most recent call last):\n  ...\nfrappe.exceptions.ValidationError: submitted",
				}},
			}})
		})
		res, err := remote(c, salesOrderEntity()).Bulk(context.Background(), listcore.BulkArchive, []string{"SO-1", "SO-2", "SO-3"})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, 2, res.SuccessCount)
		assert.Equal(t, []string{"SO-1", "SO-3"}, res.Succeeded)
		require.Contains(t, res.Failed, "SO-2")
		assert.Equal(t, "frappe.exceptions.ValidationError: submitted", res.Failed["SO-2"].Error())
	})

	t.Run("Should leave bulk deletes to fan-out", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			t.Error("no request expected")
			w.WriteHeader(http.StatusTeapot)
		})
		_, err := remote(c, salesOrderEntity()).Bulk(context.Background(), listcore.BulkDelete, []string{"SO-1"})
		assert.ErrorIs(t, err, listcore.ErrBulkUnsupported)
	})

	t.Run("Should post notification logs", func(t *testing.T) {
		var got Notification
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/resource/Notification Log", r.URL.Path)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{}})
		})
		err := NewRemoteSender(c).Send(context.Background(), Notification{Subject: "hi", ForUser: "a@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", got.ForUser)
	})
}

func TestLoggedUser(t *testing.T) {
	t.Run("Should return the key owner", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"message": "admin@example.com"})
		})
		user, err := c.LoggedUser(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", user)
	})

	t.Run("Should fail on rejected credentials", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"exc_type": "AuthenticationError"})
		})
		_, err := c.LoggedUser(context.Background())
		assert.ErrorContains(t, err, "authentication failed")
	})
}
