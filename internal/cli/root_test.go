package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDemo(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	base := []string{"--demo", "--log-level", "error", "--prefs", filepath.Join(t.TempDir(), "prefs.toml")}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Run("Should print version and author", func(t *testing.T) {
		out, err := runDemo(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "wms v")
		assert.Contains(t, out, "Created by")
	})
}

func TestListCommand(t *testing.T) {
	t.Run("Should hide archived orders by default", func(t *testing.T) {
		out, err := runDemo(t, "list", "sales")
		require.NoError(t, err)
		assert.Contains(t, out, "SO-2026-00001")
		assert.Contains(t, out, "SO-2026-00004")
		assert.NotContains(t, out, "SO-2026-00005")
	})

	t.Run("Should show only archived orders when asked", func(t *testing.T) {
		out, err := runDemo(t, "list", "sales", "--archived")
		require.NoError(t, err)
		assert.Contains(t, out, "SO-2026-00005")
		assert.Contains(t, out, "(archived)")
		assert.NotContains(t, out, "SO-2026-00001")
	})

	t.Run("Should search across customers", func(t *testing.T) {
		out, err := runDemo(t, "list", "sales", "--search", "globex")
		require.NoError(t, err)
		assert.Contains(t, out, "SO-2026-00002")
		assert.NotContains(t, out, "SO-2026-00001")
	})

	t.Run("Should scope customers to their own orders", func(t *testing.T) {
		out, err := runDemo(t, "--role", "customer", "list", "sales")
		require.NoError(t, err)
		assert.Contains(t, out, "SO-2026-00001")
		assert.Contains(t, out, "SO-2026-00004")
		assert.NotContains(t, out, "SO-2026-00002")
		assert.NotContains(t, out, "SO-2026-00003")
	})

	t.Run("Should refuse views the role cannot see", func(t *testing.T) {
		_, err := runDemo(t, "--role", "customer", "list", "inventory")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unavailable")
	})

	t.Run("Should reject unknown sort columns", func(t *testing.T) {
		_, err := runDemo(t, "list", "suppliers", "--sort", "bogus")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot sort")
	})

	t.Run("Should reject unknown roles", func(t *testing.T) {
		_, err := runDemo(t, "--role", "root", "list", "sales")
		require.Error(t, err)
	})
}

func TestGetCommand(t *testing.T) {
	t.Run("Should print one record with its lines", func(t *testing.T) {
		out, err := runDemo(t, "get", "sales", "SO-2026-00002")
		require.NoError(t, err)
		assert.Contains(t, out, "Globex")
		assert.Contains(t, out, "RAM-16")
	})

	t.Run("Should fail for a missing record", func(t *testing.T) {
		_, err := runDemo(t, "get", "sales", "SO-NOPE")
		require.Error(t, err)
	})
}

func TestCreateCommand(t *testing.T) {
	t.Run("Should create a sales order as a customer", func(t *testing.T) {
		out, err := runDemo(t, "--role", "customer", "create", "sales",
			"--set", "customer=Acme Corp",
			"--set", "delivery_date=2099-01-31",
			"--set", "items=CPU-I7:2:450")
		require.NoError(t, err)
		assert.Contains(t, out, "Created sales order")
	})

	t.Run("Should report validation failures", func(t *testing.T) {
		out, err := runDemo(t, "create", "sales", "--set", "customer=Acme Corp")
		require.Error(t, err)
		assert.Contains(t, out, "delivery_date")
	})

	t.Run("Should reject unknown fields", func(t *testing.T) {
		_, err := runDemo(t, "create", "suppliers", "--set", "colour=blue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown field")
	})

	t.Run("Should reject malformed values", func(t *testing.T) {
		_, err := runDemo(t, "create", "suppliers", "--set", "supplier_name")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "key=value")
	})
}

func TestMutateCommands(t *testing.T) {
	t.Run("Should archive a single record", func(t *testing.T) {
		out, err := runDemo(t, "archive", "sales", "SO-2026-00003")
		require.NoError(t, err)
		assert.Contains(t, out, "Archived sales order SO-2026-00003")
	})

	t.Run("Should archive several records in bulk", func(t *testing.T) {
		out, err := runDemo(t, "archive", "suppliers", "Northwind Components", "Contoso Storage")
		require.NoError(t, err)
		assert.Contains(t, out, "2 suppliers")
	})

	t.Run("Should refuse to archive as staff", func(t *testing.T) {
		_, err := runDemo(t, "--role", "staff", "archive", "sales", "SO-2026-00003")
		require.Error(t, err)
	})

	t.Run("Should refuse to restore an active record", func(t *testing.T) {
		_, err := runDemo(t, "restore", "sales", "SO-2026-00003")
		require.Error(t, err)
	})

	t.Run("Should restore only the archived records of a mixed batch", func(t *testing.T) {
		out, err := runDemo(t, "restore", "sales", "SO-2026-00005", "SO-2026-00003")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 failed")
		assert.Contains(t, out, "SO-2026-00003: invalid transition")
		assert.NotContains(t, out, "SO-2026-00005:")
	})

	t.Run("Should refuse unknown ids in a batch", func(t *testing.T) {
		_, err := runDemo(t, "archive", "suppliers", "Northwind Components", "Nobody Ltd")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 unknown suppliers")
	})

	t.Run("Should refuse permanent delete for managers", func(t *testing.T) {
		_, err := runDemo(t, "--role", "manager", "delete", "sales", "SO-2026-00005")
		require.Error(t, err)
	})

	t.Run("Should delete permanently as admin", func(t *testing.T) {
		out, err := runDemo(t, "delete", "sales", "SO-2026-00005")
		require.NoError(t, err)
		assert.Contains(t, out, "Permanently deleted")
	})
}

func TestExportImportCommands(t *testing.T) {
	t.Run("Should export to stdout", func(t *testing.T) {
		out, err := runDemo(t, "export", "suppliers", "-o", "-")
		require.NoError(t, err)
		assert.Contains(t, out, "Northwind Components")
	})

	t.Run("Should export to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sales.csv")
		out, err := runDemo(t, "export", "sales", "-o", path, "--status", "Draft")
		require.NoError(t, err)
		assert.Contains(t, out, "Exported 1 sales orders")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "SO-2026-00003")
	})

	t.Run("Should import suppliers from CSV", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "suppliers.csv")
		csv := "supplier_name,supplier_group,country\nWayne Parts,Hardware,USA\nStark Supply,Hardware,USA\n"
		require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
		out, err := runDemo(t, "import", "suppliers", "-f", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Created 2 suppliers")
	})

	t.Run("Should require an input file", func(t *testing.T) {
		_, err := runDemo(t, "import", "suppliers")
		require.Error(t, err)
	})
}

func TestReportCommand(t *testing.T) {
	t.Run("Should render the dashboard", func(t *testing.T) {
		out, err := runDemo(t, "report")
		require.NoError(t, err)
		assert.Contains(t, out, "dashboard")
		assert.Contains(t, out, "SALES")
		assert.Contains(t, out, "STOCK")
	})
}

func TestServerCommandsInDemo(t *testing.T) {
	t.Run("Should reject ping in demo mode", func(t *testing.T) {
		_, err := runDemo(t, "ping")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "demo")
	})
}
