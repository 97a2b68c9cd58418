package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should return empty prefs when the file is missing", func(t *testing.T) {
		p, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		assert.Empty(t, p.Views)
		assert.Equal(t, View{}, p.View("sales"))
	})

	t.Run("Should ignore a corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.toml")
		require.NoError(t, os.WriteFile(path, []byte("views = [[[ nope"), 0o644))
		p, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, p.Views)
	})

	t.Run("Should drop negative page sizes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.toml")
		raw := "[views.sales]\nsort_column = \"total\"\npage_size = -4\n"
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
		p, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, View{SortColumn: "total"}, p.View("sales"))
	})
}

func TestSave(t *testing.T) {
	t.Run("Should round-trip views and create directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "prefs.toml")
		var p Prefs
		p.SetView("sales", View{SortColumn: "total", SortDirection: "desc", ShowArchived: true, PageSize: 25})
		p.SetView("suppliers", View{SortColumn: "name"})
		require.NoError(t, Save(path, p))

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, p.View("sales"), loaded.View("sales"))
		assert.Equal(t, p.View("suppliers"), loaded.View("suppliers"))
	})
}
