package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Default(t *testing.T) {
	u := Default()
	require.NotEmpty(t, u.List())

	c, ok := u.Lookup("aapl")
	require.True(t, ok)
	assert.Equal(t, "AAPL", c.Symbol)
	assert.Equal(t, "technology", c.Sector)

	_, ok = u.Lookup("NOPE")
	assert.False(t, ok)
}

func Test_LoadCSV(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "universe.csv")
		contents := "symbol,name,sector\nACME,Acme Corp,industrial\nWIDG,Widget Inc,cyclical\n"
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

		u, err := LoadCSV(path)
		require.NoError(t, err)
		assert.Len(t, u.List(), 2)

		c, ok := u.Lookup("widg")
		require.True(t, ok)
		assert.Equal(t, "Widget Inc", c.Name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.csv")
		require.NoError(t, os.WriteFile(path, []byte("symbol,name,sector\n"), 0o644))
		_, err := LoadCSV(path)
		require.Error(t, err)
	})
}

func Test_List_returnsCopy(t *testing.T) {
	u := Default()
	list := u.List()
	list[0].Symbol = "MUTATED"

	again := u.List()
	assert.NotEqual(t, "MUTATED", again[0].Symbol)
}
