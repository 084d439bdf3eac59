package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsOrdered(t *testing.T) {
	sub, err := fs.Sub(files, "sql")
	require.NoError(t, err)

	found, err := listMigrations(sub)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "001", found[0].Version)
	assert.Equal(t, "002", found[1].Version)

	body, err := fs.ReadFile(sub, found[1].Name)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "FUNCTION machine_features"))
}

func TestChecksumStable(t *testing.T) {
	a := calculateChecksum([]byte("CREATE TABLE x ();"))
	b := calculateChecksum([]byte("CREATE TABLE x ();"))
	c := calculateChecksum([]byte("CREATE TABLE y ();"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
