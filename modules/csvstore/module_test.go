package csvstore

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WritesRowsPerSample(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	backend, err := OpenCSV(context.Background(), &Params{Path: path})
	require.NoError(t, err)

	require.NoError(t, backend.StoreFeat("n_words", "s2", 3))
	require.NoError(t, backend.StoreFeat("n_words", "s1", 2))
	require.NoError(t, backend.StoreFeat("n_chars", "s1", 7))
	require.NoError(t, backend.Write())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// Header plus one row per sample, columns sorted, rows sorted by id.
	require.Len(t, records, 3)
	assert.Equal(t, []string{"sample_id", "n_chars", "n_words"}, records[0])
	assert.Equal(t, []string{"s1", "7", "2"}, records[1])
	assert.Equal(t, []string{"s2", "", "3"}, records[2])
}

func TestStore_WriteFailsOnBadPath(t *testing.T) {
	t.Parallel()

	backend, err := OpenCSV(context.Background(), &Params{Path: filepath.Join(t.TempDir(), "no", "such", "dir", "out.csv")})
	require.NoError(t, err)
	assert.Error(t, backend.Write())
}
