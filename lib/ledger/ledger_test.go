package ledger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pengulabs/nft-sales-bot/lib/ledger"
)

func TestRecordAndContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_sales.txt")
	led, err := ledger.Open(path)
	require.NoError(t, err)
	defer led.Close()

	require.False(t, led.Contains("100"))
	require.NoError(t, led.Record("100"))
	require.True(t, led.Contains("100"))
	require.Equal(t, 1, led.Size())
}

func TestRecordIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_sales.txt")
	led, err := ledger.Open(path)
	require.NoError(t, err)
	defer led.Close()

	require.NoError(t, led.Record("100"))
	require.NoError(t, led.Record("100"))
	require.True(t, led.Contains("100"))
	require.Equal(t, 1, led.Size())

	// the file must not grow a second line for the duplicate
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "100\n", string(data))
}

func TestReloadAfterRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_sales.txt")
	led, err := ledger.Open(path)
	require.NoError(t, err)
	require.NoError(t, led.Record("100"))
	require.NoError(t, led.Record("200"))
	require.NoError(t, led.Close())

	reloaded, err := ledger.Open(path)
	require.NoError(t, err)
	defer reloaded.Close()
	require.True(t, reloaded.Contains("100"))
	require.True(t, reloaded.Contains("200"))
	require.False(t, reloaded.Contains("300"))
	require.Equal(t, 2, reloaded.Size())
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	led, err := ledger.Open(filepath.Join(t.TempDir(), "fresh.txt"))
	require.NoError(t, err)
	defer led.Close()
	require.Equal(t, 0, led.Size())
}

func TestOpenSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_sales.txt")
	require.NoError(t, os.WriteFile(path, []byte("100\n\n  \n200\n"), 0o644))

	led, err := ledger.Open(path)
	require.NoError(t, err)
	defer led.Close()
	require.Equal(t, 2, led.Size())
}
