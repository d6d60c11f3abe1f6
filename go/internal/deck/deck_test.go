package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDeck(t *testing.T) {
	d := Default()

	assert.Equal(t, DefaultCards, d.Cards())
	assert.True(t, d.Contains("?"))
	assert.True(t, d.Contains("0.5"))
	assert.False(t, d.Contains("4"))
	assert.False(t, d.Contains(""))
}

func TestNewRejectsBadDecks(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]string{"1", " "})
	assert.Error(t, err)

	_, err = New([]string{"1", "2", "1"})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cards:\n  - XS\n  - S\n  - M\n  - L\n  - \"?\"\n"), 0o600))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"XS", "S", "M", "L", "?"}, d.Cards())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCardsReturnsCopy(t *testing.T) {
	d := Default()
	cards := d.Cards()
	cards[0] = "mutated"

	assert.Equal(t, "0.5", d.Cards()[0])
}
