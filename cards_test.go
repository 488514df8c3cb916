package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybingo/store"
)

func execRoot(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestCardsCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EASYBINGO_CONFIG_DIR", dir)

	out := execRoot(t, "generate", "--count", "3", "--seed", "42", "--save")
	assert.Contains(t, out, "Saved 3 card(s); collection now has 3.")

	cards, err := store.NewFile(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 3)
	for _, c := range cards {
		assert.NoError(t, c.Validate())
	}

	out = execRoot(t, "cards", "list")
	assert.Contains(t, out, "Card 3")

	out = execRoot(t, "cards", "delete", "2")
	assert.Contains(t, out, "Deleted card 2; 2 left.")
	left, err := store.NewFile(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{cards[0], cards[2]}, []any{left[0], left[1]})

	out = execRoot(t, "cards", "clear")
	assert.Contains(t, out, "Collection cleared.")
	out = execRoot(t, "cards", "list")
	assert.Contains(t, out, "No saved cards")
}

func TestGenerateSeedIsReproducible(t *testing.T) {
	t.Setenv("EASYBINGO_CONFIG_DIR", t.TempDir())
	a := execRoot(t, "generate", "--count", "2", "--seed", "7", "--save=false")
	b := execRoot(t, "generate", "--count", "2", "--seed", "7", "--save=false")
	assert.Equal(t, a, b)
}
