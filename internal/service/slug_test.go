package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"José María O'Neil": "jose-maria-o-neil",
		"  Oak   Tree  ":    "oak-tree",
		"Łukasz":            "ukasz",
		"100% Rose!":        "100-rose",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
	assert.Equal(t, "john-smith", Slugify("John", "", "Smith"))
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"john-smith": true, "john-smith-2": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	got, err := uniqueSlug(context.Background(), "john-smith", exists)
	require.NoError(t, err)
	assert.Equal(t, "john-smith-3", got)

	got, err = uniqueSlug(context.Background(), "", exists)
	require.NoError(t, err)
	assert.Equal(t, "item", got)
}

func TestUniqueSlug_FallsBackToRandomSuffix(t *testing.T) {
	always := func(context.Context, string) (bool, error) { return true, nil }
	got, err := uniqueSlug(context.Background(), "rose", always)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "rose-"))
	assert.Len(t, got, len("rose-")+8)

	boom := errors.New("db down")
	_, err = uniqueSlug(context.Background(), "rose", func(context.Context, string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}
