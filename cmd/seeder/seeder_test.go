package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSeeder(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeederCommands(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "seed.db"))

	out, err := runSeeder(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema ready (sqlite)")

	out, err = runSeeder(t, "seed-cities")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 30 cities (0 already present)")

	out, err = runSeeder(t, "seed-cities")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 0 cities (30 already present)")

	out, err = runSeeder(t, "add-user", "--name", "Ana", "--email", "Ana@Example.com", "--password", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "<ana@example.com>")

	_, err = runSeeder(t, "add-user", "--name", "Ana", "--email", "ana@example.com", "--password", "other")
	assert.Error(t, err)

	_, err = runSeeder(t, "add-user", "--name", "Bia", "--email", "bia@example.com")
	assert.Error(t, err)

	out, err = runSeeder(t, "users")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@example.com")

	out, err = runSeeder(t, "campaigns", "--status", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 0 campaigns")

	_, err = runSeeder(t, "campaigns", "--status", "exploded")
	assert.Error(t, err)
}

func TestReadCities(t *testing.T) {
	cities, err := readCities(strings.NewReader("state,city\nsp, Santos\nRJ,Niterói\n"))
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "SP", cities[0].State)
	assert.Equal(t, "Santos", cities[0].City)

	_, err = readCities(strings.NewReader("SP,\n"))
	assert.Error(t, err)

	_, err = readCities(strings.NewReader("SP,Santos,extra\n"))
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Name"}, [][]string{{"1", "Ana"}, {"2"}}, []columnAlignment{alignRight})
	assert.Contains(t, out, "Ana")
	assert.Equal(t, "", renderTable(nil, nil, nil))
}
