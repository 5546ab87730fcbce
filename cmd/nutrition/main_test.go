package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nutrition"
)

// run executes one CLI invocation against db and returns its output.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	c := newCLI("test")
	var out bytes.Buffer
	c.root.SetOut(&out)
	c.root.SetErr(&out)
	c.root.SetArgs(append([]string{"--database", db}, args...))
	err := c.Execute()
	return out.String(), err
}

func testDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return filepath.Join(dir, "nutrition.db")
}

func TestConvert(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, "convert", "2000", "gram", "kilogram")
	require.NoError(t, err)
	require.Equal(t, "2 kg\n", out)

	_, err = run(t, db, "convert", "1", "cup", "gram")
	require.ErrorIs(t, err, nutrition.ErrConversionUnavailable)

	_, err = run(t, db, "convert", "lots", "gram", "kilogram")
	require.Error(t, err)

	_, err = run(t, db, "convert", "1", "furlong", "gram")
	require.ErrorIs(t, err, nutrition.ErrUnitNotFound)
}

func TestConvert_Explain(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, "convert", "1", "tablespoon", "millilitre", "--explain")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "15 ml", lines[0])
	require.Contains(t, lines[1], "tbsp")
	require.Contains(t, lines[2], "ml")
}

func TestIngredientAddAndConvert(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, "ingredient", "add", "apple",
		"--conversion", "1 whole=182 gram",
		"--cost", "3", "--cost-per", "1 kilogram",
		"--flag", "vegan")
	require.NoError(t, err)
	require.Contains(t, out, "apple")

	out, err = run(t, db, "convert", "2", "whole", "gram", "--ingredient", "apple")
	require.NoError(t, err)
	require.Equal(t, "364 g\n", out)

	// Without the ingredient there is no bridge.
	_, err = run(t, db, "convert", "2", "whole", "gram")
	require.ErrorIs(t, err, nutrition.ErrConversionUnavailable)

	out, err = run(t, db, "units", "--ingredient", "apple")
	require.NoError(t, err)
	require.Contains(t, strings.Split(strings.TrimSpace(out), "\n"), "whole")
	require.Contains(t, strings.Split(strings.TrimSpace(out), "\n"), "dozen")

	_, err = run(t, db, "ingredient", "add", "pear", "--conversion", "1 whole")
	require.Error(t, err)

	_, err = run(t, db, "ingredient", "rm", "apple")
	require.NoError(t, err)
	_, err = run(t, db, "convert", "2", "whole", "gram", "--ingredient", "apple")
	require.ErrorIs(t, err, nutrition.ErrNotFound)
	_, err = run(t, db, "ingredient", "rm", "apple")
	require.ErrorIs(t, err, nutrition.ErrNotFound)
}

func TestUnits(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, "units", "--from", "litre")
	require.NoError(t, err)
	require.Equal(t, []string{"cup", "fluid ounce", "litre", "millilitre", "pinch", "tablespoon", "teaspoon"},
		strings.Split(strings.TrimSpace(out), "\n"))
}

func TestCatalogExportImport(t *testing.T) {
	for _, name := range []string{"catalog.yaml", "catalog.msgpack"} {
		t.Run(name, func(t *testing.T) {
			db := testDB(t)
			path := filepath.Join(filepath.Dir(db), name)

			_, err := run(t, db, "catalog", "export", path)
			require.NoError(t, err)
			info, err := os.Stat(path)
			require.NoError(t, err)
			require.NotZero(t, info.Size())

			other := filepath.Join(filepath.Dir(db), "other.db")
			out, err := run(t, other, "catalog", "import", path)
			require.NoError(t, err)
			require.Equal(t, "imported 14 units and 11 conversions\n", out)

			out, err = run(t, other, "convert", "1", "pound", "ounce")
			require.NoError(t, err)
			require.Equal(t, "16 oz\n", out)
		})
	}
}

func TestCatalogImport_Replaces(t *testing.T) {
	db := testDB(t)
	path := filepath.Join(filepath.Dir(db), "small.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: 1.2.0
units:
  - {name: gram, type: mass, singular: g, plural: g}
  - {name: kilogram, type: mass, singular: kg, plural: kg}
conversions:
  - [{unit: gram, value: 1000}, {unit: kilogram, value: 1}]
`), 0o600))

	_, err := run(t, db, "catalog", "import", path)
	require.NoError(t, err)

	_, err = run(t, db, "convert", "1", "cup", "millilitre")
	require.ErrorIs(t, err, nutrition.ErrConversionUnavailable)
	out, err := run(t, db, "convert", "500", "gram", "kilogram")
	require.NoError(t, err)
	require.Equal(t, "0.5 kg\n", out)
}

func TestCatalogFormat(t *testing.T) {
	_, err := run(t, testDB(t), "catalog", "export", "out.bin", "--format", "xml")
	require.Error(t, err)
}

func TestMetricsFlag(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, "--metrics", "convert", "2000", "gram", "kilogram")
	require.NoError(t, err)
	require.Contains(t, out, `nutrition_conversions_total{result="ok"} 1`)
	require.Contains(t, out, "nutrition_graph_rebuilds_total 1")
}
