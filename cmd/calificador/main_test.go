package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtures(t *testing.T, dir string) (records, keys string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("LITHO,DNI,TEMA")
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&b, ",PREG_%03d", i)
	}
	b.WriteString("\n")
	b.WriteString("000001,70000001,M" + strings.Repeat(",A", 100) + "\n")
	b.WriteString("000002,70000002,Q" + strings.Repeat(",B", 100) + "\n")

	records = filepath.Join(dir, "respuestas.csv")
	require.NoError(t, os.WriteFile(records, []byte(b.String()), 0o644))
	keys = filepath.Join(dir, "keys.txt")
	require.NoError(t, os.WriteFile(keys, []byte("M"+strings.Repeat("A", 100)+"\n"), 0o644))
	return records, keys
}

func TestGradeReportAndBatches(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	records, keys := writeFixtures(t, dir)
	db := filepath.Join(dir, "calificador.db")
	out := filepath.Join(dir, "out")
	prom := filepath.Join(dir, "calificador.prom")

	run := func(args ...string) string {
		t.Helper()
		var buf bytes.Buffer
		root := newRootCmd()
		root.SetOut(&buf)
		root.SetArgs(args)
		require.NoError(t, root.Execute())
		return buf.String()
	}

	stdout := run("grade", "--records", records, "--keys", keys, "--out", out, "--db", db,
		"--workers", "2", "--yaml", "--metrics-file", prom, "--log-level", "error")
	assert.Contains(t, stdout, "70000001")
	assert.Contains(t, stdout, "360")
	for _, name := range []string{"resultados.csv", "resultados_detallados.csv", "resultados.yaml"} {
		_, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
	}
	_, err := os.Stat(prom)
	require.NoError(t, err)

	detailed, err := os.ReadFile(filepath.Join(out, "resultados_detallados.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(detailed), "revisión manual")

	listing := run("batches", "--db", db, "--log-level", "error")
	assert.Contains(t, listing, records)

	again := filepath.Join(dir, "again")
	run("report", "--db", db, "--out", again, "--log-level", "error")
	_, err = os.Stat(filepath.Join(again, "resultados.csv"))
	require.NoError(t, err)

	structure := run("structure", "--log-level", "error")
	assert.Contains(t, structure, "Aptitud Académica")
	assert.Contains(t, structure, "desconocidos")

	// Reports of stored batches keep the layout they were graded with.
	cfgPath := filepath.Join(dir, "config", "calificador", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte(`[[structure.section]]
name = "Razonamiento"
start = 0
end = 49
A = 1
B = 3
C = 2

[[structure.section]]
name = "Conocimientos"
start = 50
end = 99
A = 1
B = 3
C = 2
`), 0o644))
	assert.Contains(t, run("structure", "--log-level", "error"), "Razonamiento")

	changed := filepath.Join(dir, "changed")
	run("report", "--db", db, "--out", changed, "--log-level", "error")
	detailed, err = os.ReadFile(filepath.Join(changed, "resultados_detallados.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(detailed), "puntaje_matematica")
	assert.Contains(t, string(detailed), "000001,70000001,M,A,40,120,40,160,360,360,360")
	assert.NotContains(t, string(detailed), "razonamiento")

	docs, err := filepath.Glob(filepath.Join(changed, "resultados_*.txt"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	doc, err := os.ReadFile(docs[0])
	require.NoError(t, err)
	assert.Contains(t, string(doc), "(360 + 45)")
	assert.Contains(t, string(doc), "Aptitud Académica")
	assert.NotContains(t, string(doc), "Razonamiento")
}

func TestGradeRequiresInputs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"grade", "--no-store", "--keys", filepath.Join(dir, "keys.txt")})
	assert.Error(t, root.Execute())

	root = newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"grade", "--no-store", "--records", filepath.Join(dir, "missing.csv"), "--keys", filepath.Join(dir, "keys.txt")})
	assert.Error(t, root.Execute(), "missing input files abort the batch")
}
