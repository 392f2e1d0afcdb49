package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tb0hdan/adapta-history/pkg/config"
	"github.com/tb0hdan/adapta-history/pkg/events"
	"github.com/tb0hdan/adapta-history/pkg/generation"
	"github.com/tb0hdan/adapta-history/pkg/tools"
)

func newTestApp() *app {
	return &app{v: config.New(), version: "test", hub: events.NewHub()}
}

func TestToolsCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	root := newTestApp().rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"tools"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "essay")
	assert.Contains(t, out.String(), "Corretor de Redação")
	assert.Contains(t, out.String(), "image-generate")
}

func TestUpgradeRequiresUser(t *testing.T) {
	t.Chdir(t.TempDir())

	root := newTestApp().rootCmd()
	root.SetArgs([]string{"upgrade"})
	assert.Error(t, root.Execute())
}

func TestPrintResult(t *testing.T) {
	dir := t.TempDir()
	root := newTestApp().rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)

	summary, err := tools.Lookup("text-summary")
	require.NoError(t, err)
	require.NoError(t, printResult(root, summary, &generation.Result{Fields: map[string]any{"summary": "resumo"}}, ""))
	assert.Equal(t, "resumo\n", out.String())

	out.Reset()
	sheet, err := tools.Lookup("spreadsheet")
	require.NoError(t, err)
	target := filepath.Join(dir, "out.xlsx")
	require.NoError(t, printResult(root, sheet, &generation.Result{File: []byte("PK"), FileName: "x.xlsx"}, target))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data)
	assert.Contains(t, out.String(), "wrote")
}
