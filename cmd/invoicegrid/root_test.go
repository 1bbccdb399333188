package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegrid/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRootCmd_InputErrors(t *testing.T) {
	empty := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(empty, "notes.txt"), []byte("x"), 0o600))

	tests := []struct {
		name string
		dir  string
		want error
	}{
		{"missing directory", filepath.Join(t.TempDir(), "nope"), domain.ErrInputDirMissing},
		{"no pdfs", empty, domain.ErrNoPDFFiles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "-i", tt.dir, "-o", filepath.Join(t.TempDir(), "out.xlsx"))
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.dir)
		})
	}
}

func TestRootCmd_UnreadablePDFStillProducesWorkbook(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.pdf"), []byte("%PDF-1.4 not really a pdf"), 0o600))
	outDir := t.TempDir()
	out := filepath.Join(outDir, "report.xlsx")
	csvOut := filepath.Join(outDir, "items.csv")

	stdout, err := execute(t, "-i", in, "-o", out, "--csv", csvOut, "--concurrency", "2", "--extract-tables=false")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Processing 1/1: broken.pdf\n")
	assert.Contains(t, stdout, "  - No line items detected\n")
	assert.Contains(t, stdout, "Files processed: 0/1\n")
	assert.Contains(t, stdout, "Total line items found: 0\n")
	assert.Contains(t, stdout, "Results saved to: "+out+"\n")

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	_, err = os.Stat(csvOut)
	assert.NoError(t, err)
}

func TestRootCmd_RejectsPositionalArgs(t *testing.T) {
	_, err := execute(t, "extra")
	assert.Error(t, err)
}
