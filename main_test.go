package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-blur/images/bmp"
)

func writeBMP(t *testing.T, dir string) string {
	t.Helper()
	img := bmp.NewBitmap(9, 7)
	img.Fill(10, 20, 30)
	img.SetRGB(4, 3, 250, 250, 250)
	path := filepath.Join(dir, "in.bmp")
	require.NoError(t, bmp.Save(path, bmp.NewHeaders(9, 7), img))
	return path
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	input := writeBMP(t, dir)
	output := filepath.Join(dir, "out.bmp")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no arguments", nil, 2},
		{"too few arguments", []string{input, output}, 2},
		{"too many arguments", []string{input, output, "2", "4", "x"}, 2},
		{"thread count not a number", []string{input, output, "two"}, 2},
		{"zero threads", []string{input, output, "0"}, 2},
		{"negative tile size", []string{input, output, "2", "-1"}, 2},
		{"unknown flag", []string{"-bogus", input, output, "2"}, 2},
		{"bad cpu list", []string{"-cpus", "a-b", input, output, "2"}, 2},
		{"zero threads with missing config", []string{"-config", filepath.Join(dir, "missing.yaml"), input, output, "0"}, 2},
		{"missing config", []string{"-config", filepath.Join(dir, "missing.yaml"), input, output, "2"}, 1},
		{"missing input", []string{filepath.Join(dir, "nope.bmp"), output, "2"}, 1},
		{"help", []string{"-h"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(tt.args, &stdout, &stderr), stderr.String())
			if tt.want != 0 {
				assert.NotEmpty(t, stderr.String())
			}
		})
	}
	assert.NoFileExists(t, output)
}

func TestRunMalformedInputExitsOne(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.bmp")
	require.NoError(t, os.WriteFile(input, []byte("not a bitmap at all"), 0o644))
	output := filepath.Join(dir, "out.bmp")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{input, output, "2"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "FormatError")
	assert.NoFileExists(t, output)
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	input := writeBMP(t, dir)
	output := filepath.Join(dir, "out.bmp")
	logPath := filepath.Join(dir, "pixels.log")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-log", logPath, input, output, "3", "4"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Execution time: ")
	assert.Contains(t, stdout.String(), "with 3 threads, tile size 4")

	out, _, err := bmp.Load(output)
	require.NoError(t, err)
	assert.Equal(t, 9, out.Width)
	assert.FileExists(t, logPath)
}

func TestRunQuiet(t *testing.T) {
	dir := t.TempDir()
	input := writeBMP(t, dir)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-quiet", input, filepath.Join(dir, "out.bmp"), "1"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := writeBMP(t, dir)
	output := filepath.Join(dir, "from-config.bmp")
	cfgPath := filepath.Join(dir, "blur.yaml")
	yaml := "input: " + input + "\noutput: " + output + "\nthreads: 2\ntile_size: 3\nquiet: true\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-config", cfgPath}, &stdout, &stderr), stderr.String())
	assert.FileExists(t, output)
}
