package diagnostics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopRunnerProducesNothing(t *testing.T) {
	out, err := NopRunner{}.Run(context.Background(), "main.s", Settings{})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestParseDiagnosticLineError(t *testing.T) {
	d, file, ok := parseDiagnosticLine("main.s:12: Error: unknown symbol `Foo'")
	require.True(t, ok)
	assert.Equal(t, "main.s", file)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, 11, d.Range[0].Line)
	assert.Equal(t, "ca65", d.Source)
	assert.Equal(t, "unknown symbol `Foo'", d.Message)
}

func TestParseDiagnosticLineWarning(t *testing.T) {
	d, _, ok := parseDiagnosticLine("lib.inc:3: Warning: symbol is never used")
	require.True(t, ok)
	assert.Equal(t, SeverityWarning, d.Severity)
}

func TestParseDiagnosticLineIgnoresUnrelatedOutput(t *testing.T) {
	_, _, ok := parseDiagnosticLine("ca65 V2.19 - Git ...")
	assert.False(t, ok)
}

func TestParseDiagnosticLineIgnoresBadLineNumber(t *testing.T) {
	_, _, ok := parseDiagnosticLine("main.s:abc: Error: bad")
	assert.False(t, ok)
}

func TestCA65RunnerSkippedWhenDisabled(t *testing.T) {
	out, err := CA65Runner{}.Run(context.Background(), "main.s", Settings{EnableStderrDiagnostics: false})
	require.NoError(t, err)
	assert.Nil(t, out)
}
