package tools_test

import (
	"testing"

	"github.com/lookbusy1344/alya-vm/parser"
	"github.com/lookbusy1344/alya-vm/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint_FlagsUnreferencedLabel(t *testing.T) {
	stmts, err := parser.Parse("lonely:\nhalt")
	require.NoError(t, err)
	findings := tools.Lint(stmts)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], "lonely")
	assert.Contains(t, findings[0], "never referenced")
}

func TestLint_ReferencedLabelProducesNoFinding(t *testing.T) {
	stmts, err := parser.Parse("goto start\nstart:\nhalt")
	require.NoError(t, err)
	findings := tools.Lint(stmts)
	assert.Empty(t, findings)
}

func TestLint_FlagsScratchRegisterClobber(t *testing.T) {
	stmts, err := parser.Parse("@__tmp := 5\nhalt")
	require.NoError(t, err)
	findings := tools.Lint(stmts)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], "__tmp")
}

func TestLint_CleanProgramProducesNoFindings(t *testing.T) {
	stmts, err := parser.Parse("@a := 1\n@b := @a + 1\nhalt")
	require.NoError(t, err)
	findings := tools.Lint(stmts)
	assert.Empty(t, findings)
}
