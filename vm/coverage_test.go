package vm_test

import (
	"bytes"
	"testing"

	"github.com/lookbusy1344/alya-vm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverage_RecordAndPercent(t *testing.T) {
	cov := vm.NewCodeCoverage(nil, 4)
	cov.Record(0, 1)
	cov.Record(1, 2)
	assert.InDelta(t, 50.0, cov.Percent(), 0.001)
}

func TestCoverage_RepeatedRecordIncrementsCount(t *testing.T) {
	cov := vm.NewCodeCoverage(nil, 1)
	cov.Record(0, 1)
	cov.Record(0, 2)
	cov.Record(0, 3)
	entry := cov.Entry(0)
	require.NotNil(t, entry)
	assert.Equal(t, uint64(3), entry.ExecutionCount)
	assert.Equal(t, uint64(1), entry.FirstExecution)
	assert.Equal(t, uint64(3), entry.LastExecution)
}

func TestCoverage_UnexecutedPCs(t *testing.T) {
	cov := vm.NewCodeCoverage(nil, 3)
	cov.Record(1, 1)
	assert.Equal(t, []int{0, 2}, cov.UnexecutedPCs())
}

func TestCoverage_PercentZeroWhenTotalUnset(t *testing.T) {
	cov := vm.NewCodeCoverage(nil, 0)
	cov.Record(5, 1)
	assert.Equal(t, 0.0, cov.Percent())
	assert.Nil(t, cov.UnexecutedPCs())
}

func TestCoverage_DisabledIgnoresRecord(t *testing.T) {
	cov := vm.NewCodeCoverage(nil, 2)
	cov.Enabled = false
	cov.Record(0, 1)
	assert.Nil(t, cov.Entry(0))
}

func TestCoverage_FlushWritesReport(t *testing.T) {
	var buf bytes.Buffer
	cov := vm.NewCodeCoverage(&buf, 2)
	cov.LoadSymbols(map[string]int{"start": 0})
	cov.Record(0, 1)
	require.NoError(t, cov.Flush())
	out := buf.String()
	assert.Contains(t, out, "Code Coverage Report")
	assert.Contains(t, out, "[start]")
	assert.Contains(t, out, "Not Executed")
}

func TestCoverage_ExportJSON(t *testing.T) {
	var buf bytes.Buffer
	cov := vm.NewCodeCoverage(nil, 1)
	cov.Record(0, 1)
	require.NoError(t, cov.ExportJSON(&buf))
	assert.Contains(t, buf.String(), `"executed_count": 1`)
}

func TestCoverage_StringSummary(t *testing.T) {
	cov := vm.NewCodeCoverage(nil, 2)
	cov.Record(0, 1)
	s := cov.String()
	assert.Contains(t, s, "Coverage:")
}
