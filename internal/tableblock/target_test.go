package tableblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditTargetsOrder(t *testing.T) {
	assert.Equal(t, []Target{
		HeaderTarget("c1"),
		HeaderTarget("c2"),
		CellTarget("r1", "c1"),
		CellTarget("r1", "c2"),
		CellTarget("r2", "c1"),
		CellTarget("r2", "c2"),
	}, EditTargets(sampleBlock()))
}

func TestNextTargetForward(t *testing.T) {
	targets := EditTargets(sampleBlock())

	next, ok := NextTarget(targets, CellTarget("r1", "c2"), Forward)
	require.True(t, ok)
	assert.Equal(t, CellTarget("r2", "c1"), next)

	next, ok = NextTarget(targets, CellTarget("r2", "c2"), Forward)
	require.True(t, ok)
	assert.Equal(t, HeaderTarget("c1"), next)
}

func TestNextTargetBackward(t *testing.T) {
	targets := EditTargets(sampleBlock())

	next, ok := NextTarget(targets, HeaderTarget("c1"), Backward)
	require.True(t, ok)
	assert.Equal(t, CellTarget("r2", "c2"), next)

	next, ok = NextTarget(targets, CellTarget("r1", "c1"), Backward)
	require.True(t, ok)
	assert.Equal(t, HeaderTarget("c2"), next)
}

func TestNextTargetUnknown(t *testing.T) {
	targets := EditTargets(sampleBlock())

	_, ok := NextTarget(targets, CellTarget("missing", "c1"), Forward)
	assert.False(t, ok)

	_, ok = NextTarget(nil, HeaderTarget("c1"), Forward)
	assert.False(t, ok)
}

func TestNextTargetSingle(t *testing.T) {
	targets := []Target{HeaderTarget("c1")}

	next, ok := NextTarget(targets, HeaderTarget("c1"), Forward)
	require.True(t, ok)
	assert.Equal(t, HeaderTarget("c1"), next)
}

func TestReadValue(t *testing.T) {
	block := sampleBlock()

	assert.Equal(t, "Name", ReadValue(block, HeaderTarget("c1")))
	assert.Equal(t, "30", ReadValue(block, CellTarget("r1", "c2")))
	assert.Equal(t, "", ReadValue(block, HeaderTarget("missing")))
	assert.Equal(t, "", ReadValue(block, CellTarget("missing", "c1")))
	assert.Equal(t, "", ReadValue(block, CellTarget("r1", "missing")))
}

func TestUpdateHeader(t *testing.T) {
	block := sampleBlock()

	next := UpdateWithValue(block, HeaderTarget("c1"), "Title")

	assert.Equal(t, "Title", next.Columns[0].Name)
	assert.Equal(t, "Age", next.Columns[1].Name)
	assert.Equal(t, "Austin", next.Rows[0].Cells["c1"])
	assert.Equal(t, "Name", block.Columns[0].Name, "input must not change")
	assert.True(t, sameMap(block.Rows[0].Cells, next.Rows[0].Cells))
	assert.True(t, sameMap(block.Rows[1].Cells, next.Rows[1].Cells))
}

func TestUpdateCell(t *testing.T) {
	block := sampleBlock()

	next := UpdateWithValue(block, CellTarget("r2", "c2"), "2")

	assert.Equal(t, "2", next.Rows[1].Cells["c2"])
	assert.Equal(t, "30", next.Rows[0].Cells["c2"])
	assert.Equal(t, "1", block.Rows[1].Cells["c2"], "input must not change")

	assert.True(t, sameMap(block.Rows[0].Cells, next.Rows[0].Cells), "untouched row must be shared")
	assert.False(t, sameMap(block.Rows[1].Cells, next.Rows[1].Cells), "touched row must be copied")
	assert.Equal(t, block.Columns, next.Columns)
	assert.Same(t, &block.Columns[0], &next.Columns[0])
}

func TestUpdateUnknownTarget(t *testing.T) {
	block := sampleBlock()

	next := UpdateWithValue(block, CellTarget("missing", "c1"), "x")
	assert.Equal(t, block, next)

	next = UpdateWithValue(block, HeaderTarget("missing"), "x")
	assert.Equal(t, block, next)
}

func TestTabWalkVisitsEveryTarget(t *testing.T) {
	block := NewBlock(WithColumns(2), WithRows(2))
	targets := EditTargets(block)

	current := targets[0]
	visited := map[Target]bool{}
	for range targets {
		visited[current] = true
		next, ok := NextTarget(targets, current, Forward)
		require.True(t, ok)
		current = next
	}
	assert.Len(t, visited, len(targets))
	assert.Equal(t, targets[0], current)
}
