package workbench

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salmonumbrella/webclaw-cli/internal/tableblock"
)

func backends(t *testing.T) map[string]func(t *testing.T) Backend {
	t.Helper()
	return map[string]func(t *testing.T) Backend{
		"memory": func(t *testing.T) Backend {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Backend {
			store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "workbench.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
}

func TestNormalizeSessionKey(t *testing.T) {
	assert.Equal(t, "new", NormalizeSessionKey(""))
	assert.Equal(t, "new", NormalizeSessionKey("   "))
	assert.Equal(t, "main", NormalizeSessionKey(" main "))
}

func TestWorkbenchLifecycle(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			wb := New(open(t))

			blocks, err := wb.Blocks(ctx, "s1")
			require.NoError(t, err)
			assert.Empty(t, blocks)

			first, err := wb.Add(ctx, "s1")
			require.NoError(t, err)
			second, err := wb.Add(ctx, " s1 ", tableblock.WithColumns(2), tableblock.WithRows(1))
			require.NoError(t, err)

			blocks, err = wb.Blocks(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, blocks, 2)
			assert.Equal(t, first.ID, blocks[0].ID)
			assert.Equal(t, second, blocks[1])

			edited := tableblock.UpdateWithValue(second, tableblock.HeaderTarget(second.Columns[0].ID), "Title")
			require.NoError(t, wb.Update(ctx, "s1", second.ID, edited))

			got, err := wb.Block(ctx, "s1", second.ID)
			require.NoError(t, err)
			assert.Equal(t, "Title", got.Columns[0].Name)

			require.NoError(t, wb.Remove(ctx, "s1", first.ID))
			blocks, err = wb.Blocks(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, blocks, 1)
			assert.Equal(t, second.ID, blocks[0].ID)

			sessions, err := wb.Sessions(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"s1"}, sessions)

			require.NoError(t, wb.Clear(ctx, "s1"))
			blocks, err = wb.Blocks(ctx, "s1")
			require.NoError(t, err)
			assert.Empty(t, blocks)
		})
	}
}

func TestWorkbenchSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	wb := New(NewMemoryStore())

	_, err := wb.Add(ctx, "a")
	require.NoError(t, err)
	_, err = wb.Add(ctx, "")
	require.NoError(t, err)

	blocks, err := wb.Blocks(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, blocks)

	blocks, err = wb.Blocks(ctx, DefaultSessionKey)
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestWorkbenchNotFound(t *testing.T) {
	ctx := context.Background()
	wb := New(NewMemoryStore())

	_, err := wb.Block(ctx, "s1", "missing")
	assert.ErrorIs(t, err, ErrBlockNotFound)
	assert.ErrorIs(t, wb.Update(ctx, "s1", "missing", tableblock.NewBlock()), ErrBlockNotFound)
	assert.ErrorIs(t, wb.Remove(ctx, "s1", "missing"), ErrBlockNotFound)
}

func TestWorkbenchImport(t *testing.T) {
	ctx := context.Background()
	wb := New(NewMemoryStore())

	block, err := wb.Import(ctx, "s1", "name,age\nAlice,30\nBob,29")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "age"}, {"Alice", "30"}, {"Bob", "29"}}, block.Grid())

	_, err = wb.Import(ctx, "s1", `a,"b`)
	require.ErrorIs(t, err, tableblock.ErrUnclosedQuote)

	blocks, err := wb.Blocks(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, blocks, 1, "a rejected import stores nothing")
}

func TestWorkbenchModify(t *testing.T) {
	ctx := context.Background()
	wb := New(NewMemoryStore())
	block, err := wb.Add(ctx, "s1")
	require.NoError(t, err)

	next, err := wb.Modify(ctx, "s1", block.ID, func(b tableblock.Block) (tableblock.Block, error) {
		return b.AddRow(), nil
	})
	require.NoError(t, err)
	assert.Len(t, next.Rows, tableblock.DefaultRowCount+1)

	stored, err := wb.Block(ctx, "s1", block.ID)
	require.NoError(t, err)
	assert.Equal(t, next, stored)
}

func TestMemoryStoreCopiesBlocks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	block := tableblock.NewBlock()
	require.NoError(t, store.Set(ctx, "s1", []tableblock.Block{block}))

	block.Rows[0].Cells[block.Columns[0].ID] = "mutated"

	blocks, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "", blocks[0].Rows[0].Cells[block.Columns[0].ID])
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "workbench.db")

	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	block, err := New(store).Import(ctx, "s1", "a,b\n1,2")
	require.NoError(t, err)
	require.NoError(t, store.Pin(ctx, "s1"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := New(reopened).Block(ctx, "s1", block.ID)
	require.NoError(t, err)
	assert.Equal(t, block, got)

	pinned, err := reopened.Pinned(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, pinned)
}

func TestPins(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			pins := open(t)

			require.NoError(t, pins.Pin(ctx, "a"))
			require.NoError(t, pins.Pin(ctx, "b"))
			require.NoError(t, pins.Pin(ctx, "a"))

			pinned, err := pins.Pinned(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, pinned)

			ok, err := IsPinned(ctx, pins, "b")
			require.NoError(t, err)
			assert.True(t, ok)

			state, err := TogglePin(ctx, pins, "b")
			require.NoError(t, err)
			assert.False(t, state)

			state, err = TogglePin(ctx, pins, "c")
			require.NoError(t, err)
			assert.True(t, state)

			require.NoError(t, pins.Unpin(ctx, "a"))
			pinned, err = pins.Pinned(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"c"}, pinned)
		})
	}
}

func TestOpenMemoryPath(t *testing.T) {
	backend, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	_, ok := backend.(*MemoryStore)
	assert.True(t, ok)
}

func TestSQLiteStoreMissingSessionIsEmpty(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "workbench.db"))
	require.NoError(t, err)
	defer store.Close()

	blocks, err := store.Get(ctx, "never-written")
	require.NoError(t, err)
	assert.NotNil(t, blocks)
	assert.Empty(t, blocks)
}
