package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.remote.addFolder(testRoot + "/docs")
	env.remote.addFile(testRoot+"/docs/a.pdf", []byte("x"))

	res, err := env.svc.GetFileMetadata(t.Context(), "docs", "a.pdf")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "Metadata retrieved for 'a.pdf'", res.Message)
	assert.Equal(t, "a.pdf", res.Metadata["FileLeafRef"])
	require.NotNil(t, res.File)
	assert.Equal(t, FileRef{Name: "a.pdf", Path: testRoot + "/docs/a.pdf"}, *res.File)
}

func TestGetFileMetadata_Missing(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.GetFileMetadata(t.Context(), "docs", "a.pdf")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, "File 'a.pdf' does not exist in 'docs'", res.Message)
}

func TestUpdateFileMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.remote.addFile(testRoot+"/a.pdf", []byte("x"))

	res, err := env.svc.UpdateFileMetadata(t.Context(), "", "a.pdf", map[string]any{
		"Title":    "Q1 report",
		"Approved": true,
		"Tags":     []any{"finance", "q1"},
		"Pages":    float64(12),
		"Skipped":  nil,
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "Updated 4 field(s) for 'a.pdf'", res.Message)

	require.Len(t, env.remote.updates, 1)
	assert.Equal(t, map[string]any{
		"Title":    "Q1 report",
		"Approved": "1",
		"Tags":     "finance;q1",
		"Pages":    "12",
	}, env.remote.updates[0])
}

func TestUpdateFileMetadata_NothingToUpdate(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.UpdateFileMetadata(t.Context(), "", "a.pdf", map[string]any{"x": nil})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "No fields to update", res.Message)
	assert.Zero(t, env.remote.callCount("GetFile"))
}

func TestUpdateFileMetadata_Missing(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.UpdateFileMetadata(t.Context(), "docs", "a.pdf", map[string]any{"Title": "x"})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, "File 'a.pdf' does not exist in 'docs'", res.Message)
	assert.Zero(t, env.remote.callCount("SetListItemFields"))
}

func TestNormalizeFields(t *testing.T) {
	got := NormalizeFields(map[string]any{
		"s":     "text",
		"f":     2.5,
		"i":     7,
		"false": false,
		"list":  []string{"a", "b"},
		"mixed": []any{"a", 1.0, true, nil},
		"obj":   map[string]any{"k": "v"},
		"nil":   nil,
	})

	assert.Equal(t, map[string]string{
		"s":     "text",
		"f":     "2.5",
		"i":     "7",
		"false": "0",
		"list":  "a;b",
		"mixed": "a;1;1;",
		"obj":   `{"k":"v"}`,
	}, got)
}
