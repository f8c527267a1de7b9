package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePathSegments(t *testing.T) {
	assert.Equal(t, "a%20b/c%23d/%3Fe", encodePathSegments("a b/c#d/?e"))
}

func TestItemAddress(t *testing.T) {
	assert.Equal(t, "/drives/d1/root", itemAddress("d1", ""))
	assert.Equal(t, "/drives/d1/root", itemAddress("d1", "/"))
	assert.Equal(t, "/drives/d1/root:/a/b%20c:", itemAddress("d1", "a/b c"))
}

func TestGetItemByPath_File(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/drives/d1/root:/docs/report one.pdf:", r.URL.Path)

		io.WriteString(w, `{
			"id": "item-1",
			"name": "report one.pdf",
			"size": 2048,
			"eTag": "\"{ABC},3\"",
			"webUrl": "https://contoso.sharepoint.com/sites/legal/Shared%20Documents/docs/report%20one.pdf",
			"createdDateTime": "2024-01-15T10:30:00Z",
			"lastModifiedDateTime": "2024-06-20T14:45:00Z",
			"parentReference": {"driveId": "d1", "path": "/drives/d1/root:/docs"},
			"file": {"mimeType": "application/pdf"}
		}`)
	}))
	defer srv.Close()

	item, err := newTestClient(t, srv.URL).GetItemByPath(t.Context(), "d1", "docs/report one.pdf")
	require.NoError(t, err)

	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, "report one.pdf", item.Name)
	assert.Equal(t, int64(2048), item.Size)
	assert.False(t, item.IsFolder)
	assert.Equal(t, "application/pdf", item.MimeType)
	assert.Equal(t, "docs", item.ParentPath)
	assert.Equal(t, ChildCountUnknown, item.ChildCount)
	assert.Equal(t, time.Date(2024, 6, 20, 14, 45, 0, 0, time.UTC), item.ModifiedAt)
}

func TestGetItemByPath_Root(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drives/d1/root", r.URL.Path)
		fmt.Fprint(w, `{"id": "root", "name": "root", "folder": {"childCount": 4}}`)
	}))
	defer srv.Close()

	item, err := newTestClient(t, srv.URL).GetItemByPath(t.Context(), "d1", "")
	require.NoError(t, err)
	assert.True(t, item.IsFolder)
	assert.Equal(t, 4, item.ChildCount)
	assert.True(t, item.CreatedAt.IsZero())
}

func TestGetItemByPath_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).GetItemByPath(t.Context(), "d1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseTimestamp(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	assert.True(t, parseTimestamp("", "f", "id", logger).IsZero())
	assert.True(t, parseTimestamp("yesterday", "f", "id", logger).IsZero())
	assert.True(t, parseTimestamp("2250-01-01T00:00:00Z", "f", "id", logger).IsZero())
	assert.Equal(t, 2024, parseTimestamp("2024-03-01T00:00:00Z", "f", "id", logger).Year())
}

func TestParentDrivePath(t *testing.T) {
	assert.Equal(t, "", parentDrivePath("/drives/d1/root:"))
	assert.Equal(t, "a/b c", parentDrivePath("/drives/d1/root:/a/b%20c"))
	assert.Equal(t, "", parentDrivePath(""))
}

func TestListChildrenByPath_Paginates(t *testing.T) {
	var srvURL string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("$skiptoken") {
		case "":
			assert.Equal(t, "/drives/d1/root:/docs:/children", r.URL.Path)
			assert.Equal(t, "200", r.URL.Query().Get("$top"))
			fmt.Fprintf(w, `{"value":[{"id":"1","name":"a","folder":{}}],"@odata.nextLink":"%s/drives/d1/root:/docs:/children?$skiptoken=p2"}`, srvURL)
		case "p2":
			fmt.Fprint(w, `{"value":[{"id":"2","name":"b.txt","file":{}}]}`)
		}
	}))
	defer srv.Close()

	srvURL = srv.URL

	items, err := newTestClient(t, srv.URL).ListChildrenByPath(t.Context(), "d1", "docs")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].IsFolder)
	assert.Equal(t, "b.txt", items[1].Name)
}

func TestListChildrenByPath_RootAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drives/d1/root/children", r.URL.Path)
		fmt.Fprint(w, `{"value":[]}`)
	}))
	defer srv.Close()

	items, err := newTestClient(t, srv.URL).ListChildrenByPath(t.Context(), "d1", "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListChildrenByPath_ForeignNextLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value":[],"@odata.nextLink":"https://evil.example.com/next"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).ListChildrenByPath(t.Context(), "d1", "docs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match base URL")
}

func TestCreateFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/drives/d1/root:/docs:/children", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new", body["name"])
		assert.Equal(t, "fail", body["@microsoft.graph.conflictBehavior"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"f1","name":"new","folder":{"childCount":0}}`)
	}))
	defer srv.Close()

	item, err := newTestClient(t, srv.URL).CreateFolder(t.Context(), "d1", "docs", "new")
	require.NoError(t, err)
	assert.Equal(t, "new", item.Name)
	assert.True(t, item.IsFolder)
}

func TestCreateFolder_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).CreateFolder(t.Context(), "d1", "", "dup")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeleteByPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/drives/d1/root:/docs/old.txt:", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(t, srv.URL).DeleteByPath(t.Context(), "d1", "docs/old.txt"))
}

func TestDeleteByPath_RefusesRoot(t *testing.T) {
	c := NewClient("http://unused", nil, staticToken("t"), nil, "")
	assert.ErrorIs(t, c.DeleteByPath(t.Context(), "d1", "/"), ErrBadRequest)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drives/d1/root:/a.txt:/content", r.URL.Path)
		io.WriteString(w, "hello world") //nolint:errcheck // test server
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	var sb strings.Builder
	n, err := c.Download(t.Context(), "d1", "a.txt", &sb, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "hello world", sb.String())

	var limited strings.Builder
	_, err = c.Download(t.Context(), "d1", "a.txt", &limited, 5)
	assert.ErrorIs(t, err, ErrTooLarge)
}
