package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/comicshelf/internal/archive"
	"github.com/starford/comicshelf/internal/catalog"
	"github.com/starford/comicshelf/internal/library"
	"github.com/starford/comicshelf/internal/storage"
	"github.com/starford/comicshelf/internal/structure"
	"github.com/starford/comicshelf/internal/testutil"
)

type stubResolver struct{}

func (stubResolver) ResolveCover(ctx context.Context, imagePath string) (string, string) {
	return "山田太郎", "作品名 (3)"
}

func testServer(t *testing.T) (*Server, *library.Service, storage.Provider) {
	t.Helper()
	_, store := testutil.TestScanDir(t)
	svc := library.New(store, catalog.New(), structure.NewStore(store),
		stubResolver{}, archive.New(t.TempDir()), testutil.TestLogger())
	return New(svc), svc, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler
	// functions are exercised directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_comics":
		result, err = srv.listComics(ctx, req)
	case "comic_detail":
		result, err = srv.comicDetail(ctx, req)
	case "resolve_metadata":
		result, err = srv.resolveMetadata(ctx, req)
	case "rescan":
		result, err = srv.rescan(ctx, req)
	case "archive_comic":
		result, err = srv.archiveComic(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListAndDetail(t *testing.T) {
	srv, svc, _ := testServer(t)
	svc.AddScans([]string{"coverF_001.jpg", "page_001.jpg"})
	id := svc.List()[0].ID

	r := callTool(t, srv, "list_comics", map[string]interface{}{})
	if !strings.Contains(resultText(r), id) {
		t.Errorf("list missing comic id: %q", resultText(r))
	}

	r = callTool(t, srv, "comic_detail", map[string]interface{}{"id": id})
	text := resultText(r)
	if !strings.Contains(text, "coverF_001.jpg") || !strings.Contains(text, "page_001.jpg") {
		t.Errorf("detail = %q", text)
	}
}

func TestDetailMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "comic_detail", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown comic")
	}
}

func TestRescanTool(t *testing.T) {
	srv, svc, store := testServer(t)
	testutil.WriteScan(t, store, "coverF_001.jpg")

	r := callTool(t, srv, "rescan", map[string]interface{}{})
	if !strings.Contains(resultText(r), "1 comics") {
		t.Errorf("rescan result = %q", resultText(r))
	}
	if len(svc.List()) != 1 {
		t.Errorf("catalog = %d comics", len(svc.List()))
	}
}

func TestResolveMetadataTool(t *testing.T) {
	srv, svc, store := testServer(t)
	testutil.WriteScan(t, store, "coverF_001.jpg")
	svc.AddScans([]string{"coverF_001.jpg"})
	id := svc.List()[0].ID

	r := callTool(t, srv, "resolve_metadata", map[string]interface{}{"id": id})
	text := resultText(r)
	if !strings.Contains(text, "山田太郎") || !strings.Contains(text, "作品名 (3)") {
		t.Errorf("resolve = %q", text)
	}
}

func TestArchiveComicTool(t *testing.T) {
	srv, svc, store := testServer(t)
	testutil.WriteScan(t, store, "coverF_001.jpg")
	svc.AddScans([]string{"coverF_001.jpg"})
	id := svc.List()[0].ID
	if err := svc.Rename(id, "山田太郎", "作品名 (3)"); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "archive_comic", map[string]interface{}{"id": id})
	if !strings.Contains(resultText(r), "作品名 (3).zip") {
		t.Errorf("archive result = %q", resultText(r))
	}
	if len(svc.List()) != 0 {
		t.Error("comic should leave the catalog after archiving")
	}
}
