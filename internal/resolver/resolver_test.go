package resolver_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/comicshelf/internal/resolver"
	"github.com/starford/comicshelf/internal/testutil"
)

const testISBN = "9784065123456"

const amazonSearchPage = `<html><body>
<div id="search"><div class="s-main-slot">
<a href="/amazon/detail">結果</a>
</div></div>
</body></html>`

const amazonDetailPage = `<html><body>
<span id="productTitle"> 作品名　第３巻 </span>
<div id="bylineInfo">
<span class="author"><a href="#">山田 太郎</a></span>
<span class="author"><a href="#">山田太郎の著者ページ</a></span>
</div>
</body></html>`

const yodobashiSearchPage = `<html><body>
<div class="pListBlock"><a href="/yodobashi/detail">結果</a></div>
</body></html>`

const yodobashiDetailPage = `<html><body>
<div id="products_maintitle"><span>ヨドバシ作品 2巻</span></div>
<div id="js_bookAuthor"><a href="#">佐藤 花子</a></div>
</body></html>`

const yodobashiEmptyPage = `<html><body>
<div class="noResult">見つかりませんでした</div>
</body></html>`

// newTestResolver wires all three source URLs to the given handler.
func newTestResolver(t *testing.T, handler http.Handler) *resolver.Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return resolver.New(resolver.Config{
		AmazonSearchURL:    srv.URL + "/amazon/search?k=",
		YodobashiSearchURL: srv.URL + "/yodobashi/search?word=",
		GoogleBooksURL:     srv.URL + "/google/volumes?q=isbn:",
	}, t.TempDir(), nil, testutil.TestLogger())
}

func TestSearchAmazonFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/amazon/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, amazonSearchPage)
	})
	mux.HandleFunc("/amazon/detail", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, amazonDetailPage)
	})
	r := newTestResolver(t, mux)

	author, title := r.Search(context.Background(), testISBN)
	if author != "山田太郎" {
		t.Errorf("author = %q, want 山田太郎", author)
	}
	if title != "作品名 (3)" {
		t.Errorf("title = %q, want 作品名 (3)", title)
	}
}

func TestSearchFallsThroughToYodobashi(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/amazon/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "captcha", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/yodobashi/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, yodobashiSearchPage)
	})
	mux.HandleFunc("/yodobashi/detail", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, yodobashiDetailPage)
	})
	r := newTestResolver(t, mux)

	author, title := r.Search(context.Background(), testISBN)
	if author != "佐藤花子" {
		t.Errorf("author = %q, want 佐藤花子", author)
	}
	if title != "ヨドバシ作品 (2)" {
		t.Errorf("title = %q, want ヨドバシ作品 (2)", title)
	}
}

func TestSearchFallsThroughToGoogle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/amazon/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/yodobashi/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, yodobashiEmptyPage)
	})
	mux.HandleFunc("/google/volumes", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalItems":1,"items":[{"volumeInfo":{"title":"グーグル作品 4巻","authors":["著者A","著者B"]}}]}`)
	})
	r := newTestResolver(t, mux)

	author, title := r.Search(context.Background(), testISBN)
	if author != "著者A／著者B" {
		t.Errorf("author = %q, want 著者A／著者B", author)
	}
	if title != "グーグル作品 (4)" {
		t.Errorf("title = %q, want グーグル作品 (4)", title)
	}
}

func TestSearchExhaustedFallsBackToISBN(t *testing.T) {
	r := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	}))

	author, title := r.Search(context.Background(), testISBN)
	if author != resolver.AuthorFallback {
		t.Errorf("author = %q, want %q", author, resolver.AuthorFallback)
	}
	if title != testISBN {
		t.Errorf("title = %q, want %q", title, testISBN)
	}
}

func TestSearchUpgradesTenDigitISBN(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/amazon/search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("k")
		http.NotFound(w, r)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	r := newTestResolver(t, mux)

	r.Search(context.Background(), "4065123456")
	if gotQuery != "9784065123456" {
		t.Errorf("amazon queried with %q, want the 978-prefixed isbn", gotQuery)
	}
}

func TestResolveCoverWithoutOCRBinary(t *testing.T) {
	r := resolver.New(resolver.Config{
		TesseractPath: "/nonexistent/tesseract-binary",
	}, t.TempDir(), nil, testutil.TestLogger())

	author, title := r.ResolveCover(context.Background(), "cover.jpg")
	if author != resolver.AuthorError {
		t.Errorf("author = %q, want %q", author, resolver.AuthorError)
	}
	if title != resolver.TitleNoOCR {
		t.Errorf("title = %q, want %q", title, resolver.TitleNoOCR)
	}
}
