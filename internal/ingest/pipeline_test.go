package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/starford/comicshelf/internal/archive"
	"github.com/starford/comicshelf/internal/catalog"
	"github.com/starford/comicshelf/internal/ingest"
	"github.com/starford/comicshelf/internal/library"
	"github.com/starford/comicshelf/internal/storage"
	"github.com/starford/comicshelf/internal/structure"
	"github.com/starford/comicshelf/internal/testutil"
)

type noopResolver struct{}

func (noopResolver) ResolveCover(ctx context.Context, imagePath string) (string, string) {
	return "", ""
}

func pipelineTestEnv(t *testing.T, cfg ingest.Config) (*library.Service, storage.Provider, *ingest.Pipeline) {
	t.Helper()
	_, store := testutil.TestScanDir(t)
	svc := library.New(store, catalog.New(), structure.NewStore(store),
		noopResolver{}, archive.New(t.TempDir()), testutil.TestLogger())
	return svc, store, ingest.New(cfg, svc, store, testutil.TestLogger())
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestPushModeIngestsNewScans(t *testing.T) {
	svc, store, pipe := pipelineTestEnv(t, ingest.Config{
		Mode:     ingest.ModePush,
		Debounce: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipe.Run(ctx)
	time.Sleep(50 * time.Millisecond) // let the watcher attach

	testutil.WriteScan(t, store, "coverF_001.jpg")
	testutil.WriteScan(t, store, "page_001.jpg")
	testutil.WriteScan(t, store, "notes.txt") // not a scan, must be ignored

	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		list := svc.List()
		return len(list) == 1 && len(list[0].Pages) == 1
	}, "watched scans never reached the catalog")
}

func TestPushModeIngestsDeletions(t *testing.T) {
	svc, store, pipe := pipelineTestEnv(t, ingest.Config{
		Mode:     ingest.ModePush,
		Debounce: 20 * time.Millisecond,
	})
	testutil.WriteScan(t, store, "coverF_001.jpg")
	svc.AddScans([]string{"coverF_001.jpg"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipe.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	if err := store.Delete("coverF_001.jpg"); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return len(svc.List()) == 0
	}, "deleted scan never left the catalog")
}

func TestPollModeRescans(t *testing.T) {
	svc, store, pipe := pipelineTestEnv(t, ingest.Config{
		Mode:         ingest.ModePoll,
		PollInterval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipe.Run(ctx)

	testutil.WriteScan(t, store, "coverF_001.jpg")

	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return len(svc.List()) == 1
	}, "polled scan never reached the catalog")

	if err := store.Delete("coverF_001.jpg"); err != nil {
		t.Fatal(err)
	}
	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return len(svc.List()) == 0
	}, "deleted scan never left the catalog")
}
