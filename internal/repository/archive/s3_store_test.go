package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestS3StoreRetriesBucketCheckAfterFailure(t *testing.T) {
	var (
		mu    sync.Mutex
		heads int
		puts  []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/runs-bucket":
			heads++
			if heads == 1 {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut:
			puts = append(puts, r.URL.Path)
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(srv.Close)

	s, err := NewS3Store(S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio-secret",
		Bucket:    "runs-bucket",
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx := context.Background()
	if err := s.Put(ctx, "run-1", []byte(`{"success":true}`)); err == nil || !strings.Contains(err.Error(), "ensure bucket") {
		t.Fatalf("expected bucket check failure, got %v", err)
	}
	if err := s.Put(ctx, "run-1", []byte(`{"success":true}`)); err != nil {
		t.Fatalf("put after recovery: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if heads != 2 {
		t.Fatalf("bucket check ran %d times, want 2", heads)
	}
	if len(puts) != 1 || puts[0] != "/runs-bucket/runs/run-1/result.json" {
		t.Fatalf("unexpected uploads %q", puts)
	}
}
