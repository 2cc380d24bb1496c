package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/avidalm/iptvgate/internal/cache"
	"github.com/avidalm/iptvgate/internal/common"
	"github.com/avidalm/iptvgate/internal/logging"
	"github.com/avidalm/iptvgate/internal/server/models"
)

func newCatalogFixture(t *testing.T, gw *fakeGateway, c *cache.Cache) (*CatalogService, string) {
	t.Helper()

	repo := newFakeAccountsRepo()
	vault := newTestVault(t)
	rm := &fakeRepoManager{accounts: repo}
	cfg := testConfig()

	accountSvc := NewAccountService(nil, rm, vault, gw, cfg)
	sess, err := accountSvc.Register(context.Background(), "alice@example.com", "pw", testCreds)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	return NewCatalogService(nil, rm, vault, gw, c, cfg), sess.Account.ID
}

func newRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c, err := cache.New(mr.Addr(), "", logger)
	if err != nil {
		t.Fatalf("cache.New error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestLiveStreams_EnrichesItems(t *testing.T) {
	gw := &fakeGateway{liveStreams: []map[string]any{
		{"stream_id": float64(5), "name": "News", "stream_icon": "/logos/news.png"},
		{"id": "7", "name": "Sports"},
	}}
	svc, userID := newCatalogFixture(t, gw, nil)

	items, err := svc.LiveStreams(context.Background(), userID, "")
	if err != nil {
		t.Fatalf("LiveStreams error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if got := items[0]["stream_url"]; got != "http://iptv.example:8080/live/provuser/provpass/5.ts" {
		t.Errorf("unexpected stream_url: %v", got)
	}
	if got := items[0]["icon_url"]; got != "http://iptv.example:8080/logos/news.png" {
		t.Errorf("unexpected icon_url: %v", got)
	}
	if items[0]["name"] != "News" {
		t.Errorf("upstream fields must survive enrichment")
	}

	// Numeric-less item falls back to "id"; absent icon maps to nil.
	if got := items[1]["stream_url"]; got != "http://iptv.example:8080/live/provuser/provpass/7.ts" {
		t.Errorf("unexpected fallback stream_url: %v", got)
	}
	if got, ok := items[1]["icon_url"]; !ok || got != nil {
		t.Errorf("missing icon must yield explicit nil, got %v (%v)", got, ok)
	}
}

func TestVodStreams_EnrichesItems(t *testing.T) {
	gw := &fakeGateway{vodStreams: []map[string]any{
		{
			"stream_id":           float64(12),
			"container_extension": "mkv",
			"stream_icon":         "covers/movie.jpg",
			"backdrop_path":       []any{"/backdrops/movie.jpg", "/backdrops/alt.jpg"},
		},
		{"stream_id": "13"},
	}}
	svc, userID := newCatalogFixture(t, gw, nil)

	items, err := svc.VodStreams(context.Background(), userID, "9")
	if err != nil {
		t.Fatalf("VodStreams error: %v", err)
	}

	if got := items[0]["stream_url"]; got != "http://iptv.example:8080/movie/provuser/provpass/12.mkv" {
		t.Errorf("unexpected stream_url: %v", got)
	}
	if got := items[0]["cover_url"]; got != "http://iptv.example:8080/covers/movie.jpg" {
		t.Errorf("unexpected cover_url: %v", got)
	}
	if got := items[0]["backdrop_url"]; got != "http://iptv.example:8080/backdrops/movie.jpg" {
		t.Errorf("unexpected backdrop_url: %v", got)
	}

	// Default container extension.
	if got := items[1]["stream_url"]; got != "http://iptv.example:8080/movie/provuser/provpass/13.mp4" {
		t.Errorf("unexpected default-extension stream_url: %v", got)
	}
}

func TestVodStreams_MissingCategory(t *testing.T) {
	svc, userID := newCatalogFixture(t, &fakeGateway{}, nil)

	_, err := svc.VodStreams(context.Background(), userID, "")
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected common.ErrValidation, got %v", err)
	}
}

func TestVodDetail_EnrichesNestedBlocks(t *testing.T) {
	gw := &fakeGateway{vodInfo: map[string]any{
		"info": map[string]any{
			"cover":         "/img/cover.jpg",
			"backdrop_path": []any{"/img/backdrop.jpg"},
		},
		"movie_data": map[string]any{
			"stream_id":           float64(44),
			"container_extension": "avi",
		},
	}}
	svc, userID := newCatalogFixture(t, gw, nil)

	detail, err := svc.VodDetail(context.Background(), userID, "44")
	if err != nil {
		t.Fatalf("VodDetail error: %v", err)
	}

	info := detail["info"].(map[string]any)
	if info["cover_url"] != "http://iptv.example:8080/img/cover.jpg" {
		t.Errorf("unexpected cover_url: %v", info["cover_url"])
	}
	if info["backdrop_url"] != "http://iptv.example:8080/img/backdrop.jpg" {
		t.Errorf("unexpected backdrop_url: %v", info["backdrop_url"])
	}

	movie := detail["movie_data"].(map[string]any)
	if movie["stream_url"] != "http://iptv.example:8080/movie/provuser/provpass/44.avi" {
		t.Errorf("unexpected stream_url: %v", movie["stream_url"])
	}
}

func TestLiveCategories_SecondCallServedFromCache(t *testing.T) {
	c, _ := newRedisCache(t)
	gw := &fakeGateway{liveCategories: []map[string]any{
		{"category_id": "1", "category_name": "News"},
	}}
	svc, userID := newCatalogFixture(t, gw, c)

	for i := 0; i < 2; i++ {
		items, err := svc.LiveCategories(context.Background(), userID)
		if err != nil {
			t.Fatalf("LiveCategories error: %v", err)
		}
		if len(items) != 1 || items[0]["category_name"] != "News" {
			t.Fatalf("unexpected items: %v", items)
		}
	}

	if gw.listCalls != 1 {
		t.Fatalf("expected one upstream call, got %d", gw.listCalls)
	}
}

func TestCatalog_UpstreamErrorNotCached(t *testing.T) {
	c, _ := newRedisCache(t)
	gw := &fakeGateway{listErr: common.ErrUpstreamUnreachable}
	svc, userID := newCatalogFixture(t, gw, c)

	_, err := svc.LiveCategories(context.Background(), userID)
	if !errors.Is(err, common.ErrUpstreamUnreachable) {
		t.Fatalf("expected common.ErrUpstreamUnreachable, got %v", err)
	}

	gw.listErr = nil
	gw.liveCategories = []map[string]any{{"category_id": "1"}}
	items, err := svc.LiveCategories(context.Background(), userID)
	if err != nil {
		t.Fatalf("retry after outage error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("outage response must not be cached: %v", items)
	}
}

func TestCatalog_NoCredentialsBound(t *testing.T) {
	repo := newFakeAccountsRepo()
	rm := &fakeRepoManager{accounts: repo}
	vault := newTestVault(t)
	svc := NewCatalogService(nil, rm, vault, &fakeGateway{}, nil, testConfig())

	account, err := repo.Upsert(context.Background(), &models.Account{
		ID: "bare-1", Email: "bare@example.com", PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	_, err = svc.LiveCategories(context.Background(), account.ID)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected common.ErrValidation, got %v", err)
	}
}

func TestCatalog_UnknownAccount(t *testing.T) {
	svc, _ := newCatalogFixture(t, &fakeGateway{}, nil)

	_, err := svc.LiveCategories(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected common.ErrNotFound, got %v", err)
	}
}
