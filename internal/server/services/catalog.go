package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/avidalm/iptvgate/internal/cache"
	"github.com/avidalm/iptvgate/internal/common"
	"github.com/avidalm/iptvgate/internal/cryptox"
	"github.com/avidalm/iptvgate/internal/server/config"
	"github.com/avidalm/iptvgate/internal/server/repositories/repomanager"
	"github.com/avidalm/iptvgate/internal/xtream"
)

// CatalogService serves live and VOD catalog listings on behalf of an
// account. Each call resolves the account's stored provider credentials,
// fetches the listing through the cache, and enriches items with playable
// URLs. Upstream fields are never overwritten, only new keys are added.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	vault       *cryptox.Vault
	gateway     Gateway
	cache       *cache.Cache
	liveTTL     time.Duration
	vodTTL      time.Duration
}

// NewCatalogService constructs a CatalogService. A nil cache disables
// response caching without changing behavior.
func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, vault *cryptox.Vault, gateway Gateway, c *cache.Cache, cfg *config.Config) *CatalogService {
	return &CatalogService{
		db:          db,
		repomanager: m,
		vault:       vault,
		gateway:     gateway,
		cache:       c,
		liveTTL:     cfg.LiveCacheTTL,
		vodTTL:      cfg.VodCacheTTL,
	}
}

// resolveCredentials loads and decrypts the provider credentials bound to
// the account. An account without bound credentials is a validation error,
// not an upstream one.
func (s *CatalogService) resolveCredentials(ctx context.Context, userID string) (xtream.Credentials, error) {
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByID(ctx, userID)
	if err != nil {
		return xtream.Credentials{}, err
	}
	if !account.HasProviderCredentials() {
		return xtream.Credentials{}, fmt.Errorf("%w: no iptv credentials bound to account", common.ErrValidation)
	}

	creds := xtream.Credentials{}
	if creds.BaseURL, err = s.vault.Decrypt(account.ProviderURL); err != nil {
		return xtream.Credentials{}, err
	}
	if creds.Username, err = s.vault.Decrypt(account.ProviderUsername); err != nil {
		return xtream.Credentials{}, err
	}
	if creds.Password, err = s.vault.Decrypt(account.ProviderPassword); err != nil {
		return xtream.Credentials{}, err
	}
	return creds, nil
}

type catalogCacheKey struct {
	BaseURL    string `json:"base_url"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	CategoryID string `json:"category_id,omitempty"`
	VodID      string `json:"vod_id,omitempty"`
}

func listingKey(route string, creds xtream.Credentials, categoryID, vodID string) string {
	return cache.Fingerprint(route, catalogCacheKey{
		BaseURL:    creds.BaseURL,
		Username:   creds.Username,
		Password:   creds.Password,
		CategoryID: categoryID,
		VodID:      vodID,
	})
}

// itemString returns the first non-empty value among the given keys,
// converting numeric IDs to their decimal form. Xtream panels disagree on
// whether IDs are strings or numbers.
func itemString(item xtream.Item, keys ...string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstString accepts a string or a list of strings and returns the first
// non-empty string. Panels return backdrop_path either way.
func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func enrichLiveItem(item xtream.Item, creds xtream.Credentials) {
	id := itemString(item, "stream_id", "id")
	if id != "" {
		if u, err := xtream.BuildLiveURL(creds.BaseURL, creds.Username, creds.Password, id, itemString(item, "container_extension")); err == nil {
			item["stream_url"] = u
		}
	}
	if icon := itemString(item, "stream_icon"); icon != "" {
		item["icon_url"] = xtream.BuildIconURL(creds.BaseURL, icon)
	} else {
		item["icon_url"] = nil
	}
}

func enrichVodItem(item xtream.Item, creds xtream.Credentials) {
	id := itemString(item, "stream_id", "id")
	if id != "" {
		if u, err := xtream.BuildVodURL(creds.BaseURL, creds.Username, creds.Password, id, itemString(item, "container_extension")); err == nil {
			item["stream_url"] = u
		}
	}
	if icon := itemString(item, "stream_icon"); icon != "" {
		item["cover_url"] = xtream.BuildIconURL(creds.BaseURL, icon)
	} else {
		item["cover_url"] = nil
	}
	if backdrop := firstString(item["backdrop_path"]); backdrop != "" {
		item["backdrop_url"] = xtream.BuildIconURL(creds.BaseURL, backdrop)
	} else {
		item["backdrop_url"] = nil
	}
}

// LiveCategories lists the live TV categories of the bound provider.
func (s *CatalogService) LiveCategories(ctx context.Context, userID string) ([]xtream.Item, error) {
	creds, err := s.resolveCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := listingKey("live/categories", creds, "", "")
	return cache.GetOrCompute(ctx, s.cache, key, s.liveTTL, func(ctx context.Context) ([]xtream.Item, error) {
		return s.gateway.GetLiveCategories(ctx, creds)
	})
}

// LiveStreams lists live streams, optionally filtered by category, each
// enriched with stream_url and icon_url.
func (s *CatalogService) LiveStreams(ctx context.Context, userID, categoryID string) ([]xtream.Item, error) {
	creds, err := s.resolveCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := listingKey("live/streams", creds, categoryID, "")
	return cache.GetOrCompute(ctx, s.cache, key, s.liveTTL, func(ctx context.Context) ([]xtream.Item, error) {
		items, err := s.gateway.GetLiveStreams(ctx, creds, categoryID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			enrichLiveItem(item, creds)
		}
		return items, nil
	})
}

// VodCategories lists the VOD categories of the bound provider.
func (s *CatalogService) VodCategories(ctx context.Context, userID string) ([]xtream.Item, error) {
	creds, err := s.resolveCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := listingKey("vod/categories", creds, "", "")
	return cache.GetOrCompute(ctx, s.cache, key, s.vodTTL, func(ctx context.Context) ([]xtream.Item, error) {
		return s.gateway.GetVodCategories(ctx, creds)
	})
}

// VodStreams lists the VOD entries of a category, each enriched with
// stream_url, cover_url, and backdrop_url.
func (s *CatalogService) VodStreams(ctx context.Context, userID, categoryID string) ([]xtream.Item, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("%w: category_id is required", common.ErrValidation)
	}

	creds, err := s.resolveCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := listingKey("vod/streams", creds, categoryID, "")
	return cache.GetOrCompute(ctx, s.cache, key, s.vodTTL, func(ctx context.Context) ([]xtream.Item, error) {
		items, err := s.gateway.GetVodStreams(ctx, creds, categoryID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			enrichVodItem(item, creds)
		}
		return items, nil
	})
}

// VodDetail returns the detail document of a single VOD entry. The nested
// info block gets cover_url and backdrop_url, the movie_data block gets a
// playable stream_url.
func (s *CatalogService) VodDetail(ctx context.Context, userID, vodID string) (xtream.Item, error) {
	if vodID == "" {
		return nil, fmt.Errorf("%w: vod_id is required", common.ErrValidation)
	}

	creds, err := s.resolveCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := listingKey("vod/info", creds, "", vodID)
	return cache.GetOrCompute(ctx, s.cache, key, s.vodTTL, func(ctx context.Context) (xtream.Item, error) {
		detail, err := s.gateway.GetVodInfo(ctx, creds, vodID)
		if err != nil {
			return nil, err
		}

		if info, ok := detail["info"].(map[string]any); ok {
			if cover := itemString(info, "cover"); cover != "" {
				info["cover_url"] = xtream.BuildIconURL(creds.BaseURL, cover)
			} else {
				info["cover_url"] = nil
			}
			if backdrop := firstString(info["backdrop_path"]); backdrop != "" {
				info["backdrop_url"] = xtream.BuildIconURL(creds.BaseURL, backdrop)
			} else {
				info["backdrop_url"] = nil
			}
		}
		if movie, ok := detail["movie_data"].(map[string]any); ok {
			id := itemString(movie, "stream_id", "id")
			if u, err := xtream.BuildVodURL(creds.BaseURL, creds.Username, creds.Password, id, itemString(movie, "container_extension")); err == nil {
				movie["stream_url"] = u
			}
		}
		return detail, nil
	})
}
