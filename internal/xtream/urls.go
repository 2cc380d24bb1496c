package xtream

import (
	"fmt"
	"strings"

	"github.com/avidalm/iptvgate/internal/common"
)

// Default container extensions used when the upstream omits one.
const (
	DefaultLiveExt = "ts"
	DefaultVodExt  = "mp4"
)

// cleanBaseURL strips trailing slashes before concatenation.
func cleanBaseURL(base string) string {
	return strings.TrimRight(base, "/")
}

func buildStreamURL(kind, base, username, password, streamID, ext string) (string, error) {
	if base == "" || username == "" || password == "" || streamID == "" {
		return "", fmt.Errorf("%w: base, username, password and stream id are required", common.ErrValidation)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s.%s", cleanBaseURL(base), kind, username, password, streamID, ext), nil
}

// BuildLiveURL returns "{base}/live/{user}/{pass}/{id}.{ext}". An empty ext
// defaults to "ts".
func BuildLiveURL(base, username, password, streamID, ext string) (string, error) {
	if ext == "" {
		ext = DefaultLiveExt
	}
	return buildStreamURL("live", base, username, password, streamID, ext)
}

// BuildVodURL returns "{base}/movie/{user}/{pass}/{id}.{ext}". An empty ext
// defaults to "mp4".
func BuildVodURL(base, username, password, streamID, ext string) (string, error) {
	if ext == "" {
		ext = DefaultVodExt
	}
	return buildStreamURL("movie", base, username, password, streamID, ext)
}

// BuildSeriesURL returns "{base}/series/{user}/{pass}/{id}.{ext}". An empty
// ext defaults to "mp4".
func BuildSeriesURL(base, username, password, streamID, ext string) (string, error) {
	if ext == "" {
		ext = DefaultVodExt
	}
	return buildStreamURL("series", base, username, password, streamID, ext)
}

// BuildIconURL resolves an icon path against the provider base URL. Absolute
// URLs pass through unchanged; an empty path yields an empty string.
func BuildIconURL(base, iconPath string) string {
	if iconPath == "" {
		return ""
	}
	if strings.HasPrefix(iconPath, "http://") || strings.HasPrefix(iconPath, "https://") {
		return iconPath
	}
	if !strings.HasPrefix(iconPath, "/") {
		iconPath = "/" + iconPath
	}
	return cleanBaseURL(base) + iconPath
}
