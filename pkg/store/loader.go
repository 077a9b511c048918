package store

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ContentSource supplies initial file content for names absent from the
// durable store, e.g. a bundle of files shipped with a program.
type ContentSource interface {
	Fetch(ctx context.Context, name string) (string, error)
}

var DefaultSourceCacheTTL = 5 * time.Minute

type HTTPSourceConfig struct {
	Logger  *slog.Logger
	BaseURL string
	Client  *http.Client

	CacheTTL      time.Duration
	RatePerSecond float64
	Burst         int
}

// HTTPSource fetches file content over HTTP, once, and caches the result.
// The request path uses a filesystem-safe transform of the DOS filename:
// dot characters are replaced with underscores.
type HTTPSource struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
	cache   *ttlcache.Cache[string, string]
	limiter *rate.Limiter
}

var _ ContentSource = &HTTPSource{}

func NewHTTPSource(config HTTPSourceConfig) *HTTPSource {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Client == nil {
		config.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultSourceCacheTTL
	}
	if config.RatePerSecond == 0 {
		config.RatePerSecond = 4
	}
	if config.Burst == 0 {
		config.Burst = 2
	}

	cache := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](config.CacheTTL),
	)
	go cache.Start()

	return &HTTPSource{
		logger:  config.Logger.WithGroup("source"),
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		client:  config.Client,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Burst),
	}
}

func (s *HTTPSource) Stop() {
	s.cache.Stop()
}

// safeName transforms a DOS filename into a path segment. Dots are replaced
// so names like "HELLO.TXT" map onto flat bundle entries.
func safeName(name string) string {
	return url.PathEscape(strings.ReplaceAll(name, ".", "_"))
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) (string, error) {
	if item := s.cache.Get(name); item != nil {
		s.logger.Debug("source cache hit", "name", name)
		return item.Value(), nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "rate limit wait")
	}

	fetchURL := s.baseURL + "/" + safeName(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", errors.Wrapf(err, "building request for %q", name)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "fetching %q", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Debug("source miss", "name", name, "status", resp.StatusCode)
		return "", &ErrKeyNotFound{Key: name}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "reading body for %q", name)
	}

	content := string(body)
	s.cache.Set(name, content, ttlcache.DefaultTTL)
	s.logger.Info("fetched initial content", "name", name, "bytes", len(content))
	return content, nil
}
