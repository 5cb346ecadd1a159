package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Jency96/Form-Management/config"
	"github.com/Jency96/Form-Management/model"
)

// Gateway is the asset cache controller: it fronts the upstream asset
// origin with a versioned response cache so the application stays
// usable with no connectivity after its first successful load, while
// updates still propagate promptly when online.
//
// Request policies, GET only:
//   - HTML/navigation: network-first, cached copy or cached index shell
//     as fallback.
//   - same-origin assets: cache-first, network on miss, synthetic 503
//     when both fail.
//   - cross-origin and non-GET: passed through untouched.
type Gateway struct {
	config   *config.CacheConfig
	manifest model.CacheManifest
	upstream *url.URL
	client   *http.Client
	store    *CacheStore

	mu            sync.Mutex
	state         string
	waiting       bool
	updateApplied bool
}

func NewGateway(cfg *config.CacheConfig) (*Gateway, error) {
	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q", cfg.UpstreamURL)
	}

	g := &Gateway{
		config:   cfg,
		upstream: upstream,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		state: model.GatewayInstalling,
	}

	g.manifest = model.CacheManifest{CacheName: cfg.Name}
	for _, asset := range cfg.Assets {
		g.manifest.Assets = append(g.manifest.Assets, g.resolveAsset(asset))
	}

	store, err := NewCacheStore(cfg.Dir, cfg.Name)
	if err != nil {
		return nil, err
	}
	g.store = store
	return g, nil
}

// Manifest returns the current cache manifest.
func (g *Gateway) Manifest() model.CacheManifest {
	return g.manifest
}

// Install precaches every manifest asset. By default individual
// failures are logged and tolerated; with strict_precache set, any
// failure aborts the install. A version whose cache name differs from
// the currently active one then waits for an explicit SKIP_WAITING
// before superseding it; otherwise it activates immediately.
func (g *Gateway) Install(ctx context.Context) error {
	g.setState(model.GatewayInstalling)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.FetchLimit)

	for _, asset := range g.manifest.Assets {
		asset := asset
		eg.Go(func() error {
			err := g.precacheAsset(gctx, asset)
			if err == nil {
				return nil
			}
			if g.config.StrictPrecache {
				return fmt.Errorf("failed to precache %s: %w", asset, err)
			}
			slog.Warn("failed to precache asset, continuing", "asset", asset, "error", err)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	g.setState(model.GatewayInstalled)
	slog.Info("cache install complete", "cache", g.manifest.CacheName, "assets", len(g.manifest.Assets))

	active := g.activeName()
	if active != "" && active != g.manifest.CacheName {
		g.mu.Lock()
		g.waiting = true
		g.mu.Unlock()
		slog.Info("new cache version waiting for activation signal",
			"cache", g.manifest.CacheName, "active", active)
		return nil
	}
	return g.Activate()
}

// SkipWaiting activates a waiting version immediately. It is the
// handler for the page's {"type":"SKIP_WAITING"} message.
func (g *Gateway) SkipWaiting() error {
	g.mu.Lock()
	if !g.waiting {
		g.mu.Unlock()
		return nil
	}
	g.waiting = false
	g.mu.Unlock()
	return g.Activate()
}

// Activate makes this version the controlling one: every store whose
// name differs from the current manifest is deleted, so at most one
// store exists afterwards.
func (g *Gateway) Activate() error {
	g.setState(model.GatewayActivating)

	previous := g.activeName()
	names, err := ListCacheNames(g.config.Dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == g.manifest.CacheName {
			continue
		}
		if err := DeleteCacheStore(g.config.Dir, name); err != nil {
			return fmt.Errorf("failed to delete stale cache %s: %w", name, err)
		}
		slog.Info("deleted stale cache", "cache", name)
	}

	if err := g.writeActiveName(g.manifest.CacheName); err != nil {
		return err
	}

	g.mu.Lock()
	g.state = model.GatewayActivated
	if previous != "" && previous != g.manifest.CacheName {
		// Consumed exactly once by Status so clients reload at most once.
		g.updateApplied = true
	}
	g.mu.Unlock()

	slog.Info("cache activated", "cache", g.manifest.CacheName)
	return nil
}

// GatewayStatus is the state snapshot exposed to clients.
type GatewayStatus struct {
	State         string `json:"state"`
	CacheName     string `json:"cache_name"`
	Waiting       bool   `json:"waiting"`
	UpdateApplied bool   `json:"update_applied"`
}

// Status reports the lifecycle state. UpdateApplied is true on the
// first call after a supersede and false afterwards.
func (g *Gateway) Status() GatewayStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := GatewayStatus{
		State:         g.state,
		CacheName:     g.manifest.CacheName,
		Waiting:       g.waiting,
		UpdateApplied: g.updateApplied,
	}
	g.updateApplied = false
	return st
}

// ServeHTTP handles one asset fetch with the policy for its request
// class.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.passThrough(w, r)
		return
	}

	target := g.targetURL(r)
	if target.Host != g.upstream.Host {
		// Cross-origin: no caching guarantee.
		g.passThrough(w, r)
		return
	}

	if isDocumentRequest(r) {
		g.networkFirst(w, r, target.String())
		return
	}
	g.cacheFirst(w, r, target.String())
}

// networkFirst fetches live, stores successful copies and falls back to
// the cache, then the cached index shell.
func (g *Gateway) networkFirst(w http.ResponseWriter, r *http.Request, target string) {
	res, err := g.fetch(r.Context(), target)
	if err == nil {
		if res.Status >= 200 && res.Status < 300 {
			if perr := g.store.Put(target, res); perr != nil {
				slog.Warn("failed to cache document", "url", target, "error", perr)
			}
		}
		writeResponse(w, res, "MISS")
		return
	}

	if cached, ok := g.store.Get(target); ok {
		writeResponse(w, cached, "HIT")
		return
	}
	if shell, ok := g.store.Get(g.indexURL()); ok {
		writeResponse(w, shell, "SHELL")
		return
	}
	writeOffline(w)
}

// cacheFirst serves the cached copy when present, otherwise fetches and
// caches; with nothing cached and no network it answers a synthetic
// offline response.
func (g *Gateway) cacheFirst(w http.ResponseWriter, r *http.Request, target string) {
	if cached, ok := g.store.Get(target); ok {
		writeResponse(w, cached, "HIT")
		return
	}

	res, err := g.fetch(r.Context(), target)
	if err != nil {
		writeOffline(w)
		return
	}
	if res.Status >= 200 && res.Status < 300 {
		if perr := g.store.Put(target, res); perr != nil {
			slog.Warn("failed to cache asset", "url", target, "error", perr)
		}
	}
	writeResponse(w, res, "MISS")
}

func (g *Gateway) passThrough(w http.ResponseWriter, r *http.Request) {
	target := g.targetURL(r)

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		http.Error(w, "bad gateway request", http.StatusBadGateway)
		return
	}
	req.Header = r.Header.Clone()

	resp, err := g.client.Do(req)
	if err != nil {
		writeOffline(w)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body) //nolint:errcheck
}

func (g *Gateway) precacheAsset(ctx context.Context, asset string) error {
	res, err := g.fetch(ctx, asset)
	if err != nil {
		return err
	}
	if res.Status < 200 || res.Status >= 300 {
		return fmt.Errorf("HTTP %d", res.Status)
	}
	return g.store.Put(asset, res)
}

func (g *Gateway) fetch(ctx context.Context, target string) (*CachedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &CachedResponse{
		URL:    target,
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

// targetURL resolves the incoming request against the upstream origin.
// Proxy-form requests keep their own absolute URL.
func (g *Gateway) targetURL(r *http.Request) *url.URL {
	if r.URL.IsAbs() {
		return r.URL
	}
	return g.upstream.ResolveReference(&url.URL{Path: r.URL.Path, RawQuery: r.URL.RawQuery})
}

func (g *Gateway) resolveAsset(asset string) string {
	u, err := url.Parse(asset)
	if err != nil {
		return asset
	}
	if u.IsAbs() {
		return asset
	}
	return g.upstream.ResolveReference(u).String()
}

func (g *Gateway) indexURL() string {
	return g.resolveAsset(g.config.IndexPath)
}

func (g *Gateway) setState(state string) {
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
}

// activeName reads the marker naming the currently controlling cache
// version; empty when no version has activated yet.
func (g *Gateway) activeName() string {
	data, err := os.ReadFile(filepath.Join(g.config.Dir, "active"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (g *Gateway) writeActiveName(name string) error {
	if err := os.MkdirAll(g.config.Dir, 0o755); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(g.config.Dir, "active"), []byte(name))
}

func isDocumentRequest(r *http.Request) bool {
	path := r.URL.Path
	if path == "/" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeResponse(w http.ResponseWriter, res *CachedResponse, cacheState string) {
	copyHeader(w.Header(), res.Header)
	w.Header().Set("X-Cache", cacheState)
	w.WriteHeader(res.Status)
	w.Write(res.Body) //nolint:errcheck
}

func writeOffline(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("You are offline. Please reconnect.")) //nolint:errcheck
}

var hopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		if hopHeaders[k] {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
