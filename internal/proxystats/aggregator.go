package proxystats

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cutoverd/bluegreen-deploy/internal/marathon"
	"golang.org/x/sync/errgroup"
)

// Fetcher performs the two HTTP calls the aggregator needs against one
// resolved proxy address. Exists as a seam so tests can fake proxy
// responses without a real listener per address.
type Fetcher interface {
	GetStatsCSV(ctx context.Context, addr string) (string, error)
	GetReloadPIDs(ctx context.Context, addr string) ([]string, error)
}

// httpFetcher is the real Fetcher, talking to each proxy instance over
// plain HTTP on the given port. Credentials are optional; marathon-lb's
// stats endpoints are unauthenticated in its default configuration.
type httpFetcher struct {
	client *http.Client
	port   int
	creds  marathon.Credentials
}

func NewHTTPFetcher(port int, timeout time.Duration, creds marathon.Credentials) Fetcher {
	return httpFetcher{
		client: &http.Client{Timeout: timeout},
		port:   port,
		creds:  creds,
	}
}

func (f httpFetcher) GetStatsCSV(ctx context.Context, addr string) (string, error) {
	return f.get(ctx, addr, "/haproxy?stats;csv")
}

func (f httpFetcher) GetReloadPIDs(ctx context.Context, addr string) ([]string, error) {
	body, err := f.get(ctx, addr, "/_haproxy_getpids")
	if err != nil {
		return nil, err
	}
	return strings.Fields(body), nil
}

func (f httpFetcher) get(ctx context.Context, addr, path string) (string, error) {
	url := fmt.Sprintf("http://%s:%d%s", addr, f.port, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if f.creds.Username != "" {
		req.SetBasicAuth(f.creds.Username, f.creds.Password)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("proxy %s responded %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Aggregator fetches and merges stats across the full address set a proxy
// fleet's DNS name resolves to.
type Aggregator struct {
	resolver Resolver
	fetcher  Fetcher
}

func NewAggregator(resolver Resolver, fetcher Fetcher) *Aggregator {
	return &Aggregator{resolver: resolver, fetcher: fetcher}
}

type instanceResult struct {
	rows    []Backend
	headers int
}

// Fetch resolves host to every backing address, queries each one
// concurrently for its stats CSV and reload-pid list, and concatenates the
// per-instance rows. It returns an error — meant to be treated as "not
// settled yet, retry after the step delay" by the caller — if any address
// fails to answer, or if any instance reports more than one live haproxy
// pid (a reload still in flight).
func (a *Aggregator) Fetch(ctx context.Context, host string, backendName string) (Snapshot, error) {
	addrs, err := a.resolver.Resolve(ctx, host)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve proxy fleet %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return Snapshot{}, fmt.Errorf("proxy fleet %s resolved to no addresses", host)
	}

	results := make([]instanceResult, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			pids, err := a.fetcher.GetReloadPIDs(gctx, addr)
			if err != nil {
				return fmt.Errorf("proxy %s: fetch reload pids: %w", addr, err)
			}
			if len(pids) > 1 {
				return fmt.Errorf("proxy %s: reload in progress (%d live pids)", addr, len(pids))
			}

			csvBody, err := a.fetcher.GetStatsCSV(gctx, addr)
			if err != nil {
				return fmt.Errorf("proxy %s: fetch stats csv: %w", addr, err)
			}

			rows, headers, err := parseCSV(csvBody, backendName)
			if err != nil {
				return fmt.Errorf("proxy %s: %w", addr, err)
			}

			results[i] = instanceResult{rows: rows, headers: headers}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	for _, r := range results {
		snap.InstanceCount += r.headers
		snap.Backends = append(snap.Backends, r.rows...)
	}
	return snap, nil
}
