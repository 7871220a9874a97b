package bibtex

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultSource names the lab's published bibliography.
	DefaultSource = "github"

	// LatestURL is where DefaultSource is fetched from.
	LatestURL = "https://raw.githubusercontent.com/ContextLab/CDL-bibliography/master/cdl.bib"

	fetchTimeout = 60 * time.Second
)

// Load reads a bibliography from src, which is DefaultSource, a path to an
// existing file, or an http(s) URL.
func Load(ctx context.Context, src string) (*Collection, error) {
	if src == DefaultSource {
		src = LatestURL
	}
	if info, err := os.Stat(src); err == nil && !info.IsDir() {
		return ParseFile(src)
	}
	return fetch(ctx, http.DefaultClient, src)
}

func fetch(ctx context.Context, hc *http.Client, url string) (*Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}
	c, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return c, nil
}
