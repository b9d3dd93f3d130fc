// Package fetcher retrieves the content behind a learner-submitted URL so it
// can be graded.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SAP-F-2025/attempt-grading-service/internal/config"
)

// Content is what was retrieved for a URL. IsFunctional is false when the
// URL could not be fetched; Body then holds nothing useful.
type Content struct {
	Body         string
	IsFunctional bool
}

type Fetcher struct {
	client      *http.Client
	maxBytes    int
	githubToken string
	logger      *slog.Logger

	// overridable in tests
	githubAPIBase string
	githubRawBase string
}

// ErrBlockedAddress is returned when a URL resolves to a non-public address.
var ErrBlockedAddress = errors.New("destination address is not public")

// Ranges that are global unicast but still not reachable from the internet
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
}

func New(cfg config.FetcherConfig, logger *slog.Logger) *Fetcher {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if !cfg.AllowPrivateNetworks {
		dialer.Control = rejectNonPublic
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext

	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		maxBytes:      cfg.MaxBytes,
		githubToken:   cfg.GitHubToken,
		logger:        logger,
		githubAPIBase: "https://api.github.com",
		githubRawBase: "https://raw.githubusercontent.com",
	}
}

// Fetch never returns an error. Failures come back as a non-functional Content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Content {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		f.logger.Warn("Rejected unfetchable URL", "url", rawURL)
		return Content{}
	}

	var body string
	if isGitHubHost(u.Host) {
		body, err = f.fetchGitHub(ctx, u)
	} else {
		body, err = f.fetchPage(ctx, u.String())
	}
	if errors.Is(err, ErrBlockedAddress) {
		f.logger.Warn("Blocked URL pointing at a private network", "url", rawURL)
		return Content{}
	}
	if err != nil {
		f.logger.Warn("Failed to fetch URL content", "url", rawURL, "error", err)
		return Content{}
	}

	return Content{Body: truncate(body, f.maxBytes), IsFunctional: true}
}

// rejectNonPublic runs on every dial after name resolution, so redirects and
// DNS answers pointing inward are caught too.
func rejectNonPublic(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if !isPublic(addr.Unmap()) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	return nil
}

func isPublic(addr netip.Addr) bool {
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// ===== GITHUB =====

func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" || host == "www.github.com"
}

// fetchGitHub prefers the raw file for blob URLs, repository metadata plus
// README for repository roots, and scrapes anything else.
func (f *Fetcher) fetchGitHub(ctx context.Context, u *url.URL) (string, error) {
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	if len(parts) >= 5 && parts[2] == "blob" {
		raw := fmt.Sprintf("%s/%s/%s/%s", f.githubRawBase, parts[0], parts[1], strings.Join(parts[3:], "/"))
		if body, err := f.get(ctx, raw, false); err == nil {
			return body, nil
		}
	}

	if len(parts) == 2 {
		if body, err := f.fetchRepository(ctx, parts[0], parts[1]); err == nil {
			return body, nil
		}
	}

	return f.fetchPage(ctx, u.String())
}

type repositoryMetadata struct {
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
	DefaultBranch   string   `json:"default_branch"`
	StargazersCount int      `json:"stargazers_count"`
}

func (f *Fetcher) fetchRepository(ctx context.Context, owner, repo string) (string, error) {
	raw, err := f.get(ctx, fmt.Sprintf("%s/repos/%s/%s", f.githubAPIBase, owner, repo), true)
	if err != nil {
		return "", err
	}
	var meta repositoryMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return "", fmt.Errorf("failed to decode repository metadata: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", meta.FullName)
	if meta.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", meta.Description)
	}
	if meta.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", meta.Language)
	}
	if len(meta.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(meta.Topics, ", "))
	}
	fmt.Fprintf(&b, "Stars: %d\n", meta.StargazersCount)

	branch := meta.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	readme, err := f.get(ctx, fmt.Sprintf("%s/%s/%s/%s/README.md", f.githubRawBase, owner, repo, branch), false)
	if err == nil {
		b.WriteString("\nREADME:\n")
		b.WriteString(readme)
	}
	return b.String(), nil
}

// ===== GENERIC PAGES =====

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "attempt-grading-service")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, int64(f.maxBytes)*4)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		return htmlToText(limited)
	}
	raw, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return string(raw), nil
}

func (f *Fetcher) get(ctx context.Context, target string, api bool) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "attempt-grading-service")
	if api {
		req.Header.Set("Accept", "application/vnd.github+json")
		if f.githubToken != "" {
			req.Header.Set("Authorization", "Bearer "+f.githubToken)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, target)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxBytes)*4))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}
	return string(raw), nil
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
