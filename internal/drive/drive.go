// Package drive resolves hosted-image links: stable file identities from
// share URLs, share-permission checks, and thumbnail previews. Everything
// here is a collaborator of the image registry; each operation can fail
// independently and the registry decides how failures degrade.
package drive

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var fileIDRe = regexp.MustCompile(`/d/(.*?)/view`)

// FileIdentity derives a stable key identifying the underlying file
// independent of URL formatting. Drive share links yield the file ID; any
// other URL falls back to itself with the query string stripped. Total:
// never fails.
func FileIdentity(rawURL string) string {
	if m := fileIDRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// IsDriveURL reports whether the URL is a Drive share link with an
// extractable file ID.
func IsDriveURL(rawURL string) bool {
	return fileIDRe.MatchString(rawURL)
}

// Client talks to the image host over HTTP.
type Client struct {
	http *http.Client
}

// NewClient returns a Client with a bounded request timeout.
func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: 30 * time.Second}}
}

// FileIdentity implements the registry's metadata contract.
func (c *Client) FileIdentity(rawURL string) string {
	return FileIdentity(rawURL)
}

// EnsureViewable checks that the file behind the URL is publicly reachable.
// Non-Drive URLs are probed directly; Drive links are probed through the
// direct-view endpoint.
func (c *Client) EnsureViewable(rawURL string) error {
	target := rawURL
	if m := fileIDRe.FindStringSubmatch(rawURL); m != nil {
		target = "https://drive.google.com/uc?export=view&id=" + url.QueryEscape(m[1])
	}

	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	req, err := http.NewRequest(http.MethodHead, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "qms/1.0 (image-registry)")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("probe file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("file not viewable (status %d)", resp.StatusCode)
	}
	return nil
}

// RenderPreview returns the preview URL for the file: the thumbnail
// endpoint for Drive links, the URL itself for direct images. Anything else
// is an error for the registry to degrade on.
func (c *Client) RenderPreview(rawURL string) (string, error) {
	if m := fileIDRe.FindStringSubmatch(rawURL); m != nil {
		return "https://drive.google.com/thumbnail?id=" + url.QueryEscape(m[1]) + "&sz=w200-h200", nil
	}

	lower := strings.ToLower(rawURL)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif"} {
		if strings.HasSuffix(lower, ext) {
			return rawURL, nil
		}
	}
	return "", fmt.Errorf("no preview for %s", rawURL)
}
