// Package graph downloads the source workbook from Microsoft Graph using an
// app-only (client credentials) token.
package graph

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultBaseURL is the Graph v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"
	// DefaultAuthorityURL is the Entra ID login endpoint.
	DefaultAuthorityURL = "https://login.microsoftonline.com"
	// DefaultScope requests the app's statically granted Graph permissions.
	DefaultScope = "https://graph.microsoft.com/.default"

	// tokenRefreshMargin renews cached tokens this long before expiry.
	tokenRefreshMargin = 60 * time.Second
)

// Locator kinds reported by Status.
const (
	LocatorFileURL   = "file_url"
	LocatorDriveItem = "drive_item"
	LocatorSitePath  = "site_path"
)

var driveItemPattern = regexp.MustCompile(`/drives/([^/]+)/items/([^/]+)`)

// Config holds credentials and the file locator.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// FileURL is a Graph drive item URL, a Graph content URL or a
	// OneDrive/SharePoint sharing link. It takes precedence over the IDs.
	FileURL string
	DriveID string
	ItemID  string
	SiteID  string
	// FilePath is relative to the site's default drive root.
	FilePath string

	Scopes       []string
	BaseURL      string
	AuthorityURL string
	Timeout      time.Duration
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.AuthorityURL == "" {
		c.AuthorityURL = DefaultAuthorityURL
	}
	c.AuthorityURL = strings.TrimRight(c.AuthorityURL, "/")
	if len(c.Scopes) == 0 {
		c.Scopes = []string{DefaultScope}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

func (c *Config) hasCredentials() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

func (c *Config) locator() string {
	switch {
	case strings.TrimSpace(c.FileURL) != "":
		return LocatorFileURL
	case c.DriveID != "" && c.ItemID != "":
		return LocatorDriveItem
	case c.SiteID != "" && c.FilePath != "":
		return LocatorSitePath
	default:
		return ""
	}
}

// Status reports configuration completeness without any network call.
type Status struct {
	Configured bool     `json:"configured"`
	Locator    string   `json:"locator"`
	Missing    []string `json:"missing,omitempty"`
}

// Client downloads the workbook. Tokens are cached until shortly before expiry.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens oauth2.TokenSource
	logger *slog.Logger
}

// New creates a client. A nil httpClient gets a bounded default client.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	cfg.defaults()
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{cfg: cfg, http: httpClient, logger: logger}
	if cfg.hasCredentials() {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", cfg.AuthorityURL, url.PathEscape(cfg.TenantID)),
			Scopes:       cfg.Scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		c.tokens = oauth2.ReuseTokenSourceWithExpiry(nil, &credentialsSource{cfg: cc, ctx: ctx}, tokenRefreshMargin)
	}
	return c
}

// credentialsSource fetches a fresh token on every call; caching is left to
// the reuse wrapper so the refresh margin is ours.
type credentialsSource struct {
	cfg *clientcredentials.Config
	ctx context.Context
}

func (s *credentialsSource) Token() (*oauth2.Token, error) {
	return s.cfg.Token(s.ctx)
}

// Status reports whether credentials and a file locator are configured.
func (c *Client) Status() Status {
	var missing []string
	if c.cfg.TenantID == "" {
		missing = append(missing, "MS_TENANT_ID")
	}
	if c.cfg.ClientID == "" {
		missing = append(missing, "MS_CLIENT_ID")
	}
	if c.cfg.ClientSecret == "" {
		missing = append(missing, "MS_CLIENT_SECRET")
	}
	locator := c.cfg.locator()
	if locator == "" {
		missing = append(missing, "MS_FILE_URL or GRAPH_DRIVE_ID+GRAPH_ITEM_ID or GRAPH_SITE_ID+GRAPH_FILE_PATH")
	}
	return Status{
		Configured: len(missing) == 0,
		Locator:    locator,
		Missing:    missing,
	}
}

// Download fetches the workbook bytes using the configured locator.
func (c *Client) Download(ctx context.Context) ([]byte, error) {
	if c.tokens == nil {
		return nil, fmt.Errorf("%w: Graph credentials are missing (MS_TENANT_ID, MS_CLIENT_ID, MS_CLIENT_SECRET)", ErrNotConfigured)
	}

	locator := c.cfg.locator()
	if locator == "" {
		return nil, fmt.Errorf("%w: configure MS_FILE_URL, GRAPH_DRIVE_ID + GRAPH_ITEM_ID or GRAPH_SITE_ID + GRAPH_FILE_PATH", ErrNotConfigured)
	}

	token, err := c.accessToken()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var data []byte
	switch locator {
	case LocatorFileURL:
		data, err = c.downloadFromFileURL(ctx, token)
	case LocatorDriveItem:
		data, err = c.downloadDriveItem(ctx, c.cfg.DriveID, c.cfg.ItemID, token)
	case LocatorSitePath:
		data, err = c.downloadSitePath(ctx, token)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("graph workbook downloaded",
		"locator", locator,
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

func (c *Client) accessToken() (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", &StatusError{Op: "token request", StatusCode: retrieveErr.Response.StatusCode}
		}
		return "", &TransportError{Op: "token request", Err: err}
	}
	return token.AccessToken, nil
}

func (c *Client) downloadFromFileURL(ctx context.Context, token string) ([]byte, error) {
	fileURL := strings.TrimSpace(c.cfg.FileURL)
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return nil, fmt.Errorf("%w: MS_FILE_URL is not a valid URL: %v", ErrNotConfigured, err)
	}

	if c.isGraphHost(parsed.Hostname()) {
		if m := driveItemPattern.FindStringSubmatch(parsed.EscapedPath()); m != nil {
			driveID, errD := url.PathUnescape(m[1])
			itemID, errI := url.PathUnescape(m[2])
			if errD == nil && errI == nil {
				return c.downloadDriveItem(ctx, driveID, itemID, token)
			}
		}
		if strings.HasSuffix(parsed.Path, "/content") {
			return c.get(ctx, "file download", fileURL, token)
		}
	}

	// Anything else is treated as a OneDrive/SharePoint sharing link.
	itemURL := fmt.Sprintf("%s/shares/%s/driveItem", c.cfg.BaseURL, EncodeShareURL(fileURL))
	body, err := c.get(ctx, "drive item lookup", itemURL, token)
	if err != nil {
		return nil, err
	}

	itemID := gjson.GetBytes(body, "id").String()
	driveID := gjson.GetBytes(body, "parentReference.driveId").String()
	if itemID == "" || driveID == "" {
		return nil, errors.New("unable to resolve drive item from MS_FILE_URL")
	}
	return c.downloadDriveItem(ctx, driveID, itemID, token)
}

func (c *Client) isGraphHost(host string) bool {
	host = strings.ToLower(host)
	if strings.Contains(host, "graph.microsoft.com") {
		return true
	}
	base, err := url.Parse(c.cfg.BaseURL)
	return err == nil && strings.EqualFold(base.Hostname(), host)
}

func (c *Client) downloadDriveItem(ctx context.Context, driveID, itemID, token string) ([]byte, error) {
	contentURL := fmt.Sprintf("%s/drives/%s/items/%s/content", c.cfg.BaseURL, url.PathEscape(driveID), url.PathEscape(itemID))
	return c.get(ctx, "file download", contentURL, token)
}

func (c *Client) downloadSitePath(ctx context.Context, token string) ([]byte, error) {
	segments := strings.Split(strings.Trim(c.cfg.FilePath, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	contentURL := fmt.Sprintf("%s/sites/%s/drive/root:/%s:/content", c.cfg.BaseURL, url.PathEscape(c.cfg.SiteID), strings.Join(segments, "/"))
	return c.get(ctx, "file download", contentURL, token)
}

// get performs an authorized GET and returns the full body. Redirects to
// pre-authenticated download URLs are followed by the http.Client.
func (c *Client) get(ctx context.Context, op, rawURL, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return body, nil
}

// EncodeShareURL turns a sharing link into a Graph share id ("u!" + unpadded
// base64url of the link).
func EncodeShareURL(shareURL string) string {
	return "u!" + base64.RawURLEncoding.EncodeToString([]byte(shareURL))
}
