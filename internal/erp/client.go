package erp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"

	"github.com/mikelcalvo/wms/internal/logger"
)

// Colors for terminal output
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

const configFileName = ".wms-config"

// Config holds the CLI configuration
type Config struct {
	VPNURL          string
	URL             string
	APIKey          string
	APISecret       string
	NginxCookie     string
	NginxCookieName string // Cookie name for reverse proxy auth (default: "auth_cookie")
	Brand           string // Branding shown in the TUI (default: "Warehouse")
	User            string // Email of the signed-in user
	Role            Role
	NotifyUsers     []string // Recipients of customer order notifications
	PageSize        int
	SearchDebounce  time.Duration
	LogLevel        string
	LogFile         string
	Path            string // File the config was read from, if any
}

// configPaths lists where the dotfile is searched, in order.
func configPaths() []string {
	bin := filepath.Dir(os.Args[0])
	return []string{
		configFileName,
		filepath.Join("..", configFileName),
		filepath.Join(bin, configFileName),
		filepath.Join(bin, "..", configFileName),
	}
}

// LoadConfig reads the .wms-config file. Environment variables override
// values from the file.
func LoadConfig() (*Config, error) {
	values := map[string]string{}
	var path string
	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			path = p
			break
		}
	}
	if path != "" {
		read, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
		values = read
	}
	for _, key := range configKeys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}
	if path == "" && values["WMS_URL"] == "" {
		return nil, fmt.Errorf("config file not found. Copy %s.example to %s", configFileName, configFileName)
	}
	cfg, err := ParseConfig(values)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

var configKeys = []string{
	"WMS_URL", "WMS_VPN", "WMS_API_KEY", "WMS_API_SECRET",
	"NGINX_COOKIE", "NGINX_COOKIE_NAME", "WMS_BRAND", "WMS_USER", "WMS_ROLE",
	"WMS_NOTIFY_USERS", "WMS_PAGE_SIZE", "WMS_SEARCH_DEBOUNCE_MS", "LOG_LEVEL", "LOG_FILE",
}

// ParseConfig builds a Config from KEY=VALUE pairs.
func ParseConfig(values map[string]string) (*Config, error) {
	cfg := &Config{
		VPNURL:          strings.TrimRight(values["WMS_VPN"], "/"),
		URL:             strings.TrimRight(values["WMS_URL"], "/"),
		APIKey:          values["WMS_API_KEY"],
		APISecret:       values["WMS_API_SECRET"],
		NginxCookie:     values["NGINX_COOKIE"],
		NginxCookieName: "auth_cookie",
		Brand:           "Warehouse",
		User:            values["WMS_USER"],
		Role:            RoleStaff,
		LogLevel:        values["LOG_LEVEL"],
		LogFile:         values["LOG_FILE"],
	}
	if v := values["NGINX_COOKIE_NAME"]; v != "" {
		cfg.NginxCookieName = v
	}
	if v := values["WMS_BRAND"]; v != "" {
		cfg.Brand = v
	}
	if v := values["WMS_ROLE"]; v != "" {
		role, err := ParseRole(v)
		if err != nil {
			return nil, err
		}
		cfg.Role = role
	}
	for _, u := range strings.Split(values["WMS_NOTIFY_USERS"], ",") {
		if u = strings.TrimSpace(u); u != "" {
			cfg.NotifyUsers = append(cfg.NotifyUsers, u)
		}
	}
	if v := values["WMS_PAGE_SIZE"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid WMS_PAGE_SIZE: %q", v)
		}
		cfg.PageSize = n
	}
	if v := values["WMS_SEARCH_DEBOUNCE_MS"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid WMS_SEARCH_DEBOUNCE_MS: %q", v)
		}
		cfg.SearchDebounce = time.Duration(n) * time.Millisecond
	}

	if cfg.URL == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("missing required config: WMS_URL, WMS_API_KEY, WMS_API_SECRET")
	}
	if cfg.Role == RoleCustomer && cfg.User == "" {
		return nil, fmt.Errorf("WMS_USER is required for the customer role")
	}
	return cfg, nil
}

// Client handles API requests
type Client struct {
	Config    *Config
	ActiveURL string
	Mode      string // "vpn" or "internet"

	http *resty.Client
	log  logger.Logger
}

// NewClient creates a new API client. Requests fail fast: there is no retry.
func NewClient(config *Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}
	c := &Client{
		Config:    config,
		ActiveURL: config.URL,
		Mode:      "internet",
		log:       log,
	}
	c.http = resty.New().
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", fmt.Sprintf("token %s:%s", config.APIKey, config.APISecret)).
		SetBaseURL(c.ActiveURL)
	c.http.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if c.Mode == "internet" && c.Config.NginxCookie != "" {
			r.SetCookie(&http.Cookie{Name: c.Config.NginxCookieName, Value: c.Config.NginxCookie})
		}
		return nil
	})
	return c
}

// DetectConnection tries VPN first, falls back to internet
func (c *Client) DetectConnection(ctx context.Context) {
	if c.Config.VPNURL != "" {
		resp, err := c.http.R().
			SetContext(ctx).
			Get(c.Config.VPNURL + "/api/method/frappe.auth.get_logged_user")
		if err == nil && resp.StatusCode() == http.StatusOK {
			c.setMode("vpn", c.Config.VPNURL)
			return
		}
		c.log.Debug("vpn unreachable", "url", c.Config.VPNURL, "err", err)
	}
	c.setMode("internet", c.Config.URL)
}

func (c *Client) setMode(mode, base string) {
	c.Mode = mode
	c.ActiveURL = base
	c.http.SetBaseURL(base)
}

// APIError is the error body the server returns on failure.
type APIError struct {
	Status         int    `json:"-"`
	Exception      string `json:"exception"`
	ExcType        string `json:"exc_type"`
	Message        string `json:"message"`
	ServerMessages string `json:"_server_messages"`
}

func (e *APIError) Error() string {
	switch {
	case e.Exception != "":
		return "API error: " + e.Exception
	case e.Message != "":
		return "API error: " + e.Message
	case e.ExcType != "":
		return "API error: " + e.ExcType
	}
	return fmt.Sprintf("API error: HTTP %d", e.Status)
}

// ErrRemoteNotFound is wrapped by requests that got a 404.
var ErrRemoteNotFound = errors.New("not found")

// do sends one request and decodes the "data" envelope into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var apiErr APIError
	envelope := struct {
		Data any `json:"data"`
	}{Data: out}

	req := c.http.R().
		SetContext(ctx).
		SetError(&apiErr)
	if out != nil {
		req.SetResult(&envelope)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode(), "took", time.Since(start))
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Status == http.StatusNotFound {
			return fmt.Errorf("%s %s: %w", method, path, ErrRemoteNotFound)
		}
		return &apiErr
	}
	return nil
}

func resourcePath(doctype string, name ...string) string {
	p := "/api/resource/" + url.PathEscape(doctype)
	if len(name) > 0 {
		p += "/" + url.PathEscape(name[0])
	}
	return p
}

// LoggedUser returns the user the API key belongs to.
func (c *Client) LoggedUser(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	var apiErr APIError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/api/method/frappe.auth.get_logged_user")
	if err != nil {
		return "", fmt.Errorf("connection failed: %w", err)
	}
	if resp.IsError() || out.Message == "" {
		apiErr.Status = resp.StatusCode()
		return "", fmt.Errorf("authentication failed: %w", &apiErr)
	}
	return out.Message, nil
}

// CmdPing tests the connection
func (c *Client) CmdPing(ctx context.Context, w io.Writer) error {
	fmt.Fprintf(w, "%sTesting connection to ERP...%s\n", Blue, Reset)

	c.DetectConnection(ctx)
	user, err := c.LoggedUser(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s✓ Connection successful%s\n", Green, Reset)
	fmt.Fprintf(w, "  Authenticated as: %s%s%s\n", Yellow, user, Reset)
	if c.Mode == "vpn" {
		fmt.Fprintf(w, "  Mode: %sVPN direct%s (%s)\n", Cyan, Reset, c.ActiveURL)
	} else {
		fmt.Fprintf(w, "  Mode: %sInternet%s (%s)\n", Yellow, Reset, c.ActiveURL)
	}
	return nil
}

// CmdConfig shows current configuration
func (c *Client) CmdConfig(ctx context.Context, w io.Writer) error {
	fmt.Fprintf(w, "%sCurrent configuration:%s\n", Blue, Reset)
	if c.Config.Path != "" {
		fmt.Fprintf(w, "  File: %s\n", c.Config.Path)
	}
	if c.Config.VPNURL != "" {
		fmt.Fprintf(w, "  VPN URL: %s\n", c.Config.VPNURL)
	} else {
		fmt.Fprintf(w, "  VPN URL: %snot configured%s\n", Yellow, Reset)
	}
	fmt.Fprintf(w, "  Internet URL: %s\n", c.Config.URL)
	fmt.Fprintf(w, "  API Key: %s...\n", maskKey(c.Config.APIKey))
	fmt.Fprintf(w, "  API Secret: ****\n")

	if c.Config.NginxCookie != "" {
		fmt.Fprintf(w, "  Nginx Cookie: configured\n")
	} else {
		fmt.Fprintf(w, "  Nginx Cookie: %snot configured%s (needed for internet mode)\n", Yellow, Reset)
	}
	user := c.Config.User
	if user == "" {
		user = "(api key owner)"
	}
	fmt.Fprintf(w, "  User: %s (%s)\n", user, c.Config.Role)

	fmt.Fprintln(w)
	c.DetectConnection(ctx)
	if c.Mode == "vpn" {
		fmt.Fprintf(w, "  Active mode: %sVPN direct%s\n", Cyan, Reset)
	} else {
		fmt.Fprintf(w, "  Active mode: %sInternet%s\n", Yellow, Reset)
	}
	fmt.Fprintf(w, "  Active URL: %s\n", c.ActiveURL)
	return nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}
