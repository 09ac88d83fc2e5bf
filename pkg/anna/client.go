package anna

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultUsername is the HTTP Basic Auth username of every Smile gateway
	DefaultUsername = "smile"

	// DefaultPort is the gateway's HTTP port
	DefaultPort = 80

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second
)

// Gateway endpoints
const (
	PingPath          = "/ping"
	DomainObjectsPath = "/core/domain_objects"
	LocationsPath     = "/core/locations"
	AppliancesPath    = "/core/appliances"
	RulesPath         = "/core/rules"
)

// Config holds the connection settings. It is copied into the Client at
// construction and cannot be changed afterwards.
type Config struct {
	// Username for HTTP Basic Auth (default: "smile")
	Username string

	// Password for HTTP Basic Auth, the Smile ID printed on the gateway
	Password string

	// Host is the gateway hostname or IP address
	Host string

	// Port is the gateway HTTP port (default: 80)
	Port int

	// Timeout bounds each HTTP exchange (default: 10s)
	Timeout time.Duration
}

// BaseURL returns the HTTP base URL, e.g. "http://192.168.1.20:80"
func (c Config) BaseURL() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) withDefaults() Config {
	if c.Username == "" {
		c.Username = DefaultUsername
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Transport performs the raw HTTP exchanges. Implementations authenticate
// every request and bound it with a timeout.
type Transport interface {
	Get(ctx context.Context, path string) (status int, body []byte, err error)
	Put(ctx context.Context, path, contentType string, body []byte) (status int, respBody []byte, err error)
}

// HTTPTransport is the net/http Transport with Basic Auth.
type HTTPTransport struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// NewHTTPTransport creates a transport for cfg. If hc is nil a client with
// cfg.Timeout is created.
func NewHTTPTransport(cfg Config, hc *http.Client) *HTTPTransport {
	cfg = cfg.withDefaults()
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPTransport{
		baseURL:  cfg.BaseURL(),
		username: cfg.Username,
		password: cfg.Password,
		client:   hc,
	}
}

// Get implements Transport
func (t *HTTPTransport) Get(ctx context.Context, path string) (int, []byte, error) {
	return t.do(ctx, http.MethodGet, path, "", nil)
}

// Put implements Transport
func (t *HTTPTransport) Put(ctx context.Context, path, contentType string, body []byte) (int, []byte, error) {
	return t.do(ctx, http.MethodPut, path, contentType, body)
}

func (t *HTTPTransport) do(ctx context.Context, method, path, contentType string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return 0, nil, NewNetworkError(fmt.Sprintf("failed to create %s request", method), err)
	}

	req.SetBasicAuth(t.username, t.password)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, NewNetworkError("failed to read response body", err)
	}

	return resp.StatusCode, respBody, nil
}

// Client talks to one Anna gateway. It holds no mutable state and is safe
// for concurrent use.
type Client struct {
	cfg        Config
	transport  Transport
	httpClient *http.Client
	log        *zap.Logger
}

// Option customizes a Client at construction
type Option func(*Client)

// WithTransport replaces the HTTP transport, e.g. with a test double
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithHTTPClient sets the *http.Client used by the default transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a client for the gateway described by cfg
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: cfg.withDefaults(),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(c.cfg, c.httpClient)
	}
	c.log = c.log.With(zap.String("gateway", c.cfg.Host))
	return c
}

// Config returns a copy of the client configuration
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	start := time.Now()
	status, body, err := c.transport.Get(ctx, path)
	c.logExchange(http.MethodGet, path, status, len(body), start, err)
	return status, body, err
}

func (c *Client) put(ctx context.Context, path, contentType string, body []byte) (int, []byte, error) {
	start := time.Now()
	status, respBody, err := c.transport.Put(ctx, path, contentType, body)
	c.logExchange(http.MethodPut, path, status, len(respBody), start, err)
	return status, respBody, err
}

func (c *Client) logExchange(method, path string, status, size int, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Int("bytes", size),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		c.log.Warn("Gateway request failed", append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug("Gateway request", fields...)
}

// Ping checks that the gateway is reachable. The gateway answers /ping with
// 404 when it is up; any other status is a connection failure.
func (c *Client) Ping(ctx context.Context) error {
	status, _, err := c.get(ctx, PingPath)
	if err != nil {
		return err
	}
	if status != http.StatusNotFound {
		return NewStatusError(status, fmt.Sprintf("could not connect to the gateway (ping status %d)", status))
	}
	return nil
}

func (c *Client) fetchDocument(ctx context.Context, path, what string) (*Document, error) {
	status, body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, NewStatusError(status, fmt.Sprintf("could not get the %s (status %d)", what, status))
	}
	return Parse(body)
}

// DomainObjects fetches and parses /core/domain_objects
func (c *Client) DomainObjects(ctx context.Context) (*Document, error) {
	return c.fetchDocument(ctx, DomainObjectsPath, "domain objects")
}

// FetchLocations fetches and parses /core/locations
func (c *Client) FetchLocations(ctx context.Context) (*Document, error) {
	return c.fetchDocument(ctx, LocationsPath, "locations")
}

// Submit sends a built request. Anything but 200 is a failed command and the
// write must be assumed not applied.
func (c *Client) Submit(ctx context.Context, req *Request) ([]byte, error) {
	if req.Method != http.MethodPut {
		return nil, fmt.Errorf("unsupported command method %s", req.Method)
	}

	status, body, err := c.put(ctx, req.Path, req.ContentType, req.Body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, NewCommandError(status, fmt.Sprintf("%s returned status %d", req, status), body)
	}

	c.log.Info("Command applied", zap.String("request", req.String()))
	return body, nil
}

// SetPreset switches the thermostat to preset, using doc to decide how.
func (c *Client) SetPreset(ctx context.Context, doc *Document, preset string) ([]byte, error) {
	req, err := BuildSetPresetRequest(ctx, doc, c, preset)
	if err != nil {
		return nil, fmt.Errorf("could not set preset %q: %w", preset, err)
	}
	return c.Submit(ctx, req)
}

// SetTemperature writes a new setpoint, using doc to locate the endpoint.
func (c *Client) SetTemperature(ctx context.Context, doc *Document, temperature float64) ([]byte, error) {
	req, err := BuildSetTemperatureRequest(doc, temperature)
	if err != nil {
		return nil, fmt.Errorf("could not set temperature: %w", err)
	}
	return c.Submit(ctx, req)
}

// Status fetches the domain objects and reads a full Status snapshot
func (c *Client) Status(ctx context.Context) (*Status, error) {
	doc, err := c.DomainObjects(ctx)
	if err != nil {
		return nil, err
	}
	return ReadStatus(doc)
}
