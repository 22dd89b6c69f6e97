package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
	"github.com/davicafu/catalogsync/internal/shared/infra/utils"
)

// Cabeceras de identidad que exige la API remota.
const (
	HeaderMachineID    = "MachineId"
	HeaderMachineKey   = "MachineKey"
	HeaderIntegratorID = "IntegratorId"
)

// Config agrupa lo necesario para hablar con la API remota.
type Config struct {
	BaseURL        string
	MachineID      string
	MachineKey     string
	IntegratorID   string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// Client ejecuta peticiones contra la API remota. Mantiene dos clientes HTTP
// para no mezclar conexiones verificadas y no verificadas en el mismo pool.
type Client struct {
	cfg      Config
	secure   *http.Client
	insecure *http.Client
	log      *zap.Logger
}

var _ domain.RemoteClient = (*Client)(nil)

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:      cfg,
		secure:   newHTTPClient(cfg, true),
		insecure: newHTTPClient(cfg, false),
		log:      log,
	}
}

func newHTTPClient(cfg Config, verify bool) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !verify}, //nolint:gosec
	}
	return &http.Client{Transport: transport, Timeout: cfg.RequestTimeout}
}

// URL compone {base}/{resource}[/{remoteID}].
func (c *Client) URL(resource, remoteID string) string {
	u := c.cfg.BaseURL + "/" + strings.Trim(resource, "/")
	if remoteID != "" {
		u += "/" + url.PathEscape(remoteID)
	}
	return u
}

// Execute lanza la petición y devuelve el código y el cuerpo parseado. Los
// errores de red y de construcción envuelven domain.ErrTransport; un status
// >= 400 no es un error, es un dato.
func (c *Client) Execute(ctx context.Context, req domain.Request) (domain.Response, error) {
	var body io.Reader
	if req.Body != "" {
		decoded, err := url.QueryUnescape(req.Body)
		if err != nil {
			return domain.Response{}, fmt.Errorf("%w: decode body: %w", domain.ErrTransport, err)
		}
		body = bytes.NewBufferString(decoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), c.URL(req.Resource, req.RemoteID), body)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: build request: %w", domain.ErrTransport, err)
	}
	for name, value := range c.headers(req.Headers) {
		httpReq.Header.Set(name, value)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := utils.Ternary(req.Secure, c.secure, c.insecure).Do(httpReq)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, httpReq.Method, httpReq.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: read body: %w", domain.ErrTransport, err)
	}

	c.log.Debug("Respuesta remota",
		zap.String("method", httpReq.Method),
		zap.String("url", httpReq.URL.String()),
		zap.Int("status", resp.StatusCode),
	)
	return domain.Response{StatusCode: resp.StatusCode, Body: parseObject(raw)}, nil
}

// headers fusiona las cabeceras de identidad con las de la petición; en caso
// de colisión gana la petición.
func (c *Client) headers(extra map[string]string) map[string]string {
	merged := map[string]string{
		HeaderMachineID:    c.cfg.MachineID,
		HeaderMachineKey:   c.cfg.MachineKey,
		HeaderIntegratorID: c.cfg.IntegratorID,
	}
	for name, value := range extra {
		for base := range merged {
			if strings.EqualFold(base, name) {
				delete(merged, base)
			}
		}
		merged[name] = value
	}
	return merged
}

// parseObject decodifica el cuerpo como objeto JSON. Los números quedan como
// json.Number: los ids remotos pueden superar 2^53 y no caben en un float64.
func parseObject(raw []byte) map[string]interface{} {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	return obj
}
