// Package meta es el cliente de la Graph API de Meta (Facebook Login +
// Instagram Graph) usado por el flujo OAuth y por la lectura de métricas.
//
// Ninguna operación retorna error de Go por un status 4xx/5xx: devuelven un
// Result y el llamador decide. Timeouts y errores de transporte también son
// un Result con OK=false.
package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dropDatabas3/brandkit/internal/metrics"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

const (
	DefaultGraphURL  = "https://graph.facebook.com/v22.0"
	DefaultDialogURL = "https://www.facebook.com/v22.0/dialog/oauth"

	maxBody = 4 << 20
)

// Config del cliente. GraphURL/DialogURL se sobreescriben en tests.
type Config struct {
	AppID       string
	AppSecret   string
	RedirectURI string
	Scopes      string
	GraphURL    string
	DialogURL   string
	Timeout     time.Duration
	RPS         float64
	Burst       int
	HTTPClient  *http.Client
}

// Client habla con la Graph API. Seguro para uso concurrente.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// New crea el cliente con defaults (v22.0, timeout 15s, sin límite si RPS <= 0).
func New(cfg Config) *Client {
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	cfg.GraphURL = strings.TrimRight(cfg.GraphURL, "/")
	if cfg.DialogURL == "" {
		cfg.DialogURL = DefaultDialogURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return &Client{cfg: cfg, http: hc, limiter: lim}
}

// Result es el resultado de una llamada.
type Result[T any] struct {
	OK     bool
	Status int
	Data   T
	// Raw es el body tal cual; nunca debe llegar al browser.
	Raw []byte
	// Err es el error de Meta parseado, si lo hubo.
	Err *GraphError
	// TransportErr cubre timeout, DNS, body inválido, etc.
	TransportErr error
}

// Failed describe la falla para logs (sin tokens).
func (r Result[T]) Failed() string {
	switch {
	case r.OK:
		return ""
	case r.TransportErr != nil:
		return r.TransportErr.Error()
	case r.Err != nil:
		return fmt.Sprintf("status %d: code=%d subcode=%d type=%s", r.Status, r.Err.Code, r.Err.Subcode, r.Err.Type)
	default:
		return "status " + strconv.Itoa(r.Status)
	}
}

// AuthorizeURL arma la URL del diálogo OAuth de Facebook Login.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.AppID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", c.cfg.Scopes)
	q.Set("state", state)
	return c.cfg.DialogURL + "?" + q.Encode()
}

// ExchangeCode canjea el code por un token de usuario de corta duración.
func (c *Client) ExchangeCode(ctx context.Context, code string) Result[TokenResponse] {
	q := url.Values{}
	q.Set("client_id", c.cfg.AppID)
	q.Set("client_secret", c.cfg.AppSecret)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("code", code)
	return get[TokenResponse](ctx, c, "exchange_code", "oauth/access_token", q)
}

// ExchangeLongLived cambia un token corto por uno de larga duración.
func (c *Client) ExchangeLongLived(ctx context.Context, shortToken string) Result[TokenResponse] {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", c.cfg.AppID)
	q.Set("client_secret", c.cfg.AppSecret)
	q.Set("fb_exchange_token", shortToken)
	return get[TokenResponse](ctx, c, "exchange_long_lived", "oauth/access_token", q)
}

// ListPages lista las páginas del usuario con la cuenta de Instagram expandida.
func (c *Client) ListPages(ctx context.Context, userToken string) Result[PagesResponse] {
	q := url.Values{}
	q.Set("fields", PagesFields)
	q.Set("access_token", userToken)
	return get[PagesResponse](ctx, c, "list_pages", "me/accounts", q)
}

// ReadProfile lee el nodo de Instagram igID con fields.
func (c *Client) ReadProfile(ctx context.Context, igID, token, fields string) Result[Profile] {
	q := url.Values{}
	q.Set("fields", fields)
	q.Set("access_token", token)
	return get[Profile](ctx, c, "read_profile", url.PathEscape(igID), q)
}

// ReadInsights lee métricas de cuenta para period (ej: "day").
func (c *Client) ReadInsights(ctx context.Context, igID, token string, metricNames []string, period string) Result[InsightsResponse] {
	q := url.Values{}
	q.Set("metric", strings.Join(metricNames, ","))
	q.Set("period", period)
	q.Set("access_token", token)
	return get[InsightsResponse](ctx, c, "read_insights", url.PathEscape(igID)+"/insights", q)
}

// ListMedia lista las últimas limit publicaciones.
func (c *Client) ListMedia(ctx context.Context, igID, token, fields string, limit int) Result[MediaResponse] {
	q := url.Values{}
	q.Set("fields", fields)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("access_token", token)
	return get[MediaResponse](ctx, c, "list_media", url.PathEscape(igID)+"/media", q)
}

func get[T any](ctx context.Context, c *Client, op, path string, q url.Values) (res Result[T]) {
	endpoint := c.cfg.GraphURL + "/" + path + "?" + q.Encode()
	log := logger.From(ctx).With(logger.Component("meta"), logger.Op(op))
	start := time.Now()
	defer func() {
		result := "ok"
		switch {
		case res.TransportErr != nil:
			result = "transport_error"
		case !res.OK:
			result = "http_error"
		}
		metrics.ObserveGraphCall(op, result, time.Since(start))
		if !res.OK {
			log.Warn("graph call failed", logger.GraphURL(endpoint), logger.Status(res.Status), logger.String("detail", res.Failed()))
		} else {
			log.Debug("graph call", logger.GraphURL(endpoint), logger.Duration(time.Since(start)))
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		res.TransportErr = fmt.Errorf("meta: rate limit wait: %w", err)
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		res.TransportErr = fmt.Errorf("meta: build request: %w", err)
		return res
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error incluye la URL con el token: no propagarlo tal cual.
		res.TransportErr = transportError(err)
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	res.Raw, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		res.TransportErr = fmt.Errorf("meta: read body: %w", err)
		return res
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		if json.Unmarshal(res.Raw, &env) == nil {
			res.Err = env.Error
		}
		return res
	}
	if err := json.Unmarshal(res.Raw, &res.Data); err != nil {
		res.TransportErr = fmt.Errorf("meta: decode %s: %w", op, err)
		return res
	}
	res.OK = true
	return res
}

func transportError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() {
			return fmt.Errorf("meta: timeout: %w", context.DeadlineExceeded)
		}
		return fmt.Errorf("meta: transport: %w", uerr.Err)
	}
	return fmt.Errorf("meta: transport: %w", err)
}
