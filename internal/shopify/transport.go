package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/e-sellers/storesync/internal/models"
)

const accessTokenHeader = "X-Shopify-Access-Token"

// Transport одна стратегия доставки запроса до Admin API.
// Реализация обязана вернуть ошибку на любой статус вне 2xx,
// чтобы цепочка перешла к следующему транспорту.
type Transport interface {
	Name() string
	Do(ctx context.Context, cfg models.StoreConfig, req *Request) (*Response, error)
}

// DirectTransport прямой вызов https://{domain}/admin/api/{version}{endpoint}
// с заголовком доступа.
type DirectTransport struct {
	APIVersion string
	HTTPClient *http.Client
}

func (t *DirectTransport) Name() string { return "direct" }

func (t *DirectTransport) Do(ctx context.Context, cfg models.StoreConfig, req *Request) (*Response, error) {
	const op = "shopify.DirectTransport.Do"
	httpReq, err := newJSONRequest(ctx, req.Method, apiURL(cfg, t.APIVersion, req.Endpoint), req.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set(accessTokenHeader, cfg.AccessToken)
	return doAndCheck(t.HTTPClient, httpReq)
}

// ProxyTransport вызов через публичный CORS-прокси. Целевой адрес
// подставляется в шаблон прокси: для шаблонов, оканчивающихся на "url=" или
// "quest=", адрес кодируется как query-параметр, иначе конкатенируется.
type ProxyTransport struct {
	ProxyURL   string
	APIVersion string
	HTTPClient *http.Client
}

func (t *ProxyTransport) Name() string { return "proxy " + t.ProxyURL }

func (t *ProxyTransport) Do(ctx context.Context, cfg models.StoreConfig, req *Request) (*Response, error) {
	const op = "shopify.ProxyTransport.Do"
	target := apiURL(cfg, t.APIVersion, req.Endpoint)
	proxied := t.ProxyURL + target
	if strings.HasSuffix(t.ProxyURL, "url=") || strings.HasSuffix(t.ProxyURL, "quest=") {
		proxied = t.ProxyURL + url.QueryEscape(target)
	}
	httpReq, err := newJSONRequest(ctx, req.Method, proxied, req.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set(accessTokenHeader, cfg.AccessToken)
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	return doAndCheck(t.HTTPClient, httpReq)
}

// relayEnvelope формат запроса к собственному relay-сервису.
type relayEnvelope struct {
	Endpoint    string `json:"endpoint"`
	Method      string `json:"method"`
	Body        any    `json:"body,omitempty"`
	StoreDomain string `json:"storeDomain"`
	AccessToken string `json:"accessToken"`
}

// relayResult формат ответа relay-сервиса.
type relayResult struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Status     int             `json:"status"`
	StatusText string          `json:"statusText"`
}

// RelayTransport вызов через собственный relay-сервис: метод, тело и
// учетные данные упаковываются в JSON-конверт, ответ распаковывается.
type RelayTransport struct {
	RelayURL   string
	HTTPClient *http.Client
}

func (t *RelayTransport) Name() string { return "relay" }

func (t *RelayTransport) Do(ctx context.Context, cfg models.StoreConfig, req *Request) (*Response, error) {
	const op = "shopify.RelayTransport.Do"
	envelope := relayEnvelope{
		Endpoint:    req.Endpoint,
		Method:      req.Method,
		Body:        req.Body,
		StoreDomain: NormalizeDomain(cfg.StoreDomain),
		AccessToken: cfg.AccessToken,
	}
	httpReq, err := newJSONRequest(ctx, http.MethodPost, t.RelayURL, envelope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := doAndCheck(t.HTTPClient, httpReq)
	if err != nil {
		return nil, err
	}

	var result relayResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !result.Success {
		return nil, &HTTPError{Status: result.Status, StatusText: result.StatusText, Body: string(result.Data)}
	}
	return &Response{Status: result.Status, StatusText: result.StatusText, Body: result.Data}, nil
}

func newJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doAndCheck выполняет запрос и переводит статусы вне 2xx в *HTTPError,
// не оборачивая его: по типизированному статусу строятся подсказки выше.
func doAndCheck(client *http.Client, req *http.Request) (*Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(data),
		}
	}
	return &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Body:       data,
	}, nil
}
