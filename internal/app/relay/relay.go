// Package relay реализует собственный прокси-сервис: принимает конверт
// запроса от панели и выполняет его к Shopify Admin API от своего имени.
// Используется как последний транспорт цепочки, когда прямой запрос и
// публичные прокси недоступны.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/e-sellers/storesync/internal/config"
	"github.com/e-sellers/storesync/internal/lib/sl"
	"github.com/e-sellers/storesync/internal/shopify"
)

type App struct {
	server *http.Server
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *App {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)
	router.Use(corsMiddleware)

	handler := &proxyHandler{
		apiVersion: cfg.Shopify.APIVersion,
		httpClient: &http.Client{Timeout: cfg.Shopify.RequestTimeout},
		logger:     logger,
	}
	router.Post("/proxy", handler.ServeHTTP)
	router.Options("/proxy", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:         cfg.Shopify.RelayAddress,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{server: srv, logger: logger}
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("relay server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down relay server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

// Панель может обслуживаться с любого адреса, поэтому CORS открыт.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Shopify-Access-Token")
		next.ServeHTTP(w, r)
	})
}

// envelope описывает проксируемый запрос к Shopify Admin API.
type envelope struct {
	Endpoint    string          `json:"endpoint"`
	Method      string          `json:"method"`
	Body        json.RawMessage `json:"body,omitempty"`
	StoreDomain string          `json:"storeDomain"`
	AccessToken string          `json:"accessToken"`
}

// result единый формат ответа relay, успешного и ошибочного.
type result struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	Status     int             `json:"status"`
	StatusText string          `json:"statusText"`
}

type proxyHandler struct {
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

func (h *proxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "relay.proxyHandler"

	log := h.logger.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var env envelope
	if err := render.DecodeJSON(r.Body, &env); err != nil {
		log.Error("failed to decode envelope", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, result{Success: false, Error: "invalid request envelope", Status: http.StatusBadRequest, StatusText: "Bad Request"})
		return
	}
	if env.Endpoint == "" || env.StoreDomain == "" || env.AccessToken == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, result{Success: false, Error: "endpoint, storeDomain and accessToken are required", Status: http.StatusBadRequest, StatusText: "Bad Request"})
		return
	}
	method := env.Method
	if method == "" {
		method = http.MethodGet
	}

	url := shopify.APIURL(env.StoreDomain, h.apiVersion, env.Endpoint)
	var body io.Reader
	if len(env.Body) > 0 {
		body = bytes.NewReader(env.Body)
	}
	req, err := http.NewRequestWithContext(r.Context(), method, url, body)
	if err != nil {
		log.Error("failed to build upstream request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, result{Success: false, Error: "invalid endpoint", Status: http.StatusBadRequest, StatusText: "Bad Request"})
		return
	}
	req.Header.Set("X-Shopify-Access-Token", env.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		log.Error("upstream request failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, result{Success: false, Error: err.Error(), Status: http.StatusBadGateway, StatusText: "Bad Gateway"})
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read upstream response", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, result{Success: false, Error: err.Error(), Status: http.StatusBadGateway, StatusText: "Bad Gateway"})
		return
	}

	res := result{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
	if res.Success {
		if json.Valid(data) {
			res.Data = data
		} else {
			res.Data, _ = json.Marshal(string(data))
		}
	} else {
		res.Error = string(data)
	}
	// Ответ relay всегда 200: статус исходного запроса внутри конверта.
	render.JSON(w, r, res)
}
