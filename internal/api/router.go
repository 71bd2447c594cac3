package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/route"
	"go.uber.org/zap"

	"quote-tracker/internal/market"
	"quote-tracker/internal/metrics"
	"quote-tracker/internal/query"
)

// QueryService is the read side consumed by the routes.
type QueryService interface {
	GetLatest(ctx context.Context, symbol string) (market.Quote, bool, error)
	GetHistory(ctx context.Context, symbol, date string, limit int) ([]market.Quote, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Query        QueryService
	Metrics      *metrics.Metrics
	Log          *zap.Logger
	Symbols      []string
	AllowOrigins []string
	Pingers      map[string]Pinger
}

type HistoryResponse struct {
	OK      bool           `json:"ok"`
	Symbol  string         `json:"symbol"`
	Date    string         `json:"date,omitempty"`
	Count   int            `json:"count"`
	Records []market.Quote `json:"records"`
}

// noData is the body returned by /latest when nothing has been stored yet.
type noData struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
}

func RegisterRoutes(r *route.Engine, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Use(cors(d.AllowOrigins))
	if d.Metrics != nil {
		r.Use(observe(d.Metrics))
		r.GET("/metrics", adaptor.HertzHandler(d.Metrics.Handler()))
	}

	r.GET("/healthz", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})

	r.GET("/readyz", func(ctx context.Context, c *app.RequestContext) {
		failed := map[string]string{}
		for name, p := range d.Pingers {
			if err := p.Ping(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, map[string]any{
				"ok":     false,
				"failed": failed,
			})
			return
		}
		c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})

	r.GET("/symbols", func(_ context.Context, c *app.RequestContext) {
		symbols := d.Symbols
		if symbols == nil {
			symbols = []string{}
		}
		c.JSON(http.StatusOK, map[string]any{
			"ok":      true,
			"symbols": symbols,
		})
	})

	r.GET("/latest", func(ctx context.Context, c *app.RequestContext) {
		if d.Query == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": "query service not configured",
			})
			return
		}
		symbol := c.Query("ticker")
		if symbol == "" {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "ticker required",
			})
			return
		}
		q, ok, err := d.Query.GetLatest(ctx, symbol)
		if err != nil {
			log.Error("get latest failed", zap.String("symbol", symbol), zap.Error(err))
			c.JSON(http.StatusBadGateway, map[string]any{
				"ok":    false,
				"error": fmt.Sprintf("query failed: %v", err),
			})
			return
		}
		if !ok {
			c.JSON(http.StatusOK, noData{Symbol: symbol})
			return
		}
		c.JSON(http.StatusOK, q)
	})

	r.GET("/history", func(ctx context.Context, c *app.RequestContext) {
		if d.Query == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": "query service not configured",
			})
			return
		}
		symbol := c.Query("ticker")
		if symbol == "" {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "ticker required",
			})
			return
		}
		limit, err := parseLimit(c.Query("limit"))
		if err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": err.Error(),
			})
			return
		}
		date := strings.TrimSpace(c.Query("date"))
		records, err := d.Query.GetHistory(ctx, symbol, date, limit)
		if errors.Is(err, query.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, map[string]any{
				"ok":    false,
				"error": "invalid date, expected YYYY-MM-DD",
			})
			return
		}
		if err != nil {
			log.Error("get history failed", zap.String("symbol", symbol), zap.String("date", date), zap.Error(err))
			c.JSON(http.StatusBadGateway, map[string]any{
				"ok":    false,
				"error": fmt.Sprintf("query failed: %v", err),
			})
			return
		}
		c.JSON(http.StatusOK, HistoryResponse{
			OK:      true,
			Symbol:  symbol,
			Date:    date,
			Count:   len(records),
			Records: records,
		})
	})

	for _, path := range []string{"/latest", "/history", "/symbols"} {
		r.OPTIONS(path, func(_ context.Context, c *app.RequestContext) {
			c.Status(http.StatusNoContent)
		})
	}
}

// cors answers browsers polling from the configured dashboard origins.
func cors(origins []string) app.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	return func(ctx context.Context, c *app.RequestContext) {
		origin := string(c.GetHeader("Origin"))
		allow := ""
		if allowAll {
			allow = "*"
		} else if _, ok := allowed[origin]; ok && origin != "" {
			allow = origin
			c.Header("Vary", "Origin")
		}
		if origin != "" && allow != "" {
			c.Header("Access-Control-Allow-Origin", allow)
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if string(c.Method()) == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next(ctx)
	}
}

func observe(m *metrics.Metrics) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		endpoint := c.FullPath()
		if endpoint == "" || endpoint == "/metrics" {
			return
		}
		m.ObserveRead(strings.TrimPrefix(endpoint, "/"), c.Response.StatusCode(), time.Since(start))
	}
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	return v, nil
}
