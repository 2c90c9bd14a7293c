// Package api holds the echo handlers of the SPC data service.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spectriclabs/spc-data-service/internal/cache"
	"github.com/spectriclabs/spc-data-service/internal/config"
	"github.com/spectriclabs/spc-data-service/internal/datasource"
	"github.com/spectriclabs/spc-data-service/internal/spc"
	"go.uber.org/zap"
)

type API struct {
	Cfg     *config.Config
	Cache   *cache.Cache
	Logger  *zap.Logger
	Metrics *Metrics
}

// NewSDSAPI builds the handlers for cfg and registers the decode metrics
// with reg.
func NewSDSAPI(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		Cfg:     cfg,
		Cache:   cache.New(cfg.CacheLocation, logger),
		Logger:  logger,
		Metrics: NewMetrics(reg),
	}
}

// source opens the location named in the request path.
func (a *API) source(c echo.Context) (datasource.Source, error) {
	src, err := datasource.Open(a.Cfg, a.Cache, a.Logger, c.Param("location"))
	if err != nil {
		return nil, httpError(err)
	}
	return src, nil
}

// loadFile reads and decodes the SPC file named in the request path.
func (a *API) loadFile(c echo.Context) (*spc.File, error) {
	src, err := a.source(c)
	if err != nil {
		return nil, err
	}

	filePath := c.Param("*")
	data, err := src.ReadFile(c.Request().Context(), filePath, a.Cfg.MaxFileBytes)
	if err != nil {
		a.Logger.Info("read failed", zap.String("path", filePath), zap.Error(err))
		return nil, httpError(err)
	}

	f, err := spc.DecodeBytes(data)
	a.Metrics.ObserveDecode(f, len(data), err)
	if err != nil {
		a.Logger.Info("decode failed", zap.String("path", filePath), zap.Error(err))
		return nil, httpError(err)
	}
	if f.LogErr != nil {
		a.Logger.Debug("log block dropped", zap.String("path", filePath), zap.Error(f.LogErr))
	}
	return f, nil
}

// httpError maps datasource and decode errors onto response codes.
func httpError(err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, datasource.ErrNotFound), errors.Is(err, spc.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, datasource.ErrUnknownLocation):
		code = http.StatusBadRequest
	case errors.Is(err, datasource.ErrTooLarge):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, spc.ErrUnknownFormat), errors.Is(err, spc.ErrUnsupportedFormat):
		code = http.StatusUnsupportedMediaType
	case errors.Is(err, spc.ErrCorruptFile), errors.Is(err, spc.ErrHeuristicFailed):
		code = http.StatusUnprocessableEntity
	}
	return echo.NewHTTPError(code, err.Error())
}

func badRequest(format string, args ...interface{}) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}
