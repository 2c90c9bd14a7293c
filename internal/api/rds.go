package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spectriclabs/spc-data-service/internal/cache"
	"github.com/spectriclabs/spc-data-service/internal/image"
	"github.com/spectriclabs/spc-data-service/internal/numerical"
	"github.com/spectriclabs/spc-data-service/internal/spc"
	"go.uber.org/zap"
)

type rdsRequest struct {
	Outxsize  int     `query:"outxsize"`
	Outysize  int     `query:"outysize"`
	Transform string  `query:"transform"`
	ColorMap  string  `query:"colormap"`
	OutputFmt string  `query:"outfmt"`
	Zmin      float64 `query:"zmin"`
	Zmax      float64 `query:"zmax"`
}

// rasterMetaData describes a rendered raster. It is cached next to the
// raster and returned as response headers.
type rasterMetaData struct {
	Outxsize int     `json:"outxsize"`
	Outysize int     `json:"outysize"`
	Zmin     float64 `json:"zmin"`
	Zmax     float64 `json:"zmax"`
	Xmin     float64 `json:"xmin"`
	Xmax     float64 `json:"xmax"`
	Ymin     float64 `json:"ymin"`
	Ymax     float64 `json:"ymax"`
}

func (m rasterMetaData) headers() map[string]string {
	return map[string]string{
		"outxsize": strconv.Itoa(m.Outxsize),
		"outysize": strconv.Itoa(m.Outysize),
		"zmin":     fmt.Sprintf("%f", m.Zmin),
		"zmax":     fmt.Sprintf("%f", m.Zmax),
		"xmin":     fmt.Sprintf("%f", m.Xmin),
		"xmax":     fmt.Sprintf("%f", m.Xmax),
		"ymin":     fmt.Sprintf("%f", m.Ymin),
		"ymax":     fmt.Sprintf("%f", m.Ymax),
	}
}

// setMetaHeaders sets each header and exposes them to CORS clients.
func setMetaHeaders(c echo.Context, headers map[string]string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	h := c.Response().Header()
	h.Set(echo.HeaderAccessControlExposeHeaders, strings.Join(names, ","))
	for _, name := range names {
		h.Set(name, headers[name])
	}
}

func validOutputFormat(outfmt string) bool {
	for _, f := range image.OutputFormats {
		if f == outfmt {
			return true
		}
	}
	return false
}

// GetRDS renders every subfile of a file as one row of a raster, decimated
// to outxsize by outysize.
func (a *API) GetRDS(c echo.Context) error {
	req := rdsRequest{
		Transform: "mean",
		ColorMap:  image.DefaultColormap,
		OutputFmt: "RGBA",
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := validateTransform(req.Transform); err != nil {
		return err
	}
	if !validOutputFormat(req.OutputFmt) {
		return badRequest("outfmt must be one of %v, got %q", image.OutputFormats, req.OutputFmt)
	}
	if req.OutputFmt == "RGBA" {
		if _, err := image.GetColorControlPoints(req.ColorMap); err != nil {
			return badRequest("%v", err)
		}
	}

	start := time.Now()
	cacheFileName := cache.UrlToCacheFileName(c.Request().URL.String())

	// Check if request has been previously processed and is in cache.
	if a.Cfg.UseCache {
		data, dataErr := a.Cache.GetDataFromCache(cacheFileName, cache.OutputDir)
		meta, metaErr := a.Cache.GetDataFromCache(cacheFileName+"meta", cache.OutputDir)
		var fileMData rasterMetaData
		if dataErr == nil && metaErr == nil && json.Unmarshal(meta, &fileMData) == nil {
			a.Logger.Debug("rds served from cache", zap.String("cache_file", cacheFileName))
			setMetaHeaders(c, fileMData.headers())
			return c.Blob(http.StatusOK, "application/binary", data)
		}
	}

	f, err := a.loadFile(c)
	if err != nil {
		return err
	}
	data, fileMData, err := a.renderRaster(c, f, req)
	if err != nil {
		return err
	}

	if a.Cfg.UseCache {
		fileMDataJSON, marshalError := json.Marshal(fileMData)
		if marshalError != nil {
			return marshalError
		}
		if err := a.Cache.PutItemInCache(cacheFileName, cache.OutputDir, data); err != nil {
			a.Logger.Warn("could not cache raster", zap.String("cache_file", cacheFileName), zap.Error(err))
		} else if err := a.Cache.PutItemInCache(cacheFileName+"meta", cache.OutputDir, fileMDataJSON); err != nil {
			a.Logger.Warn("could not cache raster metadata", zap.String("cache_file", cacheFileName), zap.Error(err))
		}
	}

	a.Logger.Info("rds processed",
		zap.String("path", c.Param("*")),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	setMetaHeaders(c, fileMData.headers())
	return c.Blob(http.StatusOK, "application/binary", data)
}

func (a *API) renderRaster(c echo.Context, f *spc.File, req rdsRequest) ([]byte, rasterMetaData, error) {
	rows := make([][]float64, len(f.Subfiles))
	xs := make([][]float64, len(f.Subfiles))
	widest := 0
	for i, sub := range f.Subfiles {
		rows[i] = sub.Y
		xs[i] = subfileX(f, sub)
		if len(sub.Y) > widest {
			widest = len(sub.Y)
		}
	}

	if c.QueryParam("outxsize") == "" {
		req.Outxsize = widest
	}
	if c.QueryParam("outysize") == "" {
		req.Outysize = len(rows)
	}
	if err := validateOutputSize("outxsize", req.Outxsize); err != nil {
		return nil, rasterMetaData{}, err
	}
	if err := validateOutputSize("outysize", req.Outysize); err != nil {
		return nil, rasterMetaData{}, err
	}

	// Zmin and Zmax default to the data range when not given.
	zmin, zmax := numerical.Range(rows...)
	if c.QueryParam("zmin") != "" {
		zmin = req.Zmin
	}
	if c.QueryParam("zmax") != "" {
		zmax = req.Zmax
	}

	raster := image.Waterfall(rows, req.Outxsize, req.Outysize, req.Transform)
	data, err := image.CreateOutput(raster, req.OutputFmt, zmin, zmax, req.ColorMap)
	if err != nil {
		return nil, rasterMetaData{}, badRequest("%v", err)
	}

	meta := rasterMetaData{
		Outxsize: req.Outxsize,
		Outysize: req.Outysize,
		Zmin:     zmin,
		Zmax:     zmax,
	}
	meta.Xmin, meta.Xmax = numerical.Range(xs...)
	last := f.Subfiles[len(f.Subfiles)-1]
	meta.Ymin, meta.Ymax = float64(f.Subfiles[0].Time), float64(last.Time)
	return data, meta, nil
}
