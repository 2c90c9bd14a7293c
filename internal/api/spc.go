package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spectriclabs/spc-data-service/internal/cache"
	"github.com/spectriclabs/spc-data-service/internal/numerical"
	"github.com/spectriclabs/spc-data-service/internal/spc"
	"go.uber.org/zap"
)

var newlines = map[string]string{
	"lf":   "\n",
	"crlf": "\r\n",
	"cr":   "\r",
}

type headerSummary struct {
	Variant  string         `json:"variant"`
	Flags    spc.Flags      `json:"flags"`
	Layout   string         `json:"layout"`
	Labels   spc.AxisLabels `json:"labels"`
	Header   spc.Header     `json:"header"`
	Subfiles int            `json:"subfiles"`
	Spacing  *float64       `json:"spacing,omitempty"`
	HasLog   bool           `json:"has_log"`
	LogError string         `json:"log_error,omitempty"`
}

type traces struct {
	Variant  string         `json:"variant"`
	Layout   string         `json:"layout"`
	Labels   spc.AxisLabels `json:"labels"`
	X        []float64      `json:"x,omitempty"`
	Subfiles []spc.Subfile  `json:"subfiles"`
}

type logResponse struct {
	Present bool              `json:"present"`
	Error   string            `json:"error,omitempty"`
	Keys    []string          `json:"keys"`
	Dict    map[string]string `json:"dict"`
	Lines   []string          `json:"lines"`
	Other   []string          `json:"other"`
}

type subfileStats struct {
	Index int `json:"index"`
	numerical.Summary
}

// subfileX returns the x values that pair with sub.
func subfileX(f *spc.File, sub spc.Subfile) []float64 {
	if _, ok := f.Layout.(spc.PerSubfile); ok {
		return sub.X
	}
	return f.X()
}

// subfileParam reads the optional "subfile" query parameter. It returns -1
// when the parameter is absent.
func subfileParam(c echo.Context, f *spc.File) (int, error) {
	index := -1
	if err := echo.QueryParamsBinder(c).Int("subfile", &index).BindError(); err != nil {
		return 0, badRequest("subfile must be an integer, got %q", c.QueryParam("subfile"))
	}
	if c.QueryParam("subfile") == "" {
		return -1, nil
	}
	if index < 0 || index >= len(f.Subfiles) {
		return 0, badRequest("subfile %d out of range, file has %d", index, len(f.Subfiles))
	}
	return index, nil
}

func (a *API) GetHeader(c echo.Context) error {
	f, err := a.loadFile(c)
	if err != nil {
		return err
	}

	summary := headerSummary{
		Variant:  f.Variant.String(),
		Flags:    f.Flags,
		Layout:   f.Layout.Kind(),
		Labels:   f.Labels,
		Header:   f.Header,
		Subfiles: len(f.Subfiles),
		HasLog:   f.Log != nil,
	}
	if spacing, ok := f.Spacing(); ok {
		summary.Spacing = &spacing
	}
	if f.LogErr != nil {
		summary.LogError = f.LogErr.Error()
	}
	return c.JSON(http.StatusOK, summary)
}

// GetSPC returns the decoded traces, or only the one selected by the
// "subfile" query parameter.
func (a *API) GetSPC(c echo.Context) error {
	f, err := a.loadFile(c)
	if err != nil {
		return err
	}
	index, err := subfileParam(c, f)
	if err != nil {
		return err
	}

	out := traces{
		Variant:  f.Variant.String(),
		Layout:   f.Layout.Kind(),
		Labels:   f.Labels,
		X:        f.X(),
		Subfiles: f.Subfiles,
	}
	if index >= 0 {
		out.Subfiles = f.Subfiles[index : index+1]
	}
	return c.JSON(http.StatusOK, out)
}

// GetText renders the file as delimited rows. Rendered text is cached by
// request URL when the cache is enabled.
func (a *API) GetText(c echo.Context) error {
	delim := "\t"
	newlineName := "lf"
	echo.QueryParamsBinder(c).
		String("delim", &delim).
		String("newline", &newlineName)
	newline, ok := newlines[newlineName]
	if !ok {
		return badRequest("newline must be one of lf, crlf or cr, got %q", newlineName)
	}

	cacheFileName := cache.UrlToCacheFileName(c.Request().URL.String())
	if a.Cfg.UseCache {
		if data, err := a.Cache.GetDataFromCache(cacheFileName, cache.OutputDir); err == nil {
			a.Logger.Debug("text served from cache", zap.String("cache_file", cacheFileName))
			return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, data)
		}
	}

	f, err := a.loadFile(c)
	if err != nil {
		return err
	}
	text, err := f.Text(delim, newline)
	if err != nil {
		return httpError(err)
	}

	if a.Cfg.UseCache {
		if err := a.Cache.PutItemInCache(cacheFileName, cache.OutputDir, []byte(text)); err != nil {
			a.Logger.Warn("could not cache text", zap.String("cache_file", cacheFileName), zap.Error(err))
		}
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(text))
}

// GetLog returns the instrument log text. A file without a log block, or
// with one that could not be parsed, answers with present set to false.
func (a *API) GetLog(c echo.Context) error {
	f, err := a.loadFile(c)
	if err != nil {
		return err
	}

	out := logResponse{
		Keys:  []string{},
		Dict:  map[string]string{},
		Lines: []string{},
		Other: []string{},
	}
	if f.LogErr != nil {
		out.Error = f.LogErr.Error()
	}
	if f.Log != nil {
		out.Present = true
		out.Keys = f.Log.Keys()
		out.Dict = f.Log.Dict()
		out.Lines = f.Log.Lines
		out.Other = f.Log.Other
	}
	return c.JSON(http.StatusOK, out)
}

// GetStats summarises every subfile, or the one selected by "subfile".
func (a *API) GetStats(c echo.Context) error {
	f, err := a.loadFile(c)
	if err != nil {
		return err
	}
	index, err := subfileParam(c, f)
	if err != nil {
		return err
	}

	first, subs := 0, f.Subfiles
	if index >= 0 {
		first, subs = index, subs[index:index+1]
	}
	stats := make([]subfileStats, len(subs))
	for i, sub := range subs {
		stats[i] = subfileStats{
			Index:   first + i,
			Summary: numerical.Summarize(subfileX(f, sub), sub.Y),
		}
	}
	return c.JSON(http.StatusOK, stats)
}
