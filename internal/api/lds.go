package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spectriclabs/spc-data-service/internal/numerical"
	"go.uber.org/zap"
)

// maxOutputSize bounds each output dimension of lds and rds requests.
const maxOutputSize = 8192

type ldsRequest struct {
	Subfile   int    `query:"subfile"`
	Outxsize  int    `query:"outxsize"`
	Transform string `query:"transform"`
}

type lineResponse struct {
	Subfile   int       `json:"subfile"`
	Transform string    `json:"transform"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
}

func validateTransform(transform string) error {
	if !numerical.ValidTransform(transform) {
		return badRequest("transform must be one of %v, got %q", numerical.Transforms, transform)
	}
	return nil
}

func validateOutputSize(name string, size int) error {
	if size < 1 || size > maxOutputSize {
		return badRequest("%s must be between 1 and %d, got %d", name, maxOutputSize, size)
	}
	return nil
}

// GetLDS decimates one subfile to outxsize points for line plots. x is
// averaged over each output bin; y uses the requested transform.
func (a *API) GetLDS(c echo.Context) error {
	req := ldsRequest{Transform: "mean"}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := validateTransform(req.Transform); err != nil {
		return err
	}

	f, err := a.loadFile(c)
	if err != nil {
		return err
	}
	if req.Subfile < 0 || req.Subfile >= len(f.Subfiles) {
		return badRequest("subfile %d out of range, file has %d", req.Subfile, len(f.Subfiles))
	}
	sub := f.Subfiles[req.Subfile]

	if c.QueryParam("outxsize") == "" {
		req.Outxsize = len(sub.Y)
	}
	if err := validateOutputSize("outxsize", req.Outxsize); err != nil {
		return err
	}

	x := subfileX(f, sub)
	if len(x) > len(sub.Y) {
		x = x[:len(sub.Y)]
	}
	out := lineResponse{
		Subfile:   req.Subfile,
		Transform: req.Transform,
		X:         numerical.DownSample(x, req.Outxsize, "mean"),
		Y:         numerical.DownSample(sub.Y, req.Outxsize, req.Transform),
	}
	a.Logger.Debug("lds",
		zap.String("path", c.Param("*")),
		zap.Int("points", len(sub.Y)),
		zap.Int("outxsize", req.Outxsize),
	)

	xmin, xmax := numerical.Range(x)
	ymin, ymax := numerical.Range(sub.Y)
	setMetaHeaders(c, map[string]string{
		"outxsize": fmt.Sprint(req.Outxsize),
		"xmin":     fmt.Sprintf("%f", xmin),
		"xmax":     fmt.Sprintf("%f", xmax),
		"ymin":     fmt.Sprintf("%f", ymin),
		"ymax":     fmt.Sprintf("%f", ymax),
	})
	return c.JSON(http.StatusOK, out)
}
