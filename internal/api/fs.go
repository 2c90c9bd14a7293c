package api

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spectriclabs/spc-data-service/internal/datasource"
	"go.uber.org/zap"
)

func (a *API) GetFileLocations(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Cfg.LocationDetails)
}

// GetFileOrDirectory lists a directory or returns the raw bytes of a file.
func (a *API) GetFileOrDirectory(c echo.Context) error {
	src, err := a.source(c)
	if err != nil {
		return err
	}

	filePath := c.Param("*")
	ctx := c.Request().Context()
	entry, err := src.Stat(ctx, filePath)
	if err != nil {
		return httpError(err)
	}

	if entry.Type == datasource.TypeDirectory {
		a.Logger.Debug("path is a directory; returning listing", zap.String("path", filePath))
		entries, err := src.List(ctx, filePath)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, entries)
	}

	a.Logger.Debug("path is a file; returning contents in raw mode", zap.String("path", filePath))
	data, err := src.ReadFile(ctx, filePath, a.Cfg.MaxFileBytes)
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, contentType(filePath), data)
}

func contentType(filePath string) string {
	if strings.EqualFold(path.Ext(filePath), ".spc") {
		return "application/spc"
	}
	return "application/binary"
}
