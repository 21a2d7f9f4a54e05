package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/server/service/finder"
	"github.com/hrygo/finder/store"
)

const reservedSettingPrefix = "system."

type settingBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetSetting reads a setting.
// GET /api/v1/settings/:key
func (s *APIV1Service) GetSetting(c echo.Context) error {
	key := c.Param("key")
	value, ok, err := s.Settings.Get(c.Request().Context(), key)
	if err != nil {
		return apierrors.Internal("failed to get setting", err)
	}
	if !ok {
		return apierrors.NotFound("setting " + key + " not found")
	}
	return c.JSON(http.StatusOK, settingBody{Key: key, Value: value})
}

// SetSetting writes a setting.
// PUT /api/v1/settings/:key
func (s *APIV1Service) SetSetting(c echo.Context) error {
	key, err := writableKey(c)
	if err != nil {
		return err
	}
	var body settingBody
	if err := c.Bind(&body); err != nil {
		return apierrors.InvalidArgument("invalid setting")
	}
	if key == store.SettingDefaultSort && !finder.IsValidSort(body.Value) {
		return apierrors.InvalidArgument("invalid sort " + body.Value)
	}
	if err := s.Settings.Set(c.Request().Context(), key, body.Value); err != nil {
		return apierrors.Internal("failed to save setting", err)
	}
	return c.JSON(http.StatusOK, settingBody{Key: key, Value: body.Value})
}

// DeleteSetting removes a setting.
// DELETE /api/v1/settings/:key
func (s *APIV1Service) DeleteSetting(c echo.Context) error {
	key, err := writableKey(c)
	if err != nil {
		return err
	}
	if err := s.Settings.Remove(c.Request().Context(), key); err != nil {
		return apierrors.Internal("failed to delete setting", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func writableKey(c echo.Context) (string, error) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		return "", apierrors.InvalidArgument("setting key is required")
	}
	if strings.HasPrefix(key, reservedSettingPrefix) {
		return "", apierrors.InvalidArgument("setting " + key + " is read-only")
	}
	return key, nil
}
