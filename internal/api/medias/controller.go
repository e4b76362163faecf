package medias

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/vidar-app/vidar/internal/ytdlp"
)

type (
	// Prober resolves metadata for a URL without downloading anything.
	Prober interface {
		Probe(ctx context.Context, url string) (*ytdlp.Metadata, error)
	}

	// MediasController serves metadata lookups so clients can classify a URL
	// (single media vs collection) and inspect available formats before
	// submitting a download.
	MediasController struct {
		prober   Prober
		validate *validator.Validate
	}

	infoRequest struct {
		URL string `json:"url" validate:"required"`
	}
)

func New(prober Prober) *MediasController {
	return &MediasController{prober: prober, validate: validator.New()}
}

func (controller *MediasController) SetRoutes(eg *echo.Group) {
	eg.POST("/info", controller.info)
}

// info probes the URL and returns either a media summary with its formats, or
// a collection summary with a capped sample of entries. Probe failures reach
// the client as their classified message only.
func (controller *MediasController) info(ec echo.Context) error {
	var request infoRequest
	if err := ec.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := controller.validate.Struct(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing url")
	}

	metadata, err := controller.prober.Probe(ec.Request().Context(), request.URL)
	if err != nil {
		var classified *ytdlp.Error
		if errors.As(err, &classified) {
			return echo.NewHTTPError(http.StatusBadRequest, classified.Error())
		}

		return echo.NewHTTPError(http.StatusBadRequest, ytdlp.CodeUnclassified.Message())
	}

	if metadata.IsCollection() {
		return ec.JSON(http.StatusOK, newCollectionDto(metadata))
	}

	return ec.JSON(http.StatusOK, newMediaDto(metadata))
}
