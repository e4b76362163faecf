package downloads

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/vidar-app/vidar/internal/download"
)

type (
	// Service is the download service surface this controller delegates to.
	Service interface {
		Submit(url string, kind download.JobKind, formatSelector string, collectionKind download.CollectionKind) (uuid.UUID, error)
		Status(id uuid.UUID) (download.Job, error)
		ClaimArtifact(id uuid.UUID) (*download.Artifact, error)
	}

	// DownloadsController defines the routes for submitting fetch jobs,
	// polling their status and retrieving their artifact.
	DownloadsController struct {
		service  Service
		validate *validator.Validate
	}

	createRequest struct {
		URL            string `json:"url" validate:"required"`
		Mode           string `json:"mode" validate:"omitempty,oneof=video audio collection"`
		FormatID       string `json:"formatId"`
		CollectionMode string `json:"collectionMode" validate:"omitempty,oneof=video audio"`
	}

	createResponse struct {
		JobID uuid.UUID `json:"jobId"`
	}

	statusResponse struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"errorMessage,omitempty"`
	}
)

func New(service Service) *DownloadsController {
	return &DownloadsController{service: service, validate: validator.New()}
}

func (controller *DownloadsController) SetRoutes(eg *echo.Group) {
	eg.POST("", controller.create)
	eg.GET("/:id/status", controller.status)
	eg.GET("/:id/file", controller.file)
}

// create admits a new fetch job. The job ID is returned immediately; the
// fetch itself happens out-of-band.
func (controller *DownloadsController) create(ec echo.Context) error {
	var request createRequest
	if err := ec.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := controller.validate.Struct(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing url")
	}

	kind, collectionKind := modeToKind(request.Mode, request.CollectionMode)
	jobID, err := controller.service.Submit(request.URL, kind, request.FormatID, collectionKind)
	if err != nil {
		if errors.Is(err, download.ErrMissingSourceURL) {
			return echo.NewHTTPError(http.StatusBadRequest, "missing url")
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.JSON(http.StatusOK, createResponse{JobID: jobID})
}

// status reports the lifecycle state of a job. Pure read, no mutation.
func (controller *DownloadsController) status(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.ErrNotFound
	}

	job, err := controller.service.Status(id)
	if err != nil {
		return echo.ErrNotFound
	}

	return ec.JSON(http.StatusOK, statusResponse{
		Status:       job.Status.String(),
		ErrorMessage: job.ErrorMessage,
	})
}

// file streams a completed job's artifact as an attachment. The claim is
// atomic: once this handler has obtained the artifact no other caller can,
// and the job record plus backing file are disposed of when the send
// finishes, whether or not it succeeded.
func (controller *DownloadsController) file(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.ErrNotFound
	}

	artifact, err := controller.service.ClaimArtifact(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "file not available")
	}
	defer artifact.Release()

	return ec.Attachment(artifact.Path, artifact.Name)
}
