// Package download implements Vidar's asynchronous fetch jobs: admission,
// the single-consumer work queue, the background worker pipeline that drives
// the external fetch capability, and exactly-once artifact retrieval.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/vidar-app/vidar/internal/event"
	"github.com/vidar-app/vidar/internal/ytdlp"
	"github.com/vidar-app/vidar/pkg/logger"
)

var (
	log = logger.Get("DownloadServ")

	ErrMissingSourceURL = errors.New("source url is required")
	ErrJobNotFound      = errors.New("no job could be found")
)

type (
	// MediaFetcher is the external capability this service drives. Given a
	// URL, options, and a target directory it writes one or more files into
	// that directory. Invocations can take seconds to minutes and fail for
	// many source-specific reasons, reported as classified *ytdlp.Error.
	MediaFetcher interface {
		Fetch(ctx context.Context, url string, opts ytdlp.FetchOptions, targetDir string) error
	}

	Config struct {
		// StorageRoot holds every job's scratch directory and the completed
		// artifacts awaiting retrieval. Defaults under the user's home dir.
		StorageRoot string `yaml:"storage_root" env:"DOWNLOAD_STORAGE_ROOT"`
	}

	// downloadService owns the job store and queue, and runs the single
	// worker loop which processes jobs strictly one at a time in submission
	// order.
	downloadService struct {
		config   Config
		eventBus event.EventCoordinator
		fetcher  MediaFetcher
		store    *Store
		queue    *Queue
	}
)

// New creates the download service, deriving and creating the storage root if
// required. An error is returned when the root cannot be established, or when
// the path exists but is not a directory.
func New(config Config, eventBus event.EventCoordinator, fetcher MediaFetcher) (*downloadService, error) {
	if config.StorageRoot == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to derive default storage root: %w", err)
		}

		config.StorageRoot = filepath.Join(home, "Downloads", "vidar")
	}

	if info, err := os.Stat(config.StorageRoot); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("storage root '%s' is not a directory", config.StorageRoot)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(config.StorageRoot, os.ModeDir|os.ModePerm); err != nil {
			return nil, fmt.Errorf("storage root '%s' could not be created: %w", config.StorageRoot, err)
		}
	} else {
		return nil, fmt.Errorf("storage root '%s' could not be accessed: %w", config.StorageRoot, err)
	}

	return &downloadService{
		config:   config,
		eventBus: eventBus,
		fetcher:  fetcher,
		store:    NewStore(),
		queue:    NewQueue(),
	}, nil
}

// Run is the worker loop. Jobs are dequeued and executed one at a time; no
// pipeline failure ever terminates the loop. This method blocks until the
// provided context is cancelled.
func (service *downloadService) Run(ctx context.Context) error {
	log.Emit(logger.NEW, "Download worker started (storage root '%s')\n", service.config.StorageRoot)

	for {
		id, ok := service.queue.Dequeue(ctx)
		if !ok {
			log.Emit(logger.STOP, "Download worker shutting down (context cancelled)\n")
			return nil
		}

		service.processJob(ctx, id)
		log.Debugf("Job %s acknowledged, queue depth now %d\n", id, service.queue.Depth())
	}
}

// Submit validates the request, stores a pending job and enqueues its ID. The
// returned ID can immediately be used with Status.
func (service *downloadService) Submit(url string, kind JobKind, formatSelector string, collectionKind CollectionKind) (uuid.UUID, error) {
	if strings.TrimSpace(url) == "" {
		return uuid.Nil, ErrMissingSourceURL
	}

	job := &Job{
		ID:             uuid.New(),
		SourceURL:      url,
		Kind:           kind,
		FormatSelector: formatSelector,
		CollectionKind: collectionKind,
		Status:         Pending,
	}

	service.store.Put(job)
	service.queue.Enqueue(job.ID)

	log.Emit(logger.NEW, "Accepted %s for '%s'\n", job, url)
	service.eventBus.Dispatch(event.JobUpdate, job.ID)

	return job.ID, nil
}

// Status returns a snapshot of the job with the given ID, or ErrJobNotFound.
func (service *downloadService) Status(id uuid.UUID) (Job, error) {
	job, ok := service.store.Get(id)
	if !ok {
		return Job{}, ErrJobNotFound
	}

	return job, nil
}

// ClaimArtifact atomically consumes a completed job and hands its artifact to
// the caller. Exactly one claim per job ever succeeds; claims against
// unknown, pending, processing or failed jobs return ErrJobNotFound without
// mutating anything. The caller MUST call Release on the returned artifact
// once the bytes have been sent (or sending has failed) - release disposes of
// the backing file and is safe to invoke only once per claim by construction.
func (service *downloadService) ClaimArtifact(id uuid.UUID) (*Artifact, error) {
	job, ok := service.store.ClaimCompleted(id)
	if !ok {
		return nil, ErrJobNotFound
	}

	log.Emit(logger.REMOVE, "Artifact for job %s claimed, record dropped\n", id)
	return newArtifact(id, job.ResultPath, job.ResultName), nil
}

// processJob runs one job through the fetch pipeline and records the outcome
// on the job record. Every pipeline error is caught here, classified, and
// translated into the job's failed state; the worker loop always proceeds.
func (service *downloadService) processJob(ctx context.Context, id uuid.UUID) {
	job, ok := service.store.Get(id)
	if !ok {
		log.Errorf("Dequeued job %s is missing from the store, skipping\n", id)
		return
	}

	service.store.Update(id, func(j *Job) { j.Status = Processing })
	service.eventBus.Dispatch(event.JobUpdate, id)
	log.Infof("Processing %s\n", &job)

	resultPath, resultName, err := service.runPipeline(ctx, &job)
	if err != nil {
		message := classifyFailure(err)
		service.store.Update(id, func(j *Job) {
			j.Status = Failed
			j.ErrorMessage = message
		})

		log.Warnf("Job %s failed: %s (classified as %q)\n", id, err, message)
	} else {
		service.store.Update(id, func(j *Job) {
			j.Status = Completed
			j.ResultPath = resultPath
			j.ResultName = resultName
		})

		log.Emit(logger.SUCCESS, "Job %s completed, artifact staged at '%s'\n", id, resultPath)
	}

	service.eventBus.Dispatch(event.JobComplete, id)
}

// runPipeline stages the job inside a fresh scratch directory and promotes
// the produced artifact into the storage root. On any failure the scratch
// directory is removed before the error is returned.
func (service *downloadService) runPipeline(ctx context.Context, job *Job) (resultPath string, resultName string, err error) {
	scratchDir, err := os.MkdirTemp(service.config.StorageRoot, "job-*")
	if err != nil {
		return "", "", fmt.Errorf("failed to allocate scratch directory: %w", err)
	}

	if job.Kind == KindCollection {
		resultPath, resultName, err = service.fetchCollection(ctx, job, scratchDir)
	} else {
		resultPath, resultName, err = service.fetchSingle(ctx, job, scratchDir)
	}

	if err != nil {
		if removeErr := os.RemoveAll(scratchDir); removeErr != nil {
			log.Warnf("Failed to remove scratch directory '%s': %s\n", scratchDir, removeErr)
		}

		return "", "", err
	}

	return resultPath, resultName, nil
}

// fetchSingle downloads one item into the scratch directory and moves the
// produced file into the storage root under a collision-free name.
func (service *downloadService) fetchSingle(ctx context.Context, job *Job, scratchDir string) (string, string, error) {
	opts := ytdlp.FetchOptions{
		OutputTemplate: ytdlp.SingleItemTemplate,
		NoPlaylist:     true,
	}

	if job.Kind == KindAudio {
		opts.Format = ytdlp.DefaultAudioFormat
		opts.ExtractAudio = true
		opts.AudioFormat = ytdlp.AudioCodec
		opts.AudioQuality = ytdlp.AudioQuality
	} else {
		opts.Format = ytdlp.DefaultVideoFormat
		opts.MergeContainer = ytdlp.MergedContainer
		if job.FormatSelector != "" {
			opts.Format = job.FormatSelector
		}
	}

	if err := service.fetcher.Fetch(ctx, job.SourceURL, opts, scratchDir); err != nil {
		return "", "", err
	}

	produced, err := visibleFiles(scratchDir)
	if err != nil {
		return "", "", fmt.Errorf("failed to inspect scratch directory: %w", err)
	}
	if len(produced) == 0 {
		return "", "", ytdlp.NewError(ytdlp.CodeEmptyResult, "no file produced")
	}

	// The produced name derives from the media's own id, so two jobs for the
	// same source would contend on a flat destination. Prefix with the
	// scratch dir's unique name to keep artifacts collision-free.
	resultName := produced[0]
	resultPath := filepath.Join(service.config.StorageRoot, fmt.Sprintf("%s-%s", filepath.Base(scratchDir), resultName))
	if err := moveFile(filepath.Join(scratchDir, resultName), resultPath); err != nil {
		return "", "", fmt.Errorf("failed to promote artifact out of scratch directory: %w", err)
	}

	if err := os.RemoveAll(scratchDir); err != nil {
		log.Warnf("Failed to remove scratch directory '%s': %s\n", scratchDir, err)
	}

	return resultPath, resultName, nil
}

// fetchCollection downloads every item of a collection into the scratch
// directory and packages the result into a single archive in the storage
// root. Individual item failures never fail the job: the fetch error is
// tolerated as long as at least one item was produced.
func (service *downloadService) fetchCollection(ctx context.Context, job *Job, scratchDir string) (string, string, error) {
	opts := ytdlp.FetchOptions{
		OutputTemplate:   ytdlp.CollectionTemplate,
		IgnoreItemErrors: true,
	}

	if job.CollectionKind == CollectionAudio {
		opts.Format = ytdlp.DefaultAudioFormat
		opts.ExtractAudio = true
		opts.AudioFormat = ytdlp.AudioCodec
		opts.AudioQuality = ytdlp.AudioQuality
	} else {
		opts.Format = ytdlp.DefaultVideoFormat
		opts.MergeContainer = ytdlp.MergedContainer
	}

	fetchErr := service.fetcher.Fetch(ctx, job.SourceURL, opts, scratchDir)

	produced, err := visibleFiles(scratchDir)
	if err != nil {
		return "", "", fmt.Errorf("failed to inspect scratch directory: %w", err)
	}
	if len(produced) == 0 {
		if fetchErr != nil {
			return "", "", fetchErr
		}

		return "", "", ytdlp.NewError(ytdlp.CodeEmptyResult, "no file produced")
	}
	if fetchErr != nil {
		log.Warnf("Job %s: some collection items failed (%s), continuing with %d item(s)\n", job.ID, fetchErr, len(produced))
	}

	resultName := fmt.Sprintf("collection-%s.zip", filepath.Base(scratchDir))
	resultPath := filepath.Join(service.config.StorageRoot, resultName)
	if err := archiveDirectory(resultPath, scratchDir); err != nil {
		os.Remove(resultPath)
		return "", "", fmt.Errorf("failed to package collection archive: %w", err)
	}

	if err := os.RemoveAll(scratchDir); err != nil {
		log.Warnf("Failed to remove scratch directory '%s': %s\n", scratchDir, err)
	}

	return resultPath, resultName, nil
}

// classifyFailure is the single translation point from pipeline errors to the
// message recorded on a failed job. Fetch errors arrive pre-classified;
// anything else (scratch allocation, promotion, archiving) passes through the
// classifier so clients never see raw internal errors.
func classifyFailure(err error) string {
	var classified *ytdlp.Error
	if errors.As(err, &classified) {
		return classified.Error()
	}

	return ytdlp.Classify(err.Error()).Error()
}
