package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vidar-app/vidar/internal/api"
	"github.com/vidar-app/vidar/internal/download"
	"github.com/vidar-app/vidar/internal/event"
	"github.com/vidar-app/vidar/internal/ytdlp"
	"github.com/vidar-app/vidar/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	// DownloadService is the surface the core (and the API layer, via its own
	// narrower interfaces) relies on from the download service.
	DownloadService interface {
		RunnableService
		Submit(url string, kind download.JobKind, formatSelector string, collectionKind download.CollectionKind) (uuid.UUID, error)
		Status(id uuid.UUID) (download.Job, error)
		ClaimArtifact(id uuid.UUID) (*download.Artifact, error)
	}
)

// Vidar is the top-level object for the server, responsible for constructing
// the services, wiring them over the event bus, and running them until told
// to stop.
type vidarImpl struct {
	eventBus event.EventCoordinator
	config   VidarConfig

	downloadService DownloadService
	restGateway     RunnableService
}

func New(config VidarConfig) *vidarImpl {
	log.Emit(logger.DEBUG, "Bootstrapping Vidar services using config: %#v\n", config)
	vidar := &vidarImpl{
		eventBus: event.New(),
		config:   config,
	}

	fetcher := ytdlp.NewClient(config.Fetcher)

	if serv, err := download.New(config.Downloads, vidar.eventBus, fetcher); err == nil {
		vidar.downloadService = serv
	} else {
		panic(fmt.Sprintf("failed to construct download service due to error: %s", err.Error()))
	}

	vidar.restGateway = api.NewRestGateway(&config.API, vidar.downloadService, fetcher)
	vidar.registerActivityLogging()

	return vidar
}

// Run brings up the download worker and the REST gateway and blocks until
// the provided context is cancelled, or a service crashes.
func (vidar *vidarImpl) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel()
	}

	wg := &sync.WaitGroup{}
	vidar.spawnAsyncService(ctx, wg, vidar.downloadService, "download-service", crashHandler)
	vidar.spawnAsyncService(ctx, wg, vidar.restGateway, "rest-gateway", crashHandler)
	log.Emit(logger.SUCCESS, "Vidar services spawned!\n")

	wg.Wait()
	return nil
}

// registerActivityLogging subscribes the core to the download lifecycle so
// job activity is visible in one place regardless of which component drove
// the change.
func (vidar *vidarImpl) registerActivityLogging() {
	vidar.eventBus.RegisterHandlerFunction(event.JobComplete, func(_ event.Event, payload event.Payload) {
		id, ok := payload.(uuid.UUID)
		if !ok {
			return
		}

		job, err := vidar.downloadService.Status(id)
		if err != nil {
			return
		}

		switch job.Status {
		case download.Completed:
			log.Infof("Job %s concluded: completed\n", id)
		case download.Failed:
			log.Infof("Job %s concluded: failed (%s)\n", id, job.ErrorMessage)
		default:
		}
	})
}

// spawnAsyncService runs the provided service in its own goroutine, keeping
// the waitgroup updated and routing panics and errors to the crash handler.
func (vidar *vidarImpl) spawnAsyncService(ctx context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		defer wg.Done()
		if err := service.Run(ctx); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}
