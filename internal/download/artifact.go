package download

import (
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/vidar-app/vidar/pkg/logger"
)

// Artifact is the one-shot handle on a claimed job's deliverable. By the time
// an Artifact exists the job record is already gone from the store; the
// backing file lives until Release is called.
type Artifact struct {
	// Path is the absolute location of the artifact's bytes.
	Path string
	// Name is the client-facing file name, free of the on-disk uniqueness
	// prefix.
	Name string

	jobID   uuid.UUID
	release sync.Once
}

func newArtifact(jobID uuid.UUID, path string, name string) *Artifact {
	return &Artifact{Path: path, Name: name, jobID: jobID}
}

// Release disposes of the backing file. It must run after every claim, on
// success and on transport failure alike, and is guaranteed to act only once.
func (artifact *Artifact) Release() {
	artifact.release.Do(func() {
		if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
			log.Errorf("Failed to remove artifact '%s' for job %s: %s\n", artifact.Path, artifact.jobID, err)
			return
		}

		log.Emit(logger.REMOVE, "Artifact '%s' for job %s disposed\n", artifact.Path, artifact.jobID)
	})
}
