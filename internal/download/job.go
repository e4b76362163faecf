package download

import (
	"fmt"

	"github.com/google/uuid"
)

type (
	// JobKind selects which fetch pipeline a job runs through.
	JobKind int

	// CollectionKind selects the per-item treatment for collection jobs.
	CollectionKind int

	// JobStatus tracks a job through its lifecycle. Transitions are monotonic
	// (Pending -> Processing -> Completed|Failed) and are performed only by
	// the worker.
	JobStatus int

	// Job is the unit of requested fetch work. Everything except Status,
	// ResultPath, ResultName and ErrorMessage is immutable after submission.
	Job struct {
		ID             uuid.UUID
		SourceURL      string
		Kind           JobKind
		FormatSelector string
		CollectionKind CollectionKind
		Status         JobStatus
		// ResultPath is the absolute path of the produced artifact. Set if
		// and only if Status is Completed.
		ResultPath string
		// ResultName is the client-facing file name for the artifact. The
		// on-disk name under ResultPath carries a uniqueness prefix to avoid
		// collisions between jobs producing identically named media.
		ResultName string
		// ErrorMessage is the classified failure message. Set if and only if
		// Status is Failed.
		ErrorMessage string
	}
)

const (
	KindVideo JobKind = iota
	KindAudio
	KindCollection
)

const (
	CollectionVideo CollectionKind = iota
	CollectionAudio
)

const (
	Pending JobStatus = iota
	Processing
	Completed
	Failed
)

func (k JobKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindCollection:
		return "collection"
	}

	return fmt.Sprintf("JobKind(%d)", int(k))
}

func (k CollectionKind) String() string {
	switch k {
	case CollectionVideo:
		return "video"
	case CollectionAudio:
		return "audio"
	}

	return fmt.Sprintf("CollectionKind(%d)", int(k))
}

func (s JobStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}

	return fmt.Sprintf("JobStatus(%d)", int(s))
}

func (job *Job) String() string {
	return fmt.Sprintf("Job{ID=%s Kind=%s Status=%s}", job.ID, job.Kind, job.Status)
}
