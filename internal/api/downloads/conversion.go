package downloads

import "github.com/vidar-app/vidar/internal/download"

// modeToKind maps the request's mode strings on to the download model. An
// absent mode means a plain video download; an absent collection mode means
// the collection's items keep their video streams.
func modeToKind(mode string, collectionMode string) (download.JobKind, download.CollectionKind) {
	kind := download.KindVideo
	switch mode {
	case "audio":
		kind = download.KindAudio
	case "collection":
		kind = download.KindCollection
	}

	collectionKind := download.CollectionVideo
	if collectionMode == "audio" {
		collectionKind = download.CollectionAudio
	}

	return kind, collectionKind
}
