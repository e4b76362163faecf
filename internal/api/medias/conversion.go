package medias

import "github.com/vidar-app/vidar/internal/ytdlp"

// maxSampleEntries caps the number of collection entries included in an info
// response; clients only need a preview, not the full listing.
const maxSampleEntries = 10

type (
	formatDto struct {
		ID           string `json:"id"`
		Container    string `json:"container"`
		AudioCodec   string `json:"audioCodec"`
		VideoCodec   string `json:"videoCodec"`
		SizeBytes    int64  `json:"sizeBytes,omitempty"`
		Height       int    `json:"height,omitempty"`
		AudioBitrate int    `json:"audioBitrate,omitempty"`
	}

	mediaDto struct {
		Type      string      `json:"type"`
		ID        string      `json:"id"`
		Title     string      `json:"title"`
		Uploader  string      `json:"uploader"`
		Thumbnail string      `json:"thumbnail"`
		Formats   []formatDto `json:"formats"`
	}

	entryDto struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Duration  int    `json:"duration,omitempty"`
		Thumbnail string `json:"thumbnail,omitempty"`
	}

	collectionDto struct {
		Type       string     `json:"type"`
		ID         string     `json:"id"`
		Title      string     `json:"title"`
		Uploader   string     `json:"uploader"`
		Thumbnail  string     `json:"thumbnail"`
		TotalItems int        `json:"totalItems"`
		Entries    []entryDto `json:"entries"`
	}
)

func newMediaDto(metadata *ytdlp.Metadata) mediaDto {
	formats := make([]formatDto, 0, len(metadata.Formats))
	for _, format := range metadata.Formats {
		formats = append(formats, formatDto{
			ID:           format.ID,
			Container:    format.Ext,
			AudioCodec:   format.ACodec,
			VideoCodec:   format.VCodec,
			SizeBytes:    format.SizeBytes(),
			Height:       format.Height,
			AudioBitrate: int(format.ABR),
		})
	}

	return mediaDto{
		Type:      "media",
		ID:        metadata.ID,
		Title:     metadata.Title,
		Uploader:  metadata.Uploader,
		Thumbnail: metadata.Thumbnail,
		Formats:   formats,
	}
}

func newCollectionDto(metadata *ytdlp.Metadata) collectionDto {
	entries := make([]entryDto, 0, maxSampleEntries)
	for _, entry := range metadata.Entries {
		if len(entries) == maxSampleEntries {
			break
		}
		if entry.ID == "" && entry.Title == "" {
			continue
		}

		entries = append(entries, entryDto{
			ID:        entry.ID,
			Title:     entry.Title,
			Duration:  int(entry.Duration),
			Thumbnail: entry.Thumbnail,
		})
	}

	return collectionDto{
		Type:       "collection",
		ID:         metadata.ID,
		Title:      metadata.Title,
		Uploader:   metadata.Uploader,
		Thumbnail:  metadata.Thumbnail,
		TotalItems: len(metadata.Entries),
		Entries:    entries,
	}
}
