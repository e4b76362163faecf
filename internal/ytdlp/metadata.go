package ytdlp

// Metadata is the parsed form of a yt-dlp single-JSON dump (-J) for a URL.
// A dump either describes one piece of media (with its available formats), or
// a collection such as a playlist (with its entries).
type Metadata struct {
	Type      string   `json:"_type"`
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Uploader  string   `json:"uploader"`
	Thumbnail string   `json:"thumbnail"`
	Duration  float64  `json:"duration"`
	Formats   []Format `json:"formats"`
	Entries   []Entry  `json:"entries"`
}

// Format describes one of the encodings a single piece of media is
// available in.
type Format struct {
	ID             string  `json:"format_id"`
	Ext            string  `json:"ext"`
	ACodec         string  `json:"acodec"`
	VCodec         string  `json:"vcodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
	Height         int     `json:"height"`
	ABR            float64 `json:"abr"`
}

// Entry is a single item inside a collection dump. yt-dlp only populates a
// shallow summary for these.
type Entry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// IsCollection reports whether this dump describes a collection of items
// rather than a single piece of media.
func (m *Metadata) IsCollection() bool {
	return m.Type == "playlist" || len(m.Entries) > 0
}

// SizeBytes returns the best available size estimate for the format, or zero
// when yt-dlp reported neither an exact nor an approximate size.
func (f *Format) SizeBytes() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}

	return int64(f.FilesizeApprox)
}
