// Package ytdlp wraps the external yt-dlp binary, which Vidar relies on for
// both metadata resolution and the actual download/transcode of media. The
// binary is treated as a black box: invocations can take seconds to minutes,
// and every failure is funnelled through the classifier in error.go before it
// reaches a caller.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/vidar-app/vidar/pkg/logger"
)

var log = logger.Get("YtDlp")

// Defaults mirroring the selection rules the fetch pipeline applies when the
// caller expressed no preference of its own.
const (
	// DefaultVideoFormat prefers separately-best mp4 video and m4a audio
	// merged together, falling back to the single best combined stream when
	// that combination is unavailable.
	DefaultVideoFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best"
	DefaultAudioFormat = "bestaudio/best"

	MergedContainer = "mp4"
	AudioCodec      = "mp3"
	AudioQuality    = "192K"

	// SingleItemTemplate names a single download by its item id.
	SingleItemTemplate = "%(id)s.%(ext)s"
	// CollectionTemplate names collection downloads by ordinal and title.
	CollectionTemplate = "%(playlist_index)03d - %(title)s.%(ext)s"
)

type Config struct {
	// BinaryPath is the yt-dlp executable; resolved against PATH when bare.
	BinaryPath string `yaml:"binary_path" env:"YTDLP_BINARY_PATH" env-default:"yt-dlp"`
	// FfmpegLocation optionally points yt-dlp at a directory containing the
	// ffmpeg/ffprobe binaries used for merging and audio extraction.
	FfmpegLocation string `yaml:"ffmpeg_location" env:"YTDLP_FFMPEG_LOCATION"`
	// CookiesPath optionally supplies a Netscape-format cookies file for
	// sources that require authentication.
	CookiesPath string `yaml:"cookies_path" env:"YTDLP_COOKIES_PATH"`
}

// FetchOptions controls a single Fetch invocation. The zero value is not
// useful; callers are expected to populate at least Format and OutputTemplate.
type FetchOptions struct {
	// Format is the yt-dlp format selection expression.
	Format string
	// OutputTemplate is the yt-dlp output template, relative to the target
	// directory of the fetch.
	OutputTemplate string
	// ExtractAudio post-processes the download into an audio file of
	// AudioFormat at AudioQuality.
	ExtractAudio bool
	AudioFormat  string
	AudioQuality string
	// MergeContainer merges separate video+audio streams into this container.
	MergeContainer string
	// NoPlaylist restricts the fetch to the single item a URL refers to, even
	// when the URL also identifies a collection.
	NoPlaylist bool
	// IgnoreItemErrors carries on with the remaining items of a collection
	// when an individual item fails.
	IgnoreItemErrors bool
}

// Client drives the yt-dlp binary.
type Client struct {
	config Config
}

func NewClient(config Config) *Client {
	return &Client{config: config}
}

// Probe resolves metadata for the given URL without downloading anything.
// The returned Metadata distinguishes single media from collections. Failures
// are returned as classified *Error values.
func (client *Client) Probe(ctx context.Context, url string) (*Metadata, error) {
	args := append(client.baseArgs(), "-J", url)

	cmd := exec.CommandContext(ctx, client.config.BinaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("Probing %s\n", url)
	if err := cmd.Run(); err != nil {
		classified := Classify(stderr.String())
		log.Warnf("Probe of %s failed (%s): %s\n", url, err, classified.Detail())
		return nil, classified
	}

	metadata := &Metadata{}
	if err := json.Unmarshal(stdout.Bytes(), metadata); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp metadata dump: %w", err)
	}

	return metadata, nil
}

// Fetch downloads the media at the given URL into targetDir according to the
// options provided. yt-dlp writes one or more files into the directory; the
// caller owns inspection and promotion of whatever was produced. Failures are
// returned as classified *Error values.
func (client *Client) Fetch(ctx context.Context, url string, opts FetchOptions, targetDir string) error {
	args := append(client.baseArgs(), "-o", filepath.Join(targetDir, opts.OutputTemplate))
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.ExtractAudio {
		args = append(args, "-x", "--audio-format", opts.AudioFormat, "--audio-quality", opts.AudioQuality)
	}
	if opts.MergeContainer != "" {
		args = append(args, "--merge-output-format", opts.MergeContainer)
	}
	if opts.NoPlaylist {
		args = append(args, "--no-playlist")
	}
	if opts.IgnoreItemErrors {
		args = append(args, "--ignore-errors")
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, client.config.BinaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debugf("Fetching %s in to %s (args %v)\n", url, targetDir, args)
	if err := cmd.Run(); err != nil {
		classified := Classify(stderr.String())
		log.Warnf("Fetch of %s failed (%s): %s\n", url, err, classified.Detail())
		return classified
	}

	return nil
}

// baseArgs are the flags shared by every invocation of the binary.
func (client *Client) baseArgs() []string {
	args := []string{"--no-warnings"}
	if client.config.FfmpegLocation != "" {
		args = append(args, "--ffmpeg-location", client.config.FfmpegLocation)
	}
	if client.config.CookiesPath != "" {
		args = append(args, "--cookies", client.config.CookiesPath)
	}

	return args
}
