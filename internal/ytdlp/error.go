package ytdlp

import "strings"

// ErrorCode is the classified category of a failed yt-dlp invocation. The
// code's message is the only thing clients ever see; the raw binary output is
// retained on the error for server-side logging only.
type ErrorCode int

const (
	CodeUnclassified ErrorCode = iota
	CodePrivate
	CodeUnavailable
	CodeRemoved
	CodeRegionLocked
	CodeAgeRestricted
	CodeLoginRequired
	CodePaid
	CodePremiere
	CodeLive
	CodeNotFound
	CodeAccessDenied
	CodeRateLimited
	CodeEmptyResult
)

func (c ErrorCode) Message() string {
	switch c {
	case CodePrivate:
		return "This is a private video."
	case CodeUnavailable:
		return "This video is unavailable."
	case CodeRemoved:
		return "This video was removed."
	case CodeRegionLocked:
		return "This video is not available in your country."
	case CodeAgeRestricted:
		return "This video is age-restricted."
	case CodeLoginRequired:
		return "This video requires login."
	case CodePaid:
		return "This is a paid video."
	case CodePremiere:
		return "This video is a premiere."
	case CodeLive:
		return "This is a live event."
	case CodeNotFound:
		return "Video not found."
	case CodeAccessDenied:
		return "Access denied to video."
	case CodeRateLimited:
		return "Too many requests. Please try again later."
	case CodeEmptyResult:
		return "Download failed."
	}

	return "An error occurred while processing your request."
}

// Error is a classified failure of the external fetch capability.
type Error struct {
	Code   ErrorCode
	detail string
}

// Error returns the human-readable classified message. The raw yt-dlp output
// is never part of it.
func (e *Error) Error() string {
	return e.Code.Message()
}

// Detail returns the raw output the classification was derived from. Intended
// for server-side logs only.
func (e *Error) Detail() string {
	return e.detail
}

func NewError(code ErrorCode, detail string) *Error {
	return &Error{Code: code, detail: detail}
}

// classificationRules map known fragments of yt-dlp's (English) output to a
// code. Ordered: the first match wins.
//
// yt-dlp exposes no stable machine-readable error codes over its CLI, so
// substring inspection of its output is the only classification source
// available. Known limitation: these fragments track the upstream English
// error text and can break across locales or yt-dlp versions.
var classificationRules = []struct {
	fragment string
	code     ErrorCode
}{
	{"Private video", CodePrivate},
	{"Video unavailable", CodeUnavailable},
	{"removed for violating", CodeRemoved},
	{"not available in your country", CodeRegionLocked},
	{"age-restricted", CodeAgeRestricted},
	{"Login required", CodeLoginRequired},
	{"payment to watch", CodePaid},
	{"Premiere", CodePremiere},
	{"Live event", CodeLive},
	{"HTTP Error 404", CodeNotFound},
	{"HTTP Error 403", CodeAccessDenied},
	{"HTTP Error 429", CodeRateLimited},
	{"no file produced", CodeEmptyResult},
}

// Classify inspects raw yt-dlp output and returns a classified Error for it.
// Output matching no known rule classifies as CodeUnclassified.
func Classify(output string) *Error {
	for _, rule := range classificationRules {
		if strings.Contains(output, rule.fragment) {
			return NewError(rule.code, output)
		}
	}

	return NewError(CodeUnclassified, output)
}
