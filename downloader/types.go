package downloader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/handsomefox/threaddl/api"
)

// Status is the terminal state of a single download job.
type Status uint8

const (
	_ Status = iota
	StatusSaved
	StatusSkipped
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSaved:
		return "saved"
	case StatusSkipped:
		return "skipped"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MediaMode selects which files of a thread are downloaded.
// Anything that is not one of the named modes is treated as a single file extension.
type MediaMode string

const (
	ModeAllMedia  MediaMode = "all_media"
	ModeAllImages MediaMode = "all_images"
	ModeAllVideos MediaMode = "all_videos"
)

const (
	imagesSubfolder = "images"
	videosSubfolder = "videos"
)

// ParseMediaMode normalizes user input: named modes are matched case-insensitively,
// extensions lose a leading dot.
func ParseMediaMode(s string) (MediaMode, error) {
	s = strings.TrimSpace(s)
	switch m := MediaMode(strings.ToLower(s)); m {
	case ModeAllMedia, ModeAllImages, ModeAllVideos:
		return m, nil
	}
	ext := strings.TrimPrefix(s, ".")
	if ext == "" || strings.ContainsAny(ext, `/\.`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return MediaMode(ext), nil
}

// ThreadContext binds a parsed thread to the output directory of the run.
type ThreadContext struct {
	api.Thread
	BaseDir string
}

// Dir is <base>/<thread id>.
func (tc ThreadContext) Dir() string {
	return filepath.Join(tc.BaseDir, tc.ID)
}

// DownloadJob is one media file bound to its target folder.
type DownloadJob struct {
	Ref          api.MediaReference
	Dir          string
	SkipExisting bool
}

// Outcome is the immutable result of running one job.
type Outcome struct {
	Err      error
	Filename string
	Path     string
	URL      string
	Bytes    int64
	Retries  int
	Status   Status
}

// Message is the log line describing the outcome.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusSaved:
		return fmt.Sprintf(msgFileSaved, o.Filename)
	case StatusSkipped:
		return fmt.Sprintf(msgFileSkipped, o.Filename)
	case StatusCancelled:
		return fmt.Sprintf(msgFileCancelled, o.Filename)
	default:
		if o.Retries == 0 && o.Err != nil {
			return fmt.Sprintf(msgDownloadError, o.URL, o.Err)
		}
		return fmt.Sprintf(msgFileFailed, o.Retries, o.Filename)
	}
}
