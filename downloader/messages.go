package downloader

// User facing log and status lines.
const (
	msgStartUserAgent = "Starting download with User-Agent: %s"
	msgSource         = "Source: %s, Thread ID: %s"
	msgFoundImages    = "Images found: %d"
	msgFoundVideos    = "Videos found: %d"
	msgFoundFiles     = "Files found (%s): %d"
	msgNoExtFiles     = "No files with the specified extension found."
	msgSequential     = "Sequential mode: links sorted by post order."
	msgGeneralError   = "Download error: %v"
	msgDownloadError  = "Error downloading %s: %v"
	msgStopRequested  = "Stop requested…"
	msgStopped        = "Download stopped by user."
	msgDone           = "Download complete!"
	msgCheckingURL    = "Checking URL: %s"

	msgFileSkipped   = "Skipped (exists): %s"
	msgFileSaved     = "Saved: %s"
	msgFileCancelled = "Cancelled: %s"
	msgFileFailed    = "Failed after %d retries: %s"

	statusFetching    = "Fetching file list…"
	statusDownloading = "Downloading %d of %d files"
	statusStopped     = "Download stopped by user"
	statusDone        = "Download complete!"
	statusStopping    = "Stopping download…"
)
