// Package errmsg provides the error taxonomy and consistent formatting for
// user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Extraction operations
	OpExtractInfo     Op = "extract media info"
	OpExtractPlaylist Op = "extract playlist"

	// Download operations
	OpDownload  Op = "download media"
	OpTranscode Op = "transcode media"
	OpPrefetch  Op = "prefetch media"

	// Cache operations
	OpCachePut   Op = "store cache file"
	OpCacheEvict Op = "evict cache file"
	OpCacheClear Op = "clear cache"

	// Queue operations
	OpQueueAdd    Op = "add to queue"
	OpQueueRemove Op = "remove from queue"
	OpQueueJump   Op = "jump in queue"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackPause  Op = "pause playback"
	OpPlaybackResume Op = "resume playback"
	OpPlaybackStop   Op = "stop playback"

	// Transport operations
	OpConnect    Op = "connect to voice channel"
	OpDisconnect Op = "disconnect from voice channel"
	OpReconnect  Op = "reconnect to voice channel"

	// Tools
	OpToolResolve Op = "locate external tool"
	OpToolUpdate  Op = "update external tool"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
