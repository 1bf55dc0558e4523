package errmsg

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers and for display.
type Kind int

const (
	KindUnknown Kind = iota
	KindDownload
	KindPlayback
	KindQueue
	KindQueueEmpty
	KindVoiceConnection
	KindSongUnavailable
	KindTimeout
)

// String returns the machine-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindDownload:
		return "download"
	case KindPlayback:
		return "playback"
	case KindQueue:
		return "queue"
	case KindQueueEmpty:
		return "queue_empty"
	case KindVoiceConnection:
		return "voice_connection"
	case KindSongUnavailable:
		return "song_unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Message returns the default user-facing message for the kind.
func (k Kind) Message() string {
	switch k {
	case KindDownload:
		return "下載失敗，請稍後再試"
	case KindPlayback:
		return "播放時發生錯誤"
	case KindQueue:
		return "播放清單操作失敗"
	case KindQueueEmpty:
		return "播放清單是空的"
	case KindVoiceConnection:
		return "無法連接到語音頻道"
	case KindSongUnavailable:
		return "影片無法播放"
	case KindTimeout:
		return "操作超時，請稍後再試"
	default:
		return "發生未知錯誤"
	}
}

// Reason explains why a song can never be played.
type Reason string

const (
	ReasonAgeRestricted Reason = "age_restricted"
	ReasonCopyright     Reason = "copyright"
	ReasonRegionBlocked Reason = "region_blocked"
	ReasonPrivate       Reason = "private"
	ReasonUnavailable   Reason = "unavailable"
	ReasonUnknown       Reason = "unknown"
)

var reasonMessages = map[Reason]string{
	ReasonAgeRestricted: "此影片有年齡限制，無法播放",
	ReasonCopyright:     "此影片因版權問題被阻擋",
	ReasonRegionBlocked: "此影片在您的地區無法觀看",
	ReasonPrivate:       "此影片為私人或不公開",
	ReasonUnavailable:   "此影片已不可用",
	ReasonUnknown:       "無法取得影片資訊",
}

// Message returns the user-facing message for the reason.
// Reasons added through configuration fall back to the unknown message.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return reasonMessages[ReasonUnknown]
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      Op
	Reason  Reason // only for KindSongUnavailable
	Subject string // URL or song title, for logs
	Message string // overrides the default user message
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = "failed to " + string(e.Op)
	}
	if e.Subject != "" {
		msg += fmt.Sprintf(" %q", e.Subject)
	}
	if e.Reason != "" {
		msg += " (" + string(e.Reason) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the text shown to users.
func (e *Error) UserMessage() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Kind == KindSongUnavailable && e.Reason != "" && e.Reason != ReasonUnknown:
		return e.Reason.Message()
	default:
		return e.Kind.Message()
	}
}

// New returns an Error of the given kind.
func New(kind Kind, op Op, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Unavailable returns a KindSongUnavailable error with a reason.
func Unavailable(reason Reason, subject string, err error) *Error {
	if reason == "" {
		reason = ReasonUnknown
	}
	return &Error{Kind: KindSongUnavailable, Reason: reason, Subject: subject, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ReasonOf returns the Reason of the first *Error in err's chain.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	return ReasonUnknown
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UserMessage returns the user-facing message for any error.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return KindUnknown.Message()
}
