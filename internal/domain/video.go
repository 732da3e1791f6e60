package domain

import "time"

// TakenAtLayout is the minute-precision layout the calendar UI writes
// taken_at with. Values are naive local wall-clock time; they are stored
// and compared as-is, without timezone conversion.
const TakenAtLayout = "2006-01-02T15:04"

// LedgerTimeLayout is the seconds-precision layout used for upload ledger
// timestamps, recorded in UTC.
const LedgerTimeLayout = "2006-01-02T15:04:05"

// Video is a scheduled clip owned by the calendar UI. The dispatcher reads
// videos and never writes them; the file hash is the content address of the
// stored file and is immutable once the row exists.
type Video struct {
	ID               int64
	FileHash         string
	OriginalFilename string
	Name             *string
	Caption          *string
	TakenAt          time.Time
	UploadedAt       time.Time
	SizeBytes        int64
	MimeType         *string
}

// CaptionText returns the caption or an empty string when none was set.
func (v *Video) CaptionText() string {
	if v == nil || v.Caption == nil {
		return ""
	}
	return *v.Caption
}
