package recording

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"audiosales/web-gateway/internal/storage"
)

// ContentType is the MIME type of captured audio.
const ContentType = "audio/webm"

// URLIssuer issues short-lived write-only upload URLs.
type URLIssuer interface {
	IssueUploadURL(ctx context.Context, blobName string) (storage.UploadURL, error)
}

// BlobUploader writes a blob through a SAS URL.
type BlobUploader interface {
	Upload(ctx context.Context, sasURL string, data []byte, contentType string) error
}

// AudioNotifier tells the backend a meeting now has audio.
type AudioNotifier interface {
	UpdateMeetingAudio(ctx context.Context, meetingID int, blobPath string) error
}

// UploadObserver receives upload outcomes; *metrics.Metrics satisfies it.
type UploadObserver interface {
	ObserveUpload(source string, size int, err error)
}

// BuildFilename returns meeting_<m>_user_<u>_<yyyyMMdd_HHmmss>.webm, leaving
// out identifier parts that are zero.
func BuildFilename(meetingID, userID int, at time.Time) string {
	parts := make([]string, 0, 5)
	if meetingID > 0 {
		parts = append(parts, "meeting", strconv.Itoa(meetingID))
	}
	if userID > 0 {
		parts = append(parts, "user", strconv.Itoa(userID))
	}
	if len(parts) == 0 {
		parts = append(parts, "recording")
	}
	parts = append(parts, at.Format("20060102_150405"))
	return strings.Join(parts, "_") + ".webm"
}

// RedirectTarget is where the client goes after an upload.
func RedirectTarget(meetingID int) string {
	if meetingID > 0 {
		return "/feedback/" + strconv.Itoa(meetingID)
	}
	return "/dashboard"
}

// UploadJob moves one finished recording into blob storage. It runs on the
// worker pool.
type UploadJob struct {
	recorder *Recorder
	session  uint64
	blobName string
	data     []byte
}

func (j *UploadJob) ID() string {
	return "upload-" + j.recorder.id
}

func (j *UploadJob) Execute(ctx context.Context) error {
	err := j.upload(ctx)
	if obs := j.recorder.deps.Observer; obs != nil {
		obs.ObserveUpload("recording", len(j.data), err)
	}
	j.recorder.finishUpload(j.session, err)
	return err
}

func (j *UploadJob) upload(ctx context.Context) error {
	d := j.recorder.deps
	u, err := d.URLs.IssueUploadURL(ctx, j.blobName)
	if err != nil {
		return fmt.Errorf("issue upload url: %w", err)
	}
	if err := d.Blobs.Upload(ctx, u.URL, j.data, ContentType); err != nil {
		return fmt.Errorf("upload %s: %w", j.blobName, err)
	}
	if id := j.recorder.meetingID; id > 0 && d.Meetings != nil {
		if err := d.Meetings.UpdateMeetingAudio(ctx, id, j.blobName); err != nil {
			return fmt.Errorf("attach audio to meeting %d: %w", id, err)
		}
	}
	return nil
}
