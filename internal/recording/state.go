// Package recording captures meeting audio streamed from the browser and
// hands the finished blob to the upload pool.
package recording

import (
	"errors"
	"time"
)

// ErrInvalidTransition is returned when an operation does not apply to the
// recorder's current state.
var ErrInvalidTransition = errors.New("recording: invalid state transition")

// State is the capture state machine: idle → recording ⇄ paused → stopped.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// Phase tracks what happened to the captured audio.
type Phase string

const (
	PhaseCapturing Phase = "capturing"
	PhaseUploading Phase = "uploading"
	PhaseUploaded  Phase = "uploaded"
	PhaseFailed    Phase = "failed"
	PhaseAborted   Phase = "aborted"
)

// Redirect is the navigation target published once the upload settles.
type Redirect struct {
	Location string    `json:"location"`
	At       time.Time `json:"at"`
}

// Status is a point-in-time view of a recorder.
type Status struct {
	ID            string    `json:"id"`
	MeetingID     int       `json:"meeting_id,omitempty"`
	UserID        int       `json:"user_id,omitempty"`
	State         State     `json:"state"`
	Phase         Phase     `json:"phase,omitempty"`
	Error         string    `json:"error,omitempty"`
	Chunks        int       `json:"chunks"`
	Bytes         int       `json:"bytes"`
	SnapshotBytes int       `json:"snapshot_bytes"`
	Levels        []float64 `json:"levels"`
	BlobName      string    `json:"blob_name,omitempty"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	Redirect      *Redirect `json:"redirect,omitempty"`
}
