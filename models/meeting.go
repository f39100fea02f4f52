package models

// Meeting statuses as reported by the backend pipeline.
const (
	MeetingStatusScheduled    = "scheduled"
	MeetingStatusUploaded     = "uploaded"
	MeetingStatusTranscribing = "transcribing"
	MeetingStatusCompleted    = "completed"
	MeetingStatusFailed       = "failed"
)

// Meeting represents a sales meeting.
type Meeting struct {
	ID                int     `json:"meeting_id"`
	UserID            int     `json:"user_id"`
	ClientCompanyName string  `json:"client_company_name"`
	ClientContactName string  `json:"client_contact_name"`
	MeetingDatetime   string  `json:"meeting_datetime"`
	Status            string  `json:"status"`
	DurationSeconds   int     `json:"duration_seconds"`
	TranscriptText    *string `json:"transcript_text,omitempty"` // Nullable until transcription finishes
	ErrorMessage      *string `json:"error_message,omitempty"`
	AudioPath         *string `json:"file_path,omitempty"`
	CreatedAt         string  `json:"inserted_datetime,omitempty"`
}

// BasicInfo is the pre-recording metadata captured on the new-meeting page.
type BasicInfo struct {
	UserID            int    `json:"user_id"`
	ClientCompanyName string `json:"client_company_name" validate:"required,max=200"`
	ClientContactName string `json:"client_contact_name" validate:"required,max=100"`
	MeetingDatetime   string `json:"meeting_datetime" validate:"required"`
	Industry          string `json:"industry,omitempty"`
	Scale             string `json:"scale,omitempty"`
	MeetingGoal       string `json:"meeting_goal,omitempty"`
}

// MeetingSearch holds meeting search filters.
type MeetingSearch struct {
	Query  string `json:"query,omitempty"`
	UserID int    `json:"user_id,omitempty"`
	From   string `json:"from_date,omitempty"`
	To     string `json:"to_date,omitempty"`
}
