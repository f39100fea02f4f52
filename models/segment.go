package models

// SummaryAuthorID marks segments that carry a meeting summary instead of an utterance.
const SummaryAuthorID = 0

// ConversationSegment is one attributed utterance within a transcribed meeting.
type ConversationSegment struct {
	ID        int     `json:"segment_id"`
	MeetingID int     `json:"meeting_id"`
	UserID    int     `json:"user_id"`
	Speaker   string  `json:"speaker_name"`
	Content   string  `json:"content"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	AudioPath string  `json:"file_path,omitempty"`
	Status    string  `json:"status,omitempty"`
}

// IsSummary reports whether the segment is a summary divider.
func (s ConversationSegment) IsSummary() bool {
	return s.UserID == SummaryAuthorID
}
