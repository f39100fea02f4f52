package models

// ReadReceipt records that a user has read a comment.
type ReadReceipt struct {
	ReaderID int    `json:"reader_id"`
	ReadAt   string `json:"read_datetime"`
}

// Comment is a feedback note attached to a segment.
type Comment struct {
	ID        int           `json:"comment_id"`
	SegmentID int           `json:"segment_id"`
	MeetingID int           `json:"meeting_id"`
	UserID    int           `json:"user_id"`
	UserName  string        `json:"user_name,omitempty"`
	Content   string        `json:"content"`
	CreatedAt string        `json:"inserted_datetime"`
	Readers   []ReadReceipt `json:"readers,omitempty"`
}

// ReadBy reports whether userID has a read receipt on the comment.
func (c Comment) ReadBy(userID int) bool {
	for _, r := range c.Readers {
		if r.ReaderID == userID {
			return true
		}
	}
	return false
}

// NewComment is the payload for posting a comment.
type NewComment struct {
	SegmentID int    `json:"segment_id"`
	MeetingID int    `json:"meeting_id"`
	UserID    int    `json:"user_id"`
	Content   string `json:"content" validate:"required,max=2000"`
}
