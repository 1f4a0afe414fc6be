package models

import "time"

const (
	// DefaultEmotion is used when the user skipped naming the emotion
	DefaultEmotion = "Feeling"
	// DefaultEmoji is used when no glyph was picked
	DefaultEmoji = "✨"
	// DefaultIntensity is the UI default rating
	DefaultIntensity = 5

	MinIntensity = 1
	MaxIntensity = 10
)

// CheckIn represents one mood record
type CheckIn struct {
	ID        string    `json:"id,omitempty"`
	Emotion   string    `json:"emotion"`
	Emoji     string    `json:"emoji"`
	Intensity int       `json:"intensity"`
	Note      *string   `json:"note,omitempty"`
	Photo     *string   `json:"photo,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPhoto reports whether the check-in carries a photo
func (c *CheckIn) HasPhoto() bool {
	return c.Photo != nil && *c.Photo != ""
}
