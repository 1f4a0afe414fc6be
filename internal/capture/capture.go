// Package capture turns what the user picked on screen into a normalized
// check-in. Missing fields are never an error; defaults fill them in.
package capture

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"moodsync/internal/models"
)

// Draft holds the check-in being composed in the current session.
// The zero value is ready to use.
type Draft struct {
	emotion   string
	emoji     string
	intensity int
	note      string
	photo     string
}

// SetEmotion sets the emotion label and its glyph
func (d *Draft) SetEmotion(label, emoji string) {
	d.emotion = label
	d.emoji = emoji
}

// SetIntensity sets the 1-10 rating
func (d *Draft) SetIntensity(v int) {
	d.intensity = v
}

// SetNote sets the free-text note
func (d *Draft) SetNote(note string) {
	d.note = note
}

// SetPhoto sets an already encoded photo
func (d *Draft) SetPhoto(encoded string) {
	d.photo = encoded
}

// Reset clears the draft after submission
func (d *Draft) Reset() {
	*d = Draft{}
}

// CheckIn builds the normalized record stamped with now
func (d *Draft) CheckIn(now time.Time) models.CheckIn {
	entry := models.CheckIn{
		Emotion:   strings.TrimSpace(d.emotion),
		Emoji:     strings.TrimSpace(d.emoji),
		Intensity: normalizeIntensity(d.intensity),
		Timestamp: now.UTC(),
	}
	if entry.Emotion == "" {
		entry.Emotion = models.DefaultEmotion
	}
	if entry.Emoji == "" {
		entry.Emoji = models.DefaultEmoji
	}
	if note := strings.TrimSpace(d.note); note != "" {
		entry.Note = &note
	}
	if d.photo != "" {
		photo := d.photo
		entry.Photo = &photo
	}
	return entry
}

func normalizeIntensity(v int) int {
	switch {
	case v == 0:
		return models.DefaultIntensity
	case v < models.MinIntensity:
		return models.MinIntensity
	case v > models.MaxIntensity:
		return models.MaxIntensity
	}
	return v
}

// EncodePhoto returns the image as a data URL
func EncodePhoto(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// LoadPhoto reads an image file and encodes it
func LoadPhoto(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("photo file %s is empty", path)
	}
	return EncodePhoto(data), nil
}
