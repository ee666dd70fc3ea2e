package pedforum

import (
	"encoding/json"
	"time"
)

// DefaultAuthor is used when an article, material, or message arrives without
// an author.
const DefaultAuthor = "Аноним"

// DefaultMaterialCategory and DefaultMaterialFileType fill in materials
// created without those fields.
const (
	DefaultMaterialCategory = "Общее"
	DefaultMaterialFileType = "PDF"
)

// Article is a published piece of content. Content holds sanitized HTML.
type Article struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Author    string `json:"author"`
	Category  string `json:"category"`
	Content   string `json:"content,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// MarshalJSON adds the human-readable "date" field the portal front end shows.
func (a Article) MarshalJSON() ([]byte, error) {
	type alias Article
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(a), FormatDate(a.CreatedAt)})
}

// Material is an entry in the methodical materials repository.
type Material struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	FileType    string `json:"type"`
	Downloads   int    `json:"downloads"`
	CreatedAt   int64  `json:"created_at"`
}

// Message is a single post on the message board.
type Message struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

// MarshalJSON adds the "time" field (HH:MM) shown next to each message.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return json.Marshal(struct {
		alias
		Time string `json:"time"`
	}{alias(m), FormatClock(m.CreatedAt)})
}

// WithDefaults returns a copy with empty optional fields filled in.
func (a Article) WithDefaults() Article {
	if a.Author == "" {
		a.Author = DefaultAuthor
	}
	return a
}

// WithDefaults returns a copy with empty optional fields filled in.
func (m Material) WithDefaults() Material {
	if m.Author == "" {
		m.Author = DefaultAuthor
	}
	if m.Category == "" {
		m.Category = DefaultMaterialCategory
	}
	if m.FileType == "" {
		m.FileType = DefaultMaterialFileType
	}
	return m
}

// WithDefaults returns a copy with empty optional fields filled in.
func (m Message) WithDefaults() Message {
	if m.Author == "" {
		m.Author = DefaultAuthor
	}
	return m
}

// FormatDate renders a Unix timestamp as "02 January 2006" in UTC.
func FormatDate(unix int64) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).UTC().Format("02 January 2006")
}

// FormatClock renders a Unix timestamp as "15:04" in UTC.
func FormatClock(unix int64) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).UTC().Format("15:04")
}

// NowUnix returns current time as Unix seconds.
func NowUnix() int64 {
	return time.Now().Unix()
}
