package content

import (
	"html/template"
	"time"
)

// Post is one blog entry. It is built once from its source file and
// never mutated afterwards.
type Post struct {
	ID          string        `json:"id"`
	Date        string        `json:"date"`
	Title       string        `json:"title"`
	Spoiler     string        `json:"spoiler"`
	ContentHTML template.HTML `json:"contentHtml"`

	PublishedAt time.Time `json:"-"`
}

// PostSummary is a Post without its rendered body, used for listings.
type PostSummary struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Title   string `json:"title"`
	Spoiler string `json:"spoiler"`

	PublishedAt time.Time `json:"-"`
}

func (p *Post) Summary() PostSummary {
	return PostSummary{
		ID:          p.ID,
		Date:        p.Date,
		Title:       p.Title,
		Spoiler:     p.Spoiler,
		PublishedAt: p.PublishedAt,
	}
}
