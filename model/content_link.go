package model

import "time"

const (
	LinkTypeArticle = "article"
	LinkTypeStream  = "stream"
)

// ContentLink is owned exclusively by its Content item and is deleted with it.
type ContentLink struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	ContentId string    `json:"content_id" gorm:"index"`
	LinkType  string    `json:"link_type"`
	LinkTitle string    `json:"link_title"`
	LinkUrl   string    `json:"link_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidLinkType reports whether t is one of the supported link types.
func ValidLinkType(t string) bool {
	return t == LinkTypeArticle || t == LinkTypeStream
}
