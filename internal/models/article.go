package models

import (
	"time"
)

const (
	StatusUnread = "unread"
	StatusRead   = "read"
)

// Article is the persisted unit representing one saved link. Records are
// immutable after insert; the only mutation is delete-by-id.
type Article struct {
	ID               string    `bson:"_id" json:"id"`
	URL              string    `bson:"url" json:"url"`
	Title            string    `bson:"title" json:"title"`
	Excerpt          string    `bson:"excerpt" json:"excerpt"`
	Source           string    `bson:"source,omitempty" json:"source,omitempty"`
	TopImage         string    `bson:"topImage,omitempty" json:"topImage,omitempty"`
	OriginalTopImage string    `bson:"originalTopImage,omitempty" json:"originalTopImage,omitempty"`
	StoredImagePath  string    `bson:"storedImagePath,omitempty" json:"storedImagePath,omitempty"`
	MirroredURL      string    `bson:"mirroredUrl,omitempty" json:"mirroredUrl,omitempty"`
	TimeAdded        time.Time `bson:"timeAdded" json:"timeAdded"`
	Status           string    `bson:"status,omitempty" json:"status,omitempty"`
	Tags             []string  `bson:"tags,omitempty" json:"tags,omitempty"`
}
