package models

import (
	"encoding/json"
	"time"
)

// Post is an aggregate owning its comments and its like set.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Author      *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Link        string     `json:"link"`
	Date        time.Time  `gorm:"not null;index" json:"date"`
	Likes       []PostLike `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Comments    []Comment  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PostLike is one member of a post's like set. Rows go away with the user
// who gave them.
type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// LikedBy returns the ids of users who like the post.
func (p *Post) LikedBy() []uint {
	ids := make([]uint, 0, len(p.Likes))
	for _, l := range p.Likes {
		ids = append(ids, l.UserID)
	}
	return ids
}

// IsLikedBy reports whether userID is in the like set.
func (p *Post) IsLikedBy(userID uint) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// PostPatch holds the fields UpdatePost may overwrite. Nil fields are left alone.
type PostPatch struct {
	Description *string `json:"description"`
	Link        *string `json:"link"`
}

// MarshalJSON renders the like set as a list of user ids.
func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	return json.Marshal(struct {
		alias
		Likes []uint `json:"likes"`
	}{alias(p), p.LikedBy()})
}
