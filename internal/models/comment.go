package models

import (
	"encoding/json"
	"time"
)

// Comment belongs to exactly one post and is deleted with it.
type Comment struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	PostID    uint          `gorm:"not null;index" json:"post_id"`
	AuthorID  uint          `gorm:"not null;index" json:"author_id"`
	Author    *User         `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	Date      time.Time     `gorm:"not null" json:"date"`
	Likes     []CommentLike `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CommentLike is one member of a comment's like set. Rows go away with the
// user who gave them.
type CommentLike struct {
	CommentID uint      `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// LikedBy returns the ids of users who like the comment.
func (c *Comment) LikedBy() []uint {
	ids := make([]uint, 0, len(c.Likes))
	for _, l := range c.Likes {
		ids = append(ids, l.UserID)
	}
	return ids
}

// IsLikedBy reports whether userID is in the like set.
func (c *Comment) IsLikedBy(userID uint) bool {
	for _, l := range c.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// MarshalJSON renders the like set as a list of user ids.
func (c Comment) MarshalJSON() ([]byte, error) {
	type alias Comment
	return json.Marshal(struct {
		alias
		Likes []uint `json:"likes"`
	}{alias(c), c.LikedBy()})
}
