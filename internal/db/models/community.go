package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const DefaultPostCategory = "general"

type Post struct {
	bun.BaseModel `bun:"table:posts"`

	ID           uuid.UUID `bun:",type:uuid,pk" json:"id"`
	UserID       string    `bun:",notnull" json:"user_id"`
	UserName     string    `bun:",notnull" json:"user_name"`
	Content      string    `bun:",notnull" json:"content"`
	Images       []string  `bun:",type:json" json:"images"`
	Category     string    `bun:",notnull" json:"category"`
	CommentCount int       `bun:",notnull,default:0" json:"comment_count"`
	CreatedAt    time.Time `bun:",nullzero,notnull" json:"created_at"`
	UpdatedAt    time.Time `bun:",nullzero,notnull" json:"updated_at"`

	Likes      []string `bun:"-" json:"likes"`
	LikesCount int      `bun:"-" json:"likes_count"`
}

func NewPost(userID, userName, content string, images []string, category string) *Post {
	if category == "" {
		category = DefaultPostCategory
	}
	if images == nil {
		images = []string{}
	}

	now := time.Now().UTC()
	return &Post{
		ID:        uuid.Must(uuid.NewRandom()),
		UserID:    userID,
		UserName:  userName,
		Content:   content,
		Images:    images,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
		Likes:     []string{},
	}
}

// SetLikes attaches the ids of users who liked the post.
func (p *Post) SetLikes(userIDs []string) {
	if userIDs == nil {
		userIDs = []string{}
	}
	p.Likes = userIDs
	p.LikesCount = len(userIDs)
}

type PostLike struct {
	bun.BaseModel `bun:"table:post_likes"`

	PostID    uuid.UUID `bun:",type:uuid,pk"`
	UserID    string    `bun:",pk"`
	CreatedAt time.Time `bun:",nullzero,notnull"`
}

type Comment struct {
	bun.BaseModel `bun:"table:comments"`

	ID        uuid.UUID `bun:",type:uuid,pk" json:"id"`
	PostID    uuid.UUID `bun:",type:uuid,notnull" json:"post_id"`
	UserID    string    `bun:",notnull" json:"user_id"`
	UserName  string    `bun:",notnull" json:"user_name"`
	Content   string    `bun:",notnull" json:"content"`
	CreatedAt time.Time `bun:",nullzero,notnull" json:"created_at"`
}

func NewComment(postID uuid.UUID, userID, userName, content string) *Comment {
	return &Comment{
		ID:        uuid.Must(uuid.NewRandom()),
		PostID:    postID,
		UserID:    userID,
		UserName:  userName,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
