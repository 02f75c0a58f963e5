package domain

import "time"

// Moment is a user-authored post. FeedKey is a constant partition value so the
// feed GSI can order every moment by creation time.
type Moment struct {
	MomentID  string    `json:"id" dynamodbav:"moment_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Title     *string   `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Content   *string   `json:"content,omitempty" dynamodbav:"content,omitempty"`
	Media     []string  `json:"media" dynamodbav:"media"`
	FeedKey   string    `json:"-" dynamodbav:"feed"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

// MomentLike is the like-edge (user likes moment). PK: moment_id, SK: user_id.
type MomentLike struct {
	MomentID  string    `json:"moment_id" dynamodbav:"moment_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type Comment struct {
	CommentID string    `json:"id" dynamodbav:"comment_id"`
	MomentID  string    `json:"moment_id" dynamodbav:"moment_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Content   string    `json:"content" dynamodbav:"content"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateMomentRequest struct {
	Title   *string  `json:"title" validate:"omitempty,max=200"`
	Content *string  `json:"content" validate:"omitempty,max=5000"`
	Media   []string `json:"media" validate:"max=9,dive,nanoid64"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// MomentQuery filters and pages the moment feed.
type MomentQuery struct {
	UserID string
	Title  string
	Take   int
	Cursor string
}
