package entity

import "time"

type BlogStatus string

const (
	BlogPending   BlogStatus = "PENDING"
	BlogPublished BlogStatus = "PUBLISHED"
	BlogRejected  BlogStatus = "REJECTED"
)

func (s BlogStatus) Valid() bool {
	switch s {
	case BlogPending, BlogPublished, BlogRejected:
		return true
	}
	return false
}

type Blog struct {
	ID            string     `json:"id" db:"blog_id"`
	AuthorID      string     `json:"author_id" db:"author_id"`
	DestinationID *string    `json:"destination_id,omitempty" db:"destination_id"`
	Title         string     `json:"title" db:"title"`
	Content       string     `json:"content" db:"content"`
	CoverImage    string     `json:"cover_image" db:"cover_image"`
	Tags          StringList `json:"tags" db:"tags"`
	Status        BlogStatus `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// InitialBlogStatus is PUBLISHED for admins; everyone else waits for moderation.
func InitialBlogStatus(author Role) BlogStatus {
	if author == RoleAdmin {
		return BlogPublished
	}
	return BlogPending
}

type BlogFilter struct {
	AuthorID      string
	DestinationID string
	Status        BlogStatus
	Query         string
}
