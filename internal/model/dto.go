package model

import "seungpyo.lee/BlogPlatform/internal/domain"

// SuccessResponse wraps a single resource.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ListResponse wraps one page of a collection. Count is the page size,
// Total the number of matches across all pages.
type ListResponse struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Total      int64             `json:"total"`
	Pagination domain.Pagination `json:"pagination"`
	Data       any               `json:"data"`
}

// CollectionResponse wraps an unpaginated collection.
type CollectionResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    any  `json:"data"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// AddCommentRequest represents the request payload for commenting on a post
type AddCommentRequest struct {
	Content string `json:"content"`
}

// PostDetail is a single post as served by GET /posts/:id. Unlike list
// items it always carries the comments key.
type PostDetail struct {
	*domain.Post
	Comments []domain.Comment `json:"comments"`
}

func NewPostDetail(post *domain.Post) PostDetail {
	comments := post.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	return PostDetail{Post: post, Comments: comments}
}
