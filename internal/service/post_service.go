package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"seungpyo.lee/BlogPlatform/internal/adapter"
	"seungpyo.lee/BlogPlatform/internal/config"
	"seungpyo.lee/BlogPlatform/internal/domain"
	"seungpyo.lee/BlogPlatform/internal/metrics"
	"seungpyo.lee/BlogPlatform/pkg/logger"
)

// excerptLength is the rune budget for derived excerpts.
const excerptLength = 200

// Repositories groups the stores the post service reads and writes.
type Repositories struct {
	Posts      domain.PostRepository
	Comments   domain.CommentRepository
	Categories domain.CategoryRepository
	Tags       domain.TagRepository
}

type postService struct {
	repos    Repositories
	content  adapter.ContentAdapter
	recorder metrics.Recorder
	log      *logger.Logger
	config   *config.PostConfig
}

// NewPostService creates a new PostService on top of the given repositories.
func NewPostService(repos Repositories, content adapter.ContentAdapter, recorder metrics.Recorder, log *logger.Logger, config *config.PostConfig) domain.PostService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &postService{
		repos:    repos,
		content:  content,
		recorder: recorder,
		log:      log,
		config:   config,
	}
}

// ListPosts returns one page of posts matching the query.
func (s *postService) ListPosts(ctx context.Context, query domain.PostQuery) (*domain.PostPage, error) {
	posts, total, err := s.repos.Posts.List(ctx, query)
	if err != nil {
		return nil, err
	}
	return &domain.PostPage{
		Posts:      posts,
		Total:      total,
		Pagination: query.Paginate(total),
	}, nil
}

// GetPost returns a post with its references and recent comments, then
// counts the view. When the increment succeeds the returned view count
// includes this view; on failure it is the count as read.
func (s *postService) GetPost(ctx context.Context, id uint) (*domain.Post, error) {
	post, err := s.repos.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished {
		s.log.Debug("serving unpublished post by id", "post_id", id)
	}
	comments, err := s.repos.Comments.Recent(ctx, id, s.config.MaxEmbeddedComments)
	if err != nil {
		return nil, err
	}
	post.Comments = comments

	if err := s.repos.Posts.IncrementViewCount(ctx, id); err != nil {
		s.log.Warn("failed to increment view count", "post_id", id, "error", err)
		s.recorder.RecordViewIncrement(false)
	} else {
		post.ViewCount++
		s.recorder.RecordViewIncrement(true)
	}
	return post, nil
}

// CreatePost creates a new blog post authored by actor.
func (s *postService) CreatePost(ctx context.Context, actor *domain.Actor, req domain.CreatePostRequest) (*domain.Post, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w to create a post", domain.ErrUnauthorized)
	}
	title := s.content.SanitizeText(strings.TrimSpace(req.Title))
	if title == "" {
		return nil, fmt.Errorf("%w: please add a title", domain.ErrValidation)
	}
	content := strings.TrimSpace(s.content.SanitizeHTML(req.Content))
	if content == "" {
		return nil, fmt.Errorf("%w: please add some content", domain.ErrValidation)
	}

	category, err := s.repos.Categories.FindByID(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		Title:         title,
		Content:       content,
		Excerpt:       s.excerpt(req.Excerpt, content),
		CategoryID:    category.ID,
		AuthorID:      actor.ID,
		Tags:          normalizeTags(req.Tags),
		FeaturedImage: strings.TrimSpace(req.FeaturedImage),
		IsPublished:   req.IsPublished,
	}
	if err := s.repos.Posts.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Category = category
	s.recorder.RecordPostMutation("create")
	s.log.Info("post created", "post_id", post.ID, "author_id", actor.ID)
	return post, nil
}

// UpdatePost replaces the supplied fields of a post owned by actor, or of
// any post when actor is an admin.
func (s *postService) UpdatePost(ctx context.Context, id uint, actor *domain.Actor, req domain.UpdatePostRequest) (*domain.Post, error) {
	post, err := s.repos.Posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(actor, post.AuthorID) {
		return nil, fmt.Errorf("%w to update this post", domain.ErrUnauthorized)
	}

	if req.Title != nil {
		title := s.content.SanitizeText(strings.TrimSpace(*req.Title))
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
		}
		post.Title = title
	}
	if req.Content != nil {
		content := strings.TrimSpace(s.content.SanitizeHTML(*req.Content))
		if content == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", domain.ErrValidation)
		}
		post.Content = content
	}
	if req.Excerpt != nil {
		post.Excerpt = s.excerpt(*req.Excerpt, post.Content)
	}
	if req.Category != nil {
		post.CategoryID = *req.Category
	}
	if req.Tags != nil {
		post.Tags = normalizeTags(*req.Tags)
	}
	if req.FeaturedImage != nil {
		post.FeaturedImage = strings.TrimSpace(*req.FeaturedImage)
	}
	if req.IsPublished != nil {
		post.IsPublished = *req.IsPublished
	}

	if err := s.repos.Posts.Update(ctx, post); err != nil {
		return nil, err
	}
	s.recorder.RecordPostMutation("update")
	return s.repos.Posts.GetByID(ctx, id)
}

// DeletePost permanently removes a post and its comments.
func (s *postService) DeletePost(ctx context.Context, id uint, actor *domain.Actor) error {
	post, err := s.repos.Posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(actor, post.AuthorID) {
		return fmt.Errorf("%w to delete this post", domain.ErrUnauthorized)
	}
	if err := s.repos.Posts.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.RecordPostMutation("delete")
	s.log.Info("post deleted", "post_id", id, "actor_id", actor.ID)
	return nil
}

// AddComment appends a comment and returns the post's recent comments,
// oldest first.
func (s *postService) AddComment(ctx context.Context, postID uint, actor *domain.Actor, content string) ([]domain.Comment, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w to add a comment", domain.ErrUnauthorized)
	}
	text := s.content.SanitizeText(strings.TrimSpace(content))
	if text == "" {
		return nil, fmt.Errorf("%w: please add some text to the comment", domain.ErrValidation)
	}

	comment := &domain.Comment{PostID: postID, AuthorID: actor.ID, Content: text}
	if err := s.repos.Comments.Append(ctx, comment); err != nil {
		return nil, err
	}
	s.recorder.RecordCommentAppended()
	return s.repos.Comments.Recent(ctx, postID, s.config.MaxEmbeddedComments)
}

// ListComments pages through a post's full comment log.
func (s *postService) ListComments(ctx context.Context, postID uint, window domain.Window) (*domain.CommentPage, error) {
	if _, err := s.repos.Posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, total, err := s.repos.Comments.List(ctx, postID, window)
	if err != nil {
		return nil, err
	}
	return &domain.CommentPage{
		Comments:   comments,
		Total:      total,
		Pagination: window.Paginate(total),
	}, nil
}

func (s *postService) ListTags(ctx context.Context) ([]string, error) {
	return s.repos.Tags.ListTags(ctx)
}

// excerpt keeps a supplied excerpt as plain text or derives one from content.
func (s *postService) excerpt(supplied, content string) string {
	if e := s.content.SanitizeText(strings.TrimSpace(supplied)); e != "" {
		return e
	}
	return s.content.Excerpt(content, excerptLength)
}

// normalizeTags trims tags and drops blanks and duplicates, keeping the
// first occurrence order.
func normalizeTags(tags []string) pq.StringArray {
	out := pq.StringArray{}
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
