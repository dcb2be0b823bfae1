// Package memory holds map-backed implementations of the repository
// interfaces. Service and handler tests run against it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"seungpyo.lee/BlogPlatform/internal/domain"
)

// Store is safe for concurrent use. Timestamps come from a clock that
// advances on every write so ordering is deterministic.
type Store struct {
	mu            sync.Mutex
	now           time.Time
	nextPostID    uint
	nextCommentID uint
	nextUserID    uint
	posts         map[uint]*domain.Post
	comments      map[uint][]domain.Comment
	users         map[uint]*domain.User
	categories    map[uint]*domain.Category
}

func NewStore() *Store {
	return &Store{
		now:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		posts:      make(map[uint]*domain.Post),
		comments:   make(map[uint][]domain.Comment),
		users:      make(map[uint]*domain.User),
		categories: make(map[uint]*domain.Category),
	}
}

func (s *Store) Posts() domain.PostRepository          { return postRepo{s} }
func (s *Store) Comments() domain.CommentRepository    { return commentRepo{s} }
func (s *Store) Categories() domain.CategoryRepository { return categoryRepo{s} }
func (s *Store) Tags() domain.TagRepository            { return tagRepo{s} }
func (s *Store) Users() domain.UserRepository          { return userRepo{s} }

// ViewCount reads the stored counter directly.
func (s *Store) ViewCount(id uint) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[id]; ok {
		return p.ViewCount
	}
	return -1
}

// CommentCount reads the stored log length directly.
func (s *Store) CommentCount(postID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments[postID])
}

func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Millisecond)
	return s.now
}

func postNotFound(id uint) error {
	return fmt.Errorf("%w with id of %d", domain.ErrPostNotFound, id)
}

// snapshot copies a stored post and resolves its references.
func (s *Store) snapshot(p *domain.Post, author func(*domain.User) *domain.User) *domain.Post {
	cp := *p
	cp.Tags = append(pq.StringArray{}, p.Tags...)
	cp.Comments = nil
	cp.Author = nil
	cp.Category = nil
	if u, ok := s.users[p.AuthorID]; ok {
		cp.Author = author(u)
	}
	if c, ok := s.categories[p.CategoryID]; ok {
		cp.Category = &domain.Category{ID: c.ID, Name: c.Name, Slug: c.Slug, Color: c.Color}
	}
	return &cp
}

func postAuthor(u *domain.User) *domain.User {
	return &domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar, Bio: u.Bio}
}

func listAuthor(u *domain.User) *domain.User {
	return &domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

func commentAuthor(u *domain.User) *domain.User {
	return &domain.User{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

type postRepo struct{ s *Store }

func (r postRepo) Create(_ context.Context, post *domain.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPostID++
	now := s.tick()
	post.ID = s.nextPostID
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}
	stored := *post
	stored.Tags = append(pq.StringArray{}, post.Tags...)
	stored.Author, stored.Category, stored.Comments = nil, nil, nil
	s.posts[post.ID] = &stored
	return nil
}

func (r postRepo) FindByID(_ context.Context, id uint) (*domain.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, postNotFound(id)
	}
	cp := *p
	cp.Tags = append(pq.StringArray{}, p.Tags...)
	return &cp, nil
}

func (r postRepo) GetByID(_ context.Context, id uint) (*domain.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, postNotFound(id)
	}
	return s.snapshot(p, postAuthor), nil
}

func (r postRepo) List(_ context.Context, q domain.PostQuery) ([]*domain.Post, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	published := true
	if q.Published != nil {
		published = *q.Published
	}
	search := strings.ToLower(q.Search)

	var matched []*domain.Post
	for _, p := range s.posts {
		if p.IsPublished != published {
			continue
		}
		if q.CategoryID != nil && p.CategoryID != *q.CategoryID {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	out := []*domain.Post{}
	start := q.Offset()
	if start >= len(matched) {
		return out, total, nil
	}
	end := min(start+q.Limit, len(matched))
	for _, p := range matched[start:end] {
		out = append(out, s.snapshot(p, listAuthor))
	}
	return out, total, nil
}

func matchesSearch(p *domain.Post, search string) bool {
	if strings.Contains(strings.ToLower(p.Title), search) || strings.Contains(strings.ToLower(p.Content), search) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), search) {
			return true
		}
	}
	return false
}

func (r postRepo) Update(_ context.Context, post *domain.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[post.ID]
	if !ok {
		return postNotFound(post.ID)
	}
	p.Title = post.Title
	p.Content = post.Content
	p.Excerpt = post.Excerpt
	p.CategoryID = post.CategoryID
	p.Tags = append(pq.StringArray{}, post.Tags...)
	p.FeaturedImage = post.FeaturedImage
	p.IsPublished = post.IsPublished
	p.UpdatedAt = s.tick()
	post.UpdatedAt = p.UpdatedAt
	return nil
}

func (r postRepo) Delete(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return postNotFound(id)
	}
	delete(s.comments, id)
	delete(s.posts, id)
	return nil
}

func (r postRepo) IncrementViewCount(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return postNotFound(id)
	}
	p.ViewCount++
	return nil
}

type commentRepo struct{ s *Store }

func (r commentRepo) Append(_ context.Context, comment *domain.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[comment.PostID]; !ok {
		return postNotFound(comment.PostID)
	}
	s.nextCommentID++
	comment.ID = s.nextCommentID
	comment.CreatedAt = s.tick()
	stored := *comment
	stored.Author = nil
	s.comments[comment.PostID] = append(s.comments[comment.PostID], stored)
	return nil
}

func (r commentRepo) Recent(_ context.Context, postID uint, limit int) ([]domain.Comment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.comments[postID]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	return s.resolveComments(log), nil
}

func (r commentRepo) List(_ context.Context, postID uint, w domain.Window) ([]domain.Comment, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.comments[postID]
	total := int64(len(log))
	start := w.Offset()
	if start >= len(log) {
		return []domain.Comment{}, total, nil
	}
	end := min(start+w.Limit, len(log))
	return s.resolveComments(log[start:end]), total, nil
}

func (s *Store) resolveComments(log []domain.Comment) []domain.Comment {
	out := make([]domain.Comment, len(log))
	for i, c := range log {
		out[i] = c
		if u, ok := s.users[c.AuthorID]; ok {
			out[i].Author = commentAuthor(u)
		}
	}
	return out
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) FindByID(_ context.Context, id uint) (*domain.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("%w with id of %d", domain.ErrCategoryNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (r categoryRepo) Create(_ context.Context, category *domain.Category) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if category.ID == 0 {
		category.ID = uint(len(s.categories) + 1)
	}
	cp := *category
	s.categories[category.ID] = &cp
	return nil
}

func (r categoryRepo) List(_ context.Context) ([]*domain.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type tagRepo struct{ s *Store }

func (r tagRepo) ListTags(_ context.Context) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	tags := []string{}
	for _, p := range s.posts {
		if !p.IsPublished {
			continue
		}
		for _, t := range p.Tags {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

type userRepo struct{ s *Store }

func (r userRepo) FirstOrCreate(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			*user = *u
			return nil
		}
	}
	if user.ID == 0 {
		s.nextUserID++
		user.ID = s.nextUserID
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}
