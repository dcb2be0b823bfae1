// Command seed loads development users, categories and sample posts, then
// prints access tokens for the seeded users.
package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"seungpyo.lee/BlogPlatform/internal/adapter"
	"seungpyo.lee/BlogPlatform/internal/config"
	"seungpyo.lee/BlogPlatform/internal/domain"
	"seungpyo.lee/BlogPlatform/internal/metrics"
	"seungpyo.lee/BlogPlatform/internal/repository"
	"seungpyo.lee/BlogPlatform/internal/service"
	"seungpyo.lee/BlogPlatform/pkg/jwt"
	"seungpyo.lee/BlogPlatform/pkg/logger"
)

var users = []domain.User{
	{Name: "BIG T", Email: "bigt@example.com", Role: domain.RoleAdmin, Bio: "Full-stack developer and tech enthusiast"},
	{Name: "Jane Smith", Email: "jane@example.com", Role: domain.RoleUser, Bio: "Content writer and blogger"},
}

var categories = []domain.Category{
	{Name: "Technology", Description: "Latest tech trends and tutorials", Color: "#3B82F6"},
	{Name: "Lifestyle", Description: "Life tips and personal experiences", Color: "#10B981"},
	{Name: "Travel", Description: "Travel guides and adventures", Color: "#F59E0B"},
	{Name: "Food", Description: "Recipes and food reviews", Color: "#EF4444"},
}

var posts = []domain.CreatePostRequest{
	{
		Title: "Getting Started with React Hooks",
		Content: `<p>React Hooks let function components use state and lifecycle features.</p>
<h2>useState</h2>
<p>The useState hook adds local state to a component.</p>
<pre><code>const [count, setCount] = useState(0);</code></pre>
<h2>useEffect</h2>
<p>The useEffect hook runs side effects after render.</p>`,
		Excerpt:       "Learn how to use React Hooks to simplify your React components and manage state effectively.",
		Tags:          []string{"react", "javascript", "hooks", "frontend"},
		FeaturedImage: "https://images.unsplash.com/photo-1633356122544-f134324a6cee?w=800&h=400&fit=crop",
		IsPublished:   true,
	},
	{
		Title: "The Art of Minimalist Living",
		Content: `<p>Minimalism is about making room for what matters most.</p>
<h2>Benefits</h2>
<ul><li>Reduced stress</li><li>More time</li><li>Financial freedom</li></ul>
<p>Start small. Pick one area of your home and remove what you have not used in a year.</p>`,
		Tags:          []string{"lifestyle", "minimalism", "wellness", "productivity"},
		FeaturedImage: "https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=800&h=400&fit=crop",
		IsPublished:   true,
	},
	{
		Title:       "Draft: Weekend in Lisbon",
		Content:     "<p>Notes from a short trip. Still writing this one.</p>",
		Tags:        []string{"travel", "europe"},
		IsPublished: false,
	},
}

func main() {
	conf := config.LoadPostConfig()
	log := logger.New(conf.LogLevel)
	ctx := context.Background()

	db, err := repository.Open(conf.PostgreConnectionString)
	if err != nil {
		log.Fatal("failed to connect db", "error", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate db", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	seeded := make([]domain.User, len(users))
	for i, u := range users {
		if err := userRepo.FirstOrCreate(ctx, &u); err != nil {
			log.Fatal("failed to seed user", "email", u.Email, "error", err)
		}
		seeded[i] = u
	}
	log.Info("users ready", "count", len(seeded))

	categoryRepo := repository.NewCategoryRepository(db)
	existing, err := categoryRepo.List(ctx)
	if err != nil {
		log.Fatal("failed to list categories", "error", err)
	}
	byName := make(map[string]*domain.Category, len(existing))
	for _, c := range existing {
		byName[c.Name] = c
	}
	var cats []*domain.Category
	for _, c := range categories {
		if found, ok := byName[c.Name]; ok {
			cats = append(cats, found)
			continue
		}
		c.Slug = slugify(c.Name)
		if err := categoryRepo.Create(ctx, &c); err != nil {
			log.Fatal("failed to seed category", "name", c.Name, "error", err)
		}
		cats = append(cats, &c)
	}
	log.Info("categories ready", "count", len(cats))

	repos := service.Repositories{
		Posts:      repository.NewPostRepository(db),
		Comments:   repository.NewCommentRepository(db),
		Categories: categoryRepo,
		Tags:       repository.NewTagRepository(db),
	}
	svc := service.NewPostService(repos, adapter.NewContentAdapter(), metrics.Noop{}, log, conf)

	total, err := existingPosts(ctx, svc)
	if err != nil {
		log.Fatal("failed to count posts", "error", err)
	}
	if total > 0 {
		log.Info("posts already present, skipping sample posts", "total", total)
	} else {
		for i, req := range posts {
			author := seeded[i%len(seeded)]
			req.Category = cats[i%len(cats)].ID
			actor := &domain.Actor{ID: author.ID, Role: author.Role}
			post, err := svc.CreatePost(ctx, actor, req)
			if err != nil {
				log.Fatal("failed to seed post", "title", req.Title, "error", err)
			}
			if post.IsPublished {
				if _, err := svc.AddComment(ctx, post.ID, &domain.Actor{ID: seeded[(i+1)%len(seeded)].ID}, "Great read, thanks for sharing!"); err != nil {
					log.Fatal("failed to seed comment", "post_id", post.ID, "error", err)
				}
			}
		}
		log.Info("sample posts created", "count", len(posts))
	}

	tokens := jwt.NewTokenManagerWithoutRedis(conf.JWTSecretKey)
	ttl := time.Duration(conf.AccessTokenTTL) * time.Minute
	for _, u := range seeded {
		token, err := tokens.GenerateAccessToken(u.ID, u.Name, string(u.Role), ttl)
		if err != nil {
			log.Fatal("failed to sign token", "user_id", u.ID, "error", err)
		}
		fmt.Printf("%s (%s, id %d)\n  Authorization: Bearer %s\n", u.Email, u.Role, u.ID, token)
	}
}

// existingPosts counts stored posts in both publication states.
func existingPosts(ctx context.Context, svc domain.PostService) (int64, error) {
	var total int64
	for _, published := range []bool{true, false} {
		page, err := svc.ListPosts(ctx, domain.PostQuery{
			Window:    domain.Window{Page: 1, Limit: 1},
			Published: &published,
		})
		if err != nil {
			return 0, err
		}
		total += page.Total
	}
	return total, nil
}

var (
	nonSlug     = regexp.MustCompile(`[^a-z0-9]+`)
	edgeHyphens = regexp.MustCompile(`^-+|-+$`)
)

// slugify lowercases name and joins its alphanumeric runs with hyphens.
func slugify(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return edgeHyphens.ReplaceAllString(s, "")
}
