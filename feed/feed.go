// Package feed serves posts, likes and search.
package feed

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/constants"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/store"
	"github.com/hackcelestial/sports-bridge/uploads"
)

var log = logger.Get()
var feedLogger = log.WithField("prefix", "FEED")

const SearchCacheTTL = 30 * time.Second

type Service struct {
	store   store.Store
	uploads *uploads.Service
	search  *cache.Cache
	now     func() time.Time
}

func NewService(s store.Store, up *uploads.Service) *Service {
	return &Service{
		store:   s,
		uploads: up,
		search:  cache.New(SearchCacheTTL, time.Minute),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PostView is a post as clients see it.
type PostView struct {
	*bridge.Post
	Author    bridge.UserSummary `json:"author"`
	LikedByMe bool               `json:"likedByMe"`
}

type Page struct {
	Page       int        `json:"page"`
	Size       int        `json:"size"`
	TotalPages int        `json:"totalPages"`
	TotalItems int64      `json:"totalItems"`
	Items      []PostView `json:"items"`
}

type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PostType    string `json:"postType"`
}

type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// Create publishes a post. image may be nil.
func (s *Service) Create(ctx context.Context, u *bridge.User, req CreateRequest, image io.Reader) (*PostView, *bridge.HttpError) {
	if !bridge.CanPost(u.Role) {
		return nil, bridge.Forbidden("Role not allowed to post", nil)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, bridge.BadRequest("Title is required", nil)
	}
	kind, err := bridge.ParsePostType(req.PostType)
	if err != nil {
		return nil, bridge.BadRequest("Invalid post type", err)
	}
	p := &bridge.Post{
		UserID:      u.ID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		PostType:    kind,
		CreatedAt:   s.now(),
	}
	if image != nil {
		if s.uploads == nil {
			return nil, bridge.BadRequest("Image uploads are not configured", nil)
		}
		url, httpErr := s.uploads.SaveImage(ctx, "posts", image)
		if httpErr != nil {
			return nil, httpErr
		}
		p.ImageURL = url
	}
	if err := s.store.Posts().Create(ctx, p); err != nil {
		return nil, bridge.Internal("Could not save post", err)
	}
	s.search.Flush()
	feedLogger.WithField("post", p.ID).Debug("Post created")
	return &PostView{Post: p, Author: u.Summary()}, nil
}

func (s *Service) load(ctx context.Context, id int64) (*bridge.Post, *bridge.HttpError) {
	p, err := s.store.Posts().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.NotFound("Post not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load post", err)
	}
	return p, nil
}

// Delete removes a post. Only its author or an admin may do so.
func (s *Service) Delete(ctx context.Context, u *bridge.User, id int64) *bridge.HttpError {
	p, httpErr := s.load(ctx, id)
	if httpErr != nil {
		return httpErr
	}
	if p.UserID != u.ID && u.Role != bridge.RoleAdmin {
		return bridge.Forbidden("Only the author can delete this post", nil)
	}
	if err := s.store.Posts().Delete(ctx, id); err != nil {
		return bridge.Internal("Could not delete post", err)
	}
	s.search.Flush()
	return nil
}

func (s *Service) Get(ctx context.Context, viewer *bridge.User, id int64) (*PostView, *bridge.HttpError) {
	p, httpErr := s.load(ctx, id)
	if httpErr != nil {
		return nil, httpErr
	}
	views, err := s.views(ctx, viewer, []*bridge.Post{p})
	if err != nil {
		return nil, bridge.Internal("Could not load post", err)
	}
	return &views[0], nil
}

// ClampPage normalises paging input: page >= 0, size in [1, MaxPageLen], default DefaultPageLen.
func ClampPage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = constants.DefaultPageLen
	}
	if size > constants.MaxPageLen {
		size = constants.MaxPageLen
	}
	return page, size
}

// Feed lists posts newest first. viewer may be nil.
func (s *Service) Feed(ctx context.Context, viewer *bridge.User, page, size int) (*Page, *bridge.HttpError) {
	page, size = ClampPage(page, size)
	posts, total, err := s.store.Posts().Page(ctx, page*size, size)
	if err != nil {
		return nil, bridge.Internal("Could not load feed", err)
	}
	views, err := s.views(ctx, viewer, posts)
	if err != nil {
		return nil, bridge.Internal("Could not load feed", err)
	}
	return &Page{
		Page:       page,
		Size:       size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
		TotalItems: total,
		Items:      views,
	}, nil
}

// ToggleLike likes or unlikes a post.
func (s *Service) ToggleLike(ctx context.Context, u *bridge.User, id int64) (*LikeResult, *bridge.HttpError) {
	p, httpErr := s.load(ctx, id)
	if httpErr != nil {
		return nil, httpErr
	}
	if !bridge.CanLike(u, p) {
		return nil, bridge.Forbidden("Not allowed to like this post", nil)
	}
	liked, count, err := s.store.Likes().Toggle(ctx, u.ID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.NotFound("Post not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not update like", err)
	}
	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

// Search matches title, description or author name. An empty query returns every post.
func (s *Service) Search(ctx context.Context, viewer *bridge.User, query string) ([]PostView, *bridge.HttpError) {
	posts, err := s.store.Posts().Search(ctx, query)
	if err != nil {
		return nil, bridge.Internal("Could not search posts", err)
	}
	views, err := s.views(ctx, viewer, posts)
	if err != nil {
		return nil, bridge.Internal("Could not search posts", err)
	}
	return views, nil
}

// Filter lists posts of one type. "ALL" or empty lists everything.
func (s *Service) Filter(ctx context.Context, viewer *bridge.User, kind string) ([]PostView, *bridge.HttpError) {
	var posts []*bridge.Post
	var err error
	if k := strings.TrimSpace(kind); k == "" || strings.EqualFold(k, "ALL") {
		posts, err = s.store.Posts().All(ctx)
	} else {
		t, parseErr := bridge.ParsePostType(k)
		if parseErr != nil {
			return nil, bridge.BadRequest("Invalid post type", parseErr)
		}
		posts, err = s.store.Posts().ByType(ctx, t)
	}
	if err != nil {
		return nil, bridge.Internal("Could not filter posts", err)
	}
	views, err := s.views(ctx, viewer, posts)
	if err != nil {
		return nil, bridge.Internal("Could not filter posts", err)
	}
	return views, nil
}

// views attaches authors and the viewer's likes.
func (s *Service) views(ctx context.Context, viewer *bridge.User, posts []*bridge.Post) ([]PostView, error) {
	out := make([]PostView, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}
	authorIDs := make([]int64, 0, len(posts))
	postIDs := make([]int64, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.UserID)
		postIDs = append(postIDs, p.ID)
	}
	authors, err := s.store.Users().ByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	liked := map[int64]bool{}
	if viewer != nil {
		if liked, err = s.store.Likes().LikedBy(ctx, viewer.ID, postIDs); err != nil {
			return nil, err
		}
	}
	for _, p := range posts {
		out = append(out, PostView{Post: p, Author: authors[p.UserID].Summary(), LikedByMe: liked[p.ID]})
	}
	return out, nil
}
