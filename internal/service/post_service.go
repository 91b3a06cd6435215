package service

import (
	"context"
	"strings"
	"time"

	"frontrow/internal/locks"
	"frontrow/internal/models"
	"frontrow/internal/notifications"
	"frontrow/internal/observability"
	"frontrow/internal/repository"
)

const maxDescriptionLen = 5000

type PostService struct {
	engine
	postRepo repository.PostRepository
}

type CreatePostInput struct {
	Description string     `json:"description"`
	Link        string     `json:"link"`
	Date        *time.Time `json:"date"`
}

// ListPostsInput selects posts by Query: "" (all), "id", "user" (author
// ids) or "date" (a "dd.MM.yyyy x dd.MM.yyyy" range).
type ListPostsInput struct {
	Query     string
	Parameter string
	Limit     int
	Offset    int
}

func NewPostService(postRepo repository.PostRepository, keyed *locks.Keyed, publisher Publisher) *PostService {
	return &PostService{
		engine:   newEngine(keyed, publisher),
		postRepo: postRepo,
	}
}

func validateDescription(d string) error {
	if strings.TrimSpace(d) == "" {
		return models.NewValidationError("Description is required.")
	}
	if len(d) > maxDescriptionLen {
		return models.NewValidationError("Description is too long (max 5000 characters).")
	}
	return nil
}

// loadPost returns the aggregate or NotFound.
func (s *PostService) loadPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.loadPost(ctx, id)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	filter := repository.PostFilter{Limit: in.Limit, Offset: in.Offset}

	switch strings.ToLower(strings.TrimSpace(in.Query)) {
	case "":
	case QueryID:
		ids, err := parseIDList(in.Parameter)
		if err != nil {
			return nil, err
		}
		filter.IDs = ids
	case QueryUser:
		ids, err := parseIDList(in.Parameter)
		if err != nil {
			return nil, err
		}
		filter.AuthorIDs = ids
	case QueryDate:
		from, to, err := parseDateRange(in.Parameter, time.UTC)
		if err != nil {
			return nil, err
		}
		filter.From, filter.To = &from, &to
	default:
		return nil, models.NewValidationError("Unknown query '" + in.Query + "'; use id, user or date.")
	}

	posts, err := s.postRepo.List(ctx, filter)
	if err != nil {
		return nil, internal(err)
	}
	return posts, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, finish := track(ctx, "post_service", "create_post")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	date := s.now().UTC()
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}

	post = &models.Post{
		AuthorID:    p.UserID,
		Description: strings.TrimSpace(in.Description),
		Link:        strings.TrimSpace(in.Link),
		Date:        date,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, internal(err)
	}
	return s.loadPost(ctx, post.ID)
}

// UpdatePost applies the non-nil patch fields. Only the author may edit.
func (s *PostService) UpdatePost(ctx context.Context, id uint, patch models.PostPatch) (post *models.Post, err error) {
	ctx, finish := track(ctx, "post_service", "update_post")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if patch.Description != nil {
		if err := validateDescription(*patch.Description); err != nil {
			return nil, err
		}
	}

	unlock, err := s.lock(ctx, lockPost, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	post, err = s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != p.UserID {
		return nil, models.NewForbiddenError("Only the author can edit this post.")
	}

	if patch.Description != nil {
		post.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Link != nil {
		post.Link = strings.TrimSpace(*patch.Link)
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, storeError(err, "Post", id)
	}
	return post, nil
}

// DeletePost removes the post with its comments and likes.
func (s *PostService) DeletePost(ctx context.Context, id uint) (err error) {
	ctx, finish := track(ctx, "post_service", "delete_post")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx, lockPost, id)
	if err != nil {
		return err
	}
	defer unlock()

	post, err := s.loadPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != p.UserID {
		return models.NewForbiddenError("Only the author can delete this post.")
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return storeError(err, "Post", id)
	}
	return nil
}

// LikePost adds the caller to the like set. A second like is a Conflict.
func (s *PostService) LikePost(ctx context.Context, id uint) (post *models.Post, err error) {
	ctx, finish := track(ctx, "post_service", "like_post")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, lockPost, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	post, err = s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.IsLikedBy(p.UserID) {
		return nil, alreadyLiked("Post", id)
	}

	added, err := s.postRepo.AddLike(ctx, id, p.UserID)
	if err != nil {
		return nil, storeError(err, "Post", id)
	}
	if !added {
		return nil, alreadyLiked("Post", id)
	}
	post.Likes = append(post.Likes, models.PostLike{PostID: id, UserID: p.UserID})
	observability.LikeToggles.WithLabelValues("post", "like").Inc()

	s.notify(ctx, post.AuthorID, notifications.Event{
		Type:    notifications.EventPostLiked,
		ActorID: p.UserID,
		PostID:  id,
	})
	return post, nil
}

// UnlikePost removes the caller from the like set. Unliking a post the
// caller does not like is a Conflict.
func (s *PostService) UnlikePost(ctx context.Context, id uint) (post *models.Post, err error) {
	ctx, finish := track(ctx, "post_service", "unlike_post")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, lockPost, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	post, err = s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsLikedBy(p.UserID) {
		return nil, notLiked("Post", id)
	}

	removed, err := s.postRepo.RemoveLike(ctx, id, p.UserID)
	if err != nil {
		return nil, storeError(err, "Post", id)
	}
	if !removed {
		return nil, notLiked("Post", id)
	}
	likes := post.Likes[:0]
	for _, l := range post.Likes {
		if l.UserID != p.UserID {
			likes = append(likes, l)
		}
	}
	post.Likes = likes
	observability.LikeToggles.WithLabelValues("post", "unlike").Inc()
	return post, nil
}

func alreadyLiked(resource string, id uint) *models.AppError {
	return models.NewConflictError(
		resource+" with ID "+uintString(id)+" is already liked.",
		map[string]any{"resource": resource, "id": id},
	)
}

func notLiked(resource string, id uint) *models.AppError {
	return models.NewConflictError(
		resource+" with ID "+uintString(id)+" is not liked.",
		map[string]any{"resource": resource, "id": id},
	)
}
