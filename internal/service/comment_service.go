package service

import (
	"context"
	"strings"

	"frontrow/internal/locks"
	"frontrow/internal/models"
	"frontrow/internal/notifications"
	"frontrow/internal/observability"
	"frontrow/internal/repository"
)

const maxCommentLen = 2000

type CommentService struct {
	engine
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	keyed *locks.Keyed,
	publisher Publisher,
) *CommentService {
	return &CommentService{
		engine:      newEngine(keyed, publisher),
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Comment content is required.")
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Comment is too long (max 2000 characters).")
	}
	return nil
}

func (s *CommentService) loadPost(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, internal(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

// loadComment returns the comment only when it belongs to postID.
func (s *CommentService) loadComment(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, postID, commentID)
	if err != nil {
		return nil, internal(err)
	}
	if comment == nil {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, internal(err)
	}
	return comments, nil
}

// AddComment appends a comment under the post lock so it cannot race a
// concurrent DeletePost.
func (s *CommentService) AddComment(ctx context.Context, postID uint, content string) (comment *models.Comment, err error) {
	ctx, finish := track(ctx, "comment_service", "add_comment")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, lockPost, postID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment = &models.Comment{
		PostID:   postID,
		AuthorID: p.UserID,
		Content:  strings.TrimSpace(content),
		Date:     s.now().UTC(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, storeError(err, "Post", postID)
	}

	s.notify(ctx, post.AuthorID, notifications.Event{
		Type:      notifications.EventPostCommented,
		ActorID:   p.UserID,
		PostID:    postID,
		CommentID: comment.ID,
	})
	return s.loadComment(ctx, postID, comment.ID)
}

// UpdateComment replaces the content. Only the comment's author may edit.
func (s *CommentService) UpdateComment(ctx context.Context, postID, commentID uint, content string) (comment *models.Comment, err error) {
	ctx, finish := track(ctx, "comment_service", "update_comment")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, lockComment, commentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}
	comment, err = s.loadComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != p.UserID {
		return nil, models.NewForbiddenError("Only the author can edit this comment.")
	}

	comment.Content = strings.TrimSpace(content)
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, storeError(err, "Comment", commentID)
	}
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, postID, commentID uint) (err error) {
	ctx, finish := track(ctx, "comment_service", "delete_comment")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx, lockComment, commentID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.loadPost(ctx, postID); err != nil {
		return err
	}
	comment, err := s.loadComment(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != p.UserID {
		return models.NewForbiddenError("Only the author can delete this comment.")
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return storeError(err, "Comment", commentID)
	}
	return nil
}

func (s *CommentService) LikeComment(ctx context.Context, postID, commentID uint) (comment *models.Comment, err error) {
	ctx, finish := track(ctx, "comment_service", "like_comment")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, lockComment, commentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	comment, err = s.loadComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.IsLikedBy(p.UserID) {
		return nil, alreadyLiked("Comment", commentID)
	}

	added, err := s.commentRepo.AddLike(ctx, commentID, p.UserID)
	if err != nil {
		return nil, storeError(err, "Comment", commentID)
	}
	if !added {
		return nil, alreadyLiked("Comment", commentID)
	}
	comment.Likes = append(comment.Likes, models.CommentLike{CommentID: commentID, UserID: p.UserID})
	observability.LikeToggles.WithLabelValues("comment", "like").Inc()

	s.notify(ctx, comment.AuthorID, notifications.Event{
		Type:      notifications.EventCommentLiked,
		ActorID:   p.UserID,
		PostID:    postID,
		CommentID: commentID,
	})
	return comment, nil
}

func (s *CommentService) UnlikeComment(ctx context.Context, postID, commentID uint) (comment *models.Comment, err error) {
	ctx, finish := track(ctx, "comment_service", "unlike_comment")
	defer finish(&err)

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, lockComment, commentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	comment, err = s.loadComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.IsLikedBy(p.UserID) {
		return nil, notLiked("Comment", commentID)
	}

	removed, err := s.commentRepo.RemoveLike(ctx, commentID, p.UserID)
	if err != nil {
		return nil, storeError(err, "Comment", commentID)
	}
	if !removed {
		return nil, notLiked("Comment", commentID)
	}
	likes := comment.Likes[:0]
	for _, l := range comment.Likes {
		if l.UserID != p.UserID {
			likes = append(likes, l)
		}
	}
	comment.Likes = likes
	observability.LikeToggles.WithLabelValues("comment", "unlike").Inc()
	return comment, nil
}
