package service

import (
	"context"
	"errors"
	"testing"

	"frontrow/internal/models"
	"frontrow/internal/notifications"
	"frontrow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_AddAndList(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")

	post, err := env.posts.CreatePost(asUser(alice), CreatePostInput{Description: "hello"})
	require.NoError(t, err)

	c, err := env.comments.AddComment(asUser(bob), post.ID, "  nice post  ")
	require.NoError(t, err)
	assert.Equal(t, "nice post", c.Content)
	assert.Equal(t, bob.ID, c.AuthorID)
	require.NotNil(t, c.Author)
	assert.Equal(t, "bob", c.Author.Username)

	_, err = env.comments.AddComment(asUser(bob), post.ID, " ")
	assert.ErrorIs(t, err, models.ErrInvalid)
	_, err = env.comments.AddComment(asUser(bob), 999, "lost")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = env.comments.AddComment(context.Background(), post.ID, "anon")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	list, err := env.comments.ListComments(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = env.comments.ListComments(context.Background(), 999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	events := env.publisher.For(alice.ID)
	require.Len(t, events, 1)
	assert.Equal(t, notifications.EventPostCommented, events[0].Type)
	assert.Equal(t, c.ID, events[0].CommentID)
}

func TestCommentService_Ownership(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")

	post, err := env.posts.CreatePost(asUser(alice), CreatePostInput{Description: "hello"})
	require.NoError(t, err)
	c, err := env.comments.AddComment(asUser(bob), post.ID, "mine")
	require.NoError(t, err)

	_, err = env.comments.UpdateComment(asUser(alice), post.ID, c.ID, "edited by post author")
	assert.ErrorIs(t, err, models.ErrForbidden, "post author does not own the comment")
	assert.ErrorIs(t, env.comments.DeleteComment(asUser(alice), post.ID, c.ID), models.ErrForbidden)

	updated, err := env.comments.UpdateComment(asUser(bob), post.ID, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	require.NoError(t, env.comments.DeleteComment(asUser(bob), post.ID, c.ID))
	assert.ErrorIs(t, env.comments.DeleteComment(asUser(bob), post.ID, c.ID), models.ErrNotFound)
}

func TestCommentService_WrongPostIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	p1, err := env.posts.CreatePost(asUser(alice), CreatePostInput{Description: "one"})
	require.NoError(t, err)
	p2, err := env.posts.CreatePost(asUser(alice), CreatePostInput{Description: "two"})
	require.NoError(t, err)
	c, err := env.comments.AddComment(asUser(alice), p1.ID, "on one")
	require.NoError(t, err)

	_, err = env.comments.UpdateComment(asUser(alice), p2.ID, c.ID, "moved")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = env.comments.LikeComment(asUser(alice), p2.ID, c.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = env.comments.UpdateComment(asUser(alice), 999, c.ID, "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCommentService_LikeToggle(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")

	post, err := env.posts.CreatePost(asUser(alice), CreatePostInput{Description: "hello"})
	require.NoError(t, err)
	c, err := env.comments.AddComment(asUser(alice), post.ID, "first")
	require.NoError(t, err)

	liked, err := env.comments.LikeComment(asUser(bob), post.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, liked.LikedBy())

	_, err = env.comments.LikeComment(asUser(bob), post.ID, c.ID)
	require.ErrorIs(t, err, models.ErrConflict)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Comment", appErr.Params["resource"])

	unliked, err := env.comments.UnlikeComment(asUser(bob), post.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, unliked.LikedBy())

	_, err = env.comments.UnlikeComment(asUser(bob), post.ID, c.ID)
	assert.ErrorIs(t, err, models.ErrConflict)

	var likeEvents int
	for _, ev := range env.publisher.For(alice.ID) {
		if ev.Type == notifications.EventCommentLiked {
			likeEvents++
		}
	}
	assert.Equal(t, 1, likeEvents)
}

func TestCommentService_PublishFailureDoesNotFailMutation(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("redis down")
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")

	post, err := env.posts.CreatePost(asUser(alice), CreatePostInput{Description: "hello"})
	require.NoError(t, err)
	_, err = env.comments.AddComment(asUser(bob), post.ID, "still saved")
	require.NoError(t, err)

	list, err := env.comments.ListComments(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
