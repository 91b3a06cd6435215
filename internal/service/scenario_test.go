package service

import (
	"context"
	"testing"

	"frontrow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_OnlyAuthorDeletesPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, RegisterInput{Username: "bob", Password: "Secret2"})
	require.NoError(t, err)

	asAlice := env.ctxFor(t, "alice", "Secret1")
	asBob := env.ctxFor(t, "bob", "Secret2")

	post, err := env.posts.CreatePost(asAlice, CreatePostInput{Description: "hello", Link: ""})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, post.AuthorID)

	err = env.posts.DeletePost(asBob, post.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, env.posts.DeletePost(asAlice, post.ID))

	_, err = env.posts.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
