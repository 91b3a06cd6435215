package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"frontrow/internal/models"
	"frontrow/internal/repository"
	"frontrow/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockUserRepo is a testify mock for repository.UserRepository.
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserRepo) List(ctx context.Context, filter repository.UserFilter) ([]*models.User, error) {
	args := m.Called(ctx, filter)
	us, _ := args.Get(0).([]*models.User)
	return us, args.Error(1)
}
func (m *mockUserRepo) Create(ctx context.Context, user *models.User, roles ...string) error {
	return m.Called(ctx, user, roles).Error(0)
}
func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *mockUserRepo) UpdateUsername(ctx context.Context, id uint, username string) error {
	return m.Called(ctx, id, username).Error(0)
}
func (m *mockUserRepo) AddRole(ctx context.Context, id uint, role string) error {
	return m.Called(ctx, id, role).Error(0)
}
func (m *mockUserRepo) RemoveRole(ctx context.Context, id uint, role string) error {
	return m.Called(ctx, id, role).Error(0)
}
func (m *mockUserRepo) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	args := m.Called(ctx, role)
	us, _ := args.Get(0).([]*models.User)
	return us, args.Error(1)
}
func (m *mockUserRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func TestAuthService_RegisterLoginValidate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "Secret1", user.Password)

	res, err := env.auth.Login(ctx, LoginInput{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token.Value)

	subject, err := env.tokens.Verify(res.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	p, err := env.auth.ValidateToken(ctx, res.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, []string{models.RoleUser}, p.Roles)
}

func TestAuthService_RegisterRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   RegisterInput
		kind error
	}{
		{"Taken username", RegisterInput{Username: "alice", Password: "Secret1"}, models.ErrConflict},
		{"Weak password", RegisterInput{Username: "bob", Password: "secret"}, models.ErrInvalid},
		{"Bad username", RegisterInput{Username: "b@d", Password: "Secret1"}, models.ErrInvalid},
		{"Password over 72 bytes", RegisterInput{Username: "carol", Password: strings.Repeat("a1", 40)}, models.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.in)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err = env.auth.Register(ctx, RegisterInput{Username: "alice", Password: "Secret1"})
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Username is already taken.", appErr.Message)
}

func TestHashPassword_TooLongIsInvalid(t *testing.T) {
	_, err := hashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, models.ErrInvalid)

	hash, err := hashPassword(strings.Repeat("a", 71) + "1")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestAuthService_RegisterUniqueRace(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything, []string{models.RoleUser}).Return(repository.ErrDuplicate)

	svc := NewAuthService(repo, nil, nil)
	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "Secret1"})
	assert.ErrorIs(t, err, models.ErrConflict)
	repo.AssertExpectations(t)
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "alice")

	_, unknown := env.auth.Login(context.Background(), LoginInput{Username: "nobody", Password: "Secret1"})
	_, wrong := env.auth.Login(context.Background(), LoginInput{Username: "alice", Password: "Wrong1"})

	require.Error(t, unknown)
	require.Error(t, wrong)
	assert.ErrorIs(t, unknown, models.ErrUnauthenticated)
	assert.Equal(t, unknown.Error(), wrong.Error())
	assert.Equal(t, "Login has failed.", wrong.Error())
}

func TestAuthService_LoginStoreFailure(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, errors.New("db down"))

	svc := NewAuthService(repo, nil, nil)
	_, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "Secret1"})
	assert.ErrorIs(t, err, models.ErrInternal)
}

func TestAuthService_ValidateToken(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	_, err := env.auth.ValidateToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
	assert.Equal(t, "Token is invalid or expired.", err.Error())

	tok, err := env.tokens.Issue("alice")
	require.NoError(t, err)
	_, err = env.auth.ValidateToken(context.Background(), tok.Value)
	require.NoError(t, err)

	require.NoError(t, repository.NewUserRepository(env.db).Delete(context.Background(), alice.ID))
	_, err = env.auth.ValidateToken(context.Background(), tok.Value)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}
