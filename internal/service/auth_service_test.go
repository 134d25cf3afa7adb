package service

import (
	"context"
	"testing"

	"smartqa_backend/internal/model"
	"smartqa_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	resp, err := e.auth.Register(RegisterInput{
		Username: "student1", Email: "Student@Test.com", Password: "secret123", Role: "student",
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "student", resp.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "student@test.com", resp.User.Email)

	login, err := e.auth.Login(LoginInput{Email: "student@test.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = e.auth.Login(LoginInput{Email: "student@test.com", Password: "wrong"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = e.auth.Login(LoginInput{Email: "nobody@test.com", Password: "secret123"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestRegisterConflicts(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice", model.Student)

	_, err := e.auth.Register(RegisterInput{Username: "alice", Email: "new@test.com", Password: "secret123", Role: "student"})
	assert.ErrorIs(t, err, util.ErrUsernameTaken)

	_, err = e.auth.Register(RegisterInput{Username: "alice2", Email: "alice@test.com", Password: "secret123", Role: "student"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	_, err = e.auth.Register(RegisterInput{Username: "eve", Email: "eve@test.com", Password: "secret123", Role: "teacher"})
	assert.ErrorIs(t, err, util.ErrInvalidRole)
}

// 模拟并发注册：存在性检查之后才写入的冲突行
func TestCreateUserUniqueViolation(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice", model.Student)

	err := e.auth.create(&model.User{Username: "alice", Email: "other@test.com", PasswordHash: "x", Role: model.Student, TestHistory: []byte("[]")})
	assert.ErrorIs(t, err, util.ErrUsernameTaken)

	err = e.auth.create(&model.User{Username: "alice3", Email: "alice@test.com", PasswordHash: "x", Role: model.Student, TestHistory: []byte("[]")})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	var count int64
	require.NoError(t, e.db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLogoutRevokesToken(t *testing.T) {
	e := newEnv(t)
	_, claims := e.register(t, "bob", model.Admin)
	ctx := context.Background()

	revoked, err := e.auth.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, e.auth.Logout(ctx, claims))

	revoked, err = e.auth.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestCurrentUserDeleted(t *testing.T) {
	e := newEnv(t)
	user, claims := e.register(t, "carol", model.Student)

	got, err := e.auth.CurrentUser(claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, e.users.Delete(context.Background(), user.ID))
	_, err = e.auth.CurrentUser(claims)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
