package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryUserRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]User)}
}

func (r *memoryUserRepo) Create(ctx context.Context, u User) (int64, error) {
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return 0, shared.ErrDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.users[u.ID] = u
	return u.ID, nil
}

func (r *memoryUserRepo) Get(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) GetByLogin(ctx context.Context, login string) (*User, error) {
	for _, u := range r.users {
		if u.Username == login || u.Email == login {
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryUserRepo) ListPending(ctx context.Context) ([]User, error) {
	pending := make([]User, 0)
	for _, u := range r.users {
		if u.Status == UserStatusPending {
			pending = append(pending, u)
		}
	}
	return pending, nil
}

func (r *memoryUserRepo) UpdateStatus(ctx context.Context, id int64, status UserStatus) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Status = status
	r.users[id] = u
	return nil
}

func newAuthService(t *testing.T) (*Service, *memoryUserRepo, *shared.TokenStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := shared.NewTokenStore(client, time.Hour)
	repo := newMemoryUserRepo()
	return NewService(repo, tokens, nil, slog.Default()), repo, tokens
}

func registerUser(t *testing.T, svc *Service) *User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterRequest{
		Username:   "asha",
		Email:      "asha@example.com",
		Password:   "correct horse",
		FullName:   "Asha Verma",
		Department: "sales",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterOpensPendingAccount(t *testing.T) {
	svc, _, _ := newAuthService(t)

	user := registerUser(t, svc)
	require.Equal(t, UserStatusPending, user.Status)
	require.NotEmpty(t, user.ID)

	_, err := svc.Login(context.Background(), LoginRequest{Login: "asha", Password: "correct horse"})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestLoginAfterApprovalIssuesToken(t *testing.T) {
	svc, _, tokens := newAuthService(t)

	user := registerUser(t, svc)
	admin := &shared.Actor{UserID: 1, Name: "admin", Department: shared.DeptAdmin}
	decided, err := svc.DecideUser(context.Background(), admin, user.ID, ApproveUserRequest{Approved: true})
	require.NoError(t, err)
	require.Equal(t, UserStatusApproved, decided.Status)

	resp, err := svc.Login(context.Background(), LoginRequest{Login: "asha@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Contains(t, resp.Scopes, shared.PermSalesOrderCreate)
	require.Equal(t, int64(3600), resp.ExpiresIn)

	actor, err := tokens.Resolve(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, actor.UserID)
	require.Equal(t, "Asha Verma", actor.Name)
	require.Equal(t, "sales", actor.Department)
}

func TestLoginWithWrongPasswordFails(t *testing.T) {
	svc, repo, _ := newAuthService(t)

	user := registerUser(t, svc)
	require.NoError(t, repo.UpdateStatus(context.Background(), user.ID, UserStatusApproved))

	_, err := svc.Login(context.Background(), LoginRequest{Login: "asha", Password: "wrong horse"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Login: "nobody", Password: "correct horse"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, repo, tokens := newAuthService(t)

	user := registerUser(t, svc)
	require.NoError(t, repo.UpdateStatus(context.Background(), user.ID, UserStatusApproved))

	resp, err := svc.Login(context.Background(), LoginRequest{Login: "asha", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), resp.Token))

	_, err = tokens.Resolve(context.Background(), resp.Token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestDecideUserTwiceFails(t *testing.T) {
	svc, _, _ := newAuthService(t)

	user := registerUser(t, svc)
	admin := &shared.Actor{UserID: 1, Name: "admin", Department: shared.DeptAdmin}

	rejected, err := svc.DecideUser(context.Background(), admin, user.ID, ApproveUserRequest{Approved: false})
	require.NoError(t, err)
	require.Equal(t, UserStatusRejected, rejected.Status)

	_, err = svc.DecideUser(context.Background(), admin, user.ID, ApproveUserRequest{Approved: true})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}
