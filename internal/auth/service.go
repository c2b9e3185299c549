package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort is the persistence surface the service needs.
type RepositoryPort interface {
	Create(ctx context.Context, u User) (int64, error)
	Get(ctx context.Context, id int64) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	ListPending(ctx context.Context) ([]User, error)
	UpdateStatus(ctx context.Context, id int64, status UserStatus) error
}

// AuditPort records account decisions.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service implements registration, login and account approval.
type Service struct {
	repo     RepositoryPort
	tokens   *shared.TokenStore
	audit    AuditPort
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs the auth service.
func NewService(repo RepositoryPort, tokens *shared.TokenStore, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		audit:    audit,
		logger:   logger,
		validate: validator.New(),
	}
}

// Register opens an account in pending status. Nobody can log in until an
// admin approves it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Department:   req.Department,
		Status:       UserStatusPending,
	}
	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", id, "username", req.Username, "department", req.Department)
	return s.repo.Get(ctx, id)
}

// Login verifies credentials and issues a bearer token. Pending and rejected
// accounts cannot log in.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}

	user, err := s.repo.GetByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if user.Status != UserStatusApproved {
		return nil, fmt.Errorf("%w: account is %s", shared.ErrForbidden, user.Status)
	}

	name := user.FullName
	if name == "" {
		name = user.Username
	}
	token, err := s.tokens.Issue(ctx, shared.Actor{UserID: user.ID, Name: name, Department: user.Department})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "department", user.Department)
	return &LoginResponse{
		Token:     token,
		User:      *user,
		Scopes:    shared.ScopesForDepartment(user.Department),
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// ListPendingUsers returns accounts waiting for a decision.
func (s *Service) ListPendingUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListPending(ctx)
}

// DecideUser approves or rejects a pending account.
func (s *Service) DecideUser(ctx context.Context, actor *shared.Actor, userID int64, req ApproveUserRequest) (*User, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != UserStatusPending {
		return nil, fmt.Errorf("%w: account already %s", shared.ErrInvalidState, user.Status)
	}

	status := UserStatusRejected
	action := "reject"
	if req.Approved {
		status = UserStatusApproved
		action = "approve"
	}
	if err := s.repo.UpdateStatus(ctx, userID, status); err != nil {
		return nil, err
	}

	if s.audit != nil {
		var actorID int64
		if actor != nil {
			actorID = actor.UserID
		}
		entry := shared.AuditLog{
			ActorID:  actorID,
			Action:   "user." + action,
			Entity:   "user",
			EntityID: strconv.FormatInt(userID, 10),
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Error("record audit log", slog.Any("error", err))
		}
	}
	s.logger.Info("user account decided", "user_id", userID, "status", status)
	return s.repo.Get(ctx, userID)
}
