package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort is the persistence surface the service depends on.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPass(ctx context.Context, id int64) (*GatePass, error)
	ListPendingPasses(ctx context.Context) ([]GatePass, error)
	ListPasses(ctx context.Context, limit int) ([]GatePass, error)
	SearchPasses(ctx context.Context, term string) ([]GatePass, error)
	ListLogs(ctx context.Context, limit int) ([]GateLog, error)
	ListTodayLogs(ctx context.Context, day time.Time) ([]GateLog, error)
	Summarize(ctx context.Context, day time.Time) (*DailySummary, error)
	AppendLog(ctx context.Context, log GateLog) (int64, error)
}

// Service implements watchman verification and the gate-entry ledger.
type Service struct {
	repo     RepositoryPort
	cache    *redis.Client
	validate *validator.Validate
	logger   *slog.Logger
	group    singleflight.Group
	folder   cases.Caser
	now      func() time.Time
}

const summaryCacheTTL = time.Minute

// NewService constructs the gate service. cache may be nil, summaries are
// then computed on every call.
func NewService(repo RepositoryPort, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		validate: validator.New(),
		logger:   logger,
		folder:   cases.Fold(),
		now:      time.Now,
	}
}

// normalizePhone keeps digits only so formatting differences do not fail a
// pickup. Comparison uses the last ten digits to tolerate country prefixes.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

func (s *Service) identityMatches(pass *GatePass, claimedName, claimedPhone string) bool {
	nameMatch := s.folder.String(strings.TrimSpace(claimedName)) == s.folder.String(strings.TrimSpace(pass.CustomerName))
	phoneMatch := normalizePhone(claimedPhone) == normalizePhone(pass.CustomerPhone)
	return nameMatch && phoneMatch
}

// VerifyIdentity checks the claimed identity against the pass. On a match
// the pass is either released (closing the linked order) or the person is
// sent in with the pass left open. A mismatch changes nothing and is
// reported as an outcome, not an error.
func (s *Service) VerifyIdentity(ctx context.Context, actor *shared.Actor, gatePassID int64, req VerifyIdentityRequest) (*VerifyResult, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	var result *VerifyResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		pass, err := tx.GetPassForUpdate(ctx, gatePassID)
		if err != nil {
			return err
		}
		if pass.Status != PassStatusPendingVerification {
			return fmt.Errorf("%w: gate pass %d already %s", shared.ErrInvalidState, gatePassID, pass.Status)
		}

		if !s.identityMatches(pass, req.ClaimedName, req.ClaimedPhone) {
			result = &VerifyResult{Outcome: OutcomeIdentityMismatch, GatePass: pass}
			return nil
		}

		switch req.Action {
		case "release":
			if err := tx.ReleasePass(ctx, gatePassID, actor.UserID); err != nil {
				return err
			}
			if pass.SalesOrderID != nil {
				if err := tx.UpdateOrderStatus(ctx, *pass.SalesOrderID, sales.OrderStatusDelivered); err != nil {
					return err
				}
			}
			pass.Status = PassStatusReleased
			pass.VerifiedBy = &actor.UserID
			result = &VerifyResult{Outcome: OutcomeReleased, GatePass: pass}
		case "send_in":
			if _, err := tx.InsertLog(ctx, GateLog{
				Kind:       LogKindManualEntry,
				PersonName: pass.CustomerName,
				Phone:      &pass.CustomerPhone,
				LoggedBy:   actor.UserID,
			}); err != nil {
				return err
			}
			result = &VerifyResult{Outcome: OutcomeSentIn, GatePass: pass}
		default:
			return fmt.Errorf("%w: unknown action %q", shared.ErrValidation, req.Action)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("gate pass verification",
		slog.Int64("gate_pass_id", gatePassID),
		slog.String("outcome", string(result.Outcome)))
	return result, nil
}

// RejectPickup refuses a pickup. Legal only while the pass is pending.
func (s *Service) RejectPickup(ctx context.Context, actor *shared.Actor, gatePassID int64, req RejectPickupRequest) (*GatePass, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	var rejected *GatePass
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		pass, err := tx.GetPassForUpdate(ctx, gatePassID)
		if err != nil {
			return err
		}
		if pass.Status != PassStatusPendingVerification {
			return fmt.Errorf("%w: gate pass %d already %s", shared.ErrInvalidState, gatePassID, pass.Status)
		}
		if err := tx.RejectPass(ctx, gatePassID, actor.UserID, req.Reason); err != nil {
			return err
		}
		pass.Status = PassStatusRejected
		pass.VerifiedBy = &actor.UserID
		pass.RejectionReason = &req.Reason
		rejected = pass
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("gate pass rejected",
		slog.Int64("gate_pass_id", gatePassID),
		slog.String("reason", req.Reason))
	return rejected, nil
}

// ListPendingPickups returns passes awaiting verification.
func (s *Service) ListPendingPickups(ctx context.Context) ([]GatePass, error) {
	return s.repo.ListPendingPasses(ctx)
}

// ListGatePasses returns recent passes.
func (s *Service) ListGatePasses(ctx context.Context, limit int) ([]GatePass, error) {
	return s.repo.ListPasses(ctx, limit)
}

// SearchGatePasses matches passes by name, vehicle or order number.
func (s *Service) SearchGatePasses(ctx context.Context, term string) ([]GatePass, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term required", shared.ErrValidation)
	}
	return s.repo.SearchPasses(ctx, term)
}

// DailySummary returns the day's gate activity. Concurrent callers share
// one computation and the result is cached briefly in redis.
func (s *Service) DailySummary(ctx context.Context) (*DailySummary, error) {
	day := s.now()
	key := "watchman:summary:" + day.Format("2006-01-02")

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached DailySummary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		summary, err := s.repo.Summarize(ctx, day)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if raw, err := json.Marshal(summary); err == nil {
				if err := s.cache.Set(ctx, key, raw, summaryCacheTTL).Err(); err != nil {
					s.logger.Warn("cache summary", slog.Any("error", err))
				}
			}
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*DailySummary), nil
}

// RegisterPerson books a visitor into the ledger.
func (s *Service) RegisterPerson(ctx context.Context, actor *shared.Actor, req RegisterPersonRequest) (*GateLog, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return s.appendLog(ctx, GateLog{
		Kind:       LogKindRegister,
		PersonName: req.PersonName,
		Phone:      req.Phone,
		PhotoRef:   req.PhotoRef,
		LoggedBy:   actor.UserID,
	})
}

// RecordMovement appends a manual entry/exit or going-out/coming-back line.
func (s *Service) RecordMovement(ctx context.Context, actor *shared.Actor, kind LogKind, req ManualLogRequest) (*GateLog, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if !kind.IsValid() || kind == LogKindRegister {
		return nil, fmt.Errorf("%w: unknown movement %q", shared.ErrValidation, kind)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if (kind == LogKindGoingOut || kind == LogKindComingBack) && (req.Reason == nil || *req.Reason == "") {
		return nil, fmt.Errorf("%w: reason required for %s", shared.ErrValidation, kind)
	}
	return s.appendLog(ctx, GateLog{
		Kind:       kind,
		PersonName: req.PersonName,
		Phone:      req.Phone,
		Reason:     req.Reason,
		LoggedBy:   actor.UserID,
	})
}

// ListLogs returns the most recent ledger entries.
func (s *Service) ListLogs(ctx context.Context, limit int) ([]GateLog, error) {
	return s.repo.ListLogs(ctx, limit)
}

// ListTodayLogs returns today's ledger entries.
func (s *Service) ListTodayLogs(ctx context.Context) ([]GateLog, error) {
	return s.repo.ListTodayLogs(ctx, s.now())
}

func (s *Service) appendLog(ctx context.Context, log GateLog) (*GateLog, error) {
	id, err := s.repo.AppendLog(ctx, log)
	if err != nil {
		return nil, err
	}
	log.ID = id
	log.CreatedAt = s.now()
	return &log, nil
}
