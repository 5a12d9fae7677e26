package verification

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"go.uber.org/zap"

	"carwash/internal/domain"
	"carwash/internal/modules/booking"
	"carwash/internal/pkg/phone"
	"carwash/internal/pkg/sms"
)

var codeRegex = regexp.MustCompile(`^\d{4}$`)

// Service drives the OTP flow: Unverified -> CodeIssued -> Verified ->
// Committed, with a direct-commit short-circuit for phones that already
// proved ownership. Verification is phone-scoped: different pending payloads
// for the same phone each get their own code row, and only the matched one
// proceeds to commit.
type Service struct {
	codes     CodeStore
	customers CustomerStore
	committer Committer
	sender    sms.Sender
	smsLogs   SMSLogStore
	pepper    string
	logger    *zap.Logger
}

func NewService(
	codes CodeStore,
	customers CustomerStore,
	committer Committer,
	sender sms.Sender,
	smsLogs SMSLogStore,
	pepper string,
	logger *zap.Logger,
) *Service {
	return &Service{
		codes:     codes,
		customers: customers,
		committer: committer,
		sender:    sender,
		smsLogs:   smsLogs,
		pepper:    pepper,
		logger:    logger,
	}
}

type StartRequest struct {
	InstanceID  int64                 `json:"instance_id"`
	Phone       string                `json:"phone"`
	Reservation booking.CommitRequest `json:"reservation"`
}

type StartResult struct {
	Issued                 bool                `json:"issued"`
	SkippedAlreadyVerified bool                `json:"skipped_already_verified"`
	Reservation            *domain.Reservation `json:"reservation,omitempty"`
}

// Start either commits directly for an already-verified phone or issues a
// 4-digit code carrying the full pending reservation payload. Re-issuing for
// the same phone+payload before expiry rotates the code and resets the clock
// (the widget's resend action).
func (s *Service) Start(ctx context.Context, settings domain.BookingSettings, req StartRequest) (*StartResult, error) {
	norm := phone.Normalize(req.Phone, settings.DefaultPhoneRegion)
	if !norm.Valid {
		return nil, ErrInvalidPhone
	}

	payload := req.Reservation
	payload.InstanceID = req.InstanceID
	payload.CustomerPhone = norm.Value
	payload.RequireVerifiedPhone = false

	cust, err := s.customers.GetByPhone(ctx, req.InstanceID, norm.Value)
	if err != nil {
		return nil, err
	}
	if cust != nil && cust.PhoneVerified {
		direct := payload
		direct.RequireVerifiedPhone = true
		res, err := s.committer.Commit(ctx, settings, direct)
		if err == nil {
			return &StartResult{SkippedAlreadyVerified: true, Reservation: res}, nil
		}
		if !errors.Is(err, booking.ErrNotVerified) {
			return nil, err
		}
		// The verified flag was stale; fall back to issuing a code
		// instead of surfacing a hard error.
		s.logger.Info("stale verified flag, falling back to otp",
			zap.Int64("instance_id", req.InstanceID),
			zap.String("phone", norm.Value),
		)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	codeHash := s.hashCode(code)
	now := time.Now()
	expiresAt := now.Add(time.Duration(settings.VerificationTTLHours) * time.Hour)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if err := s.upsertCode(ctx, req.InstanceID, norm.Value, codeHash, payloadJSON, now, expiresAt); err != nil {
		return nil, err
	}

	if err := s.deliverCode(ctx, req.InstanceID, norm.Value, code); err != nil {
		return nil, err
	}

	return &StartResult{Issued: true}, nil
}

// Check consumes a candidate code. On match the code row is flipped verified
// (single-use), the customer's verified flag goes permanently true and the
// commit runs from the payload stored at issuance, not from anything the
// client sends now.
func (s *Service) Check(ctx context.Context, settings domain.BookingSettings, rawPhone, code string) (*domain.Reservation, error) {
	if !codeRegex.MatchString(code) {
		return nil, ErrBadCodeFormat
	}
	norm := phone.Normalize(rawPhone, settings.DefaultPhoneRegion)
	if !norm.Valid {
		return nil, ErrInvalidPhone
	}

	now := time.Now()
	row, err := s.codes.FindMatch(ctx, settings.InstanceID, norm.Value, s.hashCode(code), now)
	if err != nil {
		return nil, err
	}
	if row == nil {
		// Wrong guesses burn attempts on every active code for the
		// phone; hitting the cap expires them outright.
		if err := s.codes.RegisterFailedAttempt(ctx, settings.InstanceID, norm.Value, now, settings.VerificationMaxAttempts); err != nil {
			s.logger.Warn("failed attempt bookkeeping failed",
				zap.Int64("instance_id", settings.InstanceID),
				zap.Error(err),
			)
		}
		return nil, ErrInvalidOrExpired
	}

	consumed, err := s.codes.MarkVerified(ctx, row.ID, now)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// Someone already used this code between FindMatch and now.
		return nil, ErrInvalidOrExpired
	}

	if err := s.customers.MarkVerified(ctx, row.InstanceID, norm.Value); err != nil {
		s.logger.Warn("customer verified flag update failed",
			zap.Int64("instance_id", row.InstanceID),
			zap.Error(err),
		)
	}

	var commitReq booking.CommitRequest
	if err := json.Unmarshal(row.Payload, &commitReq); err != nil {
		return nil, fmt.Errorf("verification payload corrupt: %w", err)
	}
	commitReq.RequireVerifiedPhone = false

	return s.committer.Commit(ctx, settings, commitReq)
}

// upsertCode rotates an existing pending row with the same payload or
// creates a new one. Independent payloads keep independent rows.
func (s *Service) upsertCode(ctx context.Context, instanceID int64, phoneE164, codeHash string, payloadJSON []byte, now, expiresAt time.Time) error {
	active, err := s.codes.ListActiveByPhone(ctx, instanceID, phoneE164, now)
	if err != nil {
		return err
	}
	for _, row := range active {
		if bytes.Equal(row.Payload, payloadJSON) {
			return s.codes.Rotate(ctx, row.ID, codeHash, expiresAt)
		}
	}
	return s.codes.Create(ctx, &domain.VerificationCode{
		InstanceID: instanceID,
		Phone:      phoneE164,
		CodeHash:   codeHash,
		Payload:    payloadJSON,
		ExpiresAt:  expiresAt,
	})
}

func (s *Service) deliverCode(ctx context.Context, instanceID int64, phoneE164, code string) error {
	text := fmt.Sprintf("Your verification code: %s", code)
	result, err := s.sender.Send(ctx, phoneE164, text)

	logStatus := domain.SMSStatus(result.Status)
	if err != nil {
		logStatus = domain.SMSFailed
	}
	// The code itself stays out of the durable log.
	if logErr := s.smsLogs.Create(ctx, &domain.SMSLog{
		InstanceID:       instanceID,
		Phone:            phoneE164,
		Body:             "verification code",
		Status:           logStatus,
		ProviderResponse: result.ProviderResponse,
	}); logErr != nil {
		s.logger.Warn("sms log write failed", zap.Error(logErr))
	}

	if err != nil {
		s.logger.Warn("verification sms failed", zap.String("phone", phoneE164), zap.Error(err))
		return ErrDeliveryFailed
	}
	return nil
}

func (s *Service) hashCode(code string) string {
	h := sha256.Sum256([]byte(code + s.pepper))
	return hex.EncodeToString(h[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
