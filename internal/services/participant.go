package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
)

const accessCodeRetries = 5

// ParticipantService handles pool member business logic
type ParticipantService struct {
	log      logger.Logger
	repo     repository.ParticipantRepository
	settings SettingsServicer
	now      func() time.Time
}

// NewParticipantService creates a new ParticipantService
func NewParticipantService(log logger.Logger, repo repository.ParticipantRepository, settings SettingsServicer) *ParticipantService {
	return &ParticipantService{
		log:      log,
		repo:     repo,
		settings: settings,
		now:      time.Now,
	}
}

// Participant represents a participant for create operations
type Participant struct {
	Name       string
	Email      string
	AccessCode string
}

// ListParticipants returns all participants
func (s *ParticipantService) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	return s.repo.ListParticipants(ctx)
}

// GetParticipant returns a participant by id
func (s *ParticipantService) GetParticipant(ctx context.Context, id int) (*models.Participant, error) {
	p, err := s.repo.GetParticipant(ctx, id)
	if err == repository.ErrNotFound {
		return nil, ErrParticipantNotFound
	}
	return p, err
}

// GetByAccessCode resolves the participant behind a submission link
func (s *ParticipantService) GetByAccessCode(ctx context.Context, code string) (*models.Participant, error) {
	p, err := s.repo.GetParticipantByAccessCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err == repository.ErrNotFound {
		return nil, ErrParticipantNotFound
	}
	return p, err
}

// CreateParticipant stores a participant, generating an access code when none is given.
// Generated codes are retried on collision.
func (s *ParticipantService) CreateParticipant(ctx context.Context, p Participant) (int64, string, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return 0, "", errors.Validation("participant name is required")
	}

	if p.AccessCode != "" {
		code := strings.ToUpper(strings.TrimSpace(p.AccessCode))
		id, err := s.repo.CreateParticipant(ctx, name, p.Email, code)
		if err == repository.ErrDuplicate {
			return 0, "", errors.Conflictf("access code %s is already in use", code)
		}
		return id, code, err
	}

	for attempt := 0; attempt < accessCodeRetries; attempt++ {
		code := GenerateReadableCode(fmt.Sprintf("participant-%d-%s-%d", s.now().UnixNano(), name, attempt))
		id, err := s.repo.CreateParticipant(ctx, name, p.Email, code)
		if err == repository.ErrDuplicate {
			s.log.Debug("Generated access code already exists, retrying", "code", code, "attempt", attempt+1)
			continue
		}
		return id, code, err
	}
	return 0, "", errors.Internalf("failed to generate unique access code after %d attempts", accessCodeRetries)
}

// UpdateParticipant updates a participant
func (s *ParticipantService) UpdateParticipant(ctx context.Context, p models.Participant) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Validation("participant name is required")
	}
	err := s.repo.UpdateParticipant(ctx, p)
	if err == repository.ErrNotFound {
		return ErrParticipantNotFound
	}
	return err
}

// GenerateReadableCode creates a short, readable code from input data
// Uses only clear characters (no O/0/I/1/L) - format: XX-YYY
func GenerateReadableCode(seed string) string {
	const chars = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

	hash := sha256.Sum256([]byte(seed))
	num := binary.BigEndian.Uint64(hash[:8])

	code := make([]byte, 5)
	for i := 0; i < 5; i++ {
		code[i] = chars[num%uint64(len(chars))]
		num /= uint64(len(chars))
	}

	return fmt.Sprintf("%s-%s", string(code[:2]), string(code[2:]))
}

// SubmissionURL builds the link a participant opens to submit predictions
func SubmissionURL(baseURL, accessCode string) string {
	return fmt.Sprintf("%s/p/%s", strings.TrimSuffix(baseURL, "/"), accessCode)
}

// QRCode generates a PNG QR code for a participant's submission link
func (s *ParticipantService) QRCode(ctx context.Context, id int) ([]byte, error) {
	p, err := s.GetParticipant(ctx, id)
	if err != nil {
		return nil, err
	}

	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		return nil, ErrBaseURLNotConfigured
	}
	return qrcode.Encode(SubmissionURL(baseURL, p.AccessCode), qrcode.Medium, 256)
}
