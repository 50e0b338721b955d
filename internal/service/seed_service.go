package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atfitk/websystem-api/internal/models"
)

// SeedCost is the bcrypt cost used for bootstrap accounts.
const SeedCost = 12

type seedUserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
}

// SeedAccount is one bootstrap login.
type SeedAccount struct {
	Username    string
	Password    string
	Role        models.UserRole
	DisplayName string
}

// DefaultSeedAccounts returns the director and psychologist accounts with the given passwords.
func DefaultSeedAccounts(directorPassword, psychologistPassword string) []SeedAccount {
	return []SeedAccount{
		{Username: "director", Password: directorPassword, Role: models.RoleDirector, DisplayName: "Заместитель директора"},
		{Username: "psychologist", Password: psychologistPassword, Role: models.RolePsychologist, DisplayName: "Психолог"},
	}
}

// SeedService creates or refreshes the fixed accounts.
type SeedService struct {
	repo   seedUserRepository
	logger *zap.Logger
	cost   int
}

// NewSeedService constructs the seeder. cost <= 0 selects SeedCost.
func NewSeedService(repo seedUserRepository, logger *zap.Logger, cost int) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cost <= 0 {
		cost = SeedCost
	}
	return &SeedService{repo: repo, logger: logger, cost: cost}
}

// Seed upserts every account; reseeding overwrites hash, role and display name.
func (s *SeedService) Seed(ctx context.Context, accounts []SeedAccount) error {
	for _, acc := range accounts {
		if acc.Username == "" || acc.Password == "" {
			return fmt.Errorf("seed account %q: username and password are required", acc.Username)
		}
		if !acc.Role.Valid() {
			return fmt.Errorf("seed account %q: unknown role %q", acc.Username, acc.Role)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), s.cost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", acc.Username, err)
		}
		user := &models.User{Username: acc.Username, PasswordHash: string(hash), Role: acc.Role, DisplayName: acc.DisplayName}
		if err := s.repo.Upsert(ctx, user); err != nil {
			return err
		}
		s.logger.Info("seeded user", zap.String("username", acc.Username), zap.String("role", string(acc.Role)), zap.Int64("id", user.ID))
	}
	return nil
}
