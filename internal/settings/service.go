package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/craftkart/craftkart-backend/pkg/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
)

// GatewayName keys the persisted settings row for the payment gateway.
const GatewayName = "cashfree"

type repository interface {
	FindByGateway(ctx context.Context, gateway string) (*models.GatewaySetting, error)
	Upsert(ctx context.Context, setting *models.GatewaySetting) error
}

// Service resolves gateway credentials with persisted-over-process precedence
// and supports live rotation through Update + cache invalidation.
type Service interface {
	Resolve(ctx context.Context) (cashfree.Credentials, error)
	Update(ctx context.Context, input UpdateInput) (*SettingView, error)
	Get(ctx context.Context) (*SettingView, error)
	Invalidate()
}

// UpdateInput rotates the persisted gateway credentials.
type UpdateInput struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
	Environment  string `json:"environment" validate:"required,oneof=sandbox live"`
	Enabled      bool   `json:"enabled"`
}

// SettingView is the admin-facing projection. The secret is never echoed back.
type SettingView struct {
	Gateway     string    `json:"gateway"`
	ClientID    string    `json:"client_id"`
	Environment string    `json:"environment"`
	Enabled     bool      `json:"enabled"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type service struct {
	repo     repository
	fallback config.CashfreeConfig
	logg     *logger.Logger

	mu     sync.RWMutex
	cached *cashfree.Credentials
}

// NewService builds the credential resolver.
func NewService(repo repository, fallback config.CashfreeConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo, fallback: fallback, logg: logg}, nil
}

// Resolve returns validated credentials or a configuration error. The result
// is cached until Invalidate is called; rotation goes through Update which
// invalidates explicitly rather than waiting out a TTL.
func (s *service) Resolve(ctx context.Context) (cashfree.Credentials, error) {
	s.mu.RLock()
	if s.cached != nil {
		creds := *s.cached
		s.mu.RUnlock()
		return creds, nil
	}
	s.mu.RUnlock()

	creds, err := s.load(ctx)
	if err != nil {
		return cashfree.Credentials{}, err
	}

	s.mu.Lock()
	s.cached = &creds
	s.mu.Unlock()
	return creds, nil
}

func (s *service) load(ctx context.Context) (cashfree.Credentials, error) {
	setting, err := s.repo.FindByGateway(ctx, GatewayName)
	switch {
	case err == nil:
		return credentialsFromRow(setting)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return credentialsFromConfig(s.fallback)
	default:
		return cashfree.Credentials{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gateway settings")
	}
}

func credentialsFromRow(setting *models.GatewaySetting) (cashfree.Credentials, error) {
	if !setting.Enabled {
		return cashfree.Credentials{}, pkgerrors.New(pkgerrors.CodeConfiguration, "payment gateway disabled")
	}
	return validated(setting.ClientID, setting.ClientSecret, setting.Environment)
}

func credentialsFromConfig(cfg config.CashfreeConfig) (cashfree.Credentials, error) {
	if !cfg.Enabled {
		return cashfree.Credentials{}, pkgerrors.New(pkgerrors.CodeConfiguration, "payment gateway disabled")
	}
	return validated(cfg.ClientID, cfg.ClientSecret, cfg.Environment())
}

func validated(clientID, clientSecret, environment string) (cashfree.Credentials, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return cashfree.Credentials{}, pkgerrors.New(pkgerrors.CodeConfiguration, "payment gateway credentials incomplete")
	}
	env, err := enums.ParseGatewayEnvironment(environment)
	if err != nil {
		return cashfree.Credentials{}, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "invalid gateway environment")
	}
	return cashfree.Credentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Environment:  env,
	}, nil
}

// Update rotates the persisted row and drops the cache so the next Resolve
// sees the new credentials immediately.
func (s *service) Update(ctx context.Context, input UpdateInput) (*SettingView, error) {
	env, err := enums.ParseGatewayEnvironment(input.Environment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gateway environment")
	}
	if strings.TrimSpace(input.ClientID) == "" || strings.TrimSpace(input.ClientSecret) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id and secret are required")
	}

	setting := &models.GatewaySetting{
		Gateway:      GatewayName,
		ClientID:     strings.TrimSpace(input.ClientID),
		ClientSecret: strings.TrimSpace(input.ClientSecret),
		Environment:  env.String(),
		Enabled:      input.Enabled,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist gateway settings")
	}

	s.Invalidate()
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"gateway": GatewayName, "env": env.String(), "enabled": input.Enabled})
		s.logg.Info(ctx, "gateway credentials rotated")
	}

	view := newSettingView(setting)
	return &view, nil
}

// Get returns the current persisted row, or the process fallback when no row
// exists yet.
func (s *service) Get(ctx context.Context) (*SettingView, error) {
	setting, err := s.repo.FindByGateway(ctx, GatewayName)
	switch {
	case err == nil:
		view := newSettingView(setting)
		return &view, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &SettingView{
			Gateway:     GatewayName,
			ClientID:    s.fallback.ClientID,
			Environment: s.fallback.Environment(),
			Enabled:     s.fallback.Enabled,
		}, nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gateway settings")
	}
}

// Invalidate drops the cached credentials.
func (s *service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func newSettingView(setting *models.GatewaySetting) SettingView {
	return SettingView{
		Gateway:     setting.Gateway,
		ClientID:    setting.ClientID,
		Environment: setting.Environment,
		Enabled:     setting.Enabled,
		UpdatedAt:   setting.UpdatedAt,
	}
}
