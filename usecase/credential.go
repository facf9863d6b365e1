package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
	"gorm.io/gorm"

	coreconfig "github.com/janushq/janus/core/config"
	domainCredential "github.com/janushq/janus/domains/credential"
	"github.com/janushq/janus/pkg/crypto"
	pkgError "github.com/janushq/janus/pkg/error"
)

// --- Persistence Model ---

type credentialModel struct {
	ID        string         `gorm:"primaryKey;column:id"`
	Name      string         `gorm:"column:name;not null"`
	Kind      string         `gorm:"column:kind;not null;index"`
	APIKey    sql.NullString `gorm:"column:api_key"` // AES-GCM encrypted when a key is configured
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (credentialModel) TableName() string {
	return "credentials"
}

type credentialService struct {
	db *gorm.DB
}

func NewCredentialService(db *gorm.DB) domainCredential.ICredentialUsecase {
	s := &credentialService{db: db}
	if db != nil {
		if err := db.AutoMigrate(&credentialModel{}); err != nil {
			logrus.WithError(err).Error("[CREDENTIAL] failed to init schema")
		}
	} else {
		logrus.Error("[CREDENTIAL] GORM DB is nil, service will be disabled")
	}
	return s
}

func (s *credentialService) ensureDB() error {
	if s.db == nil {
		return pkgError.InternalServerError("credential storage is not initialized")
	}
	return nil
}

func (s *credentialService) Create(ctx context.Context, req domainCredential.CreateCredentialRequest) (domainCredential.Credential, error) {
	if err := s.ensureDB(); err != nil {
		return domainCredential.Credential{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domainCredential.Credential{}, pkgError.ValidationError("name: cannot be blank.")
	}
	kind := domainCredential.Kind(strings.ToLower(strings.TrimSpace(string(req.Kind))))
	if !domainCredential.IsValidKind(kind) {
		return domainCredential.Credential{}, pkgError.ValidationError("kind: must be one of ai, gemini, openai.")
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return domainCredential.Credential{}, pkgError.ValidationError("api_key: cannot be blank.")
	}

	stored, err := crypto.Encrypt(strings.TrimSpace(req.APIKey))
	if err != nil {
		return domainCredential.Credential{}, err
	}

	model := credentialModel{
		ID:     uuid.NewString(),
		Name:   name,
		Kind:   string(kind),
		APIKey: sql.NullString{String: stored, Valid: true},
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainCredential.Credential{}, err
	}

	logrus.Infof("[CREDENTIAL] stored %s credential %q (encrypted: %v)", kind, name, crypto.IsConfigured())
	return s.credentialFromModel(model), nil
}

func (s *credentialService) List(ctx context.Context, kind *domainCredential.Kind) ([]domainCredential.Credential, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Order("name ASC")
	if kind != nil && *kind != "" {
		query = query.Where("kind = ?", string(*kind))
	}

	var models []credentialModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	result := make([]domainCredential.Credential, len(models))
	for i, m := range models {
		result[i] = s.credentialFromModel(m)
	}
	return result, nil
}

func (s *credentialService) GetByID(ctx context.Context, id string) (domainCredential.Credential, error) {
	if err := s.ensureDB(); err != nil {
		return domainCredential.Credential{}, err
	}

	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return domainCredential.Credential{}, pkgError.ValidationError("id: cannot be blank.")
	}

	var model credentialModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", trimmed).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domainCredential.Credential{}, pkgError.NotFoundError("credential not found")
		}
		return domainCredential.Credential{}, err
	}
	return s.credentialFromModel(model), nil
}

func (s *credentialService) Update(ctx context.Context, id string, req domainCredential.UpdateCredentialRequest) (domainCredential.Credential, error) {
	if err := s.ensureDB(); err != nil {
		return domainCredential.Credential{}, err
	}

	var model credentialModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domainCredential.Credential{}, pkgError.NotFoundError("credential not found")
		}
		return domainCredential.Credential{}, err
	}

	if req.Name != "" {
		model.Name = strings.TrimSpace(req.Name)
	}
	if req.Kind != "" {
		kind := domainCredential.Kind(strings.ToLower(strings.TrimSpace(string(req.Kind))))
		if !domainCredential.IsValidKind(kind) {
			return domainCredential.Credential{}, pkgError.ValidationError("kind: must be one of ai, gemini, openai.")
		}
		model.Kind = string(kind)
	}
	if strings.TrimSpace(req.APIKey) != "" {
		stored, err := crypto.Encrypt(strings.TrimSpace(req.APIKey))
		if err != nil {
			return domainCredential.Credential{}, err
		}
		model.APIKey = sql.NullString{String: stored, Valid: true}
	}

	if err := s.db.WithContext(ctx).Save(&model).Error; err != nil {
		return domainCredential.Credential{}, err
	}
	return s.credentialFromModel(model), nil
}

func (s *credentialService) Delete(ctx context.Context, id string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}

	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return pkgError.ValidationError("id: cannot be blank.")
	}
	return s.db.WithContext(ctx).Delete(&credentialModel{}, "id = ?", trimmed).Error
}

// Validate pings the provider behind the credential. Gemini keys get a live
// models listing; OpenAI keys are checked for presence only.
func (s *credentialService) Validate(ctx context.Context, id string) error {
	cred, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cred.APIKey == "" {
		return fmt.Errorf("missing API key")
	}

	if cred.Kind == domainCredential.KindGemini || cred.Kind == domainCredential.KindAI {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cred.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if _, err := client.Models.List(timeoutCtx, nil); err != nil {
			return fmt.Errorf("API key verification failed: %w", err)
		}
	}
	return nil
}

// ResolveKey looks up the key for a provider: a stored credential of the
// matching kind wins, then a generic "ai" credential, then the environment.
func (s *credentialService) ResolveKey(ctx context.Context, provider string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))

	if s.db != nil {
		for _, kind := range []string{provider, string(domainCredential.KindAI)} {
			var model credentialModel
			err := s.db.WithContext(ctx).Where("kind = ?", kind).Order("updated_at DESC").First(&model).Error
			if err == nil && model.APIKey.Valid {
				key, decErr := crypto.Decrypt(model.APIKey.String)
				if decErr != nil {
					logrus.WithError(decErr).Warnf("[CREDENTIAL] could not decrypt %s credential %s", kind, model.ID)
					continue
				}
				if key != "" {
					return key, nil
				}
			} else if err != nil && err != gorm.ErrRecordNotFound {
				return "", err
			}
		}
	}

	if key := envKeyFor(provider); key != "" {
		return key, nil
	}
	return "", pkgError.UpstreamError(fmt.Sprintf("no API key configured for provider %s", provider))
}

func envKeyFor(provider string) string {
	if coreconfig.Global == nil {
		return ""
	}
	switch provider {
	case "gemini":
		if k := coreconfig.Global.APIKeys.Gemini; k != "" {
			return k
		}
	case "openai":
		if k := coreconfig.Global.APIKeys.OpenAI; k != "" {
			return k
		}
	}
	return coreconfig.Global.APIKeys.AI
}

// --- Helpers ---

func (s *credentialService) credentialFromModel(m credentialModel) domainCredential.Credential {
	key := ""
	if m.APIKey.Valid {
		decrypted, err := crypto.Decrypt(m.APIKey.String)
		if err != nil {
			logrus.WithError(err).Warnf("[CREDENTIAL] could not decrypt credential %s", m.ID)
		} else {
			key = decrypted
		}
	}
	return domainCredential.Credential{
		ID:     m.ID,
		Name:   m.Name,
		Kind:   domainCredential.Kind(m.Kind),
		APIKey: key,
	}
}
