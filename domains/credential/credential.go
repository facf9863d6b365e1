package credential

import "context"

type Kind string

const (
	KindAI     Kind = "ai"
	KindGemini Kind = "gemini"
	KindOpenAI Kind = "openai"
)

func IsValidKind(k Kind) bool {
	return k == KindAI || k == KindGemini || k == KindOpenAI
}

type Credential struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	APIKey string `json:"api_key,omitempty"`
}

type CreateCredentialRequest struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	APIKey string `json:"api_key"`
}

type UpdateCredentialRequest struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	APIKey string `json:"api_key"`
}

type ICredentialUsecase interface {
	Create(ctx context.Context, req CreateCredentialRequest) (Credential, error)
	List(ctx context.Context, kind *Kind) ([]Credential, error)
	GetByID(ctx context.Context, id string) (Credential, error)
	Update(ctx context.Context, id string, req UpdateCredentialRequest) (Credential, error)
	Delete(ctx context.Context, id string) error
	Validate(ctx context.Context, id string) error
	// ResolveKey returns the API key for a provider, preferring a stored
	// credential of the matching kind (then the generic "ai" kind) and
	// falling back to the environment.
	ResolveKey(ctx context.Context, provider string) (string, error)
}
