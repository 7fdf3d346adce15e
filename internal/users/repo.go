package users

import (
	"context"
	"time"

	"github.com/tanvirhb/crm-backend/internal/store"
)

const collectionName = "users"

// SourceAutoVerify marks user documents synthesized on first verified
// credential, as opposed to invitation or registration.
const SourceAutoVerify = "auto_verify"

type User struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	Role        string         `json:"role"`
	TenantID    string         `json:"tenant_id"`
	IsActive    bool           `json:"is_active"`
	IsVerified  bool           `json:"is_verified"`
	InvitedBy   string         `json:"invited_by,omitempty"`
	Source      string         `json:"created_by_source,omitempty"`
	Department  string         `json:"department,omitempty"`
	Position    string         `json:"position,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Repository persists user documents keyed by provider subject id.
type Repository interface {
	Get(ctx context.Context, subjectID string) (*User, error)
	CreateMinimal(ctx context.Context, subjectID, email, displayName string) (*User, error)
	Put(ctx context.Context, u *User) error
	MergeFields(ctx context.Context, subjectID string, fields map[string]any) error
	ListByTenant(ctx context.Context, tenantID string) ([]User, error)
	Invite(ctx context.Context, tenantID, email, role, invitedBy string) (*User, error)
}

type repository struct {
	store store.Store
}

func NewRepository(st store.Store) Repository {
	return &repository{store: st}
}

func (r *repository) col() store.Collection {
	return r.store.Collection(collectionName)
}

func (r *repository) Get(ctx context.Context, subjectID string) (*User, error) {
	snap, err := r.col().Doc(subjectID).Get(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, nil
	}
	u := fromData(snap.ID(), snap.Data())
	return &u, nil
}

func (r *repository) CreateMinimal(ctx context.Context, subjectID, email, displayName string) (*User, error) {
	if displayName == "" {
		displayName = email
	}
	doc := r.col().Doc(subjectID)
	err := doc.Set(ctx, map[string]any{
		"email":             email,
		"display_name":      displayName,
		"role":              "viewer",
		"tenant_id":         "default",
		"is_active":         true,
		"is_verified":       true,
		"created_by_source": SourceAutoVerify,
		"created_at":        store.ServerTimestamp,
		"updated_at":        store.ServerTimestamp,
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, subjectID)
}

func (r *repository) Put(ctx context.Context, u *User) error {
	return r.col().Doc(u.ID).Set(ctx, map[string]any{
		"email":             u.Email,
		"display_name":      u.DisplayName,
		"role":              u.Role,
		"tenant_id":         u.TenantID,
		"is_active":         u.IsActive,
		"is_verified":       u.IsVerified,
		"created_by_source": u.Source,
		"created_at":        store.ServerTimestamp,
		"updated_at":        store.ServerTimestamp,
	})
}

func (r *repository) MergeFields(ctx context.Context, subjectID string, fields map[string]any) error {
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["updated_at"] = store.ServerTimestamp
	return r.col().Doc(subjectID).Merge(ctx, merged)
}

func (r *repository) ListByTenant(ctx context.Context, tenantID string) ([]User, error) {
	snaps, err := r.col().Query().Where("tenant_id", "==", tenantID).Documents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, fromData(snap.ID(), snap.Data()))
	}
	return out, nil
}

func (r *repository) Invite(ctx context.Context, tenantID, email, role, invitedBy string) (*User, error) {
	doc := r.col().NewDoc()
	err := doc.Set(ctx, map[string]any{
		"tenant_id":   tenantID,
		"email":       email,
		"role":        role,
		"is_active":   true,
		"is_verified": false,
		"invited_by":  invitedBy,
		"created_at":  store.ServerTimestamp,
		"updated_at":  store.ServerTimestamp,
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, doc.ID())
}

func fromData(id string, data map[string]any) User {
	return User{
		ID:          id,
		Email:       str(data["email"]),
		DisplayName: str(data["display_name"]),
		Role:        str(data["role"]),
		TenantID:    str(data["tenant_id"]),
		IsActive:    boolean(data["is_active"]),
		IsVerified:  boolean(data["is_verified"]),
		InvitedBy:   str(data["invited_by"]),
		Source:      str(data["created_by_source"]),
		Department:  str(data["department"]),
		Position:    str(data["position"]),
		Phone:       str(data["phone"]),
		Preferences: dict(data["preferences"]),
		CreatedAt:   stamp(data["created_at"]),
		UpdatedAt:   stamp(data["updated_at"]),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

func dict(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func stamp(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
