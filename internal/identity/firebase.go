package identity

import (
	"context"

	"firebase.google.com/go/v4/auth"

	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
)

// FirebaseClient adapts the Firebase Auth client to the Verifier and
// AccountManager contracts.
type FirebaseClient struct {
	client *auth.Client
}

func NewFirebaseClient(client *auth.Client) (*FirebaseClient, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth client required")
	}
	return &FirebaseClient{client: client}, nil
}

func (f *FirebaseClient) Verify(ctx context.Context, credential string) (*Claims, error) {
	token, err := f.client.VerifyIDToken(ctx, credential)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid credentials")
	}
	return &Claims{
		Subject:  token.UID,
		Email:    claimString(token.Claims, "email"),
		Name:     claimString(token.Claims, "name"),
		Role:     claimString(token.Claims, "role"),
		TenantID: claimString(token.Claims, "tenant_id"),
	}, nil
}

func (f *FirebaseClient) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	if displayName == "" {
		displayName = email
	}
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)
	record, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create provider account")
	}
	return record.UID, nil
}

func (f *FirebaseClient) SetCustomClaims(ctx context.Context, subjectID string, claims map[string]any) error {
	if err := f.client.SetCustomUserClaims(ctx, subjectID, claims); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set custom claims")
	}
	return nil
}

func (f *FirebaseClient) LookupByEmail(ctx context.Context, email string) (string, error) {
	record, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found")
	}
	return record.UID, nil
}

func claimString(claims map[string]any, key string) string {
	if claims == nil {
		return ""
	}
	s, _ := claims[key].(string)
	return s
}
