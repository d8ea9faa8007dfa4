package identity

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseVerifier checks Firebase ID tokens against Google's signing keys.
type FirebaseVerifier struct {
	Client *auth.Client
}

// NewFirebaseVerifier builds an admin SDK client. With an empty
// credentialsFile the SDK falls back to application default credentials.
func NewFirebaseVerifier(ctx context.Context, credentialsFile, projectID string) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseVerifier{Client: client}, nil
}

func (f *FirebaseVerifier) VerifyToken(ctx context.Context, token string) (Claims, error) {
	tok, err := f.Client.VerifyIDToken(ctx, token)
	if err != nil {
		return Claims{}, err
	}
	email, _ := tok.Claims["email"].(string)
	return Claims{Subject: tok.UID, Email: email}, nil
}
