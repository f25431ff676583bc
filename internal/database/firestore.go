package database

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/pkg/config"
	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// emailIndexCollection holds one document per registered email. Its ID is the
// normalized address, so creating it twice fails with AlreadyExists.
const emailIndexCollection = "user_emails"

// userDoc is the Firestore representation of models.User.
type userDoc struct {
	Email        string    `firestore:"email"`
	PasswordHash string    `firestore:"passwordHash,omitempty"`
	GoogleID     string    `firestore:"googleId,omitempty"`
	Name         string    `firestore:"name,omitempty"`
	Picture      string    `firestore:"picture,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

type emailIndexDoc struct {
	UserID string `firestore:"userId"`
}

// FirestoreStore is the default credential store.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// NewFirestoreStore connects to Firestore. cfg.Credentials may be a path to a
// service account file, the base64-encoded JSON of one, or empty to use
// application default credentials. FIRESTORE_EMULATOR_HOST is honored by the
// client library.
func NewFirestoreStore(ctx context.Context, cfg *config.FirestoreConfig) (*FirestoreStore, error) {
	opts, err := credentialOptions(cfg.Credentials)
	if err != nil {
		return nil, err
	}

	var client *firestore.Client
	err = utils.Retry(ctx, utils.ConnectRetryConfig(), func() error {
		var err error
		client, err = firestore.NewClient(ctx, cfg.ProjectID, opts...)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create Firestore client, retrying...")
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Firestore: %w", err)
	}

	log.Info().Str("project_id", cfg.ProjectID).Msg("Successfully connected to Firestore")

	return NewFirestoreStoreFromClient(client, cfg.Collection), nil
}

// NewFirestoreStoreFromClient wraps an existing client.
func NewFirestoreStoreFromClient(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = "users"
	}
	return &FirestoreStore{client: client, collection: collection, now: time.Now}
}

func credentialOptions(credentials string) ([]option.ClientOption, error) {
	credentials = strings.TrimSpace(credentials)
	if credentials == "" {
		return nil, nil
	}

	if strings.HasPrefix(credentials, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credentials))}, nil
	}

	if _, err := os.Stat(credentials); err == nil {
		return []option.ClientOption{option.WithCredentialsFile(credentials)}, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(credentials)
	if err != nil {
		return nil, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS is neither a file nor base64 JSON: %w", err)
	}
	return []option.ClientOption{option.WithCredentialsJSON(decoded)}, nil
}

// Close closes the Firestore client.
func (f *FirestoreStore) Close() error {
	return f.client.Close()
}

// Ping runs a one-document query to verify connectivity and permissions.
func (f *FirestoreStore) Ping(ctx context.Context) error {
	iter := f.client.Collection(f.collection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return models.StoreUnavailable("firestore ping", err)
	}
	return nil
}

// FindByEmail returns the user with the given email, or (nil, nil).
func (f *FirestoreStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	iter := f.client.Collection(f.collection).
		Where("email", "==", models.NormalizeEmail(email)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, models.StoreUnavailable("find user by email", err)
	}

	return decodeUser(snap)
}

// Create writes the user document and its email index document in one
// transaction. If the email index document already exists the transaction
// fails and models.ErrDuplicateEmail is returned.
func (f *FirestoreStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	created.Email = models.NormalizeEmail(created.Email)
	if err := created.Validate(); err != nil {
		return nil, err
	}

	created.ID = uuid.New()
	created.CreatedAt = f.now().UTC()
	created.UpdatedAt = created.CreatedAt

	userRef := f.client.Collection(f.collection).Doc(created.ID.String())
	emailRef := f.client.Collection(emailIndexCollection).Doc(created.Email)

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(emailRef, emailIndexDoc{UserID: created.ID.String()}); err != nil {
			return err
		}
		return tx.Create(userRef, encodeUser(&created))
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil, models.ErrDuplicateEmail
	}
	if err != nil {
		return nil, models.StoreUnavailable("create user", err)
	}

	log.Info().
		Str("user_id", created.ID.String()).
		Str("email", created.Email).
		Msg("User created")

	return &created, nil
}

// Update applies the non-nil fields of fields.
func (f *FirestoreStore) Update(ctx context.Context, id uuid.UUID, fields models.UserFields) error {
	updates := []firestore.Update{{Path: "updatedAt", Value: f.now().UTC()}}
	if fields.GoogleID != nil {
		updates = append(updates, firestore.Update{Path: "googleId", Value: *fields.GoogleID})
	}
	if fields.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *fields.Name})
	}
	if fields.Picture != nil {
		updates = append(updates, firestore.Update{Path: "picture", Value: *fields.Picture})
	}

	_, err := f.client.Collection(f.collection).Doc(id.String()).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return models.ErrUserNotFound
	}
	if err != nil {
		return models.StoreUnavailable("update user", err)
	}

	return nil
}

func encodeUser(u *models.User) userDoc {
	return userDoc{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		GoogleID:     u.GoogleID,
		Name:         u.Name,
		Picture:      u.Picture,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func decodeUser(snap *firestore.DocumentSnapshot) (*models.User, error) {
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", snap.Ref.ID, err)
	}

	id, err := uuid.Parse(snap.Ref.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", snap.Ref.ID, err)
	}

	return &models.User{
		ID:           id,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		GoogleID:     doc.GoogleID,
		Name:         doc.Name,
		Picture:      doc.Picture,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
