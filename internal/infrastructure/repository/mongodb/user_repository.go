package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	appuser "github.com/lllypuk/commons/internal/application/user"
	"github.com/lllypuk/commons/internal/domain/errs"
	userdomain "github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

// MongoUserRepository implements appuser.Repository
type MongoUserRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// UserRepoOption configures MongoUserRepository.
type UserRepoOption func(*MongoUserRepository)

// WithUserRepoLogger sets the logger for user repository.
func WithUserRepoLogger(logger *slog.Logger) UserRepoOption {
	return func(r *MongoUserRepository) {
		r.logger = logger
	}
}

// NewMongoUserRepository creates a MongoUserRepository on collection
func NewMongoUserRepository(collection *mongo.Collection, opts ...UserRepoOption) *MongoUserRepository {
	r := &MongoUserRepository{
		collection: collection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ appuser.Repository = (*MongoUserRepository)(nil)

// FindByID finds a user by ID
func (r *MongoUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userdomain.User, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	return r.findOne(ctx, bson.M{"user_id": id.String()})
}

// FindByExternalID finds a user by identity provider subject
func (r *MongoUserRepository) FindByExternalID(ctx context.Context, externalID string) (*userdomain.User, error) {
	if externalID == "" {
		return nil, errs.ErrInvalidInput
	}
	return r.findOne(ctx, bson.M{"external_id": externalID})
}

// FindByEmail finds a user by email
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	if email == "" {
		return nil, errs.ErrInvalidInput
	}
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByUsername finds a user by username
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	if username == "" {
		return nil, errs.ErrInvalidInput
	}
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*userdomain.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.ErrorContext(ctx, "failed to find user",
				slog.Any("filter", filter),
				slog.String("error", err.Error()),
			)
		}
		return nil, HandleMongoError(err, "user")
	}
	return documentToUser(&doc)
}

// Save inserts or replaces the user document
func (r *MongoUserRepository) Save(ctx context.Context, user *userdomain.User) error {
	if user == nil || user.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	doc := userToDocument(user)
	filter := bson.M{"user_id": doc.UserID}
	update := bson.M{"$set": doc}

	_, err := r.collection.UpdateOne(ctx, filter, update, UpsertOptions())
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to save user",
			slog.String("user_id", doc.UserID),
			slog.String("error", err.Error()),
		)
	}
	return HandleMongoError(err, "user")
}

// List returns one page of users, newest first
func (r *MongoUserRepository) List(
	ctx context.Context,
	filter appuser.ListFilter,
	offset, limit int,
) ([]*userdomain.User, error) {
	cursor, err := r.collection.Find(ctx, listFilter(filter), FindWithPaginationDesc(offset, limit))
	if err != nil {
		return nil, HandleMongoError(err, "users")
	}
	defer cursor.Close(ctx)

	users := make([]*userdomain.User, 0, limit)
	for cursor.Next(ctx) {
		var doc userDocument
		if decodeErr := cursor.Decode(&doc); decodeErr != nil {
			r.logger.WarnContext(ctx, "skipping undecodable user document",
				slog.String("error", decodeErr.Error()),
			)
			continue
		}
		u, convErr := documentToUser(&doc)
		if convErr != nil {
			r.logger.WarnContext(ctx, "skipping invalid user document",
				slog.String("user_id", doc.UserID),
				slog.String("error", convErr.Error()),
			)
			continue
		}
		users = append(users, u)
	}

	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return users, nil
}

// Count returns the number of users matching filter
func (r *MongoUserRepository) Count(ctx context.Context, filter appuser.ListFilter) (int, error) {
	count, err := r.collection.CountDocuments(ctx, listFilter(filter))
	if err != nil {
		return 0, HandleMongoError(err, "users")
	}
	return int(count), nil
}

func listFilter(filter appuser.ListFilter) bson.M {
	if filter.State == "" {
		return bson.M{}
	}
	return bson.M{"lifecycle.state": string(filter.State)}
}

// lifecycleDocument stores userdomain.Status. Only the timestamps meaningful
// for the state are written.
type lifecycleDocument struct {
	State      string     `bson:"state"`
	Since      *time.Time `bson:"since,omitempty"`
	Until      *time.Time `bson:"until,omitempty"`
	DurationMS int64      `bson:"duration_ms,omitempty"`
}

type userDocument struct {
	UserID        string            `bson:"user_id"`
	ExternalID    *string           `bson:"external_id,omitempty"`
	Username      string            `bson:"username"`
	Email         string            `bson:"email"`
	DisplayName   string            `bson:"display_name"`
	IsSystemAdmin bool              `bson:"is_system_admin"`
	Lifecycle     lifecycleDocument `bson:"lifecycle"`
	Version       int               `bson:"version"`
	CreatedAt     time.Time         `bson:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at"`
}

func userToDocument(user *userdomain.User) userDocument {
	return userDocument{
		UserID:        user.ID().String(),
		ExternalID:    StringPtr(user.ExternalID()),
		Username:      user.Username(),
		Email:         user.Email(),
		DisplayName:   user.DisplayName(),
		IsSystemAdmin: user.IsSystemAdmin(),
		Lifecycle:     statusToDocument(user.StoredStatus()),
		Version:       user.Version(),
		CreatedAt:     user.CreatedAt(),
		UpdatedAt:     user.UpdatedAt(),
	}
}

func documentToUser(doc *userDocument) (*userdomain.User, error) {
	id, err := uuid.ParseUUID(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id %q: %w", doc.UserID, errs.ErrInvalidInput)
	}

	status, err := documentToStatus(doc.Lifecycle)
	if err != nil {
		return nil, err
	}

	return userdomain.Reconstruct(
		id,
		StringValue(doc.ExternalID),
		doc.Username,
		doc.Email,
		doc.DisplayName,
		doc.IsSystemAdmin,
		status,
		doc.Version,
		doc.CreatedAt,
		doc.UpdatedAt,
	), nil
}

func statusToDocument(s userdomain.Status) lifecycleDocument {
	doc := lifecycleDocument{
		State: s.State.String(),
		Since: timePtr(s.Since),
	}
	if s.State == userdomain.StateDetained {
		doc.Until = timePtr(s.Until)
		doc.DurationMS = s.Duration.Milliseconds()
	}
	return doc
}

func documentToStatus(doc lifecycleDocument) (userdomain.Status, error) {
	// documents written before lifecycles existed have no state
	if doc.State == "" {
		return userdomain.ActiveStatus(time.Time{}), nil
	}

	state, err := userdomain.ParseState(doc.State)
	if err != nil {
		return userdomain.Status{}, fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}

	status := userdomain.Status{State: state}
	if doc.Since != nil {
		status.Since = doc.Since.UTC()
	}
	if state == userdomain.StateDetained {
		if doc.Until != nil {
			status.Until = doc.Until.UTC()
		}
		status.Duration = time.Duration(doc.DurationMS) * time.Millisecond
	}
	return status, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
