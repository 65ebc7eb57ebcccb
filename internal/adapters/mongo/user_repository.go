package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/ports"
)

// UserRepository stores the user aggregate as one document per account.
// Unique indexes on email and identity number are the final arbiter for
// registration races: the pre-insert availability check is advisory only.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

// EnsureIndexes creates the unique credential indexes. Safe to call on
// every startup.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "identifier.email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_identifier_email"),
		},
		{
			Keys:    bson.D{{Key: "identifier.identityNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_identifier_identity_number"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) SaveUser(ctx context.Context, user domain.User) error {
	_, err := r.col.InsertOne(ctx, toDocument(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "identityNumber") {
				return domain.ErrIdentityNumberExists
			}
			return domain.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// IsAvailable runs both existence checks concurrently. When both
// identifiers are taken the email conflict wins.
func (r *UserRepository) IsAvailable(ctx context.Context, check ports.AvailabilityCheck) (string, error) {
	var emailTaken, identityTaken bool

	g, gctx := errgroup.WithContext(ctx)
	if check.Email != "" {
		g.Go(func() error {
			n, err := r.col.CountDocuments(gctx, bson.M{"identifier.email": check.Email})
			if err != nil {
				return fmt.Errorf("count by email: %w", err)
			}
			emailTaken = n > 0
			return nil
		})
	}
	if check.IdentityNumber != "" {
		g.Go(func() error {
			n, err := r.col.CountDocuments(gctx, bson.M{"identifier.identityNumber": check.IdentityNumber})
			if err != nil {
				return fmt.Errorf("count by identity number: %w", err)
			}
			identityTaken = n > 0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	switch {
	case emailTaken:
		return ports.ConflictEmail, nil
	case identityTaken:
		return ports.ConflictIdentityNumber, nil
	default:
		return ports.ConflictNone, nil
	}
}

func (r *UserRepository) GetUser(ctx context.Context, selector ports.UserSelector, fields ...ports.UserField) (*domain.User, error) {
	filter, err := selectorFilter(selector)
	if err != nil {
		return nil, err
	}

	opts := options.FindOne()
	if len(fields) > 0 {
		projection := bson.M{"_id": 1}
		for _, f := range fields {
			projection[string(f)] = 1
		}
		opts.SetProjection(projection)
	}

	var doc userDocument
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user := toDomainUser(doc)
	return &user, nil
}

func selectorFilter(selector ports.UserSelector) (bson.M, error) {
	filter := bson.M{"logs.deletedAt": nil}
	switch {
	case selector.ID != "":
		filter["_id"] = selector.ID
	case selector.Email != "":
		filter["identifier.email"] = selector.Email
	case selector.IdentityNumber != "":
		filter["identifier.identityNumber"] = selector.IdentityNumber
	default:
		return nil, errors.New("empty user selector")
	}
	return filter, nil
}

func (r *UserRepository) ChangeEmail(ctx context.Context, userID, email string) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{
		"identifier.email":        email,
		"security.emailVerified":  false,
	}})
}

func (r *UserRepository) ChangePassword(ctx context.Context, userID, passwordHash string) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{
		"identifier.password": passwordHash,
	}})
}

// SaveTwoFactorSecret stores a provisioned secret in the inactive state.
// Activation only happens through ActivateTwoFactor after a valid code.
func (r *UserRepository) SaveTwoFactorSecret(ctx context.Context, userID, secret string) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{
		"security.twoFactorSecret": secret,
		"security.twoFactorAuth":   false,
	}})
}

func (r *UserRepository) VerifyEmail(ctx context.Context, userID string) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{
		"security.emailVerified": true,
	}})
}

func (r *UserRepository) ActivateTwoFactor(ctx context.Context, userID string) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{
		"security.twoFactorAuth": true,
	}})
}

func (r *UserRepository) AddTrustedDevice(ctx context.Context, userID string, device domain.TrustedDevice) error {
	return r.update(ctx, userID, bson.M{"$addToSet": bson.M{
		"security.trustedDevices": trustedDeviceDoc{DeviceID: device.DeviceID, DeviceName: device.DeviceName},
	}})
}

func (r *UserRepository) NewLogin(ctx context.Context, userID string, at time.Time) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{
		"security.lastLogin": at,
	}})
}

func (r *UserRepository) DeleteTwoFactorAuth(ctx context.Context, userID string) error {
	return r.update(ctx, userID, bson.M{
		"$set": bson.M{
			"security.twoFactorAuth":   false,
			"security.trustedDevices":  []trustedDeviceDoc{},
		},
		"$unset": bson.M{"security.twoFactorSecret": ""},
	})
}

func (r *UserRepository) DeleteAccount(ctx context.Context, userID string, at time.Time) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{
		"logs.deletedAt": at,
	}})
}

// update applies the mutation to a live account, bumping updatedAt.
// A zero match means the id is unknown, malformed or soft-deleted.
func (r *UserRepository) update(ctx context.Context, userID string, update bson.M) error {
	set, ok := update["$set"].(bson.M)
	if !ok {
		set = bson.M{}
		update["$set"] = set
	}
	set["logs.updatedAt"] = time.Now().UTC()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID, "logs.deletedAt": nil}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("invalid user id %q", userID)
	}
	return nil
}
