package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/plateshare/accountcore/internal/core/domain"
)

const identityCollection = "identities"

// MongoIdentityRepository persists identity records in a single collection.
// Lockout mutations use FindOneAndUpdate/UpdateOne with $inc and $set so the
// read-modify-write happens server-side on one document; concurrent failed
// logins for the same account are both counted.
type MongoIdentityRepository struct {
	coll *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *MongoIdentityRepository {
	return &MongoIdentityRepository{coll: db.Collection(identityCollection)}
}

type mongoIdentity struct {
	ID                   string `bson:"_id"`
	Username             string `bson:"username"`
	Email                string `bson:"email"`
	PasswordDigest       string `bson:"password_digest"`
	Role                 string `bson:"role"`
	FailedAttempts       int    `bson:"failed_attempts"`
	LastFailureAt        int64  `bson:"last_failure_at"` // unix seconds, 0 = none
	UsernameResetAllowed bool   `bson:"username_reset_allowed"`
	CreatedAt            int64  `bson:"created_at"`
	UpdatedAt            int64  `bson:"updated_at"`
}

// EnsureIndexes creates the unique indexes on username and email that back
// the DuplicateIdentifier guarantee.
func (r *MongoIdentityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create identity indexes: %w", err)
	}
	return nil
}

func (r *MongoIdentityRepository) Create(ctx context.Context, id *domain.Identity) (*domain.Identity, error) {
	if _, err := r.coll.InsertOne(ctx, toMongo(id)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	return r.FindByUsername(ctx, id.Username)
}

func (r *MongoIdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoIdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoIdentityRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Identity, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"role": string(role)}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Identity
	for cursor.Next(ctx) {
		var mi mongoIdentity
		if err := cursor.Decode(&mi); err != nil {
			return nil, fmt.Errorf("decode identity: %w", err)
		}
		out = append(out, fromMongo(&mi))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return out, nil
}

func (r *MongoIdentityRepository) RecordFailure(ctx context.Context, username string, at time.Time) (*domain.Identity, error) {
	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{"username": username},
		bson.M{
			"$inc": bson.M{"failed_attempts": 1},
			"$set": bson.M{"last_failure_at": at.Unix(), "updated_at": at.Unix()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var mi mongoIdentity
	if err := res.Decode(&mi); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("record failure: %w", err)
	}
	return fromMongo(&mi), nil
}

func (r *MongoIdentityRepository) ResetLockout(ctx context.Context, username string) error {
	return r.updateOne(ctx, bson.M{"username": username}, bson.M{
		"$set": bson.M{"failed_attempts": 0, "last_failure_at": 0, "updated_at": time.Now().UTC().Unix()},
	})
}

func (r *MongoIdentityRepository) UpdateDigest(ctx context.Context, username, digest string) error {
	return r.updateOne(ctx, bson.M{"username": username}, bson.M{
		"$set": bson.M{"password_digest": digest, "updated_at": time.Now().UTC().Unix()},
	})
}

func (r *MongoIdentityRepository) UpdateIdentifiers(ctx context.Context, id, username, email string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"username": username, "email": email, "updated_at": time.Now().UTC().Unix()},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentifier
		}
		return fmt.Errorf("update identifiers: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *MongoIdentityRepository) SetRole(ctx context.Context, username string, role domain.Role) error {
	return r.updateOne(ctx, bson.M{"username": username}, bson.M{
		"$set": bson.M{"role": string(role), "updated_at": time.Now().UTC().Unix()},
	})
}

func (r *MongoIdentityRepository) GrantUsernameReset(ctx context.Context, username string) error {
	return r.updateOne(ctx, bson.M{"username": username}, bson.M{
		"$set": bson.M{
			"username_reset_allowed": true,
			"failed_attempts":        0,
			"last_failure_at":        0,
			"updated_at":             time.Now().UTC().Unix(),
		},
	})
}

func (r *MongoIdentityRepository) ConsumeUsernameReset(ctx context.Context, username, newUsername string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"username": username, "username_reset_allowed": true},
		bson.M{"$set": bson.M{
			"username":               newUsername,
			"username_reset_allowed": false,
			"updated_at":             time.Now().UTC().Unix(),
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentifier
		}
		return fmt.Errorf("consume username reset: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrResetNotAllowed
	}
	return nil
}

func (r *MongoIdentityRepository) Delete(ctx context.Context, username string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"username": username})
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *MongoIdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	var mi mongoIdentity
	if err := r.coll.FindOne(ctx, filter).Decode(&mi); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return fromMongo(&mi), nil
}

func (r *MongoIdentityRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func toMongo(id *domain.Identity) *mongoIdentity {
	var lastFailure int64
	if id.LastFailureAt != nil {
		lastFailure = id.LastFailureAt.Unix()
	}
	return &mongoIdentity{
		ID:                   id.ID,
		Username:             id.Username,
		Email:                id.Email,
		PasswordDigest:       id.PasswordDigest,
		Role:                 string(id.Role),
		FailedAttempts:       id.FailedAttempts,
		LastFailureAt:        lastFailure,
		UsernameResetAllowed: id.UsernameResetAllowed,
		CreatedAt:            id.CreatedAt.Unix(),
		UpdatedAt:            id.UpdatedAt.Unix(),
	}
}

func fromMongo(mi *mongoIdentity) *domain.Identity {
	var lastFailure *time.Time
	if mi.LastFailureAt > 0 {
		t := time.Unix(mi.LastFailureAt, 0).UTC()
		lastFailure = &t
	}
	return &domain.Identity{
		ID:                   mi.ID,
		Username:             mi.Username,
		Email:                mi.Email,
		PasswordDigest:       mi.PasswordDigest,
		Role:                 domain.Role(mi.Role),
		FailedAttempts:       mi.FailedAttempts,
		LastFailureAt:        lastFailure,
		UsernameResetAllowed: mi.UsernameResetAllowed,
		CreatedAt:            time.Unix(mi.CreatedAt, 0).UTC(),
		UpdatedAt:            time.Unix(mi.UpdatedAt, 0).UTC(),
	}
}
