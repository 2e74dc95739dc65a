package identity

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rxpad/rxpad/internal/platform/mongostore"
)

const Collection = "users"

type userRepoMongo struct {
	coll *mongo.Collection
}

func NewUserRepoMongo(db *mongo.Database) UserRepository {
	return &userRepoMongo{coll: db.Collection(Collection)}
}

func (r *userRepoMongo) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *userRepoMongo) Create(ctx context.Context, u *User) error {
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func MongoIndexes() []mongostore.IndexSpec {
	return []mongostore.IndexSpec{
		{Collection: Collection, Keys: bson.D{{Key: "username", Value: 1}}, Unique: true},
	}
}
