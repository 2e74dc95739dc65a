package prescription

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rxpad/rxpad/internal/platform/mongostore"
)

const Collection = "prescriptions"

type repoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(db *mongo.Database) Repository {
	return &repoMongo{coll: db.Collection(Collection)}
}

func (r *repoMongo) Create(ctx context.Context, p *Prescription) error {
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *repoMongo) GetByID(ctx context.Context, id string) (*Prescription, error) {
	var p Prescription
	err := r.coll.FindOne(ctx, bson.M{"id": id},
		options.FindOne().SetProjection(bson.M{"_id": 0})).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find prescription: %w", err)
	}
	return normalize(&p), nil
}

func (r *repoMongo) List(ctx context.Context, f ListFilter) ([]*Prescription, error) {
	filter := bson.M{}
	if f.PatientName != "" {
		filter["patient_name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.PatientName), Options: "i"}
	}
	opts := options.Find().
		SetProjection(bson.M{"_id": 0}).
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(f.Limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	items := []*Prescription{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode prescriptions: %w", err)
	}
	for _, p := range items {
		normalize(p)
	}
	return items, nil
}

func (r *repoMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// normalize makes a stored null medicines array serialize as [].
func normalize(p *Prescription) *Prescription {
	if p.Medicines == nil {
		p.Medicines = []MedicineLine{}
	}
	return p
}

func MongoIndexes() []mongostore.IndexSpec {
	return []mongostore.IndexSpec{
		{Collection: Collection, Keys: bson.D{{Key: "id", Value: 1}}, Unique: true},
		{Collection: Collection, Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
}
