package catalog

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

// Collection names shared with the Mongo index bootstrap.
const (
	CollectionMedicines               = "medicines"
	CollectionPatients                = "patients"
	CollectionInvestigations          = "investigations"
	CollectionDiagnosisInvestigations = "diagnosis_investigations"
)

// mongoCollection implements Store[T] over one catalog collection.
type mongoCollection[T any] struct {
	coll   *mongo.Collection
	fields map[Field]string
}

var noObjectID = options.Find().SetProjection(bson.M{"_id": 0})

func (m *mongoCollection[T]) FindByKey(ctx context.Context, key string) (*T, error) {
	var entry T
	err := m.coll.FindOne(ctx, bson.M{"unique_key": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s by key: %w", m.coll.Name(), err)
	}
	return &entry, nil
}

func (m *mongoCollection[T]) Create(ctx context.Context, entry *T) error {
	if _, err := m.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert %s: %w", m.coll.Name(), err)
	}
	return nil
}

func (m *mongoCollection[T]) Search(ctx context.Context, f SearchFilter) ([]*T, error) {
	filter := bson.M{}
	if f.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		var or bson.A
		for _, field := range f.Fields {
			name, ok := m.fields[field]
			if !ok {
				return nil, validationError(fmt.Sprintf("field %q is not searchable in %s", field, m.coll.Name()))
			}
			or = append(or, bson.M{name: pattern})
		}
		if len(or) == 0 {
			return nil, validationError("at least one search field is required")
		}
		filter["$or"] = or
	}
	return m.findAll(ctx, filter, options.Find().SetLimit(int64(f.Limit)))
}

func (m *mongoCollection[T]) findAll(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := m.coll.Find(ctx, filter, append([]*options.FindOptions{noObjectID}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", m.coll.Name(), err)
	}
	items := []*T{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.coll.Name(), err)
	}
	return items, nil
}

// -- Medicines --

type medicineRepoMongo struct {
	*mongoCollection[Medicine]
}

func NewMedicineRepoMongo(db *mongo.Database) MedicineRepository {
	return &medicineRepoMongo{&mongoCollection[Medicine]{
		coll: db.Collection(CollectionMedicines),
		fields: map[Field]string{
			FieldName: "name", FieldDosage: "dosage", FieldFrequency: "frequency",
		},
	}}
}

func (r *medicineRepoMongo) ListByName(ctx context.Context, limit int) ([]*Medicine, error) {
	return r.findAll(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(int64(limit)))
}

func (r *medicineRepoMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func NewPatientRepoMongo(db *mongo.Database) PatientRepository {
	return &mongoCollection[Patient]{
		coll:   db.Collection(CollectionPatients),
		fields: map[Field]string{FieldName: "name"},
	}
}

func NewInvestigationRepoMongo(db *mongo.Database) InvestigationRepository {
	return &mongoCollection[Investigation]{
		coll:   db.Collection(CollectionInvestigations),
		fields: map[Field]string{FieldName: "name"},
	}
}

func NewDiagnosisInvestigationRepoMongo(db *mongo.Database) DiagnosisInvestigationRepository {
	return &mongoCollection[DiagnosisInvestigation]{
		coll: db.Collection(CollectionDiagnosisInvestigations),
		fields: map[Field]string{
			FieldDiagnosis: "diagnosis", FieldInvestigations: "investigations",
		},
	}
}

// NewRepositoriesMongo wires all catalog collections to MongoDB.
func NewRepositoriesMongo(db *mongo.Database) Repositories {
	return Repositories{
		Medicines:               NewMedicineRepoMongo(db),
		Patients:                NewPatientRepoMongo(db),
		Investigations:          NewInvestigationRepoMongo(db),
		DiagnosisInvestigations: NewDiagnosisInvestigationRepoMongo(db),
	}
}

// MongoIndexes lists the indexes the catalog collections are queried by.
// unique_key is not a unique index; two concurrent syncs may both insert.
func MongoIndexes() []mongostore.IndexSpec {
	var specs []mongostore.IndexSpec
	for _, coll := range []string{
		CollectionMedicines, CollectionPatients, CollectionInvestigations, CollectionDiagnosisInvestigations,
	} {
		specs = append(specs,
			mongostore.IndexSpec{Collection: coll, Keys: bson.D{{Key: "id", Value: 1}}, Unique: true},
			mongostore.IndexSpec{Collection: coll, Keys: bson.D{{Key: "unique_key", Value: 1}}},
		)
	}
	specs = append(specs, mongostore.IndexSpec{Collection: CollectionMedicines, Keys: bson.D{{Key: "name", Value: 1}}})
	return specs
}
