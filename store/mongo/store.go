// Package mongo is the document backend: denormalized employee documents
// carrying trimmed department/job-role name strings, a separate audit
// collection, and small vocabulary collections for the two dimensions.
//
// The two backends are alternative views of the same source, not a
// primary/replica pair: surrogate keys differ per backend and writes are not
// propagated automatically.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crewlytics/attrition/pkg/hr"
)

// Collection names.
const (
	CollDepartments  = "departments"
	CollJobRoles     = "job_roles"
	CollEmployees    = "employees"
	CollAttritionLog = "attrition_log"
)

type StoreConfig struct {
	Logger *slog.Logger
	DB     *mongo.Database
	Clock  clockwork.Clock
}

func (cfg *StoreConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.DB == nil {
		return errors.New("mongo database is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

type Store struct {
	log   *slog.Logger
	db    *mongo.Database
	clock clockwork.Clock
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		log:   cfg.Logger,
		db:    cfg.DB,
		clock: cfg.Clock,
	}, nil
}

// Ping verifies backend connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Reset drops every HR collection. The loader recreates them (and their
// indexes) from scratch on each run.
func (s *Store) Reset(ctx context.Context) error {
	for _, name := range []string{CollDepartments, CollJobRoles, CollEmployees, CollAttritionLog} {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", name, err)
		}
	}
	return nil
}

// EnsureIndexes creates the uniqueness and history-read indexes. Idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(CollEmployees).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "employee_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create employees index: %w", err)
	}

	for _, coll := range []string{CollDepartments, CollJobRoles} {
		field := "department_name"
		if coll == CollJobRoles {
			field = "job_role_name"
		}
		_, err := s.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create %s index: %w", coll, err)
		}
	}

	_, err = s.db.Collection(CollAttritionLog).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "log_date", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create attrition_log index: %w", err)
	}
	return nil
}

// mapError translates driver errors into the domain taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return hr.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return &hr.IntegrityError{Constraint: "duplicate key", Err: err}
	}
	return err
}

// DepartmentDoc is a dimension document. The ObjectID is this backend's
// surrogate key; only the trimmed name is shared vocabulary.
type DepartmentDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DepartmentName string             `bson:"department_name" json:"department_name"`
}

// JobRoleDoc is a dimension document, identical in shape to DepartmentDoc.
type JobRoleDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobRoleName string             `bson:"job_role_name" json:"job_role_name"`
}

// dimensionName trims a vocabulary name and rejects blanks, mirroring the
// relational backend's check constraints.
func dimensionName(field, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &hr.IntegrityError{
			Constraint: field + " must not be blank",
			Err:        fmt.Errorf("blank %s", field),
		}
	}
	return trimmed, nil
}

func (s *Store) CreateDepartment(ctx context.Context, name string) (DepartmentDoc, error) {
	name, err := dimensionName("department_name", name)
	if err != nil {
		return DepartmentDoc{}, err
	}
	doc := DepartmentDoc{DepartmentName: name}
	res, err := s.db.Collection(CollDepartments).InsertOne(ctx, doc)
	if err != nil {
		return DepartmentDoc{}, mapError(err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc, nil
}

func (s *Store) GetDepartment(ctx context.Context, id primitive.ObjectID) (DepartmentDoc, error) {
	var doc DepartmentDoc
	err := s.db.Collection(CollDepartments).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return DepartmentDoc{}, mapError(err)
	}
	return doc, nil
}

// ListDepartments returns dimension documents in insertion order (ObjectIDs
// are monotonic per process).
func (s *Store) ListDepartments(ctx context.Context, limit, skip int) ([]DepartmentDoc, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))
	cur, err := s.db.Collection(CollDepartments).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cur.Close(ctx)

	out := []DepartmentDoc{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) RenameDepartment(ctx context.Context, id primitive.ObjectID, name string) (DepartmentDoc, error) {
	name, err := dimensionName("department_name", name)
	if err != nil {
		return DepartmentDoc{}, err
	}
	res := s.db.Collection(CollDepartments).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"department_name": name}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var doc DepartmentDoc
	if err := res.Decode(&doc); err != nil {
		return DepartmentDoc{}, mapError(err)
	}
	return doc, nil
}

// DeleteDepartment removes a dimension document. The delete is rejected
// while any employee still carries the department's name, matching the
// relational backend's restrict semantics.
func (s *Store) DeleteDepartment(ctx context.Context, id primitive.ObjectID) error {
	doc, err := s.GetDepartment(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.db.Collection(CollEmployees).CountDocuments(ctx, bson.M{"department": doc.DepartmentName})
	if err != nil {
		return mapError(err)
	}
	if n > 0 {
		return &hr.IntegrityError{
			Constraint: "department referenced by employees",
			Err:        fmt.Errorf("%d employees reference department %q", n, doc.DepartmentName),
		}
	}
	res, err := s.db.Collection(CollDepartments).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return hr.ErrNotFound
	}
	return nil
}

func (s *Store) CreateJobRole(ctx context.Context, name string) (JobRoleDoc, error) {
	name, err := dimensionName("job_role_name", name)
	if err != nil {
		return JobRoleDoc{}, err
	}
	doc := JobRoleDoc{JobRoleName: name}
	res, err := s.db.Collection(CollJobRoles).InsertOne(ctx, doc)
	if err != nil {
		return JobRoleDoc{}, mapError(err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc, nil
}

func (s *Store) GetJobRole(ctx context.Context, id primitive.ObjectID) (JobRoleDoc, error) {
	var doc JobRoleDoc
	err := s.db.Collection(CollJobRoles).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return JobRoleDoc{}, mapError(err)
	}
	return doc, nil
}

func (s *Store) ListJobRoles(ctx context.Context, limit, skip int) ([]JobRoleDoc, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))
	cur, err := s.db.Collection(CollJobRoles).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cur.Close(ctx)

	out := []JobRoleDoc{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) RenameJobRole(ctx context.Context, id primitive.ObjectID, name string) (JobRoleDoc, error) {
	name, err := dimensionName("job_role_name", name)
	if err != nil {
		return JobRoleDoc{}, err
	}
	res := s.db.Collection(CollJobRoles).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"job_role_name": name}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var doc JobRoleDoc
	if err := res.Decode(&doc); err != nil {
		return JobRoleDoc{}, mapError(err)
	}
	return doc, nil
}

func (s *Store) DeleteJobRole(ctx context.Context, id primitive.ObjectID) error {
	doc, err := s.GetJobRole(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.db.Collection(CollEmployees).CountDocuments(ctx, bson.M{"job_role": doc.JobRoleName})
	if err != nil {
		return mapError(err)
	}
	if n > 0 {
		return &hr.IntegrityError{
			Constraint: "job role referenced by employees",
			Err:        fmt.Errorf("%d employees reference job role %q", n, doc.JobRoleName),
		}
	}
	res, err := s.db.Collection(CollJobRoles).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return hr.ErrNotFound
	}
	return nil
}
