package mongo

import (
	"context"
	"iter"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crewlytics/attrition/pkg/hr"
)

// LogDoc is one audit entry in the separate attrition_log collection.
type LogDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EmployeeID      int64              `bson:"employee_id" json:"employee_id"`
	AttritionStatus string             `bson:"attrition_status" json:"attrition_status"`
	LogDate         time.Time          `bson:"log_date" json:"log_date"`
}

// RecordStatus appends one audit entry timestamped at call time. Existing
// entries are never touched.
func (s *Store) RecordStatus(ctx context.Context, employeeID int64, status string) (LogDoc, error) {
	doc := LogDoc{
		EmployeeID:      employeeID,
		AttritionStatus: status,
		LogDate:         s.clock.Now().UTC(),
	}
	res, err := s.db.Collection(CollAttritionLog).InsertOne(ctx, doc)
	if err != nil {
		return LogDoc{}, mapError(err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc, nil
}

func (s *Store) GetLog(ctx context.Context, id primitive.ObjectID) (LogDoc, error) {
	var doc LogDoc
	err := s.db.Collection(CollAttritionLog).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return LogDoc{}, mapError(err)
	}
	return doc, nil
}

// LogFilter holds the optional equality filter of the log list operation.
type LogFilter struct {
	EmployeeID *int64
}

// ListLogs returns audit entries newest-first, optionally filtered to one
// employee.
func (s *Store) ListLogs(ctx context.Context, filter LogFilter, limit, skip int) ([]LogDoc, error) {
	query := bson.M{}
	if filter.EmployeeID != nil {
		query["employee_id"] = *filter.EmployeeID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "log_date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))
	cur, err := s.db.Collection(CollAttritionLog).Find(ctx, query, opts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cur.Close(ctx)

	out := []LogDoc{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusHistory returns the employee's audit trail newest-first as a lazy,
// finite, restartable sequence backed by a server cursor. Each range over
// the sequence opens a fresh cursor.
func (s *Store) StatusHistory(ctx context.Context, employeeID int64) iter.Seq2[LogDoc, error] {
	return func(yield func(LogDoc, error) bool) {
		opts := options.Find().
			SetSort(bson.D{{Key: "log_date", Value: -1}, {Key: "_id", Value: -1}})
		cur, err := s.db.Collection(CollAttritionLog).Find(ctx, bson.M{"employee_id": employeeID}, opts)
		if err != nil {
			yield(LogDoc{}, mapError(err))
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var doc LogDoc
			if err := cur.Decode(&doc); err != nil {
				yield(LogDoc{}, err)
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(LogDoc{}, err)
		}
	}
}

// DeleteLog removes one audit entry by id. This administrative delete is the
// only mutation the audit trail permits.
func (s *Store) DeleteLog(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(CollAttritionLog).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return hr.ErrNotFound
	}
	return nil
}
