package export

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/extract"
)

// Document is one extraction stored in MongoDB. Absolute coordinates are
// omitted; consumers of the collection want physical units.
type Document struct {
	SourceFile  string            `bson:"source_file"`
	PatientID   string            `bson:"patient_id"`
	ExtractedAt time.Time         `bson:"extracted_at"`
	Metadata    map[string]string `bson:"metadata"`
	Leads       []DocumentLead    `bson:"leads"`
}

// DocumentLead is one lead's physically scaled trace.
type DocumentLead struct {
	Label   string    `bson:"label"`
	ActualX []float64 `bson:"actual_x"`
	ActualY []float64 `bson:"actual_y"`
}

// MongoSink inserts extraction documents into one collection.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSink connects to the MongoDB at uri.
func NewMongoSink(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to %s", uri)
	}
	return &MongoSink{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Store inserts one extraction result.
func (s *MongoSink) Store(ctx context.Context, srcPath string, res *extract.Result) error {
	if _, err := s.coll.InsertOne(ctx, NewDocument(srcPath, res, time.Now())); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "insert extraction for %s", srcPath)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// NewDocument converts an extraction result into its stored form.
func NewDocument(srcPath string, res *extract.Result, at time.Time) Document {
	doc := Document{
		SourceFile:  srcPath,
		PatientID:   res.Meta["ID"],
		ExtractedAt: at,
		Metadata:    res.Meta,
	}
	for _, lead := range res.Leads {
		doc.Leads = append(doc.Leads, DocumentLead{
			Label:   lead.Label,
			ActualX: lead.ActualX,
			ActualY: lead.ActualY,
		})
	}
	return doc
}
