package mapping

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// IndexModels returns one ascending index per field tagged
// `docstore:"index"` or `docstore:"unique"`.
func (e *Entity) IndexModels() []mongo.IndexModel {
	var models []mongo.IndexModel
	for _, f := range e.Fields {
		if !f.Indexed {
			continue
		}
		opts := mongoopts.Index().SetName(fmt.Sprintf("%s_%s_idx", e.Collection, f.Name))
		if f.Unique {
			opts.SetUnique(true)
		}
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: f.Name, Value: 1}},
			Options: opts,
		})
	}
	return models
}

// EnsureIndexes creates the indexes of every registered entity in db and
// returns the collections it touched.
func (c *Context) EnsureIndexes(ctx context.Context, db *mongo.Database) ([]string, error) {
	var done []string
	for _, e := range c.Entities() {
		models := e.IndexModels()
		if len(models) == 0 {
			continue
		}
		if _, err := db.Collection(e.Collection).Indexes().CreateMany(ctx, models); err != nil {
			return done, fmt.Errorf("create indexes for %s: %w", e.Collection, err)
		}
		done = append(done, e.Collection)
	}
	return done, nil
}
