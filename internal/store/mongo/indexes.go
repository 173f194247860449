package mongo

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the feed, profile and search
// queries rely on. Call during startup; failures are logged, not
// fatal, since queries still work without them.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	ensure(ctx, db.Collection("posts"), []mongo.IndexModel{
		{
			// Feed chunks: type + authorID in (...) ordered by timestamp desc.
			Keys: bson.D{{Key: "type", Value: 1}, {Key: "authorID", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
	})
	ensure(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			// Prefix search on displayName.
			Keys: bson.D{{Key: "displayName", Value: 1}},
		},
	})
	ensure(ctx, db.Collection("users_customExercises"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "_parent", Value: 1}}},
	})
	ensure(ctx, db.Collection("users_following"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "_parent", Value: 1}}},
	})
	ensure(ctx, db.Collection("users_followers"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "_parent", Value: 1}}},
	})
}

func ensure(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for collection %s: %s", collection.Name(), err)
	}
}
