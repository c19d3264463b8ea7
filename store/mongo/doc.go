// Package mongo implements store.Store using the official MongoDB
// driver. Suitable for distributed deployments requiring horizontal
// scaling and flexible schema evolution.
//
// The caller owns the *mongo.Client lifecycle -- mongo never closes it.
// Pass a database handle through the constructor:
//
//	import (
//	    mongod "go.mongodb.org/mongo-driver/v2/mongo"
//	    "go.mongodb.org/mongo-driver/v2/mongo/options"
//
//	    "github.com/xraph/traverse/store/mongo"
//	)
//
//	client, _ := mongod.Connect(options.Client().ApplyURI(uri))
//	store := mongo.New(client.Database("traverse"))
//	store.Migrate(ctx)
package mongo
