/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */

// Package cache
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/kardiachain/circulation-backend/types"
)

const (
	defaultMongoDatabase   = "circulation"
	defaultMongoCollection = "Figures"

	snapshotID = "latest"
)

var ErrInvalidKey = errors.New("invalid cache key")

type snapshotDocument struct {
	ID      string            `bson:"_id"`
	Figures map[string]string `bson:"figures"`
}

// Mongo keeps every figure as a field of one document, so a multi-key write
// is a single-document update and is atomic for readers.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection

	logger *zap.Logger
}

func newMongo(cfg Config) (Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	mgoOptions := options.Client().ApplyURI(cfg.URL)
	mgoOptions.SetConnectTimeout(cfg.DialTimeout)
	mgoClient, err := mongo.Connect(ctx, mgoOptions)
	if err != nil {
		return nil, err
	}
	if err := mgoClient.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}

	database := cfg.Database
	if database == "" {
		database = defaultMongoDatabase
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultMongoCollection
	}
	return &Mongo{
		client:     mgoClient,
		collection: mgoClient.Database(database).Collection(collection),
		logger:     cfg.Logger.With(zap.String("cache", "mongo")),
	}, nil
}

func (c *Mongo) snapshot(ctx context.Context) (*snapshotDocument, error) {
	var doc snapshotDocument
	err := c.collection.FindOne(ctx, bson.M{"_id": snapshotID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &snapshotDocument{ID: snapshotID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Mongo) Get(ctx context.Context, key string) (string, error) {
	doc, err := c.snapshot(ctx)
	if err != nil {
		return "", err
	}
	v, ok := doc.Figures[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrNotFound, key)
	}
	return v, nil
}

func (c *Mongo) MGet(ctx context.Context, keys ...string) ([]*string, error) {
	doc, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]*string, len(keys))
	for i, k := range keys {
		if v, ok := doc.Figures[k]; ok {
			v := v
			values[i] = &v
		}
	}
	return values, nil
}

func (c *Mongo) MSet(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	set := bson.M{}
	for k, v := range entries {
		if k == "" || strings.ContainsAny(k, ".$") {
			return fmt.Errorf("%w: %q", ErrInvalidKey, k)
		}
		set["figures."+k] = v
	}
	opts := options.Update().SetUpsert(true)
	if _, err := c.collection.UpdateOne(ctx, bson.M{"_id": snapshotID}, bson.M{"$set": set}, opts); err != nil {
		c.logger.Warn("cannot set circulation figures", zap.Error(err))
		return err
	}
	return nil
}

func (c *Mongo) Close() error {
	return c.client.Disconnect(context.Background())
}
