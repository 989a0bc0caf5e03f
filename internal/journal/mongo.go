// Package journal writes download events to MongoDB for operator
// inspection. Writes are insert-only and best-effort; nothing in the
// coordinator ever reads them back, so all quota and gate state stays
// volatile as designed.
package journal

import (
	"context"
	"fmt"
	"vidgate/entity"
	"vidgate/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionDownloads = "downloads"

type MongoJournal struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func New(conf *config.Config) *MongoJournal {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoJournal{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
}

func (m *MongoJournal) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoJournal) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

func (m *MongoJournal) SaveDownload(event *entity.DownloadEvent) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionDownloads)
	_, err = collection.InsertOne(m.ctx, event)
	return err
}
