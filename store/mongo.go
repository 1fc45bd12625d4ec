package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	guildsCollection    = "guilds"
	streamersCollection = "streamers"
)

type guildDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	GuildID               string             `bson:"guild_id"`
	NotificationChannelID string             `bson:"notification_channel_id,omitempty"`
	CreatedAt             time.Time          `bson:"created_at"`
	UpdatedAt             time.Time          `bson:"updated_at"`
}

type streamerDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	GuildID       string             `bson:"guild_id"`
	Username      string             `bson:"username"`
	IsLive        bool               `bson:"is_live"`
	CustomMessage string             `bson:"custom_message,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

// MongoStore implements Store on a MongoDB database.
type MongoStore struct {
	client    *mongo.Client
	guilds    *mongo.Collection
	streamers *mongo.Collection
}

// NewMongo connects to uri, verifies the connection and ensures the unique
// indexes on guild_id and (guild_id, username).
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongodb uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	dbh := client.Database(database)
	m := &MongoStore{
		client:    client,
		guilds:    dbh.Collection(guildsCollection),
		streamers: dbh.Collection(streamersCollection),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

func (m *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := m.guilds.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create guilds index: %w", err)
	}
	_, err = m.streamers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "is_live", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create streamers indexes: %w", err)
	}
	return nil
}

func (m *MongoStore) Name() string { return BackendMongo }

func (m *MongoStore) Ping(ctx context.Context) error { return m.client.Ping(ctx, readpref.Primary()) }

func (m *MongoStore) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

func pair(guildID, username string) bson.M {
	return bson.M{"guild_id": guildID, "username": username}
}

func (m *MongoStore) EnsureGuild(ctx context.Context, guildID string) error {
	now := time.Now().UTC()
	_, err := m.guilds.UpdateOne(ctx,
		bson.M{"guild_id": guildID},
		bson.M{"$setOnInsert": bson.M{"created_at": now, "updated_at": now}},
		options.Update().SetUpsert(true))
	return err
}

func (m *MongoStore) AddStreamer(ctx context.Context, guildID, username string) Result {
	u := NormalizeUsername(username)
	if err := m.EnsureGuild(ctx, guildID); err != nil {
		return dbFailure(BackendMongo, "adding streamer", err)
	}
	now := time.Now().UTC()
	_, err := m.streamers.InsertOne(ctx, streamerDoc{GuildID: guildID, Username: u, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return alreadyWatched(u)
		}
		return dbFailure(BackendMongo, "adding streamer", err)
	}
	return added(u)
}

func (m *MongoStore) RemoveStreamer(ctx context.Context, guildID, username string) Result {
	u := NormalizeUsername(username)
	res, err := m.streamers.DeleteOne(ctx, pair(guildID, u))
	if err != nil {
		return dbFailure(BackendMongo, "removing streamer", err)
	}
	if res.DeletedCount == 0 {
		return notWatched(u)
	}
	return removed(u)
}

func (m *MongoStore) Streamers(ctx context.Context, guildID string) []string {
	opts := options.Find().SetProjection(bson.M{"username": 1}).SetSort(bson.D{{Key: "username", Value: 1}})
	cur, err := m.streamers.Find(ctx, bson.M{"guild_id": guildID}, opts)
	if err != nil {
		logRead(BackendMongo, "streamers", err, "guild", guildID)
		return []string{}
	}
	var docs []streamerDoc
	if err := cur.All(ctx, &docs); err != nil {
		logRead(BackendMongo, "streamers", err, "guild", guildID)
		return []string{}
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Username)
	}
	return out
}

func (m *MongoStore) SetNotificationChannel(ctx context.Context, guildID, channelID string) Result {
	now := time.Now().UTC()
	_, err := m.guilds.UpdateOne(ctx,
		bson.M{"guild_id": guildID},
		bson.M{
			"$set":         bson.M{"notification_channel_id": channelID, "updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return dbFailure(BackendMongo, "setting notification channel", err)
	}
	return channelSet()
}

func (m *MongoStore) NotificationChannel(ctx context.Context, guildID string) string {
	var doc guildDoc
	if err := m.guilds.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(&doc); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			logRead(BackendMongo, "notification_channel", err, "guild", guildID)
		}
		return ""
	}
	return doc.NotificationChannelID
}

func (m *MongoStore) findStreamer(ctx context.Context, op, guildID, username string) (streamerDoc, bool) {
	var doc streamerDoc
	if err := m.streamers.FindOne(ctx, pair(guildID, NormalizeUsername(username))).Decode(&doc); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			logRead(BackendMongo, op, err, "guild", guildID, "streamer", username)
		}
		return streamerDoc{}, false
	}
	return doc, true
}

func (m *MongoStore) IsLive(ctx context.Context, guildID, username string) bool {
	doc, _ := m.findStreamer(ctx, "is_live", guildID, username)
	return doc.IsLive
}

func (m *MongoStore) setLive(ctx context.Context, op, guildID, username string, live bool) Outcome {
	_, err := m.streamers.UpdateOne(ctx,
		pair(guildID, NormalizeUsername(username)),
		bson.M{"$set": bson.M{"is_live": live, "updated_at": time.Now().UTC()}})
	return logged(BackendMongo, op, guildID, username, err)
}

func (m *MongoStore) SetLive(ctx context.Context, guildID, username string) Outcome {
	return m.setLive(ctx, "set_live", guildID, username, true)
}

func (m *MongoStore) SetOffline(ctx context.Context, guildID, username string) Outcome {
	return m.setLive(ctx, "set_offline", guildID, username, false)
}

func (m *MongoStore) SetCustomMessage(ctx context.Context, guildID, username, message string) Result {
	u := NormalizeUsername(username)
	res, err := m.streamers.UpdateOne(ctx, pair(guildID, u),
		bson.M{"$set": bson.M{"custom_message": message, "updated_at": time.Now().UTC()}})
	if err != nil {
		return dbFailure(BackendMongo, "setting custom message", err)
	}
	if res.MatchedCount == 0 {
		return notWatchedForMessage(u)
	}
	return messageSet(u)
}

func (m *MongoStore) CustomMessage(ctx context.Context, guildID, username string) string {
	doc, _ := m.findStreamer(ctx, "custom_message", guildID, username)
	return doc.CustomMessage
}

func (m *MongoStore) RemoveCustomMessage(ctx context.Context, guildID, username string) Result {
	u := NormalizeUsername(username)
	res, err := m.streamers.UpdateOne(ctx, pair(guildID, u), bson.M{
		"$unset": bson.M{"custom_message": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return dbFailure(BackendMongo, "removing custom message", err)
	}
	if res.MatchedCount == 0 {
		return streamerNotFound(u)
	}
	return messageRemoved(u)
}

func (m *MongoStore) Guilds(ctx context.Context) []string {
	cur, err := m.guilds.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"guild_id": 1}))
	if err != nil {
		logRead(BackendMongo, "guilds", err)
		return []string{}
	}
	var docs []guildDoc
	if err := cur.All(ctx, &docs); err != nil {
		logRead(BackendMongo, "guilds", err)
		return []string{}
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.GuildID)
	}
	return out
}

func (m *MongoStore) Stats(ctx context.Context) Stats {
	g, err := m.guilds.CountDocuments(ctx, bson.M{})
	if err != nil {
		logRead(BackendMongo, "stats", err)
		return Stats{}
	}
	s, err := m.streamers.CountDocuments(ctx, bson.M{})
	if err != nil {
		logRead(BackendMongo, "stats", err)
		return Stats{}
	}
	l, err := m.streamers.CountDocuments(ctx, bson.M{"is_live": true})
	if err != nil {
		logRead(BackendMongo, "stats", err)
		return Stats{}
	}
	return Stats{TotalGuilds: int(g), TotalStreamers: int(s), TotalLiveStreamers: int(l)}
}
