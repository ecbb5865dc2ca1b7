package healthcheck

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

func NewMongoChecker(client *mongo.Client, opts ...PingOption) *PingChecker {
	return NewPingChecker("mongodb", func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}, opts...)
}

func NewRedisChecker(client *redis.Client, opts ...PingOption) *PingChecker {
	return NewPingChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, opts...)
}
