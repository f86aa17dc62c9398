// Package redis connects the job queue to its Redis backend.
//
// Connect retries with a bounded backoff until the server answers a ping, so
// process startup tolerates Redis coming up a moment later. Healthcheck wraps
// the same ping for liveness and readiness probes.
//
//	cfg := redis.Config{
//	    ConnectionURL:  "redis://localhost:6379/0",
//	    RetryAttempts:  3,
//	    RetryInterval:  5 * time.Second,
//	    ConnectTimeout: 30 * time.Second,
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	storage, err := queue.NewRedisStorage(client)
//
// Config fields carry env tags, so most deployments parse the struct straight
// from the environment with the config package.
package redis
