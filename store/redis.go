package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	clientKeyPrefix  = "pm:client:"  // JSON document: pm:client:{id}
	projectKeyPrefix = "pm:project:" // JSON document: pm:project:{id}
	clientIndexKey   = "pm:clients"  // sorted set of client ids in creation order
	projectIndexKey  = "pm:projects" // sorted set of project ids in creation order
	sequenceKey      = "pm:seq"      // counter providing index scores
)

// Redis stores every document as a JSON string and keeps a creation-ordered index per
// collection.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects using a redis:// or rediss:// URL and pings the server.
func OpenRedis(ctx context.Context, uri string, timeout time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis url")
	}

	r := NewRedis(redis.NewClient(opts))

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		_ = r.client.Close()
		return nil, err
	}
	return r, nil
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) ListClients(ctx context.Context) ([]*Client, error) {
	out := make([]*Client, 0)
	err := r.list(ctx, clientIndexKey, clientKeyPrefix, func(data string) error {
		var c Client
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return err
		}
		out = append(out, &c)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list clients")
	}
	return out, nil
}

func (r *Redis) GetClient(ctx context.Context, id string) (*Client, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}

	var c Client
	found, err := r.get(ctx, clientKeyPrefix+id, &c)
	if err != nil || !found {
		return nil, errors.Wrap(err, "failed to get client")
	}
	return &c, nil
}

func (r *Redis) CreateClient(ctx context.Context, c *Client) (*Client, error) {
	doc := *c
	doc.ID = uuid.NewString()

	if err := r.create(ctx, clientIndexKey, clientKeyPrefix, doc.ID, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}
	return &doc, nil
}

func (r *Redis) DeleteClient(ctx context.Context, id string) (*Client, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}

	var c Client
	found, err := r.remove(ctx, clientIndexKey, clientKeyPrefix, id, &c)
	if err != nil || !found {
		return nil, errors.Wrap(err, "failed to delete client")
	}
	return &c, nil
}

func (r *Redis) ListProjects(ctx context.Context) ([]*Project, error) {
	out := make([]*Project, 0)
	err := r.list(ctx, projectIndexKey, projectKeyPrefix, func(data string) error {
		var p Project
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return err
		}
		out = append(out, &p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list projects")
	}
	return out, nil
}

func (r *Redis) GetProject(ctx context.Context, id string) (*Project, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}

	var p Project
	found, err := r.get(ctx, projectKeyPrefix+id, &p)
	if err != nil || !found {
		return nil, errors.Wrap(err, "failed to get project")
	}
	return &p, nil
}

func (r *Redis) CreateProject(ctx context.Context, p *Project) (*Project, error) {
	doc := *p
	if err := doc.prepare(); err != nil {
		return nil, err
	}
	doc.ID = uuid.NewString()

	if err := r.create(ctx, projectIndexKey, projectKeyPrefix, doc.ID, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to create project")
	}
	return &doc, nil
}

func (r *Redis) DeleteProject(ctx context.Context, id string) (*Project, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}

	var p Project
	found, err := r.remove(ctx, projectIndexKey, projectKeyPrefix, id, &p)
	if err != nil || !found {
		return nil, errors.Wrap(err, "failed to delete project")
	}
	return &p, nil
}

// UpdateProject rewrites the document under WATCH so a concurrent delete is not undone.
func (r *Redis) UpdateProject(ctx context.Context, id string, update ProjectUpdate) (*Project, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	if err := update.validate(); err != nil {
		return nil, err
	}

	key := projectKeyPrefix + id
	var (
		p     Project
		found bool
	)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return err
		}
		found = true
		if len(update) == 0 {
			return nil
		}

		update.apply(&p)
		doc, err := json.Marshal(&p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, doc, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update project")
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return errors.Wrap(r.client.Ping(ctx).Err(), "failed to ping redis")
}

func (r *Redis) Close(ctx context.Context) error {
	return r.client.Close()
}

func (r *Redis) list(ctx context.Context, indexKey, prefix string, decode func(string) error) error {
	ids, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = prefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			// deleted between ZRANGE and MGET
			continue
		}
		if err := decode(data); err != nil {
			return err
		}
	}
	return nil
}

func (r *Redis) get(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) create(ctx context.Context, indexKey, prefix, id string, v interface{}) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return err
	}
	seq, err := r.client.Incr(ctx, sequenceKey).Result()
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, prefix+id, doc, 0)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(seq), Member: id})
	_, err = pipe.Exec(ctx)
	return err
}

// remove deletes the document at prefix+id, decoding its last value into v.
func (r *Redis) remove(ctx context.Context, indexKey, prefix, id string, v interface{}) (bool, error) {
	pipe := r.client.TxPipeline()
	get := pipe.GetDel(ctx, prefix+id)
	pipe.ZRem(ctx, indexKey, id)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, err
	}

	data, err := get.Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, err
	}
	return true, nil
}
