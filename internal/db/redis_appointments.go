package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/soaringjerry/Brightpath/internal/services"
)

// AppointmentsKeyPrefix namespaces the per-child appointment keys.
const AppointmentsKeyPrefix = "appointments-storage:"

const appointmentsEnvelopeVersion = 1

type appointmentsEnvelope struct {
	Version      int                    `json:"version"`
	Appointments []services.Appointment `json:"appointments"`
}

// RedisAppointmentStore keeps each child's list as one versioned JSON value.
// Writes go through WATCH/MULTI so concurrent edits to the same child retry
// instead of clobbering each other.
type RedisAppointmentStore struct {
	rdb *redis.Client
}

func NewRedisAppointmentStore(rdb *redis.Client) *RedisAppointmentStore {
	return &RedisAppointmentStore{rdb: rdb}
}

// NewRedisClient connects and pings; the caller owns Close.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func appointmentsKey(childID int64) string {
	return AppointmentsKeyPrefix + strconv.FormatInt(childID, 10)
}

func decodeEnvelope(raw string) ([]services.Appointment, error) {
	var env appointmentsEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	if env.Version != appointmentsEnvelopeVersion {
		return nil, fmt.Errorf("appointments: unsupported version %d", env.Version)
	}
	if env.Appointments == nil {
		env.Appointments = []services.Appointment{}
	}
	return env.Appointments, nil
}

func load(ctx context.Context, c redis.Cmdable, key string) ([]services.Appointment, error) {
	raw, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return []services.Appointment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeEnvelope(raw)
}

func (s *RedisAppointmentStore) GetAppointments(ctx context.Context, childID int64) ([]services.Appointment, error) {
	return load(ctx, s.rdb, appointmentsKey(childID))
}

const maxWatchRetries = 5

// mutate applies fn to the child's list atomically.
func (s *RedisAppointmentStore) mutate(ctx context.Context, childID int64, fn func([]services.Appointment) []services.Appointment) error {
	key := appointmentsKey(childID)
	txf := func(tx *redis.Tx) error {
		list, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		b, err := json.Marshal(appointmentsEnvelope{Version: appointmentsEnvelopeVersion, Appointments: fn(list)})
		if err != nil {
			return fmt.Errorf("encode appointments: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, 0)
			return nil
		})
		return err
	}
	for i := 0; i < maxWatchRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("appointments %s: too much contention", key)
}

func (s *RedisAppointmentStore) AddAppointment(ctx context.Context, childID int64, appt services.Appointment) error {
	return s.mutate(ctx, childID, func(list []services.Appointment) []services.Appointment {
		return append(list, appt)
	})
}

func (s *RedisAppointmentStore) UpdateAppointment(ctx context.Context, childID int64, appt services.Appointment) error {
	return s.mutate(ctx, childID, func(list []services.Appointment) []services.Appointment {
		for i := range list {
			if list[i].ID == appt.ID {
				list[i] = appt
			}
		}
		return list
	})
}

func (s *RedisAppointmentStore) CancelAppointment(ctx context.Context, childID int64, id int64) error {
	return s.mutate(ctx, childID, func(list []services.Appointment) []services.Appointment {
		kept := list[:0]
		for _, a := range list {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		return kept
	})
}
