package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
	redisclient "github.com/angelmondragon/invoicetrack-backend/pkg/redis"
)

// RedisStore keeps each invoice as a JSON value with a sibling history list.
// Writes run in WATCH/MULTI so a competing writer aborts the transaction, and
// every write pushes the retention TTL forward.
type RedisStore struct {
	client    *redisclient.Client
	retention time.Duration
}

// NewRedisStore returns a store backed by client. A zero retention keeps keys forever.
func NewRedisStore(client *redisclient.Client, retention time.Duration) (*RedisStore, error) {
	if client == nil || client.Raw() == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client, retention: retention}, nil
}

func (s *RedisStore) Get(ctx context.Context, recordID string) (*Invoice, error) {
	raw, err := s.client.Raw().Get(ctx, s.client.InvoiceKey(recordID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	inv, err := decodeInvoice(raw)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Invoice, error) {
	return s.loadSet(ctx, s.client.InvoiceIndexKey())
}

// FindBy answers hash lookups from the per-value index sets. Members are
// re-checked against the decoded record so a stale entry never matches.
func (s *RedisStore) FindBy(ctx context.Context, field LookupField, value string) ([]Invoice, error) {
	if !field.known() {
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}
	candidates, err := s.loadSet(ctx, s.client.InvoiceLookupKey(string(field), value))
	if err != nil {
		return nil, err
	}
	out := make([]Invoice, 0, len(candidates))
	for _, inv := range candidates {
		if field.matches(inv, value) {
			out = append(out, inv)
		}
	}
	return out, nil
}

// loadSet decodes every live invoice whose id is a member of setKey, ordered by id.
func (s *RedisStore) loadSet(ctx context.Context, setKey string) ([]Invoice, error) {
	ids, err := s.client.Raw().SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Invoice{}, nil
	}
	sort.Strings(ids)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.client.InvoiceKey(id)
	}
	values, err := s.client.Raw().MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Invoice, 0, len(values))
	for _, value := range values {
		// Expired invoices can linger in the index until it expires too.
		str, ok := value.(string)
		if !ok {
			continue
		}
		inv, err := decodeInvoice([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	all, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (s *RedisStore) History(ctx context.Context, recordID string) ([]HistoryEntry, error) {
	values, err := s.client.Raw().LRange(ctx, s.client.InvoiceHistoryKey(recordID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(values))
	for _, value := range values {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", recordID, err)
		}
		entry.Snapshot = normalizeInvoice(entry.Snapshot)
		out = append(out, entry)
	}
	return out, nil
}

func (s *RedisStore) Create(ctx context.Context, inv Invoice, op enums.InvoiceOperation) (*Invoice, error) {
	stored := normalizeInvoice(inv)
	stored.Revision = 1
	key := s.client.InvoiceKey(stored.RecordID)

	err := s.client.Raw().Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return ErrAlreadyExists
		}
		return s.commit(ctx, tx, nil, stored, op)
	}, key)
	if err != nil {
		return nil, translateRedisError(err)
	}
	return &stored, nil
}

func (s *RedisStore) Update(ctx context.Context, recordID string, op enums.InvoiceOperation, mutate MutateFunc) (*Invoice, error) {
	key := s.client.InvoiceKey(recordID)
	var out Invoice

	err := s.client.Raw().Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		current, err := decodeInvoice(raw)
		if err != nil {
			return err
		}
		next := current.Clone()
		if err := mutate(&next); err != nil {
			return err
		}
		next.RecordID = current.RecordID
		next.Revision = current.Revision + 1
		next = normalizeInvoice(next)
		if err := s.commit(ctx, tx, &current, next, op); err != nil {
			return err
		}
		out = next
		return nil
	}, key)
	if err != nil {
		return nil, translateRedisError(err)
	}
	return &out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// commit writes the record, its history entry and the indexes in one MULTI
// block. prev is nil on create; otherwise lookup entries it held that inv no
// longer carries are dropped.
func (s *RedisStore) commit(ctx context.Context, tx *redis.Tx, prev *Invoice, inv Invoice, op enums.InvoiceOperation) error {
	record, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode invoice: %w", err)
	}
	entry, err := json.Marshal(newHistoryEntry(inv, op))
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	key := s.client.InvoiceKey(inv.RecordID)
	historyKey := s.client.InvoiceHistoryKey(inv.RecordID)
	indexKey := s.client.InvoiceIndexKey()

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, record, s.retention)
		pipe.RPush(ctx, historyKey, entry)
		pipe.SAdd(ctx, indexKey, inv.RecordID)
		if s.retention > 0 {
			pipe.Expire(ctx, historyKey, s.retention)
			pipe.Expire(ctx, indexKey, s.retention)
		}
		for _, field := range lookupFields {
			value := field.value(inv)
			if prev != nil {
				if old := field.value(*prev); old != "" && old != value {
					pipe.SRem(ctx, s.client.InvoiceLookupKey(string(field), old), inv.RecordID)
				}
			}
			if value == "" {
				continue
			}
			lookupKey := s.client.InvoiceLookupKey(string(field), value)
			pipe.SAdd(ctx, lookupKey, inv.RecordID)
			if s.retention > 0 {
				pipe.Expire(ctx, lookupKey, s.retention)
			}
		}
		return nil
	})
	return err
}

func translateRedisError(err error) error {
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConcurrentModification
	}
	return err
}

func decodeInvoice(raw []byte) (Invoice, error) {
	var inv Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return Invoice{}, fmt.Errorf("decode invoice: %w", err)
	}
	if inv.FinancingReferences == nil {
		inv.FinancingReferences = []string{}
	}
	return normalizeInvoice(inv), nil
}
