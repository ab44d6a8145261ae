package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
	"github.com/ternarybob/labelsync/internal/interfaces"
)

// storedMessage is the envelope persisted in Badger
type storedMessage struct {
	ID           string    `json:"id"`
	Body         Message   `json:"body"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
	VisibleAt    time.Time `json:"visible_at"`
	ReceiveCount int       `json:"receive_count"`
}

// BadgerManager implements a persistent visibility-timeout queue using BadgerDB.
//
// Keys:
//
//	queue:{name}:msg:{id}              -> JSON storedMessage
//	queue:{name}:index:{visibleAt}:{id} -> empty, ordered by visibility time
//
// A received message is hidden for the visibility timeout and is redelivered
// unless the consumer deletes it. Messages received MaxReceive times are dropped.
type BadgerManager struct {
	db                *badger.DB
	queueName         string
	visibilityTimeout time.Duration
	maxReceive        int
	logger            arbor.ILogger
}

// NewBadgerManager creates a new Badger-backed queue manager
func NewBadgerManager(db *badger.DB, config Config, logger arbor.ILogger) (*BadgerManager, error) {
	if db == nil {
		return nil, errors.New("badger db is required")
	}
	if config.QueueName == "" {
		return nil, errors.New("queue name is required")
	}
	if config.VisibilityTimeout <= 0 {
		config.VisibilityTimeout = 5 * time.Minute
	}
	if config.MaxReceive <= 0 {
		config.MaxReceive = 3
	}

	return &BadgerManager{
		db:                db,
		queueName:         config.QueueName,
		visibilityTimeout: config.VisibilityTimeout,
		maxReceive:        config.MaxReceive,
		logger:            logger,
	}, nil
}

var _ interfaces.QueueManager = (*BadgerManager)(nil)

// Enqueue adds a message to the queue, assigning a job id when it has none
func (m *BadgerManager) Enqueue(ctx context.Context, msg Message) error {
	if msg.JobID == "" {
		msg.JobID = common.NewJobID()
	}

	now := time.Now()
	stored := storedMessage{
		ID:         msg.JobID,
		Body:       msg,
		EnqueuedAt: now,
		VisibleAt:  now,
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(m.msgKey(stored.ID), data); err != nil {
			return err
		}
		return txn.Set(m.indexKey(stored.VisibleAt, stored.ID), []byte{})
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", msg.Type, err)
	}

	m.logger.Debug().
		Str("job_id", msg.JobID).
		Str("type", msg.Type).
		Msg("Message enqueued")

	return nil
}

// Receive claims the next visible message. The returned function deletes it;
// a message that is not deleted becomes visible again after the visibility timeout.
func (m *BadgerManager) Receive(ctx context.Context) (*Message, func() error, error) {
	for {
		var claimed *storedMessage
		var dropped int

		// The transaction commits even when nothing is claimed so dropped
		// messages leave the index for good.
		err := m.db.Update(func(txn *badger.Txn) error {
			claimed = nil
			stored, indexKey, n, err := m.nextVisible(txn)
			dropped = n
			if err != nil || stored == nil {
				return err
			}

			stored.ReceiveCount++
			stored.VisibleAt = time.Now().Add(m.visibilityTimeout)

			data, err := json.Marshal(stored)
			if err != nil {
				return err
			}
			if err := txn.Set(m.msgKey(stored.ID), data); err != nil {
				return err
			}
			if err := txn.Delete(indexKey); err != nil {
				return err
			}
			if err := txn.Set(m.indexKey(stored.VisibleAt, stored.ID), []byte{}); err != nil {
				return err
			}

			claimed = stored
			return nil
		})
		if err != nil {
			return nil, nil, err
		}

		if claimed != nil {
			msgID := claimed.ID
			deleteFn := func() error {
				return m.db.Update(func(txn *badger.Txn) error {
					return m.deleteMessage(txn, msgID)
				})
			}
			return &claimed.Body, deleteFn, nil
		}

		// Nothing removed means nothing is due
		if dropped == 0 {
			return nil, nil, ErrNoMessage
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
	}
}

// receiveScanLimit bounds how many due index entries one transaction inspects
const receiveScanLimit = 16

// nextVisible scans the visibility index for the first message due now.
// Messages that exhausted their receives and orphaned index entries are removed
// on the way and counted in removed. A nil message means none of the scanned
// entries could be claimed.
func (m *BadgerManager) nextVisible(txn *badger.Txn) (msg *storedMessage, indexKey []byte, removed int, err error) {
	now := time.Now()
	prefix := m.indexPrefix()

	type candidate struct {
		key []byte
		id  string
	}
	var due []candidate

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		ts, id, err := m.parseIndexKey(key)
		if err != nil {
			continue
		}
		// Keys sort by visibility time, nothing after a future key is due
		if ts.After(now) {
			break
		}
		due = append(due, candidate{key: key, id: id})
		if len(due) >= receiveScanLimit {
			break
		}
	}
	it.Close()

	for _, c := range due {
		item, err := txn.Get(m.msgKey(c.id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Orphaned index entry
			if err := txn.Delete(c.key); err != nil {
				return nil, nil, removed, err
			}
			removed++
			continue
		}
		if err != nil {
			return nil, nil, removed, err
		}

		var stored storedMessage
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return nil, nil, removed, err
		}

		if stored.ReceiveCount >= m.maxReceive {
			m.logger.Warn().
				Str("job_id", stored.ID).
				Str("type", stored.Body.Type).
				Int("receive_count", stored.ReceiveCount).
				Msg("Message exceeded max receive count, dropping")
			if err := txn.Delete(c.key); err != nil {
				return nil, nil, removed, err
			}
			if err := txn.Delete(m.msgKey(c.id)); err != nil {
				return nil, nil, removed, err
			}
			removed++
			continue
		}

		return &stored, c.key, removed, nil
	}

	return nil, nil, removed, nil
}

func (m *BadgerManager) deleteMessage(txn *badger.Txn, msgID string) error {
	item, err := txn.Get(m.msgKey(msgID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil // Already deleted
	}
	if err != nil {
		return err
	}

	var current storedMessage
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &current)
	}); err != nil {
		return err
	}

	if err := txn.Delete(m.indexKey(current.VisibleAt, msgID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return txn.Delete(m.msgKey(msgID))
}

// Extend pushes a message's visibility out by duration from now
func (m *BadgerManager) Extend(ctx context.Context, messageID string, duration time.Duration) error {
	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(m.msgKey(messageID))
		if err != nil {
			return err
		}

		var stored storedMessage
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}

		oldVisibleAt := stored.VisibleAt
		stored.VisibleAt = time.Now().Add(duration)

		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		if err := txn.Set(m.msgKey(messageID), data); err != nil {
			return err
		}
		if err := txn.Delete(m.indexKey(oldVisibleAt, messageID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(m.indexKey(stored.VisibleAt, messageID), []byte{})
	})
}

// Len returns the number of messages stored, visible or in flight
func (m *BadgerManager) Len(ctx context.Context) (int, error) {
	count := 0
	prefix := []byte(fmt.Sprintf("queue:%s:msg:", m.queueName))

	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count queue messages: %w", err)
	}

	return count, nil
}

// Close is a no-op, the DB is owned by the storage manager
func (m *BadgerManager) Close() error {
	return nil
}

func (m *BadgerManager) msgKey(id string) []byte {
	return []byte(fmt.Sprintf("queue:%s:msg:%s", m.queueName, id))
}

func (m *BadgerManager) indexPrefix() []byte {
	return []byte(fmt.Sprintf("queue:%s:index:", m.queueName))
}

func (m *BadgerManager) indexKey(visibleAt time.Time, id string) []byte {
	// Zero pad so lexical order matches numeric order
	return []byte(fmt.Sprintf("queue:%s:index:%020d:%s", m.queueName, visibleAt.UnixNano(), id))
}

func (m *BadgerManager) parseIndexKey(key []byte) (time.Time, string, error) {
	prefix := m.indexPrefix()
	if !bytes.HasPrefix(key, prefix) {
		return time.Time{}, "", fmt.Errorf("invalid index key")
	}

	// Suffix is "{20-digit-ts}:{id}"
	suffix := string(key[len(prefix):])
	if len(suffix) < 22 || suffix[20] != ':' {
		return time.Time{}, "", fmt.Errorf("invalid index key suffix")
	}

	var ts int64
	if _, err := fmt.Sscanf(suffix[:20], "%d", &ts); err != nil {
		return time.Time{}, "", err
	}

	return time.Unix(0, ts), suffix[21:], nil
}
