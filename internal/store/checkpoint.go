// Package store keeps a resumable record of finished and failed batch
// units in LevelDB.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	donePrefix = "done_"
	failPrefix = "fail_"
)

// Failure records why a unit did not complete.
type Failure struct {
	Key   string    `json:"key"`
	RunID string    `json:"run_id,omitempty"`
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}

// Checkpoint is a LevelDB-backed unit ledger. It is safe for concurrent use.
type Checkpoint struct {
	db *leveldb.DB
}

// UnitKey identifies a (patient, location) unit.
func UnitKey(patientID, locationID string) string {
	return patientID + "@" + locationID
}

// Open opens or creates the checkpoint database at path.
func Open(path string) (*Checkpoint, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("Checkpoint opened")
	return &Checkpoint{db: db}, nil
}

// MarkDone stores the unit's result row and clears any earlier failure.
func (c *Checkpoint) MarkDone(key string, row any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row %s: %w", key, err)
	}
	batch := new(leveldb.Batch)
	batch.Put([]byte(donePrefix+key), data)
	batch.Delete([]byte(failPrefix + key))
	return c.db.Write(batch, nil)
}

// MarkFailed records a unit failure. A later MarkDone supersedes it.
func (c *Checkpoint) MarkFailed(key, runID string, cause error) error {
	data, err := json.Marshal(Failure{Key: key, RunID: runID, Error: cause.Error(), At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return c.db.Put([]byte(failPrefix+key), data, nil)
}

// Done reports whether the unit has completed.
func (c *Checkpoint) Done(key string) bool {
	ok, err := c.db.Has([]byte(donePrefix+key), nil)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Checkpoint lookup failed")
		return false
	}
	return ok
}

// Row decodes the stored result row of a completed unit into out.
func (c *Checkpoint) Row(key string, out any) error {
	data, err := c.db.Get([]byte(donePrefix+key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return fmt.Errorf("unit %s: %w", key, err)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// DoneKeys lists the completed units in key order.
func (c *Checkpoint) DoneKeys() ([]string, error) {
	var keys []string
	iter := c.db.NewIterator(util.BytesPrefix([]byte(donePrefix)), nil)
	for iter.Next() {
		keys = append(keys, strings.TrimPrefix(string(iter.Key()), donePrefix))
	}
	iter.Release()
	return keys, iter.Error()
}

// Failures lists the recorded failures in key order.
func (c *Checkpoint) Failures() ([]Failure, error) {
	var out []Failure
	iter := c.db.NewIterator(util.BytesPrefix([]byte(failPrefix)), nil)
	for iter.Next() {
		var f Failure
		if err := json.Unmarshal(iter.Value(), &f); err != nil {
			iter.Release()
			return nil, fmt.Errorf("decode failure %s: %w", iter.Key(), err)
		}
		out = append(out, f)
	}
	iter.Release()
	return out, iter.Error()
}

func (c *Checkpoint) Close() error {
	return c.db.Close()
}
