package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lyricsync-go/logcolors"
	"lyricsync-go/lyric"
	"lyricsync-go/utils"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const lyricsBucketName = "lyrics"

// Store persists resolved lyric sequences in BoltDB, fronted by an
// in-memory map for fast lookups. It is the local fast path consulted
// before any provider round trip.
type Store struct {
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	compressionEnabled bool
}

// storedLyrics is the on-disk record for one track.
type storedLyrics struct {
	TrackName string         `json:"trackName"`
	Lines     lyric.Sequence `json:"lines"`
}

// NewStore opens (or creates) the lyrics database at dbPath and preloads
// all entries into memory.
func NewStore(dbPath string, compressionEnabled bool) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open lyrics database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(lyricsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create lyrics bucket: %v", err)
	}

	s := &Store{
		db:                 db,
		dbPath:             dbPath,
		compressionEnabled: compressionEnabled,
	}

	if err := s.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload lyrics store to memory: %v", logcolors.LogStore, err)
	}

	log.Infof("%s Lyrics store initialized at %s (compression: %v)", logcolors.LogStore, dbPath, compressionEnabled)
	return s, nil
}

// loadToMemory copies every record from disk into the memory front.
func (s *Store) loadToMemory() error {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(lyricsBucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			s.memCache.Store(string(k), string(v))
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d lyric records from disk", logcolors.LogStore, count)
	return nil
}

// LoadLyrics returns the stored sequence for trackID, or false when the
// track has never been saved or its record cannot be decoded.
func (s *Store) LoadLyrics(trackID string) (lyric.Sequence, bool) {
	raw, ok := s.loadRaw(trackID)
	if !ok {
		return nil, false
	}

	if s.compressionEnabled {
		decompressed, err := utils.DecompressString(raw)
		if err != nil {
			log.Errorf("%s Error decompressing record for track %s: %v", logcolors.LogStore, trackID, err)
			return nil, false
		}
		raw = decompressed
	}

	var record storedLyrics
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		log.Errorf("%s Error decoding record for track %s: %v", logcolors.LogStore, trackID, err)
		return nil, false
	}
	return record.Lines, true
}

// SaveLyrics stores a finalized sequence for trackID, in memory and on disk.
func (s *Store) SaveLyrics(trackID, trackName string, seq lyric.Sequence) error {
	data, err := json.Marshal(storedLyrics{TrackName: trackName, Lines: seq})
	if err != nil {
		return fmt.Errorf("failed to encode lyrics for %q: %v", trackName, err)
	}

	value := string(data)
	if s.compressionEnabled {
		value, err = utils.CompressString(value)
		if err != nil {
			return fmt.Errorf("failed to compress lyrics for %q: %v", trackName, err)
		}
	}

	s.memCache.Store(trackID, value)

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(lyricsBucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(trackID), []byte(value))
	})
}

// Delete removes one track's record.
func (s *Store) Delete(trackID string) error {
	s.memCache.Delete(trackID)

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(lyricsBucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(trackID))
	})
}

// Clear removes every record.
func (s *Store) Clear() error {
	s.memCache.Range(func(key, value interface{}) bool {
		s.memCache.Delete(key)
		return true
	})

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(lyricsBucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(lyricsBucketName))
		return err
	})
}

// Stats returns the number of stored tracks and their resident size in KB.
func (s *Store) Stats() (numKeys int, sizeInKB int) {
	s.memCache.Range(func(k, v interface{}) bool {
		numKeys++
		sizeInKB += len(k.(string)) + len(v.(string))
		return true
	})
	sizeInKB = sizeInKB / 1024
	return
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// loadRaw checks the memory front first, then disk.
func (s *Store) loadRaw(trackID string) (string, bool) {
	if v, ok := s.memCache.Load(trackID); ok {
		return v.(string), true
	}

	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(lyricsBucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		data := b.Get([]byte(trackID))
		if data == nil {
			return fmt.Errorf("key not found")
		}
		value = string(data)
		s.memCache.Store(trackID, value)
		return nil
	})
	if err != nil {
		return "", false
	}
	return value, true
}
