package tool

import (
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/anlaneg/hlsedit/metrics"
)

const (
	ROOT_BKT     = "m3u8"
	PLAYLIST_BKT = "playlist"
	BUILT_BKT    = "built"
)

var ErrBucketMissing = errors.New("bucket is null")

// PlaylistRecord is the last version of a playlist seen for a URL.
type PlaylistRecord struct {
	URL     string
	Data    []byte
	BuiltAt time.Time
}

// PlaylistDB keeps playlist snapshots keyed by URL in a bbolt file:
// m3u8/playlist holds the raw bytes and m3u8/built the build time.
type PlaylistDB struct {
	db *bolt.DB
}

func OpenPlaylistDB(path string) (*PlaylistDB, error) {
	options := *bolt.DefaultOptions
	options.Timeout = time.Second
	db, err := bolt.Open(path, 0644, &options)
	if err != nil {
		return nil, errors.Wrapf(err, "open playlist db %s", path)
	}

	return &PlaylistDB{
		db: db,
	}, nil
}

func (self *PlaylistDB) update(tx func(tx *bolt.Tx) error) error {
	return self.db.Update(tx)
}

func (self *PlaylistDB) view(tx func(tx *bolt.Tx) error) error {
	return self.db.View(tx)
}

func (self *PlaylistDB) getBucket(tx *bolt.Tx, keys ...[]byte) *bolt.Bucket {
	bkt := tx.Bucket(keys[0])

	for _, key := range keys[1:] {
		if bkt == nil {
			break
		}
		bkt = bkt.Bucket(key)
	}

	return bkt
}

func (self *PlaylistDB) createBucketIfNotExists(tx *bolt.Tx, keys ...[]byte) (*bolt.Bucket, error) {
	bkt, err := tx.CreateBucketIfNotExists(keys[0])
	if err != nil {
		return nil, err
	}

	for _, key := range keys[1:] {
		bkt, err = bkt.CreateBucketIfNotExists(key)
		if err != nil {
			return nil, err
		}
	}

	return bkt, nil
}

func (self *PlaylistDB) getRootBucketName() []byte {
	return []byte(ROOT_BKT)
}

func (self *PlaylistDB) getPlaylistBucket(tx *bolt.Tx) *bolt.Bucket {
	return self.getBucket(tx, self.getRootBucketName(), []byte(PLAYLIST_BKT))
}

func (self *PlaylistDB) createPlaylistBucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	return self.createBucketIfNotExists(tx, self.getRootBucketName(), []byte(PLAYLIST_BKT))
}

func (self *PlaylistDB) getBuiltBucket(tx *bolt.Tx) *bolt.Bucket {
	return self.getBucket(tx, self.getRootBucketName(), []byte(BUILT_BKT))
}

func (self *PlaylistDB) createBuiltBucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	return self.createBucketIfNotExists(tx, self.getRootBucketName(), []byte(BUILT_BKT))
}

func (self *PlaylistDB) add(tx *bolt.Tx, getBucket func(tx *bolt.Tx) *bolt.Bucket,
	createBucket func(tx *bolt.Tx) (*bolt.Bucket, error),
	key string,
	value []byte) error {
	bkt := getBucket(tx)
	if bkt == nil {
		b, err := createBucket(tx)
		if err != nil {
			return err
		}
		bkt = b
	}
	return bkt.Put([]byte(key), value)
}

func (self *PlaylistDB) delete(tx *bolt.Tx, getBucket func(tx *bolt.Tx) *bolt.Bucket,
	key string) error {
	bkt := getBucket(tx)
	if bkt == nil {
		return nil
	}
	return bkt.Delete([]byte(key))
}

func (self *PlaylistDB) list(getBucket func(tx *bolt.Tx) *bolt.Bucket) ([]string, error) {
	result := make([]string, 0)
	err := self.view(func(tx *bolt.Tx) error {
		bkt := getBucket(tx)
		if bkt == nil {
			return nil
		}

		return bkt.ForEach(func(k, v []byte) error {
			result = append(result, string(k))
			return nil
		})
	})
	return result, err
}

func observe(op string, err error) error {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StoreOperations.WithLabelValues(op, status).Inc()
	return err
}

// Put stores rec, replacing any earlier version of the same URL.
func (self *PlaylistDB) Put(rec PlaylistRecord) error {
	built, err := rec.BuiltAt.MarshalBinary()
	if err != nil {
		return observe("put", errors.Wrap(err, "encode build time"))
	}
	err = self.update(func(tx *bolt.Tx) error {
		if err := self.add(tx, self.getPlaylistBucket, self.createPlaylistBucket, rec.URL, rec.Data); err != nil {
			return err
		}
		return self.add(tx, self.getBuiltBucket, self.createBuiltBucket, rec.URL, built)
	})
	return observe("put", errors.Wrapf(err, "put %s", rec.URL))
}

// Get returns the stored record for url. ok is false when there is none.
func (self *PlaylistDB) Get(url string) (rec PlaylistRecord, ok bool, err error) {
	err = self.view(func(tx *bolt.Tx) error {
		bkt := self.getPlaylistBucket(tx)
		if bkt == nil {
			return nil
		}
		data := bkt.Get([]byte(url))
		if data == nil {
			return nil
		}
		/*bolt中的value仅在事务内有效，需要复制*/
		rec = PlaylistRecord{URL: url, Data: append([]byte(nil), data...)}
		ok = true

		built := self.getBuiltBucket(tx)
		if built == nil {
			return errors.Wrap(ErrBucketMissing, BUILT_BKT)
		}
		if v := built.Get([]byte(url)); v != nil {
			return rec.BuiltAt.UnmarshalBinary(v)
		}
		return nil
	})
	if err != nil {
		return PlaylistRecord{}, false, observe("get", errors.Wrapf(err, "get %s", url))
	}
	return rec, ok, observe("get", nil)
}

func (self *PlaylistDB) Delete(url string) error {
	err := self.update(func(tx *bolt.Tx) error {
		if err := self.delete(tx, self.getPlaylistBucket, url); err != nil {
			return err
		}
		return self.delete(tx, self.getBuiltBucket, url)
	})
	return observe("delete", errors.Wrapf(err, "delete %s", url))
}

// List returns the stored URLs in key order.
func (self *PlaylistDB) List() ([]string, error) {
	urls, err := self.list(self.getPlaylistBucket)
	return urls, observe("list", errors.Wrap(err, "list playlists"))
}

func (self *PlaylistDB) Has(url string) (bool, error) {
	urls, err := self.List()
	if err != nil {
		return false, err
	}
	for _, i := range urls {
		if i == url {
			return true, nil
		}
	}
	return false, nil
}

func (self *PlaylistDB) Close() error {
	return self.db.Close()
}
