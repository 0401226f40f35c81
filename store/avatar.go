package store

import (
	"github.com/MixinNetwork/mixin/common"
	"github.com/Zesty080/NFT-Whitelist/sale"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixAvatarPayload = "AVATARS:PAYLOAD:"

	keyStateSequence = "AVATARS:STATE:SEQUENCE"
	keyStatePresale  = "AVATARS:STATE:PRESALE"
)

func (bs *BadgerStore) ReadAvatar(id uint64) (*sale.AvatarRecord, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readAvatar(txn, id)
}

// WriteAvatar overwrites an existing record payload, it is how the staking
// flag moves. New records only ever enter through CommitIssuance.
func (bs *BadgerStore) WriteAvatar(rec *sale.AvatarRecord) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := bs.readAvatar(txn, rec.ID)
		if err != nil {
			return err
		} else if old == nil {
			panic(rec.ID)
		}
		key := avatarKey(rec.ID)
		return txn.Set(key, common.MsgpackMarshalPanic(rec))
	})
}

// CommitIssuance writes the records of one fully approved request together
// with the counter movement in a single transaction, so a crash can never
// leave the counters disagreeing with the stored records.
func (bs *BadgerStore) CommitIssuance(recs []*sale.AvatarRecord, presale bool) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		for _, rec := range recs {
			old, err := bs.readAvatar(txn, rec.ID)
			if err != nil {
				return err
			} else if old != nil {
				panic(rec.ID)
			}
			key := avatarKey(rec.ID)
			err = txn.Set(key, common.MsgpackMarshalPanic(rec))
			if err != nil {
				return err
			}
		}
		count := uint64(len(recs))
		err := bumpCounter(txn, keyStateSequence, count)
		if err != nil {
			return err
		}
		if presale {
			err = bumpCounter(txn, keyStatePresale, count)
		}
		return err
	})
}

func (bs *BadgerStore) ReadCounters() (uint64, uint64, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	sequence, err := readCounter(txn, keyStateSequence)
	if err != nil {
		return 0, 0, err
	}
	presaleIssued, err := readCounter(txn, keyStatePresale)
	if err != nil {
		return 0, 0, err
	}
	return sequence, presaleIssued, nil
}

// ListAvatars returns records in id order, all of them when limit is 0.
func (bs *BadgerStore) ListAvatars(limit int) ([]*sale.AvatarRecord, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixAvatarPayload)
	it := txn.NewIterator(opts)
	defer it.Close()

	var recs []*sale.AvatarRecord
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var rec sale.AvatarRecord
		err = common.MsgpackUnmarshal(val, &rec)
		if err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
		if limit > 0 && len(recs) == limit {
			break
		}
	}
	return recs, nil
}

func (bs *BadgerStore) readAvatar(txn *badger.Txn, id uint64) (*sale.AvatarRecord, error) {
	item, err := txn.Get(avatarKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var rec sale.AvatarRecord
	err = common.MsgpackUnmarshal(val, &rec)
	return &rec, err
}

func readCounter(txn *badger.Txn, key string) (uint64, error) {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	return bytesToId(val), nil
}

func bumpCounter(txn *badger.Txn, key string, count uint64) error {
	old, err := readCounter(txn, key)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), idToBytes(old+count))
}

func avatarKey(id uint64) []byte {
	return append([]byte(prefixAvatarPayload), idToBytes(id)...)
}
