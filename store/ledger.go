package store

import (
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixLedgerToken = "LEDGER:TOKEN:"
	prefixLedgerOwner = "LEDGER:OWNER:"
)

// The badger ledger tracks which holder owns which id, once per fact: the
// token row is authoritative and the owner row is just its enumeration index.

func (bs *BadgerStore) Create(holder string, id uint64) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		key := ledgerTokenKey(id)
		_, err := txn.Get(key)
		if err == nil {
			panic(id)
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		err = txn.Set(key, []byte(holder))
		if err != nil {
			return err
		}
		return txn.Set(ledgerOwnerKey(holder, id), []byte{1})
	})
}

func (bs *BadgerStore) Delete(id uint64) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		key := ledgerTokenKey(id)
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		holder, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		err = txn.Delete(key)
		if err != nil {
			return err
		}
		return txn.Delete(ledgerOwnerKey(string(holder), id))
	})
}

func (bs *BadgerStore) Holder(id uint64) (string, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(ledgerTokenKey(id))
	if err == badger.ErrKeyNotFound {
		return "", nil
	} else if err != nil {
		return "", err
	}
	holder, err := item.ValueCopy(nil)
	return string(holder), err
}

func (bs *BadgerStore) Balance(holder string) (uint64, error) {
	ids, err := bs.OwnedBy(holder)
	return uint64(len(ids)), err
}

func (bs *BadgerStore) OwnedBy(holder string) ([]uint64, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefixLedgerOwner + holder + ":")
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []uint64
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		ids = append(ids, bytesToId(key[len(opts.Prefix):]))
	}
	return ids, nil
}

func ledgerTokenKey(id uint64) []byte {
	return append([]byte(prefixLedgerToken), idToBytes(id)...)
}

func ledgerOwnerKey(holder string, id uint64) []byte {
	key := append([]byte(prefixLedgerOwner), holder...)
	key = append(key, ':')
	return append(key, idToBytes(id)...)
}
