package store

import (
	"context"
	"time"

	"github.com/MixinNetwork/mixin/common"
	"github.com/Zesty080/NFT-Whitelist/sale"
	"github.com/dgraph-io/badger/v3"
	"github.com/shopspring/decimal"
)

const (
	prefixTransferPayload = "TRANSFERS:PAYLOAD:"
	prefixTransferQueue   = "TRANSFERS:QUEUE:"
)

// Transfer queues an outbound payment for the treasury process, keyed by
// trace id so a resubmitted request never queues the same movement twice.
func (bs *BadgerStore) Transfer(ctx context.Context, receiver string, amount decimal.Decimal, traceId string) error {
	old, err := bs.ReadTransfer(traceId)
	if err != nil || old != nil {
		return err
	}
	t := &sale.Transfer{
		TraceId:   traceId,
		Receiver:  receiver,
		Amount:    amount.String(),
		CreatedAt: time.Now(),
	}
	return bs.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixTransferPayload + traceId)
		err := txn.Set(key, common.MsgpackMarshalPanic(t))
		if err != nil {
			return err
		}
		return txn.Set(buildTransferTimedKey(t), []byte{1})
	})
}

func (bs *BadgerStore) ReadTransfer(traceId string) (*sale.Transfer, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readTransfer(txn, traceId)
}

func (bs *BadgerStore) ListTransfers(limit int) ([]*sale.Transfer, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefixTransferQueue)
	it := txn.NewIterator(opts)
	defer it.Close()

	var ts []*sale.Transfer
	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		traceId := string(key[len(opts.Prefix)+8:])
		t, err := bs.readTransfer(txn, traceId)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
		if limit > 0 && len(ts) == limit {
			break
		}
	}
	return ts, nil
}

func (bs *BadgerStore) readTransfer(txn *badger.Txn, traceId string) (*sale.Transfer, error) {
	item, err := txn.Get([]byte(prefixTransferPayload + traceId))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	var t sale.Transfer
	err = common.MsgpackUnmarshal(val, &t)
	return &t, err
}

func buildTransferTimedKey(t *sale.Transfer) []byte {
	buf := tsToBytes(t.CreatedAt)
	key := append([]byte(prefixTransferQueue), buf...)
	return append(key, t.TraceId...)
}
