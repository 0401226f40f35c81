package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Store interface {
	ReadAvatar(id uint64) (*AvatarRecord, error)
	WriteAvatar(rec *AvatarRecord) error
	CommitIssuance(recs []*AvatarRecord, presale bool) error
	ReadCounters() (sequence, presaleIssued uint64, err error)
}

// Ledger is the external ownership collaborator. It is the only place holder
// balances live, the machine never keeps its own per-holder counts.
type Ledger interface {
	Create(holder string, id uint64) error
	Delete(id uint64) error
	Balance(holder string) (uint64, error)
	OwnedBy(holder string) ([]uint64, error)
}

type Randomizer interface {
	GetRandomAvatar() (uint64, error)
	RemoveBuffer(traitId uint64) error
}

// Sink receives the full payment of every successful mint and the retained
// balance on an administrative withdraw.
type Sink interface {
	Transfer(ctx context.Context, receiver string, amount decimal.Decimal, traceId string) error
}

type Transfer struct {
	TraceId   string
	Receiver  string
	Amount    string
	CreatedAt time.Time
}
