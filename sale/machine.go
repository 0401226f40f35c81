package sale

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/MixinNetwork/mixin/crypto"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Machine decides whether a mint request is admissible and keeps the
// authoritative supply counters. Every public operation is one indivisible
// unit of work: the request lock is held from entry to exit, and a failed
// request leaves no record, ownership change or payment movement behind.
type Machine struct {
	mu   sync.Mutex
	busy bool

	store  Store
	ledger Ledger
	rnd    Randomizer
	sink   Sink
	ac     *Accounting

	owner   string
	staking string
	manager string

	caps         Caps
	presalePrice decimal.Decimal
	publicPrice  decimal.Decimal
	presaleStart time.Time
	commitment   crypto.Hash
	baseURI      string

	balance decimal.Decimal
}

func BuildMachine(conf *Configuration, store Store, ledger Ledger, rnd Randomizer, sink Sink) (*Machine, error) {
	presalePrice, err := decimal.NewFromString(conf.Sale.PresalePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid presale price %s", conf.Sale.PresalePrice)
	}
	publicPrice, err := decimal.NewFromString(conf.Sale.PublicPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid public price %s", conf.Sale.PublicPrice)
	}
	var commitment crypto.Hash
	if conf.Sale.AllowlistCommitment != "" {
		commitment, err = crypto.HashFromString(conf.Sale.AllowlistCommitment)
		if err != nil {
			return nil, fmt.Errorf("invalid allowlist commitment %s", conf.Sale.AllowlistCommitment)
		}
	}
	sequence, presaleIssued, err := store.ReadCounters()
	if err != nil {
		return nil, err
	}
	return &Machine{
		store:   store,
		ledger:  ledger,
		rnd:     rnd,
		sink:    sink,
		ac:      NewAccounting(sequence, presaleIssued),
		owner:   conf.Auth.Owner,
		staking: conf.Auth.Staking,
		manager: conf.Auth.Manager,
		caps: Caps{
			Total:     conf.Sale.TotalCap,
			PerHolder: conf.Sale.PerHolderCap,
			Presale:   conf.Sale.PresaleCap,
		},
		presalePrice: presalePrice,
		publicPrice:  publicPrice,
		presaleStart: time.Unix(conf.Sale.PresaleStart, 0),
		commitment:   commitment,
		baseURI:      conf.Sale.BaseURI,
		balance:      decimal.Zero,
	}, nil
}

func (m *Machine) begin() {
	m.mu.Lock()
	if m.busy {
		panic("machine reentered")
	}
	m.busy = true
}

func (m *Machine) end() {
	m.busy = false
	m.mu.Unlock()
}

func (m *Machine) PresaleMint(ctx context.Context, caller string, amount uint64, payment decimal.Decimal, proof []crypto.Hash) ([]*AvatarRecord, error) {
	m.begin()
	defer m.end()

	err := m.ac.PhaseOpen(PhasePresale, time.Now(), m.presaleStart)
	if err != nil {
		return nil, err
	}
	if !VerifyMembership(caller, proof, m.commitment) {
		return nil, ErrNotAllowlisted
	}
	return m.mint(ctx, PhasePresale, caller, amount, payment, m.presalePrice)
}

func (m *Machine) PublicMint(ctx context.Context, caller string, amount uint64, payment decimal.Decimal) ([]*AvatarRecord, error) {
	m.begin()
	defer m.end()

	return m.mint(ctx, PhasePublic, caller, amount, payment, m.publicPrice)
}

func (m *Machine) mint(ctx context.Context, phase Phase, caller string, amount uint64, payment, price decimal.Decimal) ([]*AvatarRecord, error) {
	holderBalance, err := m.ledger.Balance(caller)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger balance: %v", ErrUpstream, err)
	}
	err = m.ac.CanIssue(phase, m.caps, holderBalance, amount)
	if err != nil {
		return nil, err
	}
	required := price.Mul(decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0))
	if payment.LessThan(required) {
		return nil, ErrInsufficientPayment
	}

	recs := make([]*AvatarRecord, 0, amount)
	for i := uint64(0); i < amount; i++ {
		trait, err := m.rnd.GetRandomAvatar()
		if err != nil {
			m.compensate(recs)
			return nil, fmt.Errorf("%w: randomizer: %v", ErrUpstream, err)
		}
		id := m.ac.Sequence() + i + 1
		err = m.ledger.Create(caller, id)
		if err != nil {
			m.releaseTrait(trait)
			m.compensate(recs)
			return nil, fmt.Errorf("%w: ledger create: %v", ErrUpstream, err)
		}
		recs = append(recs, &AvatarRecord{ID: id, TraitID: trait})
	}

	traceId := mixin.UniqueConversationID(uuid.Must(uuid.NewV4()).String(), "payment")
	err = m.sink.Transfer(ctx, m.manager, payment, traceId)
	if err != nil {
		m.compensate(recs)
		return nil, fmt.Errorf("%w: payment transfer: %v", ErrUpstream, err)
	}

	err = m.store.CommitIssuance(recs, phase == PhasePresale)
	if err != nil {
		logger.Printf("Machine mint commit failed after payment %s %v\n", traceId, err)
		m.compensate(recs)
		return nil, fmt.Errorf("%w: record store: %v", ErrUpstream, err)
	}
	m.ac.RecordIssuance(phase, amount)
	logger.Printf("Machine mint %s %s %d sequence %d\n", phase, caller, amount, m.ac.Sequence())
	return recs, nil
}

// compensate undoes the externally visible half of an aborted issue loop:
// ownership rows are deleted and the drawn traits go back to the buffer.
// Nothing reached the record store or the counters yet.
func (m *Machine) compensate(recs []*AvatarRecord) {
	for _, rec := range recs {
		err := m.ledger.Delete(rec.ID)
		if err != nil {
			logger.Printf("Machine compensate ledger delete %d %v\n", rec.ID, err)
		}
		m.releaseTrait(rec.TraitID)
	}
}

func (m *Machine) releaseTrait(trait uint64) {
	err := m.rnd.RemoveBuffer(trait)
	if err != nil {
		logger.Printf("Machine release trait %d %v\n", trait, err)
	}
}

// AdminReplace issues a fresh id for holder with the trait set directly to
// oldTraitId, then frees that trait slot in the randomizer so it can be
// redrawn. It takes no payment and skips presale and holder caps.
func (m *Machine) AdminReplace(ctx context.Context, caller, holder string, oldTraitId uint64) (*AvatarRecord, error) {
	m.begin()
	defer m.end()

	if caller != m.owner {
		return nil, ErrUnauthorized
	}
	err := m.ac.CanReissue(m.caps)
	if err != nil {
		return nil, err
	}
	id := m.ac.Sequence() + 1
	err = m.ledger.Create(holder, id)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger create: %v", ErrUpstream, err)
	}
	err = m.rnd.RemoveBuffer(oldTraitId)
	if err != nil {
		derr := m.ledger.Delete(id)
		if derr != nil {
			logger.Printf("Machine compensate ledger delete %d %v\n", id, derr)
		}
		return nil, fmt.Errorf("%w: randomizer: %v", ErrUpstream, err)
	}
	rec := &AvatarRecord{ID: id, TraitID: oldTraitId}
	err = m.store.CommitIssuance([]*AvatarRecord{rec}, false)
	if err != nil {
		logger.Printf("Machine replace commit failed, trait %d stays drawable %v\n", oldTraitId, err)
		derr := m.ledger.Delete(id)
		if derr != nil {
			logger.Printf("Machine compensate ledger delete %d %v\n", id, derr)
		}
		return nil, fmt.Errorf("%w: record store: %v", ErrUpstream, err)
	}
	m.ac.RecordIssuance(PhasePublic, 1)
	logger.Printf("Machine replace %s trait %d id %d\n", holder, oldTraitId, id)
	return rec, nil
}

// SetStaked flips the staked flag on an issued record. Only the configured
// staking authority may call it, and setting the current value is a no-op.
func (m *Machine) SetStaked(caller string, id uint64, value bool) error {
	m.begin()
	defer m.end()

	rec, err := m.store.ReadAvatar(id)
	if err != nil {
		panic(err)
	}
	if rec == nil {
		return ErrNotFound
	}
	if caller != m.staking {
		return ErrUnauthorized
	}
	if rec.Staked == value {
		return nil
	}
	rec.Staked = value
	err = m.store.WriteAvatar(rec)
	if err != nil {
		panic(err)
	}
	return nil
}

// Deposit credits value sent to the engine outside the mint flow. Mint
// payments forward to the manager immediately and never sit in the balance;
// anything deposited here stays retained until Withdraw sweeps it.
func (m *Machine) Deposit(amount decimal.Decimal) error {
	m.begin()
	defer m.end()

	if !amount.IsPositive() {
		return ErrInsufficientPayment
	}
	m.balance = m.balance.Add(amount)
	return nil
}

// Withdraw queues the full retained balance to the manager.
func (m *Machine) Withdraw(ctx context.Context, caller string) error {
	m.begin()
	defer m.end()

	if caller != m.owner {
		return ErrUnauthorized
	}
	if !m.balance.IsPositive() {
		return nil
	}
	traceId := mixin.UniqueConversationID(uuid.Must(uuid.NewV4()).String(), "withdraw")
	err := m.sink.Transfer(ctx, m.manager, m.balance, traceId)
	if err != nil {
		return fmt.Errorf("%w: payment transfer: %v", ErrUpstream, err)
	}
	m.balance = decimal.Zero
	return nil
}

func (m *Machine) Avatar(id uint64) (*AvatarRecord, error) {
	m.begin()
	defer m.end()

	rec, err := m.store.ReadAvatar(id)
	if err != nil {
		panic(err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// AvatarsByHolder derives the holder's records from the ownership ledger,
// then resolves each id in the record store.
func (m *Machine) AvatarsByHolder(holder string) ([]*AvatarRecord, error) {
	m.begin()
	defer m.end()

	ids, err := m.ledger.OwnedBy(holder)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger enumerate: %v", ErrUpstream, err)
	}
	recs := make([]*AvatarRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := m.store.ReadAvatar(id)
		if err != nil {
			panic(err)
		}
		if rec == nil {
			panic(id)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (m *Machine) MetadataURI(id uint64) (string, error) {
	m.begin()
	defer m.end()

	rec, err := m.store.ReadAvatar(id)
	if err != nil {
		panic(err)
	}
	if rec == nil {
		return "", ErrNotFound
	}
	return fmt.Sprintf("%s/%d", m.baseURI, rec.TraitID), nil
}

func (m *Machine) Supply() (sequence, presaleIssued uint64) {
	m.begin()
	defer m.end()

	return m.ac.Sequence(), m.ac.PresaleIssued()
}

func (m *Machine) Caps() Caps {
	m.begin()
	defer m.end()

	return m.caps
}

func (m *Machine) SetPrices(caller string, presale, public decimal.Decimal) error {
	m.begin()
	defer m.end()

	if caller != m.owner {
		return ErrUnauthorized
	}
	m.presalePrice, m.publicPrice = presale, public
	return nil
}

func (m *Machine) SetCaps(caller string, caps Caps) error {
	m.begin()
	defer m.end()

	if caller != m.owner {
		return ErrUnauthorized
	}
	m.caps = caps
	return nil
}

func (m *Machine) SetPresaleStart(caller string, start time.Time) error {
	m.begin()
	defer m.end()

	if caller != m.owner {
		return ErrUnauthorized
	}
	m.presaleStart = start
	return nil
}

func (m *Machine) SetAllowlistCommitment(caller string, commitment crypto.Hash) error {
	m.begin()
	defer m.end()

	if caller != m.owner {
		return ErrUnauthorized
	}
	m.commitment = commitment
	return nil
}

func (m *Machine) SetBaseURI(caller, baseURI string) error {
	m.begin()
	defer m.end()

	if caller != m.owner {
		return ErrUnauthorized
	}
	m.baseURI = baseURI
	return nil
}

func (m *Machine) SetStakingAuthority(caller, staking string) error {
	m.begin()
	defer m.end()

	if caller != m.owner {
		return ErrUnauthorized
	}
	m.staking = staking
	return nil
}

func (m *Machine) SetManager(caller, manager string) error {
	m.begin()
	defer m.end()

	if caller != m.owner {
		return ErrUnauthorized
	}
	m.manager = manager
	return nil
}
