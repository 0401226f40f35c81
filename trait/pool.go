package trait

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	poolInitPropertyKey = "TRAITS:POOL:INIT"
	prefixPoolBuffer    = "TRAITS:POOL:BUFFER:"
)

// Store persists buffer membership so a restart resumes with exactly the
// traits that were drawable, including slots freed by a replace after the
// original draw.
type Store interface {
	ReadProperty(key []byte) ([]byte, error)
	WriteProperty(key, value []byte) error
	DeleteProperty(key []byte) error
	ListPropertyKeys(prefix []byte) ([][]byte, error)
}

// Pool is the buffered trait randomizer. On first open the buffer is seeded
// with every trait id in [1, total]; afterwards it is whatever the store
// says survived past draws and releases. A draw removes a uniformly random
// id, and RemoveBuffer puts a previously drawn id back so it can be drawn
// again.
type Pool struct {
	mu     sync.Mutex
	store  Store
	total  uint64
	buffer []uint64
	rng    *rand.Rand
}

func NewPool(store Store, total uint64) (*Pool, error) {
	p := &Pool{
		store: store,
		total: total,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	init, err := store.ReadProperty([]byte(poolInitPropertyKey))
	if err != nil {
		return nil, err
	}
	if init == nil {
		for id := uint64(1); id <= total; id++ {
			err = store.WriteProperty(bufferKey(id), []byte{1})
			if err != nil {
				return nil, err
			}
			p.buffer = append(p.buffer, id)
		}
		err = store.WriteProperty([]byte(poolInitPropertyKey), []byte{1})
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	keys, err := store.ListPropertyKeys([]byte(prefixPoolBuffer))
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		p.buffer = append(p.buffer, binary.BigEndian.Uint64(key[len(prefixPoolBuffer):]))
	}
	return p, nil
}

func (p *Pool) GetRandomAvatar() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buffer) == 0 {
		return 0, fmt.Errorf("trait buffer exhausted")
	}
	i := p.rng.Intn(len(p.buffer))
	id := p.buffer[i]
	err := p.store.DeleteProperty(bufferKey(id))
	if err != nil {
		return 0, err
	}
	p.buffer[i] = p.buffer[len(p.buffer)-1]
	p.buffer = p.buffer[:len(p.buffer)-1]
	return id, nil
}

func (p *Pool) RemoveBuffer(traitId uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if traitId < 1 || traitId > p.total {
		return fmt.Errorf("trait %d out of range", traitId)
	}
	for _, id := range p.buffer {
		if id == traitId {
			return fmt.Errorf("trait %d already in the buffer", traitId)
		}
	}
	err := p.store.WriteProperty(bufferKey(traitId), []byte{1})
	if err != nil {
		return err
	}
	p.buffer = append(p.buffer, traitId)
	return nil
}

func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.buffer)
}

func bufferKey(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return append([]byte(prefixPoolBuffer), buf...)
}
