package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/theirongolddev/koshin/internal/model"
)

// ContractsKey is the KV key holding the serialized contract list.
const ContractsKey = "@contracts"

// ErrNotFound is wrapped by Update when no stored contract has the given id.
var ErrNotFound = errors.New("not found")

// Contracts stores the whole contract list under ContractsKey. Every mutation
// is an unlocked read-modify-write of the full list, so overlapping writers
// resolve as last write wins.
type Contracts struct {
	kv  KV
	log *zap.Logger
}

// NewContracts returns a contract store over kv. A nil logger discards output.
func NewContracts(kv KV, log *zap.Logger) *Contracts {
	if log == nil {
		log = zap.NewNop()
	}
	return &Contracts{kv: kv, log: log}
}

// GetAll returns every stored contract. A missing or malformed blob reads as
// an empty list; only I/O failures are returned as errors.
func (s *Contracts) GetAll(ctx context.Context) ([]model.Contract, error) {
	data, err := s.kv.Get(ctx, ContractsKey)
	if errors.Is(err, ErrKeyNotFound) {
		return []model.Contract{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading contracts: %w", err)
	}
	if len(data) == 0 {
		return []model.Contract{}, nil
	}

	var contracts []model.Contract
	if err := json.Unmarshal(data, &contracts); err != nil {
		s.log.Warn("stored contract list is malformed, treating as empty",
			zap.String("op", "store.GetAll"),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return []model.Contract{}, nil
	}
	if contracts == nil {
		contracts = []model.Contract{}
	}
	return contracts, nil
}

// SaveAll replaces the stored list in a single write.
func (s *Contracts) SaveAll(ctx context.Context, contracts []model.Contract) error {
	if contracts == nil {
		contracts = []model.Contract{}
	}
	data, err := json.Marshal(contracts)
	if err != nil {
		return fmt.Errorf("encoding contracts: %w", err)
	}
	if err := s.kv.Set(ctx, ContractsKey, data); err != nil {
		return fmt.Errorf("saving contracts: %w", err)
	}
	return nil
}

// Get returns the contract with id, or nil when none exists.
func (s *Contracts) Get(ctx context.Context, id string) (*model.Contract, error) {
	contracts, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range contracts {
		if contracts[i].ID == id {
			return &contracts[i], nil
		}
	}
	return nil, nil
}

// Add appends c to the stored list.
func (s *Contracts) Add(ctx context.Context, c model.Contract) error {
	contracts, err := s.GetAll(ctx)
	if err != nil {
		return err
	}
	return s.SaveAll(ctx, append(contracts, c))
}

// Update replaces the stored contract with the same id as c.
func (s *Contracts) Update(ctx context.Context, c model.Contract) error {
	contracts, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range contracts {
		if contracts[i].ID == c.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return NotFoundError(c.ID)
	}

	contracts[idx] = c
	return s.SaveAll(ctx, contracts)
}

// Delete removes the contract with id. Missing ids are ignored.
func (s *Contracts) Delete(ctx context.Context, id string) error {
	contracts, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	kept := contracts[:0]
	for _, c := range contracts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return s.SaveAll(ctx, kept)
}

// Clear removes the stored list entirely.
func (s *Contracts) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, ContractsKey); err != nil {
		return fmt.Errorf("clearing contracts: %w", err)
	}
	return nil
}

// NotFoundError reports a missing contract id. It wraps ErrNotFound.
func NotFoundError(id string) error {
	return fmt.Errorf("contract with id %s %w", id, ErrNotFound)
}
