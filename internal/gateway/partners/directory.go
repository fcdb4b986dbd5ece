// Package partners holds the read-mostly partner directory the validator
// consults on every token, plus the sources that feed it.
package partners

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync/atomic"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
)

var (
	ErrDuplicatePartner = errors.New("partners: duplicate partner id")
	ErrInvalidPartner   = errors.New("partners: invalid partner")
)

// Source produces the full partner set. Each call returns a complete list.
type Source interface {
	Load(ctx context.Context) ([]domain.Partner, error)
}

type snapshot struct {
	byID     map[string]*domain.Partner
	loadedAt time.Time
}

// Directory is an immutable snapshot of the partner set swapped atomically
// on refresh. Readers never take a lock and never see a half-applied
// configuration: a partner record is replaced whole or not at all.
type Directory struct {
	snap atomic.Pointer[snapshot]
}

// NewDirectory returns an empty directory. Ready reports false until the
// first Replace.
func NewDirectory() *Directory {
	return &Directory{}
}

// Lookup returns the partner registered under id. The returned record is
// shared with the snapshot and must not be modified.
func (d *Directory) Lookup(id string) (*domain.Partner, bool) {
	s := d.snap.Load()
	if s == nil {
		return nil, false
	}
	p, ok := s.byID[id]
	return p, ok
}

// Replace validates partners and installs them as the new snapshot.
// On error the current snapshot is left untouched.
func (d *Directory) Replace(partners []domain.Partner) error {
	byID := make(map[string]*domain.Partner, len(partners))
	for i := range partners {
		p := partners[i].Clone()
		if err := validate(&p); err != nil {
			return err
		}
		if _, dup := byID[p.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePartner, p.ID)
		}
		byID[p.ID] = &p
	}

	d.snap.Store(&snapshot{byID: byID, loadedAt: time.Now()})
	return nil
}

// Refresh loads src and replaces the snapshot with the result.
func (d *Directory) Refresh(ctx context.Context, src Source) error {
	list, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load partners: %w", err)
	}
	return d.Replace(list)
}

// Len returns the number of partners in the current snapshot.
func (d *Directory) Len() int {
	s := d.snap.Load()
	if s == nil {
		return 0
	}
	return len(s.byID)
}

// Ready reports whether a snapshot has been installed.
func (d *Directory) Ready() bool {
	return d.snap.Load() != nil
}

// LoadedAt returns when the current snapshot was installed.
func (d *Directory) LoadedAt() time.Time {
	s := d.snap.Load()
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// IDs returns the sorted partner ids of the current snapshot.
func (d *Directory) IDs() []string {
	s := d.snap.Load()
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func validate(p *domain.Partner) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidPartner)
	case len(p.Secret) == 0:
		return fmt.Errorf("%w: %q has no secret", ErrInvalidPartner, p.ID)
	case len(p.AllowedAudiences) == 0:
		return fmt.Errorf("%w: %q has no audiences", ErrInvalidPartner, p.ID)
	case slices.Contains(p.AllowedAudiences, ""):
		return fmt.Errorf("%w: %q has an empty audience", ErrInvalidPartner, p.ID)
	}
	return nil
}
