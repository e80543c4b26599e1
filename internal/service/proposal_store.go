package service

import (
	"sync"
	"time"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
)

// ProposalStatus tracks an asynchronous generation.
type ProposalStatus string

const (
	ProposalPending ProposalStatus = "pending"
	ProposalReady   ProposalStatus = "ready"
	ProposalFailed  ProposalStatus = "failed"
)

// Proposal sources.
const (
	SourceInline   = "inline"
	SourceSnapshot = "snapshot"
)

// Proposal is a generation result held for later retrieval and export.
type Proposal struct {
	ID          string
	Status      ProposalStatus
	Source      string
	StartDate   time.Time
	EndDate     time.Time
	Slots       []models.ScheduleSlot
	Stats       GenerationStats
	Cached      bool
	Error       string
	RequestedAt time.Time
	CompletedAt *time.Time
}

type proposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]Proposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &proposalStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]Proposal),
	}
}

func (s *proposalStore) Save(proposal Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if proposal.RequestedAt.IsZero() {
		proposal.RequestedAt = s.now().UTC()
	}
	s.items[proposal.ID] = proposal
}

func (s *proposalStore) Get(id string) (Proposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return Proposal{}, false
	}
	if s.now().Sub(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return Proposal{}, false
	}
	return proposal, true
}

// Complete marks a pending proposal ready. It reports false when the proposal
// expired or was removed in the meantime.
func (s *proposalStore) Complete(id string, slots []models.ScheduleSlot, stats GenerationStats, cached bool) bool {
	return s.update(id, func(p *Proposal) {
		p.Status = ProposalReady
		p.Slots = slots
		p.Stats = stats
		p.Cached = cached
		p.Error = ""
	})
}

func (s *proposalStore) Fail(id string, err error) bool {
	return s.update(id, func(p *Proposal) {
		p.Status = ProposalFailed
		p.Error = err.Error()
	})
}

func (s *proposalStore) update(id string, apply func(p *Proposal)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.items[id]
	if !ok {
		return false
	}
	apply(&proposal)
	completed := s.now().UTC()
	proposal.CompletedAt = &completed
	s.items[id] = proposal
	return true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Sweep drops expired proposals and returns how many were removed.
func (s *proposalStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	now := s.now()
	for id, proposal := range s.items {
		if now.Sub(proposal.RequestedAt) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}
