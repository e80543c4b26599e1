package service

import (
	"sort"
	"time"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
)

// SessionIndex is a read-only view of bookings keyed by therapist and client.
// Cancelled sessions are dropped on insert. Add copies the affected slice, so a
// Clone can grow independently of its parent.
type SessionIndex struct {
	byTherapist     map[string][]models.Session
	byClient        map[string][]models.Session
	clientLocations map[string]*models.Coordinate
}

// NewSessionIndex indexes sessions and remembers client locations for travel lookups.
func NewSessionIndex(sessions []models.Session, clients []models.Client) *SessionIndex {
	idx := &SessionIndex{
		byTherapist:     make(map[string][]models.Session),
		byClient:        make(map[string][]models.Session),
		clientLocations: make(map[string]*models.Coordinate, len(clients)),
	}
	for i := range clients {
		if clients[i].Location != nil {
			idx.clientLocations[clients[i].ID] = clients[i].Location
		}
	}
	for _, s := range sessions {
		if !s.Occupies() {
			continue
		}
		idx.byTherapist[s.TherapistID] = append(idx.byTherapist[s.TherapistID], s)
		idx.byClient[s.ClientID] = append(idx.byClient[s.ClientID], s)
	}
	for _, list := range idx.byTherapist {
		sortSessions(list)
	}
	for _, list := range idx.byClient {
		sortSessions(list)
	}
	return idx
}

// Without returns a view that omits the session with the given ID.
func (x *SessionIndex) Without(sessionID string) *SessionIndex {
	if sessionID == "" {
		return x
	}
	out := x.Clone()
	for key, list := range out.byTherapist {
		out.byTherapist[key] = dropSession(list, sessionID)
	}
	for key, list := range out.byClient {
		out.byClient[key] = dropSession(list, sessionID)
	}
	return out
}

// Clone returns a shallow copy whose maps may be extended without touching x.
func (x *SessionIndex) Clone() *SessionIndex {
	out := &SessionIndex{
		byTherapist:     make(map[string][]models.Session, len(x.byTherapist)),
		byClient:        make(map[string][]models.Session, len(x.byClient)),
		clientLocations: x.clientLocations,
	}
	for k, v := range x.byTherapist {
		out.byTherapist[k] = v
	}
	for k, v := range x.byClient {
		out.byClient[k] = v
	}
	return out
}

// Add records a booking, keeping per-entity lists ordered by start.
func (x *SessionIndex) Add(s models.Session) {
	if !s.Occupies() {
		return
	}
	x.byTherapist[s.TherapistID] = insertSorted(x.byTherapist[s.TherapistID], s)
	x.byClient[s.ClientID] = insertSorted(x.byClient[s.ClientID], s)
}

func (x *SessionIndex) ForTherapist(id string) []models.Session { return x.byTherapist[id] }

func (x *SessionIndex) ForClient(id string) []models.Session { return x.byClient[id] }

// ClientLocation returns the client's coordinate or nil when unknown.
func (x *SessionIndex) ClientLocation(id string) *models.Coordinate {
	return x.clientLocations[id]
}

// Overlapping returns sessions of the therapist or the client intersecting
// [start, end), each once, ordered by start then ID.
func (x *SessionIndex) Overlapping(therapistID, clientID string, start, end time.Time, excludeID string) []models.Session {
	seen := make(map[string]bool)
	var out []models.Session
	collect := func(list []models.Session) {
		for _, s := range list {
			if !s.StartTime.Before(end) {
				break
			}
			if s.ID == excludeID || seen[s.ID] || !s.Overlaps(start, end) {
				continue
			}
			seen[s.ID] = true
			out = append(out, s)
		}
	}
	collect(x.byTherapist[therapistID])
	collect(x.byClient[clientID])
	sortSessions(out)
	return out
}

// TherapistHours sums booked hours that start within [from, to).
func (x *SessionIndex) TherapistHours(id string, from, to time.Time) float64 {
	return hoursWithin(x.byTherapist[id], from, to)
}

// ClientHours sums booked hours that start within [from, to).
func (x *SessionIndex) ClientHours(id string, from, to time.Time) float64 {
	return hoursWithin(x.byClient[id], from, to)
}

func hoursWithin(list []models.Session, from, to time.Time) float64 {
	var total float64
	for _, s := range list {
		if s.StartTime.Before(from) {
			continue
		}
		if !s.StartTime.Before(to) {
			break
		}
		total += s.Hours()
	}
	return total
}

func sortSessions(list []models.Session) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].StartTime.Equal(list[j].StartTime) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartTime.Before(list[j].StartTime)
	})
}

func insertSorted(list []models.Session, s models.Session) []models.Session {
	pos := sort.Search(len(list), func(i int) bool {
		if list[i].StartTime.Equal(s.StartTime) {
			return list[i].ID > s.ID
		}
		return list[i].StartTime.After(s.StartTime)
	})
	next := make([]models.Session, 0, len(list)+1)
	next = append(next, list[:pos]...)
	next = append(next, s)
	return append(next, list[pos:]...)
}

func dropSession(list []models.Session, id string) []models.Session {
	for i := range list {
		if list[i].ID == id {
			next := make([]models.Session, 0, len(list)-1)
			next = append(next, list[:i]...)
			return append(next, list[i+1:]...)
		}
	}
	return list
}
