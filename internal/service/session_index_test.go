package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
)

func sessionIDs(list []models.Session) []string {
	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestSessionIndexOrdersAndDropsCancelled(t *testing.T) {
	idx := NewSessionIndex([]models.Session{
		session("b", "T", "C", at(monday, 13, 0), 60, models.SessionStatusScheduled),
		session("a", "T", "C", at(monday, 9, 0), 60, models.SessionStatusCompleted),
		session("x", "T", "C", at(monday, 11, 0), 60, models.SessionStatusCancelled),
	}, []models.Client{{ID: "C", Location: coordinate(1, 2)}, {ID: "D"}})

	assert.Equal(t, []string{"a", "b"}, sessionIDs(idx.ForTherapist("T")))
	assert.Equal(t, []string{"a", "b"}, sessionIDs(idx.ForClient("C")))
	assert.Equal(t, coordinate(1, 2), idx.ClientLocation("C"))
	assert.Nil(t, idx.ClientLocation("D"))
}

func TestSessionIndexOverlapping(t *testing.T) {
	idx := NewSessionIndex([]models.Session{
		session("s1", "T", "C", at(monday, 10, 0), 60, models.SessionStatusScheduled),
		session("s2", "T2", "C", at(monday, 10, 30), 60, models.SessionStatusScheduled),
		session("s3", "T", "X", at(monday, 9, 30), 60, models.SessionStatusScheduled),
		session("s4", "T", "X", at(monday, 11, 0), 60, models.SessionStatusScheduled),
	}, nil)

	got := idx.Overlapping("T", "C", at(monday, 10, 0), at(monday, 11, 0), "")
	assert.Equal(t, []string{"s3", "s1", "s2"}, sessionIDs(got), "deduplicated and ordered by start")

	got = idx.Overlapping("T", "C", at(monday, 10, 0), at(monday, 11, 0), "s1")
	assert.Equal(t, []string{"s3", "s2"}, sessionIDs(got))

	assert.Empty(t, idx.Overlapping("T", "", at(monday, 12, 0), at(monday, 13, 0), ""))
}

func TestSessionIndexCloneIsolatesAdds(t *testing.T) {
	base := NewSessionIndex([]models.Session{
		session("s1", "T", "C", at(monday, 10, 0), 60, models.SessionStatusScheduled),
	}, nil)
	clone := base.Clone()
	clone.Add(session("p1", "T", "C", at(monday, 9, 0), 60, models.SessionStatusScheduled))
	clone.Add(session("p2", "T", "C", at(monday, 12, 0), 60, models.SessionStatusCancelled))

	assert.Equal(t, []string{"p1", "s1"}, sessionIDs(clone.ForTherapist("T")))
	assert.Equal(t, []string{"s1"}, sessionIDs(base.ForTherapist("T")))
}

func TestSessionIndexWithout(t *testing.T) {
	base := NewSessionIndex([]models.Session{
		session("s1", "T", "C", at(monday, 10, 0), 60, models.SessionStatusScheduled),
		session("s2", "T", "C", at(monday, 12, 0), 60, models.SessionStatusScheduled),
	}, nil)

	view := base.Without("s1")
	assert.Equal(t, []string{"s2"}, sessionIDs(view.ForTherapist("T")))
	assert.Equal(t, []string{"s2"}, sessionIDs(view.ForClient("C")))
	assert.Len(t, base.ForTherapist("T"), 2)
	assert.Same(t, base, base.Without(""))
}

func TestSessionIndexHours(t *testing.T) {
	idx := NewSessionIndex([]models.Session{
		session("s1", "T", "C", at(monday, 10, 0), 90, models.SessionStatusScheduled),
		session("s2", "T", "C", at(monday.AddDate(0, 0, 1), 10, 0), 60, models.SessionStatusNoShow),
		session("s3", "T", "C", at(monday.AddDate(0, 0, 7), 10, 0), 60, models.SessionStatusScheduled),
	}, nil)

	week := monday.AddDate(0, 0, 7)
	require.InDelta(t, 2.5, idx.TherapistHours("T", monday, week), 1e-9)
	assert.InDelta(t, 1.5, idx.TherapistHours("T", monday, monday.AddDate(0, 0, 1)), 1e-9)
	assert.InDelta(t, 2.5, idx.ClientHours("C", monday, week), 1e-9)
	assert.Zero(t, idx.ClientHours("unknown", monday, week))
}
