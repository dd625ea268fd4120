package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	created []string
	edited  []string
	fail    error
}

func (r *flushRecorder) create(full string) (string, error) {
	if r.fail != nil {
		return "", r.fail
	}
	r.created = append(r.created, full)
	return "msg-1", nil
}

func (r *flushRecorder) edit(id, full string) error {
	r.edited = append(r.edited, full)
	return nil
}

func TestAssembler_ShortStreamFlushesOnceOnFinish(t *testing.T) {
	rec := &flushRecorder{}
	a := NewAssembler(30, 1500*time.Millisecond, rec.create, rec.edit)

	a.Write("hi ")
	a.Write("there")
	require.NoError(t, a.Finish())

	require.Len(t, rec.created, 1)
	assert.Equal(t, "hi there", rec.created[0])
	assert.Empty(t, rec.edited)
	assert.Equal(t, "msg-1", a.MessageID())
}

func TestAssembler_SizeThresholdCreatesEarly(t *testing.T) {
	rec := &flushRecorder{}
	a := NewAssembler(30, 1500*time.Millisecond, rec.create, rec.edit)

	a.Write("this delta alone is comfortably past thirty characters")
	require.Len(t, rec.created, 1)

	a.Write(" and a short tail")
	require.NoError(t, a.Finish())

	require.Len(t, rec.edited, 1)
	assert.Equal(t, "this delta alone is comfortably past thirty characters and a short tail", rec.edited[0])
}

func TestAssembler_TimeThresholdThenFinalEdit(t *testing.T) {
	rec := &flushRecorder{}
	a := NewAssembler(30, 1500*time.Millisecond, rec.create, rec.edit)

	base := time.Unix(0, 0)
	now := base
	a.now = func() time.Time { return now }

	a.Write("A")
	now = base.Add(1600 * time.Millisecond)
	a.Write("B")
	now = base.Add(1700 * time.Millisecond)
	a.Write("C")
	require.NoError(t, a.Finish())

	require.Len(t, rec.created, 1)
	assert.Equal(t, "AB", rec.created[0])
	require.Len(t, rec.edited, 1)
	assert.Equal(t, "ABC", rec.edited[0])
}

func TestAssembler_EditsCarryFullTextNotDeltas(t *testing.T) {
	rec := &flushRecorder{}
	a := NewAssembler(5, time.Hour, rec.create, rec.edit)

	a.Write("first chunk ")
	a.Write("second chunk ")
	a.Write("third")
	require.NoError(t, a.Finish())

	require.Len(t, rec.created, 1)
	for _, e := range rec.edited {
		assert.Contains(t, e, "first chunk ")
	}
	assert.Equal(t, "first chunk second chunk third", a.Text())
}

func TestAssembler_CreateErrorSurfacesFromFinish(t *testing.T) {
	rec := &flushRecorder{fail: assert.AnError}
	a := NewAssembler(5, time.Hour, rec.create, rec.edit)

	a.Write("long enough to trip the size threshold")
	err := a.Finish()

	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, a.MessageID())
}

func TestAssembler_EmptyStreamSendsNothing(t *testing.T) {
	rec := &flushRecorder{}
	a := NewAssembler(30, 1500*time.Millisecond, rec.create, rec.edit)

	require.NoError(t, a.Finish())
	assert.Empty(t, rec.created)
	assert.Empty(t, rec.edited)
}
