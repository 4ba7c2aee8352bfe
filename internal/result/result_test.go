package result

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type region struct {
	Name string `json:"name"`
}

func TestResult_ExactlyOne(t *testing.T) {
	ok := Ok(region{Name: "riverside"})
	assert.True(t, ok.IsOk())
	assert.True(t, ok.IsValid())
	assert.Nil(t, ok.Error())

	failed := Err[region](&DomainError{Status: 409, Code: CodeConflict, Message: "Region already exists"})
	assert.False(t, failed.IsOk())
	assert.True(t, failed.IsValid())
	require.NotNil(t, failed.Error())

	var zero Result[region]
	assert.False(t, zero.IsValid())

	_, err := zero.MarshalJSON()
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestResult_ErrNilIsStillError(t *testing.T) {
	r := Err[region](nil)
	assert.False(t, r.IsOk())
	assert.NotNil(t, r.Error())
}

func TestResult_Unwrap(t *testing.T) {
	v, err := Ok(3).Unwrap()
	assert.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = Err[int](&DomainError{Code: CodeNotFound, Message: "gone"}).Unwrap()
	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.True(t, domainErr.IsNotFound())
}

func TestResult_JSON(t *testing.T) {
	data, err := json.Marshal(Ok(region{Name: "riverside"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ok":{"name":"riverside"}}`, string(data))

	data, err = json.Marshal(Err[region](&DomainError{Status: 409, Code: CodeConflict, Message: "dup"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Err":{"status":409,"code":"conflict","message":"dup"}}`, string(data))
}

func TestResult_UnmarshalRejectsBothOrNeither(t *testing.T) {
	var r Result[region]
	assert.ErrorIs(t, json.Unmarshal([]byte(`{}`), &r), ErrMalformedEnvelope)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"Ok":{},"Err":"x"}`), &r), ErrMalformedEnvelope)
	assert.ErrorIs(t, json.Unmarshal([]byte(`[1]`), &r), ErrMalformedEnvelope)
}

func TestResult_UnmarshalStringError(t *testing.T) {
	var r Result[region]
	require.NoError(t, json.Unmarshal([]byte(`{"Err":"Region already exists"}`), &r))
	require.False(t, r.IsOk())
	assert.Equal(t, "Region already exists", r.Error().Message)
}

func TestResult_UnmarshalNullOk(t *testing.T) {
	var r Result[*region]
	require.NoError(t, json.Unmarshal([]byte(`{"Ok":null}`), &r))
	assert.True(t, r.IsOk())
	assert.Nil(t, r.Value())
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeForStatus(404))
	assert.Equal(t, CodeConflict, CodeForStatus(409))
	assert.Equal(t, CodeUnprocessable, CodeForStatus(422))
	assert.Equal(t, CodeServerError, CodeForStatus(503))
	assert.Equal(t, CodeBadRequest, CodeForStatus(400))
}

func TestLookup(t *testing.T) {
	p := Present(region{Name: "a"})
	v, ok := p.Value()
	assert.True(t, ok)
	assert.Equal(t, "a", v.Name)
	assert.Equal(t, "present", p.State().String())

	a := Absent[region]()
	_, ok = a.Value()
	assert.False(t, ok)
	assert.True(t, a.IsAbsent())
	assert.False(t, a.IsFailed())

	cause := errors.New("connection refused")
	f := Failed[region](cause)
	assert.True(t, f.IsFailed())
	assert.False(t, f.IsAbsent())
	assert.ErrorIs(t, f.Cause(), cause)

	assert.Error(t, Failed[region](nil).Cause())
}

func TestLookup_ZeroValueIsFailed(t *testing.T) {
	var l Lookup[region]
	assert.True(t, l.IsFailed())
	assert.False(t, l.IsPresent())
	assert.False(t, l.IsAbsent())
	assert.Equal(t, "failed", l.State().String())

	_, ok := l.Value()
	assert.False(t, ok)
	require.Error(t, l.Cause())

	mapped := Map(l, func(r region) string { return r.Name })
	assert.True(t, mapped.IsFailed())
	assert.Error(t, mapped.Cause())
}

func TestLookupMap(t *testing.T) {
	name := func(r region) string { return r.Name }

	v, ok := Map(Present(region{Name: "a"}), name).Value()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.True(t, Map(Absent[region](), name).IsAbsent())
	assert.True(t, Map(Failed[region](errors.New("x")), name).IsFailed())
}
