package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]string{"user_id": "user-001"}

	evt, err := NewEvent("session.started", "user-001", "session", "session-service", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, "session.started", evt.EventType)
	assert.Equal(t, "user-001", evt.AggregateID)
	assert.Equal(t, "session", evt.AggregateType)
	assert.Equal(t, "session-service", evt.Source)
	assert.False(t, evt.Timestamp.IsZero())

	var data map[string]string
	require.NoError(t, json.Unmarshal(evt.Data, &data))
	assert.Equal(t, "user-001", data["user_id"])
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("session.started", "user-001", "session", "session-service", make(chan int))
	require.Error(t, err)
}

func TestEvent_Marshal(t *testing.T) {
	evt, err := NewEvent("session.ended", "user-001", "session", "session-service", map[string]string{"user_id": "user-001"})
	require.NoError(t, err)

	data, err := evt.Marshal()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, evt.EventID, decoded.EventID)
	assert.Equal(t, evt.EventType, decoded.EventType)
}
