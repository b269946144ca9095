package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameEncoding(t *testing.T) {
	data, err := frame(frameChat, chatPayload{Player: "bob", Message: "hi"})
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, frameChat, env.Type)

	var payload chatPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "bob", payload.Player)
	assert.Equal(t, "hi", payload.Message)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	raw := []byte(`{"type": "COMBAT", "data": {"combat": "SELECT", "target": 2}}`)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	require.Equal(t, msgCombat, env.Type)

	var req combatRequest
	require.NoError(t, json.Unmarshal(env.Data, &req))
	assert.Equal(t, "SELECT", req.Combat)
	assert.Equal(t, 2, req.Target)
}
