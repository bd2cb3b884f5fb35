package broker_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub/internal/broker"
)

func TestEncode(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	raw, err := broker.Encode("newMessage", map[string]string{"chatId": "c1"}, at)
	require.NoError(t, err)

	var rec broker.Record
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, "newMessage", rec.Event)
	assert.JSONEq(t, `{"chatId":"c1"}`, string(rec.Data))
	assert.True(t, at.Equal(rec.At))

	_, err = broker.Encode("bad", make(chan int), at)
	assert.Error(t, err)
}
