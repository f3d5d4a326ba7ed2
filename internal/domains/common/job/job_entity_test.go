package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	meta, payload, err := Decode([]byte(`{"payload":{"data":{
		"request_id":"req-1","org_id":"0","action_type":"recommendation_compute","id":"7001",
		"data":{"crop":"Onion"}}}}`))
	require.NoError(t, err)

	assert.Equal(t, &Meta{RequestID: "req-1", OrgID: "0", ActionType: "recommendation_compute", ID: "7001"}, meta)
	assert.JSONEq(t, `{"crop":"Onion"}`, string(payload))
}

func TestDecodeRejectsIncompleteJobs(t *testing.T) {
	_, _, err := Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingPayload)

	_, _, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
