package worker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freema/convcom/internal/message"
	"github.com/freema/convcom/internal/redisclient"
	"github.com/freema/convcom/internal/store/redisstore"
	"github.com/freema/convcom/internal/webhook"
)

type testEnv struct {
	mr      *miniredis.Miniredis
	rdb     *redisclient.Client
	service *message.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := redisclient.New("redis://"+mr.Addr(), "test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	svc := message.NewService(redisstore.New(rdb, time.Hour))
	return &testEnv{mr: mr, rdb: rdb, service: svc}
}

func storedResult(t *testing.T, env *testEnv, corr string) Result {
	t.Helper()
	raw, err := env.mr.Get("test:input:result:" + corr)
	require.NoError(t, err)
	var res Result
	require.NoError(t, json.Unmarshal([]byte(raw), &res))
	return res
}

func TestProcess_Parse(t *testing.T) {
	env := setup(t)
	p := NewPool(env.rdb, env.service, nil, "queue", 1, 65536)

	res := p.process(context.Background(), `{"operation":"parse","text":"fix(io): close files\n\nRefs: #7\n","correlation_id":"c1"}`)
	require.Equal(t, StatusCompleted, res.Status, res.Error)
	assert.Equal(t, "fix(io): close files\n\nRefs: #7", res.Message)
	assert.NotEmpty(t, res.RecordID)

	assert.Equal(t, res, storedResult(t, env, "c1"))
	assert.Equal(t, resultTTL, env.mr.TTL("test:input:result:c1"))

	record, err := env.service.Get(context.Background(), res.RecordID)
	require.NoError(t, err)
	assert.Equal(t, message.SourceParse, record.Source)
}

func TestProcess_Render(t *testing.T) {
	env := setup(t)
	p := NewPool(env.rdb, env.service, nil, "queue", 1, 65536)

	payload := `{"operation":"render","commit":{"header":{"type":"feat","scope":"ui","description":"add dark mode"},"footer":{"trailers":{"Refs":["#1","#2"]}}},"correlation_id":"c2"}`
	res := p.process(context.Background(), payload)
	require.Equal(t, StatusCompleted, res.Status, res.Error)
	assert.Equal(t, "feat(ui): add dark mode\n\nRefs: #1\nRefs: #2", res.Message)
}

func TestProcess_Failures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"unknown operation", `{"operation":"lint","text":"x","correlation_id":"f"}`, "invalid payload"},
		{"parse without text", `{"operation":"parse","correlation_id":"f"}`, "invalid payload"},
		{"render without commit", `{"operation":"render","correlation_id":"f"}`, "invalid payload"},
		{"bad callback url", `{"operation":"parse","text":"a: b","callback_url":"not a url","correlation_id":"f"}`, "invalid payload"},
		{"malformed message", `{"operation":"parse","text":"no colon here","correlation_id":"f"}`, "malformed commit message"},
		{"invalid commit", `{"operation":"render","commit":{"header":{"type":"feat","description":""}},"correlation_id":"f"}`, "decoding commit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t)
			p := NewPool(env.rdb, env.service, nil, "queue", 1, 65536)

			res := p.process(context.Background(), tt.payload)
			assert.Equal(t, StatusFailed, res.Status)
			assert.Contains(t, res.Error, tt.wantErr)
			assert.Equal(t, res, storedResult(t, env, "f"))
		})
	}
}

func TestProcess_MessageSizeLimit(t *testing.T) {
	env := setup(t)
	p := NewPool(env.rdb, env.service, nil, "queue", 1, 100)

	long := `{"operation":"parse","text":"feat: x\n\n` + strings.Repeat("a", 200) + `","correlation_id":"big"}`
	res := p.process(context.Background(), long)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "exceeds 100 bytes")

	wide := NewPool(env.rdb, env.service, nil, "queue", 1, 200000)
	huge := `{"operation":"parse","text":"feat: x\n\n` + strings.Repeat("a", 70000) + `","correlation_id":"huge"}`
	res = wide.process(context.Background(), huge)
	assert.Equal(t, StatusCompleted, res.Status, res.Error)
}

func TestProcess_UndecodablePayload(t *testing.T) {
	env := setup(t)
	p := NewPool(env.rdb, env.service, nil, "queue", 1, 65536)

	res := p.process(context.Background(), `{not json`)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, env.mr.Keys())
}

func TestProcess_Webhook(t *testing.T) {
	env := setup(t)

	received := make(chan webhook.Payload, 1)
	var event string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		event = r.Header.Get("X-Convcom-Event")
		var p webhook.Payload
		_ = json.Unmarshal(body, &p)
		received <- p
	}))
	defer srv.Close()

	p := NewPool(env.rdb, env.service, webhook.NewSender("secret", 0, time.Millisecond), "queue", 1, 65536)
	res := p.process(context.Background(), `{"operation":"parse","text":"docs: readme","correlation_id":"w1","callback_url":"`+srv.URL+`"}`)
	require.Equal(t, StatusCompleted, res.Status)

	select {
	case got := <-received:
		assert.Equal(t, res.RecordID, got.RecordID)
		assert.Equal(t, "w1", got.CorrelationID)
		assert.Equal(t, "docs: readme", got.Message)
		assert.Equal(t, "message.completed", event)
	case <-time.After(time.Second):
		t.Fatal("webhook not delivered")
	}
}

func TestPool_ConsumesQueue(t *testing.T) {
	env := setup(t)
	p := NewPool(env.rdb, env.service, nil, "queue:messages", 2, 65536)

	require.NoError(t, env.rdb.Enqueue(context.Background(), "queue:messages", Job{
		Operation:     OperationParse,
		Text:          "build: bump",
		CorrelationID: "q1",
	}))

	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool {
		return env.mr.Exists("test:input:result:q1")
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, StatusCompleted, storedResult(t, env, "q1").Status)
	assert.Eventually(t, func() bool { return p.ActiveCount() == 0 }, time.Second, 10*time.Millisecond)
}
