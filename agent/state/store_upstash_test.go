package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

type recordedCommands struct {
	mu   sync.Mutex
	cmds [][]any
}

func (r *recordedCommands) add(cmd []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
}

func (r *recordedCommands) all() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]any(nil), r.cmds...)
}

func newRedisTestServer(t *testing.T, rec *recordedCommands, reply func(cmd []any) string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q", got)
		}
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Errorf("decode command: %v", err)
			return
		}
		rec.add(cmd)
		fmt.Fprint(w, reply(cmd))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestUpstashStore(t *testing.T, server *httptest.Server, opts ...StoreOption) *UpstashRedisStore {
	t.Helper()
	opts = append([]StoreOption{WithHTTPClient(server.Client())}, opts...)
	store, err := NewUpstashRedisStore(UpstashRedisConfig{URL: server.URL, Token: "token"}, opts...)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	return store
}

func TestUpstashRedisStoreRedisKey(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{}
	got, err := store.redisKey("abc")
	if err != nil {
		t.Fatalf("redisKey() error = %v", err)
	}
	if got != "assistant:transcript:abc" {
		t.Fatalf("redisKey() = %q, want %q", got, "assistant:transcript:abc")
	}
}

func TestUpstashRedisStoreRedisKeyEmptySession(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{}
	_, err := store.redisKey("   ")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("redisKey() error = %v, want ErrInvalidSession", err)
	}
}

func TestUpstashRedisStoreAppendPushesTrimsAndExpires(t *testing.T) {
	t.Parallel()

	rec := &recordedCommands{}
	server := newRedisTestServer(t, rec, func([]any) string { return `{"result":"OK"}` })
	store := newTestUpstashStore(t, server, WithMaxLen(10), WithTTL(time.Hour))

	ex := contractx.Exchange{ID: "ex-1", UserText: "hi", AssistantText: "hello"}
	if err := store.Append(context.Background(), "s1", ex); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	cmds := rec.all()
	if len(cmds) != 3 {
		t.Fatalf("expected 3 commands, got %#v", cmds)
	}
	if cmds[0][0] != "RPUSH" || cmds[0][1] != "assistant:transcript:s1" {
		t.Fatalf("unexpected push command: %#v", cmds[0])
	}
	if cmds[1][0] != "LTRIM" || cmds[1][2] != float64(-10) {
		t.Fatalf("unexpected trim command: %#v", cmds[1])
	}
	if cmds[2][0] != "EXPIRE" || cmds[2][2] != float64(3600) {
		t.Fatalf("unexpected expire command: %#v", cmds[2])
	}
}

func TestUpstashRedisStoreAppendWithoutTTLSkipsExpire(t *testing.T) {
	t.Parallel()

	rec := &recordedCommands{}
	server := newRedisTestServer(t, rec, func([]any) string { return `{"result":1}` })
	store := newTestUpstashStore(t, server, WithTTL(0))

	if err := store.Append(context.Background(), "s1", contractx.Exchange{ID: "x"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if n := len(rec.all()); n != 2 {
		t.Fatalf("expected 2 commands, got %d", n)
	}
}

func TestUpstashRedisStoreAppendRejectsEmptyExchange(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{}
	err := store.Append(context.Background(), "s1", contractx.Exchange{})
	if !errors.Is(err, ErrNilExchange) {
		t.Fatalf("Append() error = %v, want ErrNilExchange", err)
	}
}

func TestUpstashRedisStoreLoadDecodesExchanges(t *testing.T) {
	t.Parallel()

	first, _ := json.Marshal(contractx.Exchange{ID: "1", UserText: "a", AssistantText: "b"})
	second, _ := json.Marshal(contractx.Exchange{ID: "2", UserText: "c", AssistantText: "d"})
	list, _ := json.Marshal([]string{string(first), string(second)})

	rec := &recordedCommands{}
	server := newRedisTestServer(t, rec, func([]any) string {
		return fmt.Sprintf(`{"result":%s}`, list)
	})
	store := newTestUpstashStore(t, server)

	got, err := store.Load(context.Background(), "s2", 5)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].AssistantText != "d" {
		t.Fatalf("unexpected exchanges: %#v", got)
	}

	cmd := rec.all()[0]
	if cmd[0] != "LRANGE" || cmd[1] != "assistant:transcript:s2" || cmd[2] != float64(-5) || cmd[3] != float64(-1) {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestUpstashRedisStoreLoadEmpty(t *testing.T) {
	t.Parallel()

	rec := &recordedCommands{}
	server := newRedisTestServer(t, rec, func([]any) string { return `{"result":null}` })
	store := newTestUpstashStore(t, server)

	got, err := store.Load(context.Background(), "s3", 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no exchanges, got %#v", got)
	}
}

func TestUpstashRedisStoreSurfacesRedisError(t *testing.T) {
	t.Parallel()

	rec := &recordedCommands{}
	server := newRedisTestServer(t, rec, func([]any) string { return `{"error":"WRONGTYPE"}` })
	store := newTestUpstashStore(t, server)

	err := store.Delete(context.Background(), "s4")
	if err == nil || err.Error() != "WRONGTYPE" {
		t.Fatalf("Delete() error = %v, want WRONGTYPE", err)
	}
	if cmd := rec.all()[0]; cmd[0] != "DEL" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}
