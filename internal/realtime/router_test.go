package realtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/teamforge/realtime/internal/event"
	"github.com/teamforge/realtime/internal/identity"
	"github.com/teamforge/realtime/internal/registry"
)

// fakeConn records delivered payloads and can be told to fail writes.
type fakeConn struct {
	mu       sync.Mutex
	open     bool
	failSend bool
	received [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{open: true}
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrConnClosed
	}
	if c.failSend {
		return errors.New("broken pipe")
	}
	c.received = append(c.received, data)
	return nil
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *fakeConn) payloads() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.received))
	copy(out, c.received)
	return out
}

// fakeResolver maps tokens to user ids and counts lookups.
type fakeResolver struct {
	mu    sync.Mutex
	users map[string]int64
	calls int
}

func (r *fakeResolver) Resolve(_ context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	id, ok := r.users[token]
	if !ok {
		return 0, identity.ErrUnknownToken
	}
	return id, nil
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// fakeOracle answers membership from a static set.
type fakeOracle struct {
	members map[int64]map[int64]bool // userID → projectID → member
	err     error
}

func (o *fakeOracle) IsMember(_ context.Context, userID, projectID int64) (bool, error) {
	if o.err != nil {
		return false, o.err
	}
	return o.members[userID][projectID], nil
}

// badEvent cannot be serialized; simulates a producer contract bug.
type badEvent struct {
	Ch chan int `json:"ch"`
}

func (badEvent) EventKind() event.Kind { return "bad" }

func directMessage(sender, receiver int64) event.DirectMessage {
	return event.DirectMessage{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    "hello",
		SentAt:     event.At(time.Now()),
	}
}

func TestDeliverTargetsExactlyMatchingConnections(t *testing.T) {
	reg := registry.New(nil)
	resolver := &fakeResolver{users: map[string]int64{
		"tok-a1": 1, // receiver, laptop
		"tok-a2": 1, // receiver, phone
		"tok-b":  2,
		"tok-c":  3,
	}}

	conns := map[string]*fakeConn{}
	for _, tok := range []string{"tok-a1", "tok-a2", "tok-b", "tok-c"} {
		c := newFakeConn()
		conns[tok] = c
		reg.Register(tok, c)
	}

	r := NewRouter("notify", reg, resolver, nil)
	e := directMessage(2, 1)

	err := r.Deliver(context.Background(), e, func(_ context.Context, userID int64, _ event.Event) (bool, error) {
		return userID == e.ReceiverID, nil
	})
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	// Both of user 1's devices got it, nobody else did.
	for _, tok := range []string{"tok-a1", "tok-a2"} {
		if got := len(conns[tok].payloads()); got != 1 {
			t.Errorf("%s received %d payloads, want 1", tok, got)
		}
	}
	for _, tok := range []string{"tok-b", "tok-c"} {
		if got := len(conns[tok].payloads()); got != 0 {
			t.Errorf("%s received %d payloads, want 0", tok, got)
		}
	}

	// Identity resolved once per live connection, payload identical.
	if resolver.callCount() != 4 {
		t.Errorf("resolver calls = %d, want 4", resolver.callCount())
	}
	if !bytes.Equal(conns["tok-a1"].payloads()[0], conns["tok-a2"].payloads()[0]) {
		t.Error("matching connections received different payloads")
	}
}

func TestDeliverSurvivesSingleConnectionFailure(t *testing.T) {
	reg := registry.New(nil)
	resolver := &fakeResolver{users: map[string]int64{
		"tok-1": 1, "tok-2": 1, "tok-3": 1,
	}}

	healthy1 := newFakeConn()
	broken := newFakeConn()
	broken.failSend = true
	healthy2 := newFakeConn()

	reg.Register("tok-1", healthy1)
	reg.Register("tok-2", broken)
	reg.Register("tok-3", healthy2)

	r := NewRouter("notify", reg, resolver, nil)
	e := directMessage(9, 1)

	err := r.Deliver(context.Background(), e, func(_ context.Context, userID int64, _ event.Event) (bool, error) {
		return userID == e.ReceiverID, nil
	})
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if got := len(healthy1.payloads()); got != 1 {
		t.Errorf("healthy1 received %d payloads, want 1", got)
	}
	if got := len(healthy2.payloads()); got != 1 {
		t.Errorf("healthy2 received %d payloads, want 1", got)
	}
}

func TestDeliverSkipsClosedAndUnresolvable(t *testing.T) {
	reg := registry.New(nil)
	resolver := &fakeResolver{users: map[string]int64{"tok-live": 1}}

	closed := newFakeConn()
	closed.Close()
	expired := newFakeConn() // token not in resolver
	live := newFakeConn()

	reg.Register("tok-closed", closed)
	reg.Register("tok-expired", expired)
	reg.Register("tok-live", live)

	r := NewRouter("notify", reg, resolver, nil)
	e := directMessage(2, 1)

	err := r.Deliver(context.Background(), e, func(_ context.Context, userID int64, _ event.Event) (bool, error) {
		return userID == e.ReceiverID, nil
	})
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if got := len(live.payloads()); got != 1 {
		t.Errorf("live received %d payloads, want 1", got)
	}
	if got := len(expired.payloads()); got != 0 {
		t.Errorf("expired-token connection received %d payloads, want 0", got)
	}

	// The expired connection stays registered; only its own close or
	// idle timeout removes it.
	if got := reg.Len(); got != 3 {
		t.Errorf("registry Len() = %d, want 3", got)
	}
}

func TestDeliverFailsFastOnSerializationError(t *testing.T) {
	reg := registry.New(nil)
	resolver := &fakeResolver{users: map[string]int64{"tok-1": 1}}
	conn := newFakeConn()
	reg.Register("tok-1", conn)

	r := NewRouter("notify", reg, resolver, nil)

	err := r.Deliver(context.Background(), badEvent{}, func(_ context.Context, _ int64, _ event.Event) (bool, error) {
		return true, nil
	})
	if err == nil {
		t.Fatal("expected serialization error")
	}
	if resolver.callCount() != 0 {
		t.Error("delivery pass started despite serialization failure")
	}
}

func TestHubProjectDeliveryUsesMembership(t *testing.T) {
	resolver := &fakeResolver{users: map[string]int64{
		"tok-member1": 10,
		"tok-member2": 11,
		"tok-outside": 12,
	}}
	oracle := &fakeOracle{members: map[int64]map[int64]bool{
		10: {42: true},
		11: {42: true},
		12: {42: false},
	}}

	h := NewHub(resolver, oracle, nil)
	reg, _ := h.Registry(CategoryMessage)

	conns := map[string]*fakeConn{}
	for _, tok := range []string{"tok-member1", "tok-member2", "tok-outside"} {
		c := newFakeConn()
		conns[tok] = c
		reg.Register(tok, c)
	}

	e := event.ProjectMessage{
		ID:        uuid.New(),
		ProjectID: 42,
		SenderID:  10,
		Content:   "review the draft",
		SentAt:    event.At(time.Now()),
	}
	if err := h.DeliverProjectMessage(context.Background(), e); err != nil {
		t.Fatalf("DeliverProjectMessage failed: %v", err)
	}

	if got := len(conns["tok-member1"].payloads()); got != 1 {
		t.Errorf("member1 received %d payloads, want 1", got)
	}
	if got := len(conns["tok-member2"].payloads()); got != 1 {
		t.Errorf("member2 received %d payloads, want 1", got)
	}
	if got := len(conns["tok-outside"].payloads()); got != 0 {
		t.Errorf("non-member received %d payloads, want 0", got)
	}
}

func TestHubTaskDeliveryOracleErrorSkipsConnection(t *testing.T) {
	resolver := &fakeResolver{users: map[string]int64{"tok-1": 10}}
	oracle := &fakeOracle{err: fmt.Errorf("membership query: connection refused")}

	h := NewHub(resolver, oracle, nil)
	reg, _ := h.Registry(CategoryTask)
	conn := newFakeConn()
	reg.Register("tok-1", conn)

	e := event.ProjectTask{
		ID:        uuid.New(),
		ProjectID: 42,
		Title:     "triage bug queue",
		Status:    "done",
		UpdatedAt: event.At(time.Now()),
	}

	// Oracle failure must not fail the delivery call.
	if err := h.DeliverProjectTaskUpdate(context.Background(), e); err != nil {
		t.Fatalf("DeliverProjectTaskUpdate failed: %v", err)
	}
	if got := len(conn.payloads()); got != 0 {
		t.Errorf("connection received %d payloads despite oracle failure, want 0", got)
	}
}

func TestHubRegistriesAreIndependent(t *testing.T) {
	resolver := &fakeResolver{users: map[string]int64{"tok-1": 1}}
	h := NewHub(resolver, &fakeOracle{}, nil)

	notifyReg, _ := h.Registry(CategoryNotify)
	taskReg, _ := h.Registry(CategoryTask)

	notifyConn := newFakeConn()
	notifyReg.Register("tok-1", notifyConn)

	if got := taskReg.Len(); got != 0 {
		t.Errorf("task registry Len() = %d, want 0", got)
	}

	e := directMessage(2, 1)
	if err := h.DeliverDirectMessage(context.Background(), e); err != nil {
		t.Fatalf("DeliverDirectMessage failed: %v", err)
	}
	if got := len(notifyConn.payloads()); got != 1 {
		t.Errorf("notify connection received %d payloads, want 1", got)
	}

	if _, ok := h.Registry(Category("poll")); ok {
		t.Error("unknown category should not resolve to a registry")
	}
}

func TestConcurrentDeliveryAndChurn(t *testing.T) {
	reg := registry.New(nil)
	resolver := &fakeResolver{users: map[string]int64{}}
	for i := 0; i < 16; i++ {
		resolver.users[fmt.Sprintf("tok-%d", i)] = int64(i)
	}

	r := NewRouter("notify", reg, resolver, nil)

	var wg sync.WaitGroup

	// Producers delivering concurrently.
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				e := directMessage(99, int64(i%16))
				r.Deliver(context.Background(), e, func(_ context.Context, userID int64, _ event.Event) (bool, error) {
					return userID == e.ReceiverID, nil
				})
			}
		}()
	}

	// Connection churn racing the deliveries.
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tok := fmt.Sprintf("tok-%d", n)
			for i := 0; i < 100; i++ {
				reg.Register(tok, newFakeConn())
				reg.Deregister(tok)
			}
		}(c)
	}

	wg.Wait()
}
