package qrlogin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/poll"
	"github.com/ravey/almond/pkg/qrlogin"
	"github.com/ravey/almond/pkg/session"
	"github.com/ravey/almond/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// advanceTicks lets the poller reach its next timer, then fires it.
func advanceTicks(fc clockwork.FakeClock, n int) {
	for range n {
		fc.BlockUntil(2)
		fc.Advance(2 * time.Second)
	}
}

func newFlow(p qrlogin.Provider, store *session.Store, fc clockwork.FakeClock, timeout time.Duration, onState func(poll.State)) *qrlogin.Flow {
	return qrlogin.NewFlow(qrlogin.FlowConfig{
		Provider: p,
		Store:    store,
		Poll: poll.Options{
			Interval: 2 * time.Second,
			Timeout:  timeout,
			Clock:    fc,
			OnState:  onState,
		},
		Logger: slogx.Discard(),
	})
}

func waitOutcome(t *testing.T, a *qrlogin.Attempt) qrlogin.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := a.Wait(ctx)
	require.NoError(t, err)
	return out
}

func TestFlow_AdoptsOnce(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	p := &fakeProvider{
		genIDs: []string{"q1"},
		image:  "AAA=",
		checks: []*almondsdk.QRCheckResponse{
			pending(), pending(),
			confirmed("T", "7", "Ann"), confirmed("T", "7", "Ann"), confirmed("T", "7", "Ann"),
		},
	}
	store, _ := newStore(t)
	var adoptions atomic.Int32
	store.Subscribe(func(s session.Session) {
		if s.IsAuthenticated() {
			adoptions.Add(1)
		}
	})

	a, err := newFlow(p, store, fc, 300*time.Second, nil).Start(context.Background())
	require.NoError(t, err)
	advanceTicks(fc, 2)

	out := waitOutcome(t, a)
	require.Equal(t, poll.Done, out.State)
	require.NoError(t, out.Err)
	require.Equal(t, 3, out.Ticks)
	require.Equal(t, "T", out.Session.Token)
	require.EqualValues(t, 1, adoptions.Load())

	_, _, checks := p.counts()
	require.Equal(t, 3, checks)
}

func TestFlow_ConfirmedWithoutTokenTimesOut(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	p := &fakeProvider{
		genIDs: []string{"q1"},
		image:  "AAA=",
		checks: []*almondsdk.QRCheckResponse{{Status: almondsdk.StatusConfirmed}},
	}
	store, storage := newStore(t)

	a, err := newFlow(p, store, fc, 10*time.Second, nil).Start(context.Background())
	require.NoError(t, err)
	advanceTicks(fc, 5)

	out := waitOutcome(t, a)
	require.Equal(t, poll.DoneTimeout, out.State)
	require.Equal(t, 5, out.Ticks)
	require.False(t, store.IsAuthenticated())
	require.Empty(t, storage.Snapshot())
}

func TestFlow_TickErrorsKeepPolling(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	p := &fakeProvider{
		genIDs:   []string{"q1"},
		image:    "AAA=",
		checks:   []*almondsdk.QRCheckResponse{pending(), pending(), confirmed("T", "7", "Ann")},
		checkErr: map[int]error{1: almondsdk.ErrRequestTimeout, 2: &almondsdk.APIError{Code: 500}},
	}
	store, _ := newStore(t)

	a, err := newFlow(p, store, fc, 300*time.Second, nil).Start(context.Background())
	require.NoError(t, err)
	advanceTicks(fc, 2)

	out := waitOutcome(t, a)
	require.Equal(t, poll.Done, out.State)
	require.Equal(t, 3, out.Ticks)
	require.True(t, store.IsAuthenticated())
}

func TestFlow_MalformedUserIsNotAdopted(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	p := &fakeProvider{
		genIDs: []string{"q1"},
		image:  "AAA=",
		checks: []*almondsdk.QRCheckResponse{{Status: almondsdk.StatusConfirmed, Token: "T"}},
	}
	store, _ := newStore(t)

	a, err := newFlow(p, store, fc, 300*time.Second, nil).Start(context.Background())
	require.NoError(t, err)

	out := waitOutcome(t, a)
	require.Equal(t, poll.Done, out.State)
	require.ErrorIs(t, out.Err, qrlogin.ErrMalformedUser)
	require.False(t, store.IsAuthenticated())
}

func TestFlow_InitiationFailureDoesNotPoll(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{genErr: almondsdk.ErrRequestTimeout}
	store, _ := newStore(t)
	f := newFlow(p, store, clockwork.NewFakeClock(), 300*time.Second, nil)

	_, err := f.Start(context.Background())
	require.ErrorIs(t, err, qrlogin.ErrGenerate)
	require.Nil(t, f.Current())

	_, _, checks := p.counts()
	require.Zero(t, checks)
}

func TestFlow_StartCancelsPrevious(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	p := &fakeProvider{genIDs: []string{"q1", "q2"}, image: "AAA="}
	store, _ := newStore(t)
	f := newFlow(p, store, fc, 300*time.Second, nil)

	first, err := f.Start(context.Background())
	require.NoError(t, err)
	second, err := f.Start(context.Background())
	require.NoError(t, err)

	require.Equal(t, "q1", first.Login.QRCodeID)
	require.Equal(t, "q2", second.Login.QRCodeID)
	require.Equal(t, poll.DoneCancelled, waitOutcome(t, first).State)
	require.Same(t, second, f.Current())
	require.False(t, second.State().Terminal())

	f.Cancel()
	require.Equal(t, poll.DoneCancelled, waitOutcome(t, second).State)
	require.Nil(t, f.Current())
}

func TestFlow_StopsWhenAuthenticatedElsewhere(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	p := &fakeProvider{genIDs: []string{"q1"}, image: "AAA="}
	store, _ := newStore(t)

	a, err := newFlow(p, store, fc, 300*time.Second, nil).Start(context.Background())
	require.NoError(t, err)

	other := session.Session{Token: "X", User: &session.User{ID: "9", DisplayName: "Eve"}}
	require.NoError(t, store.SetState(context.Background(), other))

	out := waitOutcome(t, a)
	require.Equal(t, poll.DoneCancelled, out.State)
	require.Empty(t, out.Session.Token)

	s, _ := store.GetState()
	require.Equal(t, "X", s.Token)
}

func TestFlow_AuthenticatedDuringInitiationDoesNotPoll(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	p := &fakeProvider{
		genIDs:     []string{"q1"},
		image:      "AAA=",
		renderGate: make(chan struct{}),
		checks:     []*almondsdk.QRCheckResponse{confirmed("T", "7", "Ann")},
	}
	store, _ := newStore(t)
	f := newFlow(p, store, fc, 300*time.Second, nil)

	type started struct {
		a   *qrlogin.Attempt
		err error
	}
	res := make(chan started, 1)
	go func() {
		a, err := f.Start(context.Background())
		res <- started{a, err}
	}()

	require.Eventually(t, func() bool { return p.rendersStarted() == 1 }, 5*time.Second, time.Millisecond)
	other := session.Session{Token: "X", User: &session.User{ID: "9", DisplayName: "Eve"}}
	require.NoError(t, store.SetState(context.Background(), other))
	close(p.renderGate)

	r := <-res
	require.NoError(t, r.err)
	out := waitOutcome(t, r.a)
	require.Equal(t, poll.DoneCancelled, out.State)
	require.Zero(t, out.Ticks)

	_, _, checks := p.counts()
	require.Zero(t, checks)
	s, _ := store.GetState()
	require.Equal(t, "X", s.Token)
}

func TestFlow_AlreadyAuthenticatedDoesNotPoll(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	p := &fakeProvider{genIDs: []string{"q1"}, image: "AAA="}
	store, _ := newStore(t)
	other := session.Session{Token: "X", User: &session.User{ID: "9", DisplayName: "Eve"}}
	require.NoError(t, store.SetState(context.Background(), other))

	a, err := newFlow(p, store, fc, 300*time.Second, nil).Start(context.Background())
	require.NoError(t, err)

	out := waitOutcome(t, a)
	require.Equal(t, poll.DoneCancelled, out.State)
	_, _, checks := p.counts()
	require.Zero(t, checks)
}

func TestFlow_CancelBeforeConfirmDoesNotAdopt(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	p := &fakeProvider{
		genIDs: []string{"q1"},
		image:  "AAA=",
		checks: []*almondsdk.QRCheckResponse{scanned(), confirmed("T", "7", "Ann")},
	}
	store, _ := newStore(t)

	a, err := newFlow(p, store, fc, 300*time.Second, nil).Start(context.Background())
	require.NoError(t, err)

	fc.BlockUntil(2)
	a.Cancel()
	a.Cancel()

	out := waitOutcome(t, a)
	require.Equal(t, poll.DoneCancelled, out.State)
	require.Equal(t, 1, out.Ticks)
	require.False(t, store.IsAuthenticated())
}

// qrProvider is an in-process user-center answering over real HTTP.
func qrProvider(t *testing.T, checks []string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var checkCalls atomic.Int32
	write := func(w http.ResponseWriter, data string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"message":"ok","data":` + data + `}`))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+almondsdk.PathQRGenerate, func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"qrcodeId":"q1","expireAt":1700000300000}`)
	})
	mux.HandleFunc("POST "+almondsdk.PathQRWxacode, func(w http.ResponseWriter, r *http.Request) {
		var req almondsdk.WxacodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.CheckPath {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		write(w, `{"qrcodeId":"`+req.QRCodeID+`","imageBase64":"AAA="}`)
	})
	mux.HandleFunc("POST "+almondsdk.PathQRCheck, func(w http.ResponseWriter, r *http.Request) {
		var req almondsdk.QRCodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QRCodeID != "q1" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		n := int(checkCalls.Add(1))
		write(w, checks[min(n, len(checks))-1])
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &checkCalls
}

func TestFlow_EndToEndOverHTTP(t *testing.T) {
	t.Parallel()

	srv, checkCalls := qrProvider(t, []string{
		`{"status":3}`,
		`{"status":2,"token":"T","userInfo":{"id":7,"nickname":"Ann"}}`,
	})

	fc := clockwork.NewFakeClock()
	var (
		mu     sync.Mutex
		states []poll.State
	)
	onState := func(s poll.State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	}
	store, storage := newStore(t)
	f := newFlow(almondsdk.NewSDKClient(srv.URL), store, fc, 300*time.Second, onState)

	a, err := f.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, "q1", a.Login.QRCodeID)
	require.Equal(t, []byte{0, 0}, a.Login.Image)

	advanceTicks(fc, 1)

	out := waitOutcome(t, a)
	require.Equal(t, poll.Done, out.State)
	require.Equal(t, 2, out.Ticks)
	require.EqualValues(t, 2, checkCalls.Load())

	require.Equal(t, "T", out.Session.Token)
	require.Equal(t, "7", out.Session.User.ID)
	require.Equal(t, "Ann", out.Session.User.DisplayName)
	require.Equal(t, "T", storage.Snapshot()[session.KeyToken])

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []poll.State{poll.ScannedAwaitingConfirm, poll.Done}, states)
}
