package qrlogin_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/poll"
	"github.com/ravey/almond/pkg/qrlogin"
	"github.com/ravey/almond/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestInitiator_CreateSession(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{genIDs: []string{"q1"}, image: "iVBORw0KGgo="}
	in := qrlogin.NewInitiator(p, nil, slogx.Discard())

	ls, err := in.CreateSession(context.Background(), qrlogin.Target{Scene: "desk"})
	require.NoError(t, err)
	require.Equal(t, "q1", ls.QRCodeID)
	require.Equal(t, int64(1700000300000), ls.ExpireAt.UnixMilli())
	require.Equal(t, []byte("\x89PNG\r\n\x1a\n"), ls.Image)

	require.Equal(t, almondsdk.WxacodeRequest{
		AppID:      qrlogin.DefaultAppID,
		QRCodeID:   "q1",
		Page:       qrlogin.DefaultPage,
		Width:      qrlogin.DefaultWidth,
		EnvVersion: qrlogin.EnvTrial,
		CheckPath:  true,
	}, p.lastRender)
}

func TestInitiator_ReusesCachedImage(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{genIDs: []string{"q1"}, image: "AAA="}
	cache := qrlogin.NewMemoryImageCache()
	in := qrlogin.NewInitiator(p, cache, slogx.Discard())

	first, err := in.CreateSession(context.Background(), qrlogin.Target{})
	require.NoError(t, err)
	second, err := in.CreateSession(context.Background(), qrlogin.Target{})
	require.NoError(t, err)

	gen, render, _ := p.counts()
	require.Equal(t, 2, gen)
	require.Equal(t, 1, render)
	require.Equal(t, first.ImageBase64, second.ImageBase64)

	img, ok := cache.Load(qrlogin.CacheKey("q1"))
	require.True(t, ok)
	require.Equal(t, "AAA=", img)
}

func TestInitiator_ConcurrentSameIDRendersOnce(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{genIDs: []string{"q1"}, image: "AAA=", renderGate: make(chan struct{})}
	in := qrlogin.NewInitiator(p, nil, slogx.Discard())

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := in.CreateSession(context.Background(), qrlogin.Target{})
			errs <- err
		}()
	}
	close(p.renderGate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	_, render, _ := p.counts()
	require.Equal(t, 1, render)
}

func TestInitiator_SharedRenderSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{genIDs: []string{"q1"}, image: "AAA=", renderGate: make(chan struct{})}
	in := qrlogin.NewInitiator(p, nil, slogx.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := in.CreateSession(ctx, qrlogin.Target{})
		first <- err
	}()
	require.Eventually(t, func() bool { return p.rendersStarted() == 1 }, 5*time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := in.CreateSession(context.Background(), qrlogin.Target{})
		second <- err
	}()
	require.Eventually(t, func() bool {
		gen, _, _ := p.counts()
		return gen == 2
	}, 5*time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond) // let the second caller join the render

	cancel()
	close(p.renderGate)

	require.NoError(t, <-second)
	require.NoError(t, <-first)
	_, render, _ := p.counts()
	require.Equal(t, 1, render)
}

func TestInitiator_Failures(t *testing.T) {
	t.Parallel()

	t.Run("generate failure", func(t *testing.T) {
		p := &fakeProvider{genErr: &almondsdk.APIError{Code: 500, Message: "boom"}}
		_, err := qrlogin.NewInitiator(p, nil, slogx.Discard()).CreateSession(context.Background(), qrlogin.Target{})

		require.ErrorIs(t, err, qrlogin.ErrGenerate)
		var apiErr *almondsdk.APIError
		require.ErrorAs(t, err, &apiErr)

		_, render, _ := p.counts()
		require.Zero(t, render)
	})

	t.Run("render timeout", func(t *testing.T) {
		p := &fakeProvider{genIDs: []string{"q1"}, renderErr: almondsdk.ErrRequestTimeout}
		_, err := qrlogin.NewInitiator(p, nil, slogx.Discard()).CreateSession(context.Background(), qrlogin.Target{})

		require.ErrorIs(t, err, qrlogin.ErrRender)
		require.ErrorIs(t, err, almondsdk.ErrRequestTimeout)
		require.NotErrorIs(t, err, qrlogin.ErrGenerate)
	})

	t.Run("undecodable image is not cached", func(t *testing.T) {
		p := &fakeProvider{genIDs: []string{"q1"}, image: "%%%"}
		cache := qrlogin.NewMemoryImageCache()
		in := qrlogin.NewInitiator(p, cache, slogx.Discard())

		_, err := in.CreateSession(context.Background(), qrlogin.Target{})
		require.ErrorIs(t, err, qrlogin.ErrRender)
		require.ErrorIs(t, err, almondsdk.ErrMalformedResponse)

		_, ok := cache.Load(qrlogin.CacheKey("q1"))
		require.False(t, ok)
	})

	t.Run("unknown env", func(t *testing.T) {
		p := &fakeProvider{genIDs: []string{"q1"}}
		_, err := qrlogin.NewInitiator(p, nil, slogx.Discard()).CreateSession(context.Background(), qrlogin.Target{EnvVersion: "staging"})

		require.ErrorIs(t, err, qrlogin.ErrInvalidTarget)
		gen, _, _ := p.counts()
		require.Zero(t, gen)
	})
}

func TestMemoryImageCache_SetOnce(t *testing.T) {
	t.Parallel()

	c := qrlogin.NewMemoryImageCache()
	require.Equal(t, "A", c.Store("k", "A"))
	require.Equal(t, "A", c.Store("k", "B"), "a key is never overwritten")

	v, ok := c.Load("k")
	require.True(t, ok)
	require.Equal(t, "A", v)
}

func TestClassifyCheck(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		resp *almondsdk.QRCheckResponse
		want poll.Step
	}{
		{"nil", nil, poll.Continue},
		{"pending", pending(), poll.Continue},
		{"scanned", scanned(), poll.Scanned},
		{"confirmed", confirmed("T", "7", "Ann"), poll.Succeeded},
		{"confirmed without token", &almondsdk.QRCheckResponse{Status: almondsdk.StatusConfirmed}, poll.Continue},
		{"unknown status", &almondsdk.QRCheckResponse{Status: 9, Token: "T"}, poll.Continue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, qrlogin.ClassifyCheck(tc.resp))
		})
	}
}
