package qrlogin_test

import (
	"context"
	"sync"

	"github.com/ravey/almond/pkg/almondsdk"
)

// fakeProvider answers from scripts and counts calls.
type fakeProvider struct {
	mu sync.Mutex

	genIDs []string
	genErr error

	image      string
	renderErr  error
	renderGate chan struct{}
	lastRender almondsdk.WxacodeRequest

	checks   []*almondsdk.QRCheckResponse
	checkErr map[int]error

	genCalls, renderCalls, checkCalls int
	renderWaits                       int
}

func (f *fakeProvider) GenerateQR(_ context.Context, appID, scene string) (*almondsdk.QRGenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	if f.genErr != nil {
		return nil, f.genErr
	}
	id := f.genIDs[min(f.genCalls, len(f.genIDs))-1]
	return &almondsdk.QRGenerateResponse{QRCodeID: id, ExpireAt: 1700000300000}, nil
}

func (f *fakeProvider) RenderWxacode(ctx context.Context, req almondsdk.WxacodeRequest) (*almondsdk.WxacodeResponse, error) {
	f.mu.Lock()
	f.renderWaits++
	f.mu.Unlock()
	if f.renderGate != nil {
		select {
		case <-f.renderGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renderCalls++
	f.lastRender = req
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return &almondsdk.WxacodeResponse{QRCodeID: req.QRCodeID, ImageBase64: f.image}, nil
}

func (f *fakeProvider) CheckQR(_ context.Context, qrcodeID string) (*almondsdk.QRCheckResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	if err := f.checkErr[f.checkCalls]; err != nil {
		return nil, err
	}
	if len(f.checks) == 0 {
		return &almondsdk.QRCheckResponse{Status: almondsdk.StatusPending}, nil
	}
	resp := *f.checks[min(f.checkCalls, len(f.checks))-1]
	return &resp, nil
}

func (f *fakeProvider) counts() (gen, render, check int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.genCalls, f.renderCalls, f.checkCalls
}

// rendersStarted counts RenderWxacode calls, including ones still gated.
func (f *fakeProvider) rendersStarted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renderWaits
}

func pending() *almondsdk.QRCheckResponse {
	return &almondsdk.QRCheckResponse{Status: almondsdk.StatusPending}
}

func scanned() *almondsdk.QRCheckResponse {
	return &almondsdk.QRCheckResponse{Status: almondsdk.StatusScanned}
}

func confirmed(token string, id almondsdk.FlexibleID, nickname string) *almondsdk.QRCheckResponse {
	return &almondsdk.QRCheckResponse{
		Status:   almondsdk.StatusConfirmed,
		Token:    token,
		UserInfo: &almondsdk.QRUserInfo{ID: id, Nickname: nickname},
	}
}
