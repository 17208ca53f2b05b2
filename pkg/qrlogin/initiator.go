package qrlogin

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ravey/almond/pkg/almondsdk"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrGenerate wraps any failure to obtain a qrcodeId.
	ErrGenerate = errors.New("could not generate code")
	// ErrRender wraps any failure to obtain the code image.
	ErrRender = errors.New("could not render code")
)

// Provider is the subset of the user-center used on the desktop side.
// *almondsdk.SDKClient implements it.
type Provider interface {
	GenerateQR(ctx context.Context, appID, scene string) (*almondsdk.QRGenerateResponse, error)
	RenderWxacode(ctx context.Context, req almondsdk.WxacodeRequest) (*almondsdk.WxacodeResponse, error)
	CheckQR(ctx context.Context, qrcodeID string) (*almondsdk.QRCheckResponse, error)
}

// LoginSession is one QR login attempt ready to be displayed and polled.
type LoginSession struct {
	QRCodeID  string
	ExpireAt  time.Time
	QRContent string

	// ImageBase64 is the image as delivered, Image the decoded PNG bytes.
	ImageBase64 string
	Image       []byte
}

// Initiator creates LoginSessions.
type Initiator struct {
	provider Provider
	cache    ImageCache
	log      *slog.Logger
	renders  singleflight.Group
}

func NewInitiator(provider Provider, cache ImageCache, log *slog.Logger) *Initiator {
	if cache == nil {
		cache = NewMemoryImageCache()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Initiator{provider: provider, cache: cache, log: log}
}

// CreateSession generates a new attempt and fetches its image, reusing a
// cached image when the provider hands back an id it has rendered before.
// Any failure means there is nothing to poll.
func (in *Initiator) CreateSession(ctx context.Context, target Target) (*LoginSession, error) {
	target = target.withDefaults()
	if err := target.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}

	gen, err := in.provider.GenerateQR(ctx, target.AppID, target.Scene)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}

	log := in.log.With("qrcode_id", gen.QRCodeID)
	key := CacheKey(gen.QRCodeID)

	img, cached := in.cache.Load(key)
	if !cached {
		// The render is shared with concurrent callers for the same id, so
		// one caller going away must not fail the others. RenderTimeout
		// still bounds it.
		renderCtx := context.WithoutCancel(ctx)
		v, err, shared := in.renders.Do(key, func() (any, error) {
			if img, ok := in.cache.Load(key); ok {
				return img, nil
			}
			return in.render(renderCtx, target, gen.QRCodeID, key)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRender, err)
		}
		img = v.(string)
		log.Debug("qr image rendered", "shared", shared)
	} else {
		log.Debug("qr image served from cache")
	}

	png, err := base64.StdEncoding.DecodeString(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrRender, almondsdk.ErrMalformedResponse, err)
	}

	return &LoginSession{
		QRCodeID:    gen.QRCodeID,
		ExpireAt:    gen.ExpireTime(),
		QRContent:   gen.QRContent,
		ImageBase64: img,
		Image:       png,
	}, nil
}

func (in *Initiator) render(ctx context.Context, target Target, qrcodeID, key string) (string, error) {
	resp, err := in.provider.RenderWxacode(ctx, almondsdk.WxacodeRequest{
		AppID:      target.AppID,
		QRCodeID:   qrcodeID,
		Page:       target.Page,
		Width:      target.Width,
		EnvVersion: target.EnvVersion,
		CheckPath:  true,
	})
	if err != nil {
		return "", err
	}

	// Never cache an image we could not decode.
	if _, err := base64.StdEncoding.DecodeString(resp.ImageBase64); err != nil {
		return "", fmt.Errorf("%w: image is not base64: %w", almondsdk.ErrMalformedResponse, err)
	}
	return in.cache.Store(key, resp.ImageBase64), nil
}
