package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingGateway struct {
	calls   int32
	release chan struct{}
}

func (g *countingGateway) Name() string { return "counting" }

func (g *countingGateway) Authenticate(ctx context.Context) (Token, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.release != nil {
		<-g.release
	}
	return Token{Value: "tok", ExpiresIn: time.Hour}, nil
}

func (g *countingGateway) InitiatePush(ctx context.Context, req PushRequest) (*PushResponse, error) {
	return nil, nil
}

func TestTokenCacheSingleRefresh(t *testing.T) {
	gw := &countingGateway{release: make(chan struct{})}
	cache := NewTokenCache(nil)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := cache.Token(context.Background(), gw)
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}

	// Let every caller pile into the same flight before the auth completes.
	time.Sleep(50 * time.Millisecond)
	close(gw.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&gw.calls))
	for _, tok := range tokens {
		assert.Equal(t, "tok", tok)
	}
}
