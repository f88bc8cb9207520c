package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ehsaas-jewels/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePincodeClient struct {
	addresses map[string]*PostalAddress
	calls     int
	err       error
}

func (f *fakePincodeClient) Fetch(ctx context.Context, pincode string) (*PostalAddress, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if addr, ok := f.addresses[pincode]; ok {
		copied := *addr
		return &copied, nil
	}
	return &PostalAddress{Pincode: pincode}, nil
}

func newTestPostalService(t *testing.T, client PincodeClient) (PostalService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cfg := config.PostalConfig{Timeout: 5 * time.Second, CacheTTL: 24 * time.Hour}
	return NewPostalService(client, cache, cfg, zap.NewNop()), mr
}

func TestPostalLookup(t *testing.T) {
	upstream := &fakePincodeClient{
		addresses: map[string]*PostalAddress{
			"302001": {Pincode: "302001", City: "Jaipur", State: "Rajasthan", Found: true},
		},
	}
	svc, mr := newTestPostalService(t, upstream)
	ctx := context.Background()

	t.Run("resolves a known pincode", func(t *testing.T) {
		addr, err := svc.Lookup(ctx, "302001")
		require.NoError(t, err)
		assert.True(t, addr.Found)
		assert.Equal(t, "Jaipur", addr.City)
		assert.Equal(t, "Rajasthan", addr.State)
	})

	t.Run("repeat lookups come from the cache", func(t *testing.T) {
		before := upstream.calls
		addr, err := svc.Lookup(ctx, "302001")
		require.NoError(t, err)
		assert.True(t, addr.Found)
		assert.Equal(t, before, upstream.calls)
		assert.True(t, mr.Exists("pincode:302001"))
	})

	t.Run("unknown pincode is a non-error outcome", func(t *testing.T) {
		addr, err := svc.Lookup(ctx, "999999")
		require.NoError(t, err)
		assert.False(t, addr.Found)
		assert.Empty(t, addr.City)
	})

	t.Run("unknown pincodes are cached too", func(t *testing.T) {
		before := upstream.calls
		_, err := svc.Lookup(ctx, "999999")
		require.NoError(t, err)
		assert.Equal(t, before, upstream.calls)
	})

	t.Run("malformed pincodes rejected before any lookup", func(t *testing.T) {
		for _, pin := range []string{"", "1234", "12345678", "30200a", "30 201"} {
			_, err := svc.Lookup(ctx, pin)
			assert.ErrorIs(t, err, ErrInvalidPincode, "pincode %q", pin)
		}
	})
}

func TestPostalLookup_UpstreamFailure(t *testing.T) {
	upstream := &fakePincodeClient{err: errors.New("upstream down")}
	svc, _ := newTestPostalService(t, upstream)

	_, err := svc.Lookup(context.Background(), "302001")
	assert.Error(t, err)
}

func TestHTTPPincodeClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pincode/302001":
			w.Write([]byte(`[{"Status":"Success","PostOffice":[{"District":"Jaipur","State":"Rajasthan"}]}]`))
		case "/pincode/999999":
			w.Write([]byte(`[{"Status":"Error","PostOffice":null}]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewHTTPPincodeClient(server.URL)
	ctx := context.Background()

	t.Run("success payload", func(t *testing.T) {
		addr, err := client.Fetch(ctx, "302001")
		require.NoError(t, err)
		assert.True(t, addr.Found)
		assert.Equal(t, "Jaipur", addr.City)
		assert.Equal(t, "Rajasthan", addr.State)
	})

	t.Run("error payload maps to not found", func(t *testing.T) {
		addr, err := client.Fetch(ctx, "999999")
		require.NoError(t, err)
		assert.False(t, addr.Found)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		_, err := client.Fetch(ctx, "111111")
		assert.Error(t, err)
	})

	t.Run("context timeout is honored", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, time.Nanosecond)
		defer cancel()
		_, err := client.Fetch(ctx, "302001")
		assert.Error(t, err)
	})
}
