package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gstypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	subkey "github.com/vedhavyas/go-subkey/v2"

	"github.com/kardiachain/circulation-backend/types"
)

const aliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"

// substrateNodeServer answers state_getMetadata with a V14 metadata blob and
// state_getStorage with storage(key). A nil value is a JSON null.
type substrateNodeServer struct {
	*httptest.Server

	mu   sync.Mutex
	keys []string
}

func newSubstrateNodeServer(t *testing.T, storage func(key string) *string) *substrateNodeServer {
	s := &substrateNodeServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params []string        `json:"params"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		var result interface{}
		switch req.Method {
		case "state_getMetadata":
			result = gstypes.MetadataV14Data
		case "state_getStorage":
			if !assert.Len(t, req.Params, 1) {
				return
			}
			s.mu.Lock()
			s.keys = append(s.keys, req.Params[0])
			s.mu.Unlock()
			if v := storage(req.Params[0]); v != nil {
				result = *v
			}
		default:
			t.Errorf("unexpected method %s", req.Method)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	return s
}

func (s *substrateNodeServer) storageKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

func fixedStorage(value string) func(string) *string {
	return func(string) *string { return &value }
}

func testMetadata(t *testing.T) *gstypes.Metadata {
	var meta gstypes.Metadata
	require.NoError(t, codec.DecodeFromHex(gstypes.MetadataV14Data, &meta))
	return &meta
}

func encodedAccountInfo(t *testing.T, free *big.Int) string {
	var info gstypes.AccountInfo
	info.Nonce = gstypes.NewU32(7)
	info.Providers = gstypes.NewU32(1)
	info.Data.Free = gstypes.NewU128(*free)
	info.Data.Reserved = gstypes.NewU128(*big.NewInt(0))
	info.Data.MiscFrozen = gstypes.NewU128(*big.NewInt(0))
	info.Data.FreeFrozen = gstypes.NewU128(*big.NewInt(0))
	encoded, err := codec.EncodeToHex(info)
	require.NoError(t, err)
	return encoded
}

func TestRouter_SubstrateFreeBalance(t *testing.T) {
	free, _ := new(big.Int).SetString("1234567890123456789", 10)
	node := newSubstrateNodeServer(t, fixedStorage(encodedAccountInfo(t, free)))
	defer node.Close()
	r := newTestRouter(time.Second)
	defer r.Close()

	got, err := r.FetchFigure(context.Background(), types.SourceDescriptor{
		Kind:     types.SourceSubstrateFreeBalance,
		Endpoint: node.URL,
		Account:  aliceAddress,
		Decimals: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "1234567.890123456789", got.String())

	_, pubKey, err := subkey.SS58Decode(aliceAddress)
	require.NoError(t, err)
	key, err := gstypes.CreateStorageKey(testMetadata(t), "System", "Account", pubKey)
	require.NoError(t, err)
	assert.Equal(t, []string{key.Hex()}, node.storageKeys())
}

func TestRouter_SubstrateAbsentAccount(t *testing.T) {
	node := newSubstrateNodeServer(t, func(string) *string { return nil })
	defer node.Close()
	r := newTestRouter(time.Second)
	defer r.Close()

	got, err := r.FetchFigure(context.Background(), types.SourceDescriptor{
		Kind:     types.SourceSubstrateFreeBalance,
		Endpoint: node.URL,
		Account:  aliceAddress,
		Decimals: 12,
	})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestRouter_SubstrateTotalIssuance(t *testing.T) {
	issuance, _ := new(big.Int).SetString("1000000000000000000000", 10)
	encoded, err := codec.EncodeToHex(gstypes.NewU128(*issuance))
	require.NoError(t, err)
	node := newSubstrateNodeServer(t, fixedStorage(encoded))
	defer node.Close()
	r := newTestRouter(time.Second)
	defer r.Close()

	got, err := r.FetchFigure(context.Background(), types.SourceDescriptor{
		Kind:     types.SourceSubstrateTotalIssuance,
		Endpoint: node.URL,
		Decimals: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "1000000000", got.String())

	key, err := gstypes.CreateStorageKey(testMetadata(t), "Balances", "TotalIssuance")
	require.NoError(t, err)
	assert.Equal(t, []string{key.Hex()}, node.storageKeys())
}

func TestRouter_SubstrateMalformedStorage(t *testing.T) {
	node := newSubstrateNodeServer(t, fixedStorage("0x01"))
	defer node.Close()
	r := newTestRouter(time.Second)
	defer r.Close()
	ctx := context.Background()

	_, err := r.FetchFigure(ctx, types.SourceDescriptor{
		Kind:     types.SourceSubstrateFreeBalance,
		Endpoint: node.URL,
		Account:  aliceAddress,
		Decimals: 12,
	})
	assert.ErrorIs(t, err, types.ErrSourceMalformed)

	_, err = r.FetchFigure(ctx, types.SourceDescriptor{
		Kind:     types.SourceSubstrateTotalIssuance,
		Endpoint: node.URL,
		Decimals: 12,
	})
	assert.ErrorIs(t, err, types.ErrSourceMalformed)
}

func TestRouter_SubstrateMissingIssuance(t *testing.T) {
	node := newSubstrateNodeServer(t, func(string) *string { return nil })
	defer node.Close()
	r := newTestRouter(time.Second)
	defer r.Close()

	_, err := r.FetchFigure(context.Background(), types.SourceDescriptor{
		Kind:     types.SourceSubstrateTotalIssuance,
		Endpoint: node.URL,
		Decimals: 12,
	})
	assert.ErrorIs(t, err, types.ErrSourceMalformed)
}

func TestRouter_SubstrateHungNodeDoesNotBlockOthers(t *testing.T) {
	const timeout = 2 * time.Second

	release := make(chan struct{})
	arrived := make(chan struct{}, 16)
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer hung.Close()
	defer close(release)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	r := newTestRouter(timeout)
	defer r.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	hungErrs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.FetchFigure(ctx, types.SourceDescriptor{
				Kind:     types.SourceSubstrateTotalIssuance,
				Endpoint: hung.URL,
				Decimals: 12,
			})
			hungErrs <- err
		}()
	}
	select {
	case <-arrived:
	case <-time.After(timeout):
		t.Fatal("hung node never received a request")
	}

	start := time.Now()
	_, err := r.FetchFigure(ctx, types.SourceDescriptor{
		Kind:     types.SourceSubstrateTotalIssuance,
		Endpoint: broken.URL,
		Decimals: 12,
	})
	elapsed := time.Since(start)
	assert.ErrorIs(t, err, types.ErrSourceUnavailable)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, timeout/2, fmt.Sprintf("healthy endpoint waited %s", elapsed))

	wg.Wait()
	close(hungErrs)
	for err := range hungErrs {
		assert.ErrorIs(t, err, types.ErrSourceUnavailable)
	}
}

func TestRouter_SubstrateCloseReleasesNodes(t *testing.T) {
	issuance := big.NewInt(5000000000000)
	encoded, err := codec.EncodeToHex(gstypes.NewU128(*issuance))
	require.NoError(t, err)
	node := newSubstrateNodeServer(t, fixedStorage(encoded))
	defer node.Close()
	r := newTestRouter(time.Second)
	sub := r.fetchers[types.SourceSubstrateTotalIssuance].(*substrate)
	d := types.SourceDescriptor{
		Kind:     types.SourceSubstrateTotalIssuance,
		Endpoint: node.URL,
		Decimals: 12,
	}

	_, err = r.FetchFigure(context.Background(), d)
	require.NoError(t, err)
	_, ok := sub.cached(node.URL)
	assert.True(t, ok)

	r.Close()
	_, ok = sub.cached(node.URL)
	assert.False(t, ok)

	got, err := r.FetchFigure(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "5", got.String())
	r.Close()
}
