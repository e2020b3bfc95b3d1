package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers JSON-RPC calls with handler's result or error.
func fakeNode(t *testing.T, handler func(call rpcCall) (interface{}, *RPCError)) (*RPCClient, *[]rpcCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []rpcCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		mu.Lock()
		calls = append(calls, call)
		mu.Unlock()

		result, rpcErr := handler(call)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": 1}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	c, err := NewRPCClient(Options{URL: srv.URL, RPS: 1000, Burst: 1000, PageSize: 2})
	require.NoError(t, err)
	return c, &calls
}

func object(id, typ string, fields map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"objectId": id,
			"type":     typ,
			"content":  map[string]interface{}{"dataType": "moveObject", "type": typ, "fields": fields},
		},
	}
}

func TestGetObject(t *testing.T) {
	c, _ := fakeNode(t, func(call rpcCall) (interface{}, *RPCError) {
		assert.Equal(t, "sui_getObject", call.Method)
		var id string
		assert.NoError(t, json.Unmarshal(call.Params[0], &id))
		if id == "0xgone" {
			return map[string]interface{}{"error": map[string]string{"code": "deleted"}}, nil
		}
		return object(id, "0x1::nft::City", map[string]interface{}{"office": "3"}), nil
	})

	obj, err := c.GetObject(context.Background(), "0xc1")
	require.NoError(t, err)
	assert.Equal(t, "0xc1", obj.ID)
	assert.Equal(t, "0x1::nft::City", obj.Type)
	assert.Equal(t, "3", obj.Fields["office"])

	_, err = c.GetObject(context.Background(), "0xgone")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestRPCErrorSurfaces(t *testing.T) {
	c, _ := fakeNode(t, func(rpcCall) (interface{}, *RPCError) {
		return nil, &RPCError{Code: -32602, Message: "invalid params"}
	})
	_, err := c.GetBalance(context.Background(), "0xa", "0x2::sui::SUI")
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestGetBalance(t *testing.T) {
	c, _ := fakeNode(t, func(call rpcCall) (interface{}, *RPCError) {
		assert.Equal(t, "suix_getBalance", call.Method)
		return map[string]string{"coinType": "0x2::sui::SUI", "totalBalance": "1200000000000"}, nil
	})
	bal, err := c.GetBalance(context.Background(), "0xa", "0x2::sui::SUI")
	require.NoError(t, err)
	assert.Equal(t, "1200000000000", bal.String())
}

func TestCollectOwned_PagesUntilCursorEmpty(t *testing.T) {
	pages := map[string]map[string]interface{}{
		"": {
			"data":        []interface{}{object("0x1", "a::b::C", nil), object("0x2", "a::b::C", nil)},
			"nextCursor":  "p2",
			"hasNextPage": true,
		},
		"p2": {
			"data":        []interface{}{object("0x3", "a::b::D", nil)},
			"nextCursor":  "p2",
			"hasNextPage": false,
		},
	}
	c, calls := fakeNode(t, func(call rpcCall) (interface{}, *RPCError) {
		var cursor *string
		assert.NoError(t, json.Unmarshal(call.Params[2], &cursor))
		key := ""
		if cursor != nil {
			key = *cursor
		}
		return pages[key], nil
	})

	objs, err := CollectOwned(context.Background(), c, "0xa")
	require.NoError(t, err)
	require.Len(t, objs, 3)
	assert.Equal(t, "0x3", objs[2].ID)
	assert.Len(t, *calls, 2)
}

type failingPages struct {
	served int
}

func (f *failingPages) GetObject(context.Context, string) (*Object, error) { return nil, nil }
func (f *failingPages) GetBalance(context.Context, string, string) (*big.Int, error) {
	return nil, nil
}

func (f *failingPages) GetOwnedObjects(context.Context, string, string) (*Page, error) {
	if f.served > 0 {
		return nil, context.DeadlineExceeded
	}
	f.served++
	return &Page{Items: []Object{{ID: "0x1"}}, NextCursor: "next"}, nil
}

func TestCollectOwned_ReturnsPartialOnError(t *testing.T) {
	objs, err := CollectOwned(context.Background(), &failingPages{}, "0xa")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Len(t, objs, 1)
}

func TestKiosk(t *testing.T) {
	c, _ := fakeNode(t, func(call rpcCall) (interface{}, *RPCError) {
		switch call.Method {
		case "suix_getOwnedObjects":
			return map[string]interface{}{
				"data": []interface{}{
					object("0xcap1", KioskOwnerCapType, map[string]interface{}{"for": "0xk1"}),
					object("0xcap2", KioskOwnerCapType, map[string]interface{}{"for": "0xk2"}),
				},
				"hasNextPage": false,
			}, nil
		case "suix_getDynamicFields":
			var kiosk string
			assert.NoError(t, json.Unmarshal(call.Params[0], &kiosk))
			if kiosk == "0xk2" {
				return nil, &RPCError{Code: -32000, Message: "timeout"}
			}
			return map[string]interface{}{
				"data": []interface{}{
					map[string]interface{}{
						"name":       map[string]interface{}{"type": KioskItemKeyType, "value": map[string]string{"id": "0xfren"}},
						"objectType": "0x1::suifrens::SuiFren<0x1::capy::Capy>",
						"objectId":   "0xfield",
					},
					map[string]interface{}{
						"name":       map[string]interface{}{"type": "0x2::kiosk::Listing", "value": map[string]interface{}{"id": "0xfren", "is_exclusive": false}},
						"objectType": "u64",
						"objectId":   "0xlisting",
					},
				},
				"hasNextPage": false,
			}, nil
		}
		t.Errorf("unexpected method %s", call.Method)
		return nil, nil
	})

	ids, err := c.GetOwnedContainers(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xk1", "0xk2"}, ids)

	items, err := CollectKioskItems(context.Background(), c, "0xa")
	assert.Error(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "0xfren", items[0].ID)
	assert.Contains(t, items[0].Type, "::suifrens::SuiFren")
}

func TestLoadCity(t *testing.T) {
	c, _ := fakeNode(t, func(call rpcCall) (interface{}, *RPCError) {
		var id string
		assert.NoError(t, json.Unmarshal(call.Params[0], &id))
		switch id {
		case "0xcity":
			return object(id, "0x1::nft::City", map[string]interface{}{
				"office": "2", "factory": "1", "house": "3", "entertainment_complex": "0",
				"last_accumulated": "1700000000000", "last_daily_bonus": "1700000000000",
			}), nil
		case "0xgame":
			return object(id, "0x1::game::Game", map[string]interface{}{
				"speed": "2", "accumulation_speeds": []interface{}{"0", "100", "200"},
			}), nil
		default:
			return object(id, "0x1::x::Y", map[string]interface{}{}), nil
		}
	})

	state, params, err := LoadCity(context.Background(), c, "0xcity", "0xgame")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Office)
	assert.Equal(t, 3, state.House)
	assert.Equal(t, int64(2), params.Speed)
	assert.Equal(t, []int64{0, 100, 200}, params.AccumulationSpeeds)

	_, _, err = LoadCity(context.Background(), c, "0xother", "0xgame")
	var verr *utils.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestNewRPCClient_RequiresURL(t *testing.T) {
	_, err := NewRPCClient(Options{})
	assert.Error(t, err)
}
