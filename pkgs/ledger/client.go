package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/metrics"
)

const defaultPageSize = 50

// Options configures an RPCClient.
type Options struct {
	URL        string
	Timeout    time.Duration
	RPS        float64
	Burst      int
	PageSize   int
	HTTPClient *http.Client
}

// RPCClient speaks Sui JSON-RPC over HTTP. One client is built per network
// and shared by every component that reads the ledger.
type RPCClient struct {
	url      string
	client   *http.Client
	limiter  *rate.Limiter
	pageSize int
	nextID   atomic.Uint64
}

// NewRPCClient builds a client for the node at o.URL.
func NewRPCClient(o Options) (*RPCClient, error) {
	if o.URL == "" {
		return nil, fmt.Errorf("ledger rpc url is required")
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	}
	return &RPCClient{
		url:      o.URL,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(o.RPS), o.Burst),
		pageSize: o.PageSize,
	}, nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, out interface{}, params ...interface{}) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedger(method, start, err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: http %d", method, resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return fmt.Errorf("%s: json unmarshal: %w (body: %s)", method, err, string(body[:min(200, len(body))]))
	}
	if rr.Error != nil {
		return fmt.Errorf("%s: %w", method, rr.Error)
	}

	log.WithFields(log.Fields{"method": method, "len": len(body)}).Debug("ledger rpc")

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

type objectOptions struct {
	ShowType    bool `json:"showType"`
	ShowContent bool `json:"showContent"`
}

type objectData struct {
	ObjectID string `json:"objectId"`
	Type     string `json:"type"`
	Content  *struct {
		DataType string                 `json:"dataType"`
		Type     string                 `json:"type"`
		Fields   map[string]interface{} `json:"fields"`
	} `json:"content"`
}

func (d *objectData) toObject() Object {
	o := Object{ID: d.ObjectID, Type: d.Type}
	if d.Content != nil {
		if o.Type == "" {
			o.Type = d.Content.Type
		}
		o.Fields = d.Content.Fields
	}
	return o
}

type objectResponse struct {
	Data  *objectData `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// GetObject fetches one object with its type and content fields.
func (c *RPCClient) GetObject(ctx context.Context, id string) (*Object, error) {
	var resp objectResponse
	if err := c.call(ctx, "sui_getObject", &resp, id, objectOptions{ShowType: true, ShowContent: true}); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		code := "notExists"
		if resp.Error != nil {
			code = resp.Error.Code
		}
		return nil, fmt.Errorf("%s (%s): %w", id, code, ErrObjectNotFound)
	}
	obj := resp.Data.toObject()
	return &obj, nil
}

type ownedQuery struct {
	Filter  interface{}   `json:"filter"`
	Options objectOptions `json:"options"`
}

type ownedResponse struct {
	Data        []objectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

// GetOwnedObjects fetches one page of objects owned by owner.
func (c *RPCClient) GetOwnedObjects(ctx context.Context, owner, cursor string) (*Page, error) {
	return c.ownedPage(ctx, owner, nil, cursor)
}

func (c *RPCClient) ownedPage(ctx context.Context, owner string, filter interface{}, cursor string) (*Page, error) {
	var cur interface{}
	if cursor != "" {
		cur = cursor
	}
	var resp ownedResponse
	query := ownedQuery{Filter: filter, Options: objectOptions{ShowType: true, ShowContent: true}}
	if err := c.call(ctx, "suix_getOwnedObjects", &resp, owner, query, cur, c.pageSize); err != nil {
		return nil, err
	}

	page := &Page{Items: make([]Object, 0, len(resp.Data))}
	for _, d := range resp.Data {
		if d.Data != nil {
			page.Items = append(page.Items, d.Data.toObject())
		}
	}
	if resp.HasNextPage && resp.NextCursor != nil {
		page.NextCursor = *resp.NextCursor
	}
	return page, nil
}

// GetBalance returns the total balance of coinType held by owner.
func (c *RPCClient) GetBalance(ctx context.Context, owner, coinType string) (*big.Int, error) {
	var resp struct {
		CoinType     string `json:"coinType"`
		TotalBalance string `json:"totalBalance"`
	}
	if err := c.call(ctx, "suix_getBalance", &resp, owner, coinType); err != nil {
		return nil, err
	}
	bal, ok := new(big.Int).SetString(resp.TotalBalance, 10)
	if !ok {
		return nil, fmt.Errorf("suix_getBalance: invalid totalBalance %q", resp.TotalBalance)
	}
	return bal, nil
}

// GetOwnedContainers returns the ids of kiosks the owner holds a cap for.
func (c *RPCClient) GetOwnedContainers(ctx context.Context, owner string) ([]string, error) {
	filter := map[string]string{"StructType": KioskOwnerCapType}
	var ids []string
	cursor := ""
	for {
		page, err := c.ownedPage(ctx, owner, filter, cursor)
		if err != nil {
			return ids, err
		}
		for _, ownerCap := range page.Items {
			if id, ok := ownerCap.Fields["for"].(string); ok && id != "" {
				ids = append(ids, id)
			}
		}
		if page.NextCursor == "" {
			return ids, nil
		}
		cursor = page.NextCursor
	}
}

type dynamicField struct {
	Name struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"name"`
	ObjectType string `json:"objectType"`
	ObjectID   string `json:"objectId"`
}

type dynamicFieldsResponse struct {
	Data        []dynamicField `json:"data"`
	NextCursor  *string        `json:"nextCursor"`
	HasNextPage bool           `json:"hasNextPage"`
}

// GetContainerContents lists the items placed in a kiosk.
func (c *RPCClient) GetContainerContents(ctx context.Context, containerID string) ([]Object, error) {
	var items []Object
	var cursor interface{}
	for {
		var resp dynamicFieldsResponse
		if err := c.call(ctx, "suix_getDynamicFields", &resp, containerID, cursor, c.pageSize); err != nil {
			return items, err
		}
		for _, f := range resp.Data {
			if f.Name.Type != KioskItemKeyType {
				continue
			}
			var key struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(f.Name.Value, &key); err != nil || key.ID == "" {
				continue
			}
			items = append(items, Object{ID: key.ID, Type: f.ObjectType})
		}
		if !resp.HasNextPage || resp.NextCursor == nil {
			return items, nil
		}
		cursor = *resp.NextCursor
	}
}
