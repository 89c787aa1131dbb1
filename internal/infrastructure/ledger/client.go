package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/sixerhq/chain-contests/internal/platform/logging"
	"github.com/sixerhq/chain-contests/internal/platform/resilience"
	"github.com/sixerhq/chain-contests/internal/usecase"
)

var errLedgerTransient = crerr.New("ledger transient failure")

const (
	methodCreateContest  = "contest_create"
	methodEndMatch       = "contest_endMatch"
	methodRebalance      = "contest_rebalance"
	methodGetContest     = "contest_get"
	methodGetTransaction = "tx_get"

	txStatusFinal   = "final"
	txStatusFailed  = "failed"
	txStatusPending = "pending"

	finalityPollInterval = 2 * time.Second
)

type ClientConfig struct {
	HTTPClient      *http.Client
	RPCURL          string
	PackageID       string
	MasterObjectID  string
	SignerKey       string
	Timeout         time.Duration
	FinalityTimeout time.Duration
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Client submits contest transactions to the ledger gateway over JSON-RPC.
// Submissions are accepted asynchronously; WaitForFinality polls the
// transaction until it finalizes or the configured bound elapses.
type Client struct {
	httpClient      *http.Client
	rpcURL          string
	packageID       string
	masterObjectID  string
	signerKey       string
	finalityTimeout time.Duration
	logger          *logging.Logger
	breaker         *resilience.CircuitBreaker
	circuitEnabled  bool
	requestID       atomic.Int64
}

var _ usecase.ChainLedger = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	finalityTimeout := cfg.FinalityTimeout
	if finalityTimeout <= 0 {
		finalityTimeout = 45 * time.Second
	}

	return &Client{
		httpClient:      httpClient,
		rpcURL:          strings.TrimRight(strings.TrimSpace(cfg.RPCURL), "/"),
		packageID:       strings.TrimSpace(cfg.PackageID),
		masterObjectID:  strings.TrimSpace(cfg.MasterObjectID),
		signerKey:       strings.TrimSpace(cfg.SignerKey),
		finalityTimeout: finalityTimeout,
		logger:          logger,
		breaker:         resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled:  cfg.CircuitBreaker.Enabled,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type txResultPayload struct {
	TxID           string `json:"txId"`
	CreatedObjects []struct {
		Type     string `json:"type"`
		ObjectID string `json:"objectId"`
	} `json:"createdObjects"`
}

type contestStatePayload struct {
	ContestID   string   `json:"contestId"`
	MatchEnded  bool     `json:"matchEnded"`
	PoolBalance uint64   `json:"poolBalance"`
	NFTCounts   []uint64 `json:"nftCounts"`
	RedeemValue []uint64 `json:"redeemValue"`
}

type txStatusPayload struct {
	TxID   string `json:"txId"`
	Status string `json:"status"`
}

func (c *Client) CreateContest(ctx context.Context, matchName string, players []string, tiers []int, startTime int64) (usecase.ChainTxResult, error) {
	if strings.TrimSpace(matchName) == "" {
		return usecase.ChainTxResult{}, fmt.Errorf("%w: match name is required", usecase.ErrInvalidInput)
	}
	if len(players) == 0 || len(players) != len(tiers) {
		return usecase.ChainTxResult{}, fmt.Errorf("%w: players and tiers must be non-empty and parallel", usecase.ErrInvalidInput)
	}

	params := map[string]any{
		"packageId": c.packageID,
		"masterId":  c.masterObjectID,
		"signer":    c.signerKey,
		"name":      matchName,
		"players":   players,
		"tiers":     tiers,
		"startTime": startTime,
	}

	var payload txResultPayload
	if err := c.call(ctx, methodCreateContest, params, &payload); err != nil {
		return usecase.ChainTxResult{}, fmt.Errorf("create contest match=%q: %w", matchName, err)
	}
	return mapTxResult(payload), nil
}

func (c *Client) EndMatch(ctx context.Context, contestID string) (usecase.ChainTxResult, error) {
	if strings.TrimSpace(contestID) == "" {
		return usecase.ChainTxResult{}, fmt.Errorf("%w: contest id is required", usecase.ErrInvalidInput)
	}

	params := map[string]any{
		"packageId": c.packageID,
		"masterId":  c.masterObjectID,
		"signer":    c.signerKey,
		"contestId": contestID,
	}

	var payload txResultPayload
	if err := c.call(ctx, methodEndMatch, params, &payload); err != nil {
		return usecase.ChainTxResult{}, fmt.Errorf("end match contest_id=%s: %w", contestID, err)
	}
	return mapTxResult(payload), nil
}

func (c *Client) Rebalance(ctx context.Context, contestID string, scores []uint64) (usecase.ChainTxResult, error) {
	if strings.TrimSpace(contestID) == "" {
		return usecase.ChainTxResult{}, fmt.Errorf("%w: contest id is required", usecase.ErrInvalidInput)
	}
	if len(scores) == 0 {
		return usecase.ChainTxResult{}, fmt.Errorf("%w: scores are required", usecase.ErrInvalidInput)
	}

	params := map[string]any{
		"packageId": c.packageID,
		"masterId":  c.masterObjectID,
		"signer":    c.signerKey,
		"contestId": contestID,
		"scores":    scores,
	}

	var payload txResultPayload
	if err := c.call(ctx, methodRebalance, params, &payload); err != nil {
		return usecase.ChainTxResult{}, fmt.Errorf("rebalance contest_id=%s: %w", contestID, err)
	}
	return mapTxResult(payload), nil
}

func (c *Client) GetContest(ctx context.Context, contestID string) (usecase.ChainContestState, error) {
	if strings.TrimSpace(contestID) == "" {
		return usecase.ChainContestState{}, fmt.Errorf("%w: contest id is required", usecase.ErrInvalidInput)
	}

	params := map[string]any{"contestId": contestID}

	var payload contestStatePayload
	if err := c.call(ctx, methodGetContest, params, &payload); err != nil {
		return usecase.ChainContestState{}, fmt.Errorf("get contest contest_id=%s: %w", contestID, err)
	}

	return usecase.ChainContestState{
		ContestID:   payload.ContestID,
		MatchEnded:  payload.MatchEnded,
		PoolBalance: payload.PoolBalance,
		NFTCounts:   payload.NFTCounts,
		RedeemValue: payload.RedeemValue,
	}, nil
}

// WaitForFinality polls the transaction status until it is final. The wait
// is bounded; an elapsed bound surfaces as ErrDependencyUnavailable and the
// caller must not treat the transaction as applied.
func (c *Client) WaitForFinality(ctx context.Context, txID string) error {
	if strings.TrimSpace(txID) == "" {
		return fmt.Errorf("%w: tx id is required", usecase.ErrInvalidInput)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.finalityTimeout)
	defer cancel()

	ticker := time.NewTicker(finalityPollInterval)
	defer ticker.Stop()

	for {
		var payload txStatusPayload
		err := c.call(waitCtx, methodGetTransaction, map[string]any{"txId": txID}, &payload)
		if err == nil {
			switch payload.Status {
			case txStatusFinal:
				return nil
			case txStatusFailed:
				return fmt.Errorf("transaction failed tx_id=%s", txID)
			case txStatusPending, "":
			default:
				c.logger.WarnContext(ctx, "unknown transaction status", "tx_id", txID, "status", payload.Status)
			}
		} else if waitCtx.Err() == nil {
			c.logger.WarnContext(ctx, "finality poll failed", "tx_id", txID, "error", err)
		}

		select {
		case <-waitCtx.Done():
			return fmt.Errorf("%w: finality wait elapsed tx_id=%s", usecase.ErrDependencyUnavailable, txID)
		case <-ticker.C:
		}
	}
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "ledger circuit breaker rejected request", "method", method, "state", c.breaker.State())
			return fmt.Errorf("%w: ledger is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	err := c.callOnce(ctx, method, params, result)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errLedgerTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return err
}

func (c *Client) callOnce(ctx context.Context, method string, params any, result any) error {
	request := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := sonic.Marshal(request)
	if err != nil {
		return crerr.Wrap(err, "marshal rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create rpc request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "ledger rpc send failed",
			"method", method,
			"request_preview", buildRequestPreview(c.rpcURL, body),
			"error", err,
		)
		return crerr.Wrapf(errLedgerTransient, "send rpc method=%s: %v", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return crerr.Wrapf(errLedgerTransient, "read rpc response method=%s: %v", method, err)
	}

	if resp.StatusCode/100 != 2 {
		if isRetryableStatus(resp.StatusCode) {
			return crerr.Wrapf(errLedgerTransient, "rpc status=%d method=%s body=%s", resp.StatusCode, method, truncateForLog(string(raw), 512))
		}
		return fmt.Errorf("rpc status=%d method=%s body=%s", resp.StatusCode, method, truncateForLog(string(raw), 512))
	}

	var envelope rpcResponse
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode rpc envelope method=%s: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc error method=%s code=%d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if result == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("decode rpc result method=%s: %w", method, err)
	}

	return nil
}

func mapTxResult(payload txResultPayload) usecase.ChainTxResult {
	out := usecase.ChainTxResult{TxID: payload.TxID}
	for _, obj := range payload.CreatedObjects {
		out.CreatedObjects = append(out.CreatedObjects, usecase.ChainCreatedObject{
			Type:     obj.Type,
			ObjectID: obj.ObjectID,
		})
	}
	return out
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

var signerFieldRegex = regexp.MustCompile(`"signer"\s*:\s*"[^"]*"`)

// buildRequestPreview renders a curl-like preview of the failed call for
// log lines. The signer key is redacted before the body is rendered.
func buildRequestPreview(rpcURL string, body []byte) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	scrubbed := signerFieldRegex.ReplaceAllString(string(body), `"signer":"[redacted]"`)

	_, _ = buf.WriteString("curl -X POST ")
	_, _ = buf.WriteString(shellQuote(rpcURL))
	_, _ = buf.WriteString(" -H 'Content-Type: application/json' -d ")
	_, _ = buf.WriteString(shellQuote(truncateForLog(scrubbed, 2048)))
	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func truncateForLog(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
