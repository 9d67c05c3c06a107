package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"streamvault/crypto"
	"streamvault/native/streams"
)

const (
	codeStreamInvalidParams = -32041
	codeStreamNotFound      = -32042
	codeStreamForbidden     = -32043
	codeStreamConflict      = -32044
	codeStreamInternal      = -32045
)

type streamCreateParams struct {
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Token       string `json:"token"`
	TotalAmount string `json:"totalAmount"`
	StartTime   uint64 `json:"startTime"`
	EndTime     uint64 `json:"endTime"`
}

type streamClaimParams struct {
	ID     uint64 `json:"id"`
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type streamCancelParams struct {
	ID     uint64 `json:"id"`
	Caller string `json:"caller"`
}

type streamIDParams struct {
	ID uint64 `json:"id"`
}

type streamCreateResult struct {
	ID uint64 `json:"id"`
}

type streamClaimResult struct {
	ID      uint64 `json:"id"`
	Claimed string `json:"claimed"`
}

type streamCancelResult struct {
	ID       uint64 `json:"id"`
	Canceled bool   `json:"canceled"`
}

type streamJSON struct {
	ID            uint64 `json:"id"`
	Sender        string `json:"sender"`
	Recipient     string `json:"recipient"`
	Token         string `json:"token"`
	TotalAmount   string `json:"totalAmount"`
	StartTime     uint64 `json:"startTime"`
	EndTime       uint64 `json:"endTime"`
	ClaimedAmount string `json:"claimedAmount"`
	Canceled      bool   `json:"canceled"`
}

func streamToJSON(s *streams.Stream) streamJSON {
	return streamJSON{
		ID:            s.ID,
		Sender:        crypto.NewAddress(s.Sender[:]).String(),
		Recipient:     crypto.NewAddress(s.Recipient[:]).String(),
		Token:         s.Token,
		TotalAmount:   s.TotalAmount.String(),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		ClaimedAmount: s.ClaimedAmount.String(),
		Canceled:      s.Canceled,
	}
}

func parseBech32Address(raw string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func parseBigInt(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", raw)
	}
	return amount, nil
}

func parsePositiveBigInt(raw string) (*big.Int, error) {
	amount, err := parseBigInt(raw)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func decodeSingleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func (s *Server) handleStreamCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params streamCreateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	sender, err := parseBech32Address(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	recipient, err := parseBech32Address(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parsePositiveBigInt(params.TotalAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	stream, err := s.node.StreamCreate(sender, recipient, params.Token, amount, params.StartTime, params.EndTime)
	if err != nil {
		writeStreamError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, streamCreateResult{ID: stream.ID})
}

func (s *Server) handleStreamClaim(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params streamClaimParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	// Non-positive amounts pass through so the engine can classify them as
	// an insufficient-claimable conflict rather than a malformed request.
	amount, err := parseBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	claimed, err := s.node.StreamClaim(params.ID, caller, amount)
	if err != nil {
		writeStreamError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, streamClaimResult{ID: params.ID, Claimed: claimed.String()})
}

func (s *Server) handleStreamCancel(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params streamCancelParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseBech32Address(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.StreamCancel(params.ID, caller); err != nil {
		writeStreamError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, streamCancelResult{ID: params.ID, Canceled: true})
}

func (s *Server) handleStreamGet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params streamIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeStreamInvalidParams, "invalid_params", err.Error())
		return
	}
	stream, err := s.node.StreamGet(params.ID)
	if err != nil {
		writeStreamError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, streamToJSON(stream))
}

func writeStreamError(w http.ResponseWriter, id interface{}, err error) {
	if err == nil {
		return
	}
	status := http.StatusInternalServerError
	code := codeStreamInternal
	message := "internal_error"
	switch {
	case errors.Is(err, streams.ErrStreamNotFound):
		status = http.StatusNotFound
		code = codeStreamNotFound
		message = "not_found"
	case errors.Is(err, streams.ErrUnauthorized):
		status = http.StatusForbidden
		code = codeStreamForbidden
		message = "forbidden"
	case errors.Is(err, streams.ErrStreamCanceled):
		status = http.StatusConflict
		code = codeStreamConflict
		message = "stream_canceled"
	case errors.Is(err, streams.ErrInsufficientClaimable):
		status = http.StatusConflict
		code = codeStreamConflict
		message = "insufficient_claimable"
	case errors.Is(err, streams.ErrInsufficientFunds):
		status = http.StatusConflict
		code = codeStreamConflict
		message = "insufficient_funds"
	case errors.Is(err, streams.ErrInvalidAmount), errors.Is(err, streams.ErrInvalidTimeRange):
		status = http.StatusBadRequest
		code = codeStreamInvalidParams
		message = "invalid_params"
	}
	writeError(w, status, id, code, message, err.Error())
}
