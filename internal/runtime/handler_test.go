package runtime

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/congo_vault/internal/vault"
)

func newTestApp(e *env) *fiber.App {
	app := fiber.New()
	h := NewHandler(e.runtime)
	app.Post("/transactions", h.Submit)
	app.Post("/transactions/batch", h.SubmitBatch)
	return app
}

func post(t *testing.T, app *fiber.App, path string, body any) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func requestFor(tx *Transaction) TransactionRequest {
	return TransactionRequest{Instruction: tx.Instruction, Nonce: tx.Nonce, Signatures: tx.Signatures}
}

func TestHandlerSubmit(t *testing.T) {
	e := newEnv(t)
	app := newTestApp(e)
	owner := e.newOwner(t)
	tx := signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner)

	resp, body := post(t, app, "/transactions", requestFor(tx))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var receipt ReceiptResponse
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, tx.Signature().String(), receipt.Signature)
	assert.Nil(t, receipt.Error)

	resp, _ = post(t, app, "/transactions", requestFor(tx))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	again := signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner)
	resp, body = post(t, app, "/transactions", requestFor(again))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &receipt))
	require.NotNil(t, receipt.Error)
	assert.Equal(t, vault.KindAlreadyRegistered, receipt.Error.Kind)
}

func TestHandlerSubmitInstructionData(t *testing.T) {
	e := newEnv(t)
	app := newTestApp(e)
	owner := e.newOwner(t)
	tx := signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner)

	data, err := tx.Instruction.Data()
	require.NoError(t, err)
	req := requestFor(tx)
	req.Instruction.Name = ""
	req.Data = data

	resp, body := post(t, app, "/transactions", req)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestHandlerRejectsBadSignature(t *testing.T) {
	e := newEnv(t)
	app := newTestApp(e)
	owner := e.newOwner(t)
	tx := signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner)
	tx.Instruction.Name = vault.InstructionDeposit

	resp, _ := post(t, app, "/transactions", requestFor(tx))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerBatch(t *testing.T) {
	e := newEnv(t)
	app := newTestApp(e)
	owner := e.newOwner(t)
	ok := signed(t, nativeIx(t, vault.InstructionRegister, owner.PublicKey(), 0), owner)
	bad := requestFor(signed(t, nativeIx(t, vault.InstructionDeposit, owner.PublicKey(), 1), owner))
	bad.Data = []byte{9, 9}

	resp, body := post(t, app, "/transactions/batch", BatchRequest{Transactions: []TransactionRequest{requestFor(ok), bad}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out BatchResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Results, 2)
	assert.Nil(t, out.Results[0].Error)
	require.NotNil(t, out.Results[1].Error)
	assert.Equal(t, vault.KindUnknownInstruction, out.Results[1].Error.Kind)

	resp, _ = post(t, app, "/transactions/batch", BatchRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
