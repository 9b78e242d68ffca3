package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/congo_vault/internal/config"
	"github.com/congo-pay/congo_vault/internal/faucet"
	"github.com/congo-pay/congo_vault/internal/logging"
	"github.com/congo-pay/congo_vault/internal/pda"
	"github.com/congo-pay/congo_vault/internal/runtime"
	"github.com/congo-pay/congo_vault/internal/vault"
)

const adminToken = "operator-secret"

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.Config{
		AppEnv:           "test",
		ProgramID:        vault.DefaultProgramID,
		AdminTokenHash:   hash,
		SignerRateLimit:  100,
		BatchConcurrency: 2,
	}
	app := fiber.New()
	closeFn, err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(closeFn)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any, admin bool) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if admin {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+adminToken)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func signedRequest(t *testing.T, name string, owner solana.PrivateKey, amount uint64) runtime.TransactionRequest {
	t.Helper()
	addr, err := pda.UserVault(vault.DefaultProgramID, owner.PublicKey())
	require.NoError(t, err)
	tx := runtime.NewTransaction(vault.Instruction{
		Name:   name,
		Amount: amount,
		Accounts: vault.Accounts{
			Signer:           owner.PublicKey(),
			UserVaultAccount: addr.Key,
			SystemProgram:    solana.SystemProgramID,
		},
	})
	require.NoError(t, tx.Sign(owner))
	return runtime.TransactionRequest{Instruction: tx.Instruction, Nonce: tx.Nonce, Signatures: tx.Signatures}
}

func TestPing(t *testing.T) {
	app := newApp(t)
	status, body := do(t, app, http.MethodGet, "/api/v1/ping", nil, false)
	require.Equal(t, http.StatusOK, status)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, vault.DefaultProgramID.String(), payload["program_id"])
	assert.NotEmpty(t, payload["request_id"])
}

func TestHealthWithoutBackends(t *testing.T) {
	app := newApp(t)
	status, body := do(t, app, http.MethodGet, "/healthz", nil, false)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"postgres":"disabled"`)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	app := newApp(t)
	status, _ := do(t, app, http.MethodPost, "/api/v1/admin/mints", faucet.CreateMintRequest{Decimals: 6}, false)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := do(t, app, http.MethodPost, "/api/v1/admin/mints", faucet.CreateMintRequest{Decimals: 6}, true)
	require.Equal(t, http.StatusCreated, status, string(body))
	var mint faucet.CreateMintResponse
	require.NoError(t, json.Unmarshal(body, &mint))
	assert.Equal(t, uint8(6), mint.Decimals)
}

func TestNativeVaultFlow(t *testing.T) {
	app := newApp(t)
	owner, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	status, body := do(t, app, http.MethodPost, "/api/v1/admin/airdrop",
		faucet.AirdropRequest{Address: owner.PublicKey().String(), Lamports: 2_000_000_000}, true)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = do(t, app, http.MethodPost, "/api/v1/transactions", signedRequest(t, vault.InstructionRegister, owner, 0), false)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = do(t, app, http.MethodPost, "/api/v1/transactions", signedRequest(t, vault.InstructionDeposit, owner, 500_000_000), false)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = do(t, app, http.MethodGet, "/api/v1/vaults/"+owner.PublicKey().String(), nil, false)
	require.Equal(t, http.StatusOK, status, string(body))
	var v vault.VaultResponse
	require.NoError(t, json.Unmarshal(body, &v))
	assert.True(t, v.Registered)
	assert.Equal(t, uint64(500_000_000), v.Available)

	status, body = do(t, app, http.MethodPost, "/api/v1/transactions", signedRequest(t, vault.InstructionWithdraw, owner, 600_000_000), false)
	assert.Equal(t, http.StatusUnprocessableEntity, status, string(body))
	assert.Contains(t, string(body), vault.KindInsufficientFunds)
}
