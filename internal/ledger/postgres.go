package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresStore persists ledger state in PostgreSQL. Rows read inside Update
// are locked with FOR UPDATE so instructions touching the same account serialize.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// View runs fn inside a read-only transaction.
func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{tx: tx, readOnly: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update runs fn inside a read-write transaction and commits only when fn succeeds.
func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx       pgx.Tx
	readOnly bool
}

func (t *pgTx) lockClause() string {
	if t.readOnly {
		return ""
	}
	return " FOR UPDATE"
}

func (t *pgTx) Account(ctx context.Context, address solana.PublicKey) (Account, error) {
	query := `SELECT owner, lamports, space FROM accounts WHERE address = $1` + t.lockClause()
	var (
		owner    []byte
		lamports int64
		space    int64
	)
	if err := t.tx.QueryRow(ctx, query, address.Bytes()).Scan(&owner, &lamports, &space); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return Account{
		Address:  address,
		Owner:    solana.PublicKeyFromBytes(owner),
		Lamports: uint64(lamports),
		Space:    uint64(space),
	}, nil
}

func (t *pgTx) CreateAccount(ctx context.Context, account Account) error {
	if t.readOnly {
		return ErrReadOnly
	}
	lamports, space, err := accountColumns(account)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO accounts (address, owner, lamports, space) VALUES ($1, $2, $3, $4)`,
		account.Address.Bytes(), account.Owner.Bytes(), lamports, space)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

func (t *pgTx) PutAccount(ctx context.Context, account Account) error {
	if t.readOnly {
		return ErrReadOnly
	}
	lamports, space, err := accountColumns(account)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO accounts (address, owner, lamports, space) VALUES ($1, $2, $3, $4)
        ON CONFLICT (address) DO UPDATE SET owner = EXCLUDED.owner, lamports = EXCLUDED.lamports,
        space = EXCLUDED.space, updated_at = now()`,
		account.Address.Bytes(), account.Owner.Bytes(), lamports, space)
	return err
}

// RecordSignature inserts sig into processed_signatures. A concurrent insert
// of the same signature blocks on the primary key until the other transaction
// commits or rolls back.
func (t *pgTx) RecordSignature(ctx context.Context, sig solana.Signature) error {
	if t.readOnly {
		return ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO processed_signatures (signature) VALUES ($1)`, sig[:])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSignatureProcessed
		}
		return err
	}
	return nil
}

func (t *pgTx) TokenAccount(ctx context.Context, address solana.PublicKey) (TokenAccount, error) {
	query := `SELECT mint, authority, amount, state FROM token_accounts WHERE address = $1` + t.lockClause()
	var (
		mint      []byte
		authority []byte
		amount    int64
		state     int16
	)
	if err := t.tx.QueryRow(ctx, query, address.Bytes()).Scan(&mint, &authority, &amount, &state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenAccount{}, ErrAccountNotFound
		}
		return TokenAccount{}, err
	}
	return TokenAccount{
		Address:   address,
		Mint:      solana.PublicKeyFromBytes(mint),
		Authority: solana.PublicKeyFromBytes(authority),
		Amount:    uint64(amount),
		State:     TokenAccountState(state),
	}, nil
}

func (t *pgTx) PutTokenAccount(ctx context.Context, account TokenAccount) error {
	if t.readOnly {
		return ErrReadOnly
	}
	amount, err := toInt64(account.Amount)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO token_accounts (address, mint, authority, amount, state) VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (address) DO UPDATE SET amount = EXCLUDED.amount, state = EXCLUDED.state, updated_at = now()`,
		account.Address.Bytes(), account.Mint.Bytes(), account.Authority.Bytes(), amount, int16(account.State))
	return err
}

func (t *pgTx) Mint(ctx context.Context, address solana.PublicKey) (Mint, error) {
	query := `SELECT decimals, supply, mint_authority FROM mints WHERE address = $1` + t.lockClause()
	var (
		decimals  int16
		supply    int64
		authority []byte
	)
	if err := t.tx.QueryRow(ctx, query, address.Bytes()).Scan(&decimals, &supply, &authority); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mint{}, ErrAccountNotFound
		}
		return Mint{}, err
	}
	return Mint{
		Address:       address,
		Decimals:      uint8(decimals),
		Supply:        uint64(supply),
		MintAuthority: solana.PublicKeyFromBytes(authority),
	}, nil
}

func (t *pgTx) PutMint(ctx context.Context, mint Mint) error {
	if t.readOnly {
		return ErrReadOnly
	}
	supply, err := toInt64(mint.Supply)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO mints (address, decimals, supply, mint_authority) VALUES ($1, $2, $3, $4)
        ON CONFLICT (address) DO UPDATE SET supply = EXCLUDED.supply`,
		mint.Address.Bytes(), int16(mint.Decimals), supply, mint.MintAuthority.Bytes())
	return err
}

func accountColumns(account Account) (int64, int64, error) {
	lamports, err := toInt64(account.Lamports)
	if err != nil {
		return 0, 0, err
	}
	space, err := toInt64(account.Space)
	if err != nil {
		return 0, 0, err
	}
	return lamports, space, nil
}

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrAmountOverflow, v)
	}
	return int64(v), nil
}
