package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tontine/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the ledger in SQLite. Section saves are
// replace-in-transaction: the section's tables are cleared and rewritten
// atomically, mirroring the document semantics of the JSON store.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) LoadMembers(ctx context.Context) (map[string]core.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, last_name, first_name, email, phone, active, joined_at FROM members`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make(map[string]core.Member)
	for rows.Next() {
		var m core.Member
		var active int
		var joined string
		if err := rows.Scan(&m.ID, &m.LastName, &m.FirstName, &m.Email, &m.Phone, &active, &joined); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Active = active != 0
		m.JoinedAt, _ = time.Parse(time.RFC3339, joined)
		members[m.ID] = m
	}
	return members, rows.Err()
}

func (s *SQLiteStore) SaveMembers(ctx context.Context, members map[string]core.Member) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM members`); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		for _, m := range members {
			active := 0
			if m.Active {
				active = 1
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO members (id, last_name, first_name, email, phone, active, joined_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				m.ID, m.LastName, m.FirstName, m.Email, m.Phone, active, m.JoinedAt.Format(time.RFC3339))
			if err != nil {
				return fmt.Errorf("insert member %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) LoadCycles(ctx context.Context) (map[string]core.Cycle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contribution_cents, duration_months, start_date, participants,
		        payout_order, current_month, finished, created_at FROM cycles`)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	cycles := make(map[string]core.Cycle)
	for rows.Next() {
		var c core.Cycle
		var start, participants, order, created string
		var finished int
		if err := rows.Scan(&c.ID, &c.Contribution.Cents, &c.DurationMonths, &start,
			&participants, &order, &c.CurrentMonth, &finished, &created); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c.Finished = finished != 0
		c.StartDate, _ = core.ParseDate(start)
		c.CreatedAt, _ = time.Parse(time.RFC3339, created)
		if err := json.Unmarshal([]byte(participants), &c.Participants); err != nil {
			return nil, fmt.Errorf("decode participants for %s: %w", c.ID, err)
		}
		if err := json.Unmarshal([]byte(order), &c.PayoutOrder); err != nil {
			return nil, fmt.Errorf("decode payout order for %s: %w", c.ID, err)
		}
		cycles[c.ID] = c
	}
	return cycles, rows.Err()
}

func (s *SQLiteStore) SaveCycles(ctx context.Context, cycles map[string]core.Cycle) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cycles`); err != nil {
			return fmt.Errorf("clear cycles: %w", err)
		}
		for _, c := range cycles {
			participants, err := json.Marshal(c.Participants)
			if err != nil {
				return fmt.Errorf("encode participants for %s: %w", c.ID, err)
			}
			order, err := json.Marshal(c.PayoutOrder)
			if err != nil {
				return fmt.Errorf("encode payout order for %s: %w", c.ID, err)
			}
			finished := 0
			if c.Finished {
				finished = 1
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO cycles (id, contribution_cents, duration_months, start_date,
				                     participants, payout_order, current_month, finished, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.Contribution.Cents, c.DurationMonths, c.StartDate.String(),
				string(participants), string(order), c.CurrentMonth, finished,
				c.CreatedAt.Format(time.RFC3339))
			if err != nil {
				return fmt.Errorf("insert cycle %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) LoadFinances(ctx context.Context) ([]core.Transaction, map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, member_id, cycle_id, amount_cents, kind, month, penalty_cents, created_at
		 FROM transactions ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var created string
		if err := rows.Scan(&t.ID, &t.MemberID, &t.CycleID, &t.Amount.Cents,
			&t.Kind, &t.Month, &t.Penalty.Cents, &created); err != nil {
			return nil, nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, created)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	balRows, err := s.db.QueryContext(ctx, `SELECT member_id, cents FROM balances`)
	if err != nil {
		return nil, nil, fmt.Errorf("query balances: %w", err)
	}
	defer balRows.Close()

	balances := make(map[string]int64)
	for balRows.Next() {
		var id string
		var cents int64
		if err := balRows.Scan(&id, &cents); err != nil {
			return nil, nil, fmt.Errorf("scan balance: %w", err)
		}
		balances[id] = cents
	}
	return txs, balances, balRows.Err()
}

func (s *SQLiteStore) SaveFinances(ctx context.Context, txs []core.Transaction, balances map[string]int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM balances`); err != nil {
			return fmt.Errorf("clear balances: %w", err)
		}
		for _, t := range txs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO transactions (id, member_id, cycle_id, amount_cents, kind, month, penalty_cents, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.MemberID, t.CycleID, t.Amount.Cents, string(t.Kind), t.Month,
				t.Penalty.Cents, t.CreatedAt.Format(time.RFC3339))
			if err != nil {
				return fmt.Errorf("insert transaction %s: %w", t.ID, err)
			}
		}
		for id, cents := range balances {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO balances (member_id, cents) VALUES (?, ?)`, id, cents); err != nil {
				return fmt.Errorf("insert balance %s: %w", id, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
