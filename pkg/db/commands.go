package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCommandNotFound = errors.New("command not found")
	ErrCommandSettled  = errors.New("command already completed")
)

// CommandStatus is the lifecycle state of a journaled command.
type CommandStatus string

const (
	CommandPending   CommandStatus = "pending"
	CommandSucceeded CommandStatus = "succeeded"
	CommandFailed    CommandStatus = "failed"
	CommandExpired   CommandStatus = "expired"
)

// Settled reports whether the status is final.
func (s CommandStatus) Settled() bool {
	return s != CommandPending
}

// Command is a journal entry for one command sent to a device.
type Command struct {
	ChainID         string
	DeviceID        string
	Kind            string
	Packet          string
	Status          CommandStatus
	SentAt          time.Time
	ValidUntil      *time.Time
	Result          string
	ErrorStatus     string
	ErrorMessage    string
	DeliveryTimeS   int32
	ExecutionTimeMs int32
	CompletedAt     *time.Time
}

// CommandOutcome is what a device reported for a command.
type CommandOutcome struct {
	Status          CommandStatus
	Result          string
	ErrorStatus     string
	ErrorMessage    string
	DeliveryTimeS   int32
	ExecutionTimeMs int32
	CompletedAt     time.Time
}

// CommandStore provides the command journal.
type CommandStore interface {
	Create(ctx context.Context, c *Command) error
	Get(ctx context.Context, chainID string) (*Command, error)
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]*Command, error)
	// Complete settles a pending command. Settling twice returns
	// ErrCommandSettled.
	Complete(ctx context.Context, chainID string, outcome CommandOutcome) error
	// ExpirePending marks pending commands whose validity ended before now
	// as expired and returns how many changed.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// Commands returns a CommandStore for this database.
func (db *DB) Commands() CommandStore {
	return &commandStore{db: db}
}

type commandStore struct {
	db *DB
}

const commandColumns = `chain_id, device_id, kind, packet, status, sent_at, valid_until,
	result, error_status, error_message, delivery_time_s, execution_time_ms, completed_at`

func scanCommand(row rowScanner) (*Command, error) {
	c := &Command{}
	var status, sentAt string
	var validUntil, completedAt sql.NullString
	err := row.Scan(&c.ChainID, &c.DeviceID, &c.Kind, &c.Packet, &status, &sentAt, &validUntil,
		&c.Result, &c.ErrorStatus, &c.ErrorMessage, &c.DeliveryTimeS, &c.ExecutionTimeMs, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommandNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Status = CommandStatus(status)
	c.SentAt = parseTime(sentAt)
	c.ValidUntil = parseNullTime(validUntil)
	c.CompletedAt = parseNullTime(completedAt)
	return c, nil
}

func (s *commandStore) Create(ctx context.Context, c *Command) error {
	if c.Status == "" {
		c.Status = CommandPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (chain_id, device_id, kind, packet, status, sent_at, valid_until)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ChainID, c.DeviceID, c.Kind, c.Packet, string(c.Status), formatTime(c.SentAt), formatNullTime(c.ValidUntil))
	if err != nil {
		return fmt.Errorf("failed to journal command %s: %w", c.ChainID, err)
	}
	return nil
}

func (s *commandStore) Get(ctx context.Context, chainID string) (*Command, error) {
	return scanCommand(s.db.QueryRowContext(ctx,
		`SELECT `+commandColumns+` FROM commands WHERE chain_id = ?`, chainID))
}

func (s *commandStore) ListByDevice(ctx context.Context, deviceID string, limit int) ([]*Command, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commandColumns+` FROM commands
		WHERE device_id = ?
		ORDER BY sent_at DESC, rowid DESC
		LIMIT ?
	`, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	commands := []*Command{}
	for rows.Next() {
		c, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		commands = append(commands, c)
	}
	return commands, rows.Err()
}

func (s *commandStore) Complete(ctx context.Context, chainID string, o CommandOutcome) error {
	if !o.Status.Settled() {
		return fmt.Errorf("complete command %s: status %q is not final", chainID, o.Status)
	}
	return s.db.Tx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM commands WHERE chain_id = ?`, chainID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCommandNotFound
		}
		if err != nil {
			return err
		}
		if CommandStatus(status).Settled() {
			return ErrCommandSettled
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE commands SET status = ?, result = ?, error_status = ?, error_message = ?,
				delivery_time_s = ?, execution_time_ms = ?, completed_at = ?
			WHERE chain_id = ?
		`, string(o.Status), o.Result, o.ErrorStatus, o.ErrorMessage,
			o.DeliveryTimeS, o.ExecutionTimeMs, formatTime(o.CompletedAt), chainID)
		return err
	})
}

func (s *commandStore) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	ts := formatTime(now)
	result, err := s.db.ExecContext(ctx, `
		UPDATE commands SET status = ?, completed_at = ?
		WHERE status = ? AND valid_until IS NOT NULL AND valid_until < ?
	`, string(CommandExpired), ts, string(CommandPending), ts)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
