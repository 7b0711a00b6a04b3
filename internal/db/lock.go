package db

import (
	"context"
	"fmt"
	"time"
)

// backupCheckLockKey identifies the backup check in pg_advisory_lock's key space.
const backupCheckLockKey int64 = 0x7374617475736263

// TryBackupCheckLock takes a session-level advisory lock on a dedicated pooled
// connection. The connection stays checked out until release is called.
func (d *DB) TryBackupCheckLock(ctx context.Context) (func(), bool, error) {
	conn, err := d.Pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection for backup check lock: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, backupCheckLockKey).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to take backup check lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, backupCheckLockKey); err != nil {
			// closing the session drops the lock; the pool discards closed connections
			_ = conn.Conn().Close(ctx)
		}
		conn.Release()
	}
	return release, true, nil
}
