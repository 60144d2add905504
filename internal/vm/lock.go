package vm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// errLocked marks a poll that found the lock still held.
var errLocked = errors.New("VM is locked")

// awaitUnlocked polls the VM configuration at a fixed interval until it is
// readable and carries no lock entry. It gives up after timeout with
// ErrLockTimeout.
func awaitUnlocked(ctx context.Context, hv Hypervisor, vmID int, interval, timeout time.Duration, logger *zap.Logger) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	attempts := 0
	operation := func() error {
		attempts++
		cfg, err := hv.Config(waitCtx, vmID)
		if err != nil {
			lastErr = err
			logger.Debug("VM config not yet readable", zap.Int("attempt", attempts), zap.Error(err))
			return err
		}
		if lock, ok := lockValue(cfg); ok {
			lastErr = fmt.Errorf("%w (%s)", errLocked, lock)
			logger.Debug("VM still locked", zap.Int("attempt", attempts), zap.String("lock", lock))
			return lastErr
		}
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx)
	if err := backoff.Retry(operation, b); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lastErr == nil {
			lastErr = err
		}
		return fmt.Errorf("%w after %s (%d attempts): %v", ErrLockTimeout, timeout, attempts, lastErr)
	}

	logger.Info("VM lock released", zap.Int("attempts", attempts))
	return nil
}

// lockValue returns the value of the "lock:" entry in qm config output.
func lockValue(cfg string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(cfg))
	for scanner.Scan() {
		key, value, found := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if found && key == "lock" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}
