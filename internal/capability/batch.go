package capability

import (
	"context"
	"fmt"

	"dbgpc/internal/session"
)

// Batch sends a fixed list of commands, each after the previous one
// has been answered.
type Batch struct {
	Commands []string

	// StopOnError aborts the batch at the first engine error.
	StopOnError bool
}

// Handle waits for the init packet and runs the command list.
func (b *Batch) Handle(ctx context.Context, sess *session.Session) error {
	if _, err := sess.Init(ctx); err != nil {
		return err
	}

	for i, cmd := range b.Commands {
		doc, err := sess.Call(ctx, cmd)
		if err != nil {
			return fmt.Errorf("command %d (%s): %w", i+1, cmd, err)
		}
		if eerr := doc.Err(); eerr != nil {
			if b.StopOnError {
				return fmt.Errorf("command %d (%s): %w", i+1, cmd, eerr)
			}
			sess.Logger.Warn("%s: %v", cmd, eerr)
		}
		if doc.Status() == "stopped" {
			sess.Logger.Verbose("engine stopped after command %d", i+1)
			return nil
		}
	}
	return nil
}
