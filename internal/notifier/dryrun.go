package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// DryRunNotifier prints what would be posted without actually posting
type DryRunNotifier struct {
	mu    sync.Mutex
	out   io.Writer
	count int
}

// NewDryRunNotifier creates a new dry-run notifier writing to out, or to
// stdout when out is nil.
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the message that would be posted
func (n *DryRunNotifier) Notify(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.count++
	if _, err := fmt.Fprintf(n.out, "--- Message %d ---\n%s\n\n", n.count, msg.Text()); err != nil {
		return fmt.Errorf("writing dry-run message: %w", err)
	}
	return nil
}

// Count returns the number of messages printed so far.
func (n *DryRunNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}
