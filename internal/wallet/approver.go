package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type Action string

const (
	ActionConnect     Action = "connect"
	ActionSwitchChain Action = "switch_chain"
	ActionAddChain    Action = "add_chain"
	ActionSign        Action = "sign"
)

// ApprovalRequest describes what the human is asked to allow.
type ApprovalRequest struct {
	Action  Action
	Summary string
	Details []string
}

// Approver asks a human to allow a privileged wallet action. A false result
// with a nil error is a decline.
type Approver interface {
	Approve(ctx context.Context, req ApprovalRequest) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, req ApprovalRequest) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, req ApprovalRequest) (bool, error) {
	return f(ctx, req)
}

// AutoApprove allows everything. Used by `--yes`.
var AutoApprove Approver = ApproverFunc(func(context.Context, ApprovalRequest) (bool, error) {
	return true, nil
})

// TerminalApprover prints the request to out and reads a yes/no answer
// from in. An empty answer is a decline. A single goroutine reads in for the
// approver's lifetime, so a cancelled prompt does not leave a reader behind.
type TerminalApprover struct {
	in    *bufio.Reader
	out   io.Writer
	mu    sync.Mutex
	once  sync.Once
	lines chan answer

	// set when a prompt was abandoned; its late answer must not carry over
	abandoned bool
}

func NewTerminalApprover(in io.Reader, out io.Writer) *TerminalApprover {
	return &TerminalApprover{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan answer),
	}
}

type answer struct {
	line string
	err  error
}

// readLines feeds ta.lines until in fails, then closes it.
func (ta *TerminalApprover) readLines() {
	defer close(ta.lines)
	for {
		line, err := ta.in.ReadString('\n')
		ta.lines <- answer{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// dropStale discards a late answer to an abandoned prompt.
func (ta *TerminalApprover) dropStale() {
	if !ta.abandoned {
		return
	}
	ta.abandoned = false
	for {
		select {
		case _, ok := <-ta.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (ta *TerminalApprover) Approve(ctx context.Context, req ApprovalRequest) (bool, error) {
	ta.mu.Lock()
	defer ta.mu.Unlock()

	ta.once.Do(func() { go ta.readLines() })
	ta.dropStale()

	fmt.Fprintln(ta.out)
	fmt.Fprintf(ta.out, "Wallet request: %s\n", req.Summary)
	for _, d := range req.Details {
		fmt.Fprintf(ta.out, "  %s\n", d)
	}
	fmt.Fprint(ta.out, "Approve? [y/N]: ")

	select {
	case <-ctx.Done():
		ta.abandoned = true
		fmt.Fprintln(ta.out)
		return false, ctx.Err()
	case a, ok := <-ta.lines:
		if !ok {
			return false, nil
		}
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("failed to read approval: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
