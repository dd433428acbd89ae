package app

import (
	"fmt"
	"io"
	"sync"
)

// LoginPath is where the console sends the user when the session is rejected.
const LoginPath = "/login"

// Navigator performs a route change.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a func to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// ConsoleNavigator is the CLI's router: it remembers the current route and tells
// the user what to do when sent to the login screen.
type ConsoleNavigator struct {
	out io.Writer

	mu      sync.Mutex
	current string
}

func NewConsoleNavigator(out io.Writer) *ConsoleNavigator {
	return &ConsoleNavigator{out: out, current: "/"}
}

func (n *ConsoleNavigator) Navigate(path string) {
	n.mu.Lock()
	n.current = path
	n.mu.Unlock()
	if path == LoginPath && n.out != nil {
		fmt.Fprintln(n.out, "Session expired or revoked. Log in again: admincli login <email>")
	}
}

// Current returns the last route navigated to.
func (n *ConsoleNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
