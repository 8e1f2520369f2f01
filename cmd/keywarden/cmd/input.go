package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/jmcleod/keywarden/client"
	"github.com/jmcleod/keywarden/remote"
)

// promptPassword reads a password without echoing it to the terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// promptLine reads a single trimmed line from stdin.
func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// requireUsername resolves the account name from the flag or a prompt.
func requireUsername() (string, error) {
	if username != "" {
		return username, nil
	}
	return promptLine("Username: ")
}

// newClient builds a client against the configured server.
func newClient() *client.Client {
	transport := remote.New(serverURL)
	return client.New(transport, transport)
}

// openSession prompts for the master password and opens a session for
// the duration of the command.
func openSession(ctx context.Context) (*client.Client, error) {
	user, err := requireUsername()
	if err != nil {
		return nil, err
	}
	password, err := promptPassword("Master password: ")
	if err != nil {
		return nil, err
	}
	c := newClient()
	if err := c.Login(ctx, user, password); err != nil {
		return nil, err
	}
	return c, nil
}
