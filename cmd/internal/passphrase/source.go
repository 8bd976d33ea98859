package passphrase

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Source lazily resolves a keystore passphrase from an environment variable or
// by prompting on the terminal. The value is cached after the first successful
// retrieval.
type Source struct {
	envVar string
	label  string
	read   func() (string, error)

	once  sync.Once
	value string
	err   error
}

// NewSource constructs a passphrase source that checks envVar before
// prompting for the keystore named by label.
func NewSource(envVar, label string) *Source {
	if strings.TrimSpace(label) == "" {
		label = "keystore"
	}
	return &Source{envVar: strings.TrimSpace(envVar), label: label, read: readTerminal}
}

// Get returns the cached passphrase or resolves it on first use. An empty
// passphrase is rejected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		if s.envVar != "" {
			if value, ok := os.LookupEnv(s.envVar); ok {
				if strings.TrimSpace(value) == "" {
					s.err = fmt.Errorf("%s is set but empty", s.envVar)
					return
				}
				s.value = value
				return
			}
		}
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			if s.envVar != "" {
				s.err = fmt.Errorf("%s passphrase required; set %s or run interactively", s.label, s.envVar)
			} else {
				s.err = fmt.Errorf("%s passphrase required and no terminal available", s.label)
			}
			return
		}
		fmt.Fprintf(os.Stderr, "Enter %s passphrase: ", s.label)
		value, err := s.read()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			s.err = fmt.Errorf("failed to read passphrase: %w", err)
			return
		}
		if strings.TrimSpace(value) == "" {
			s.err = errors.New("passphrase cannot be empty")
			return
		}
		s.value = value
	})
	return s.value, s.err
}

func readTerminal() (string, error) {
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	return string(raw), err
}
