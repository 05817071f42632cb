package media

import (
	"strings"
)

// Invocation is a single external tool call. Arguments are passed to the
// process as is; nothing is interpreted by a shell.
type Invocation struct {
	Binary string
	Args   []string
}

// Argv returns the binary followed by its arguments.
func (i Invocation) Argv() []string {
	argv := make([]string, 0, len(i.Args)+1)
	argv = append(argv, i.Binary)
	return append(argv, i.Args...)
}

// IsZero reports whether the invocation is empty.
func (i Invocation) IsZero() bool {
	return i.Binary == "" && len(i.Args) == 0
}

// String renders the invocation as a POSIX shell command line, quoting
// arguments that need it. Used for logs and job names only.
func (i Invocation) String() string {
	argv := i.Argv()
	quoted := make([]string, len(argv))
	for n, a := range argv {
		quoted[n] = Quote(a)
	}
	return strings.Join(quoted, " ")
}

// Quote single-quotes s when it contains characters a POSIX shell would
// interpret.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isSafeShellRune(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isSafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=,+%@", r)
}
