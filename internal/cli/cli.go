// Package cli parses the flat "--key=value" argument style used across
// the command surface, independent of each subcommand's own flag.FlagSet.
// Its only job is recovering the permission set a "run" or "repl"
// invocation was granted, e.g. "--use-env --use-memory".
package cli

import "strings"

// Command holds the positional arguments and the "--key=value" flags parsed
// out of an argument list, mirroring a plain arg/flag split rather than a typed
// flag.FlagSet.
type Command struct {
	Args  []string
	Flags map[string]string
}

// New parses args (typically os.Args[1:]) into positional arguments and
// "--"-prefixed flags. A flag without "=value" is recorded with an empty
// value, which is enough to detect its presence.
func New(args []string) *Command {
	cmd := &Command{
		Flags: map[string]string{},
	}

	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			cmd.Args = append(cmd.Args, arg)
			continue
		}
		body := arg[2:]
		key, value, hasValue := strings.Cut(body, "=")
		if !hasValue {
			value = ""
		}
		cmd.Flags[key] = value
	}

	return cmd
}

// Permissions returns the capability names granted via "--use-<name>"
// flags, e.g. "--use-env" contributes "env".
func (c *Command) Permissions() []string {
	var perms []string
	for name := range c.Flags {
		if rest, ok := strings.CutPrefix(name, "use-"); ok {
			perms = append(perms, rest)
		}
	}
	return perms
}

// PermissionSet is Permissions() as the map[string]bool shape vm.NewMachine
// expects.
func (c *Command) PermissionSet() map[string]bool {
	set := make(map[string]bool, len(c.Flags))
	for _, perm := range c.Permissions() {
		set[perm] = true
	}
	return set
}
