package commands

import (
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/cobra"
)

var helpArgument = regexp.MustCompile(`(?i)^-+(h|help)$`)

// IsHelpArgument reports whether arg asks for help, such as -h, --help or ---HELP
func IsHelpArgument(arg string) bool {
	return helpArgument.MatchString(arg)
}

const usageText = `
Usage:
  dbpassrotate [flags] {username} {password} {new_password} [db_names]
Options:
  username - db user name
  password - db user password
  new_password - new password
  db_names - comma separated db names (optional, can be set in settings.properties)
Flags:
%s
Flags go before {username}; everything after it is taken as an argument.
Examples:
  dbpassrotate testuser qwerty qwerty123
  dbpassrotate testuser qwerty qwerty123 test_db
  dbpassrotate --config /etc/dbpassrotate.yaml testuser -old- -new- prod,stage
`

// PrintUsage writes the usage text for cmd to w
func PrintUsage(cmd *cobra.Command, w io.Writer) {
	fmt.Fprintf(w, usageText, cmd.LocalFlags().FlagUsages())
}
