package display

import (
	"fmt"
	"os"

	"github.com/backmassage/transmux/internal/term"
)

// PrintBanner prints the ASCII art banner; magenta when colors are enabled.
func PrintBanner() {
	fmt.Fprint(os.Stdout, term.Magenta)
	fmt.Fprint(os.Stdout, ` _____                      __  __
|_   _| _ __   __ _  _ __  ___ |  \/  | _   _ __  __
  | |  | '__| / _` + "`" + ` || '_ \ / __|| |\/| || | | |\ \/ /
  | |  | |   | (_| || | | |\__ \| |  | || |_| | >  <
  |_|  |_|    \__,_||_| |_||___/|_|  |_| \__,_|/_/\_\
`)
	if term.Enabled() {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
