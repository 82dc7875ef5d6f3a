/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	completionExample = `
Save bash completion to a file
# go-dapdebug completion > $HOME/.go-dapdebug_completions

Apply completions to the current bash instance
# source <(go-dapdebug completion)

Load completions in PowerShell, where USBPcap captures are usually taken
PS> go-dapdebug completion powershell | Out-String | Invoke-Expression
`
)

var shells = []string{"bash", "zsh", "fish", "powershell"}

// NewCommand creates a cobra command object for generating shell completion
// scripts. The shell defaults to bash.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       fmt.Sprintf("completion [%s|%s|%s|%s]", shells[0], shells[1], shells[2], shells[3]),
		Short:     "Generate completion script",
		Example:   completionExample,
		ValidArgs: shells,
		Args:      cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := "bash"
			if len(args) > 0 {
				shell = args[0]
			}
			out := cmd.OutOrStdout()
			switch shell {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletion(out)
			}
			return fmt.Errorf("Unsupported shell %q", shell)
		},
	}
	return cmd
}
