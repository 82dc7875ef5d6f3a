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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dapdebug/cmd/completion"
	"jinr.ru/greenlab/go-dapdebug/cmd/config"
	"jinr.ru/greenlab/go-dapdebug/cmd/decode"
	"jinr.ru/greenlab/go-dapdebug/cmd/monitor"
	pkgconfig "jinr.ru/greenlab/go-dapdebug/pkg/config"
	"jinr.ru/greenlab/go-dapdebug/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
	ConfigOptionName   = "config"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel, configPath string
	cfg := pkgconfig.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:          "go-dapdebug",
		Short:        "Tool to inspect CMSIS-DAP traffic in USBPcap captures",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg.SetPath(configPath)
			}
			loadErr := cfg.Load()
			if loadErr != nil {
				if _, ok := cmd.Annotations[config.IgnoreConfigErrorsAnnotation]; !ok {
					return loadErr
				}
				cfg.Reset()
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := log.Init(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
				return err
			}
			if loadErr != nil {
				log.Warning("Ignoring config file: %s", loadErr)
			}
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(decode.NewCommand())
	cmd.AddCommand(monitor.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	cmd.PersistentFlags().StringVar(&configPath, ConfigOptionName, "", fmt.Sprintf("Config file. Default %s", pkgconfig.DefaultConfigPath()))
	return cmd
}
