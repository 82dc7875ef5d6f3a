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

package config

import (
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dapdebug/pkg/config"
	"jinr.ru/greenlab/go-dapdebug/pkg/log"
)

const (
	ForceOptionName = "force"
	// IgnoreConfigErrorsAnnotation marks commands that run with defaults
	// when the config file cannot be loaded
	IgnoreConfigErrorsAnnotation = "go-dapdebug/ignore-config-errors"
)

func NewInitCommand(cfg *config.Config) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to the config file",
		Long: `Write the current configuration to the config file.
A config file that cannot be loaded is ignored, so "init --force" replaces
it with the defaults.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{IgnoreConfigErrorsAnnotation: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Persist(force); err != nil {
				return err
			}
			log.Info("Config written to %s", cfg.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, ForceOptionName, false, "Overwrite the existing config file")
	return cmd
}
