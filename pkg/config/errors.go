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
	"fmt"
)

// ErrConfigFileExists returned when persisting would overwrite a config file
type ErrConfigFileExists struct {
	Path string
}

func (e ErrConfigFileExists) Error() string {
	return fmt.Sprintf("Config file already exists: %s", e.Path)
}

type ErrInvalid struct {
	Field string
	Value string
	Help  string
}

func (e ErrInvalid) Error() string {
	return fmt.Sprintf("Wrong %s %q. %s", e.Field, e.Value, e.Help)
}

type ErrFormat struct {
	Format string
}

func (e ErrFormat) Error() string {
	return fmt.Sprintf("Wrong output format %q. %s", e.Format, HelpFormats)
}
