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

package monitor

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"jinr.ru/greenlab/go-dapdebug/pkg/config"
	"jinr.ru/greenlab/go-dapdebug/pkg/decoder"
	"jinr.ru/greenlab/go-dapdebug/pkg/layers"
)

// palette colors text lines by transfer direction.
type palette struct {
	request  lipgloss.Style
	response lipgloss.Style
	capture  lipgloss.Style
	plain    bool
}

func newPalette(out io.Writer, color config.Color) *palette {
	if color == config.ColorNever {
		return &palette{plain: true}
	}
	r := lipgloss.NewRenderer(out)
	if color == config.ColorAlways {
		r.SetColorProfile(termenv.ANSI256)
	}
	return &palette{
		request:  r.NewStyle().Foreground(lipgloss.Color("39")),
		response: r.NewStyle().Foreground(lipgloss.Color("114")),
		capture:  r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (p *palette) render(rec *decoder.Record, line string) string {
	if p.plain {
		return line
	}
	switch {
	case rec.Message == nil:
		return p.capture.Render(line)
	case rec.Message.Direction == layers.DAPResponse:
		return p.response.Render(line)
	default:
		return p.request.Render(line)
	}
}
