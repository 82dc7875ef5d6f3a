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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-dapdebug/pkg/config"
	"jinr.ru/greenlab/go-dapdebug/pkg/decoder"
	"jinr.ru/greenlab/go-dapdebug/pkg/layers"
)

// Entry is one printed record in the structured output formats.
type Entry struct {
	Timestamp time.Time        `json:"timestamp"`
	Length    int              `json:"length"`
	Line      string           `json:"line"`
	Capture   *layers.USBPcap  `json:"capture"`
	Message   *layers.CMSISDAP `json:"message,omitempty"`
	Dump      string           `json:"dump,omitempty"`
}

// Writer prints decoded records.
type Writer interface {
	Write(rec *decoder.Record, entry *Entry) error
}

func NewWriter(cfg *config.Config, out io.Writer) (Writer, error) {
	switch cfg.Format {
	case config.FormatText, "":
		return &textWriter{out: out, palette: newPalette(out, cfg.Color)}, nil
	case config.FormatYAML:
		return &yamlWriter{out: out}, nil
	case config.FormatJSON:
		return &jsonWriter{enc: json.NewEncoder(out)}, nil
	}
	return nil, config.ErrFormat{Format: string(cfg.Format)}
}

type textWriter struct {
	out     io.Writer
	palette *palette
}

func (w *textWriter) Write(rec *decoder.Record, entry *Entry) error {
	if _, err := fmt.Fprintln(w.out, w.palette.render(rec, entry.Line)); err != nil {
		return err
	}
	if entry.Dump != "" {
		_, err := io.WriteString(w.out, strings.TrimRight(entry.Dump, "\n")+"\n")
		return err
	}
	return nil
}

// yamlWriter writes a stream of yaml documents.
type yamlWriter struct {
	out io.Writer
}

func (w *yamlWriter) Write(_ *decoder.Record, entry *Entry) error {
	data, err := yaml.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w.out, "---\n"); err != nil {
		return err
	}
	_, err = w.out.Write(data)
	return err
}

// jsonWriter writes one JSON object per line.
type jsonWriter struct {
	enc *json.Encoder
}

func (w *jsonWriter) Write(_ *decoder.Record, entry *Entry) error {
	return w.enc.Encode(entry)
}
