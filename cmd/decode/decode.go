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

package decode

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/gopacket"
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dapdebug/pkg/decoder"
	"jinr.ru/greenlab/go-dapdebug/pkg/layers"
	"jinr.ru/greenlab/go-dapdebug/pkg/log"
)

const (
	RequestOptionName  = "request"
	ResponseOptionName = "response"
	DumpOptionName     = "dump"
)

const (
	decodeExample = `
Decode a whole USBPcap record
# go-dapdebug decode 1b00...0200000000

Decode a CMSIS-DAP request payload
# go-dapdebug decode --request 05000108ff00
`
)

// ErrDecode returned when some of the arguments could not be decoded
type ErrDecode struct {
	Failed int
	Total  int
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("Failed to decode %d of %d arguments", e.Failed, e.Total)
}

// NewCommand creates the decode command. Every argument is decoded on its
// own and printed on its own line.
func NewCommand() *cobra.Command {
	var request, response, dump bool
	cmd := &cobra.Command{
		Use:     "decode HEX...",
		Short:   "Decode USBPcap records or CMSIS-DAP payloads given as hex",
		Example: decodeExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if request && response {
				return fmt.Errorf("--%s and --%s are mutually exclusive", RequestOptionName, ResponseOptionName)
			}
			first := layers.USBPcapLayerType
			if request {
				first = layers.CMSISDAPRequestLayerType
			} else if response {
				first = layers.CMSISDAPResponseLayerType
			}

			failed := 0
			out := cmd.OutOrStdout()
			for n, arg := range args {
				data, err := parseHex(arg)
				if err != nil {
					log.Error("Argument %d: %s", n+1, err)
					failed++
					continue
				}
				line, err := render(first, data)
				if err != nil {
					log.Error("Argument %d: %s", n+1, err)
					failed++
					continue
				}
				fmt.Fprintln(out, line)
				if dump {
					fmt.Fprint(out, gopacket.NewPacket(data, first, gopacket.Default).Dump())
				}
			}
			if failed > 0 {
				return ErrDecode{Failed: failed, Total: len(args)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&request, RequestOptionName, false, "Arguments are CMSIS-DAP request payloads")
	cmd.Flags().BoolVar(&response, ResponseOptionName, false, "Arguments are CMSIS-DAP response payloads")
	cmd.Flags().BoolVar(&dump, DumpOptionName, false, "Print the layer dump after every line")
	return cmd
}

func render(first gopacket.LayerType, data []byte) (string, error) {
	switch first {
	case layers.CMSISDAPRequestLayerType:
		m, err := layers.DecodeDAPMessage(layers.DAPRequest, data)
		if err != nil {
			return "", err
		}
		return decoder.RenderMessage(m), nil
	case layers.CMSISDAPResponseLayerType:
		m, err := layers.DecodeDAPMessage(layers.DAPResponse, data)
		if err != nil {
			return "", err
		}
		return decoder.RenderMessage(m), nil
	}
	rec, err := decoder.Decode(data)
	if err != nil {
		return "", err
	}
	return decoder.Render(rec), nil
}

// parseHex accepts hex with optional spaces, colons or a 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	return hex.DecodeString(s)
}
