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

// Package decoder turns one USBPcap capture record into a structured
// Record and renders it as a single line.
package decoder

import (
	"strings"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-dapdebug/pkg/layers"
)

// Separator joins the fragments of a rendered line.
const Separator = " | "

// ErrNoCapture returned when a packet carries no USBPcap layer
type ErrNoCapture struct{}

func (e ErrNoCapture) Error() string {
	return "Packet has no USBPcap layer"
}

// Record is a decoded capture record. Message is nil when the record is
// not dispatched to the CMSIS-DAP layer.
type Record struct {
	Capture *layers.USBPcap
	Message *layers.CMSISDAP `json:",omitempty"`
}

// Layers returns the decoded layers, outermost first.
func (r *Record) Layers() []gopacket.Layer {
	if r == nil || r.Capture == nil {
		return nil
	}
	ls := []gopacket.Layer{r.Capture}
	if r.Message != nil {
		ls = append(ls, r.Message)
		if r.Message.Body != nil {
			ls = append(ls, r.Message.Body)
		}
	}
	return ls
}

// ShouldDispatch reports whether the payload of c is a CMSIS-DAP packet.
func ShouldDispatch(c *layers.USBPcap) bool {
	return c.TransferType == layers.USBTransferInterrupt
}

// MessageDirection maps the USB direction of a transfer to the CMSIS-DAP
// direction: OUT carries requests, IN carries responses.
func MessageDirection(d layers.USBDirection) layers.DAPDirection {
	if d == layers.USBDirectionIn {
		return layers.DAPResponse
	}
	return layers.DAPRequest
}

// Decode decodes one complete capture record. Interrupt transfers with a
// non-empty body are decoded further as CMSIS-DAP. Any error is a
// layers.ErrTruncated.
func Decode(data []byte) (*Record, error) {
	capture := &layers.USBPcap{}
	if err := capture.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	rec := &Record{Capture: capture}
	// interrupt IN submissions carry no data
	if !ShouldDispatch(capture) || len(capture.Body()) == 0 {
		return rec, nil
	}
	m, err := layers.DecodeDAPMessage(MessageDirection(capture.Direction), capture.Body())
	if err != nil {
		return nil, err
	}
	rec.Message = m
	return rec, nil
}

// FromPacket collects the record from a packet decoded by gopacket
// starting at layers.LinkTypeUSBPcap or layers.USBPcapLayerType.
func FromPacket(p gopacket.Packet) (*Record, error) {
	if el := p.ErrorLayer(); el != nil {
		return nil, el.Error()
	}
	l := p.Layer(layers.USBPcapLayerType)
	if l == nil {
		return nil, ErrNoCapture{}
	}
	rec := &Record{Capture: l.(*layers.USBPcap)}
	for _, lt := range []gopacket.LayerType{layers.CMSISDAPRequestLayerType, layers.CMSISDAPResponseLayerType} {
		if l := p.Layer(lt); l != nil {
			rec.Message = l.(*layers.CMSISDAP)
		}
	}
	return rec, nil
}

// Result is the outcome of decoding one frame of a batch.
type Result struct {
	Record *Record
	Err    error
}

// DecodeBatch decodes every frame on its own. A failed frame does not
// affect the others.
func DecodeBatch(frames [][]byte) []Result {
	results := make([]Result, len(frames))
	for i, frame := range frames {
		results[i].Record, results[i].Err = Decode(frame)
	}
	return results
}

// Render returns the one-line summary of rec.
func Render(rec *Record) string {
	return RenderLayers(rec.Layers())
}

// RenderMessage returns the one-line summary of a CMSIS-DAP packet.
func RenderMessage(m *layers.CMSISDAP) string {
	if m == nil {
		return RenderLayers(nil)
	}
	ls := []gopacket.Layer{m}
	if m.Body != nil {
		ls = append(ls, m.Body)
	}
	return RenderLayers(ls)
}

// RenderLayers joins the Detail fragments of ls. Layers without a Detail
// method, such as gopacket payloads, are skipped.
func RenderLayers(ls []gopacket.Layer) string {
	parts := make([]string, 0, len(ls))
	for _, l := range ls {
		if d, ok := l.(layers.Detailer); ok {
			parts = append(parts, d.Detail())
		}
	}
	if len(parts) == 0 {
		return "?"
	}
	return strings.Join(parts, Separator)
}
