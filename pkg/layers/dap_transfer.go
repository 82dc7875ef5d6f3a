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

package layers

import (
	"fmt"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"jinr.ru/greenlab/go-dapdebug/pkg/wire"
)

// transferField is a bit range of the DAP_Transfer request byte.
type transferField struct {
	shift uint8
	width uint8
}

func (f transferField) get(b uint8) uint8 {
	return (b >> f.shift) & (1<<f.width - 1)
}

func (f transferField) set(b uint8) bool {
	return f.get(b) != 0
}

// Transfer request byte. ValueMatch and MatchMask are only meaningful for
// reads; for writes those bits are padding.
var (
	transferAPnDP      = transferField{shift: 0, width: 1}
	transferRnW        = transferField{shift: 1, width: 1}
	transferRegister   = transferField{shift: 2, width: 2}
	transferValueMatch = transferField{shift: 4, width: 1}
	transferMatchMask  = transferField{shift: 5, width: 1}
	transferTimeStamp  = transferField{shift: 7, width: 1}
)

// DAPTransfer is one transfer of a DAP_Transfer request.
//
// A write carries Value. A read carries ValueMatchRequested and
// MatchMaskRequested, and MatchValue/MatchMask when the respective flag is
// set.
type DAPTransfer struct {
	Request             uint8 // raw request byte
	TimeStamp           bool
	Register            uint8 // A[3:2]
	APnDP               bool
	RnW                 bool
	ValueMatchRequested *bool   `json:",omitempty"`
	MatchMaskRequested  *bool   `json:",omitempty"`
	Value               *uint16 `json:",omitempty"`
	MatchValue          *uint16 `json:",omitempty"`
	MatchMask           *uint16 `json:",omitempty"`
}

// Address returns the register address A[3:0].
func (t *DAPTransfer) Address() uint8 {
	return t.Register << 2
}

func (t *DAPTransfer) decode(r *wire.Reader) error {
	req, err := r.ReadUint8()
	if err != nil {
		return err
	}
	// The whole byte is read first: RnW decides how bits 4 and 5 are read.
	*t = DAPTransfer{
		Request:   req,
		TimeStamp: transferTimeStamp.set(req),
		Register:  transferRegister.get(req),
		APnDP:     transferAPnDP.set(req),
		RnW:       transferRnW.set(req),
	}
	if !t.RnW {
		v, err := r.ReadUint16()
		if err != nil {
			return err
		}
		t.Value = &v
		return nil
	}

	valueMatch := transferValueMatch.set(req)
	matchMask := transferMatchMask.set(req)
	t.ValueMatchRequested = &valueMatch
	t.MatchMaskRequested = &matchMask
	if valueMatch {
		v, err := r.ReadUint16()
		if err != nil {
			return err
		}
		t.MatchValue = &v
	}
	if matchMask {
		v, err := r.ReadUint16()
		if err != nil {
			return err
		}
		t.MatchMask = &v
	}
	return nil
}

// String renders e.g. "AP W A=0x4 0x1234" or "DP R A=0xc match=0x0001 mask=0x00ff ts".
func (t *DAPTransfer) String() string {
	var sb strings.Builder
	port := "DP"
	if t.APnDP {
		port = "AP"
	}
	op := "W"
	if t.RnW {
		op = "R"
	}
	fmt.Fprintf(&sb, "%s %s A=0x%x", port, op, t.Address())
	if t.Value != nil {
		fmt.Fprintf(&sb, " 0x%04x", *t.Value)
	}
	if t.MatchValue != nil {
		fmt.Fprintf(&sb, " match=0x%04x", *t.MatchValue)
	}
	if t.MatchMask != nil {
		fmt.Fprintf(&sb, " mask=0x%04x", *t.MatchMask)
	}
	if t.TimeStamp {
		sb.WriteString(" ts")
	}
	return sb.String()
}

// DAPTransferRequest is the body of a DAP_Transfer request.
type DAPTransferRequest struct {
	layers.BaseLayer `json:"-"`
	Index            uint8
	Count            uint8
	Transfers        []DAPTransfer
}

var DAPTransferRequestLayerType = gopacket.RegisterLayerType(DAPTransferRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_Transfer", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPTransferRequest{}, data, p)
	})})

func (t *DAPTransferRequest) LayerType() gopacket.LayerType {
	return DAPTransferRequestLayerType
}

// DecodeFromBytes decodes the DAP index, the transfer count and exactly
// Count transfers. A transfer cut short fails the whole request.
func (t *DAPTransferRequest) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	r := wire.NewReader(data)
	var err error
	if t.Index, err = r.ReadUint8(); err != nil {
		return truncated("DAP_Transfer", df, err)
	}
	if t.Count, err = r.ReadUint8(); err != nil {
		return truncated("DAP_Transfer", df, err)
	}
	transfers := make([]DAPTransfer, t.Count)
	for n := range transfers {
		if err := transfers[n].decode(r); err != nil {
			t.Transfers = nil
			return truncated(fmt.Sprintf("DAP_Transfer[%d]", n), df, err)
		}
	}
	t.Transfers = transfers
	t.BaseLayer = layers.BaseLayer{Contents: data[:r.Offset()], Payload: r.Rest()}
	return nil
}

func (t *DAPTransferRequest) Detail() string {
	parts := make([]string, len(t.Transfers))
	for n := range t.Transfers {
		parts[n] = t.Transfers[n].String()
	}
	return fmt.Sprintf("dap=%d n=%d [%s]", t.Index, t.Count, strings.Join(parts, ", "))
}
