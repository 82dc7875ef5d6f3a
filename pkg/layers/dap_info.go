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
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"jinr.ru/greenlab/go-dapdebug/pkg/wire"
)

// DAPInfoID selects the information returned by DAP_Info.
type DAPInfoID uint8

const (
	DAPInfoVendorID              DAPInfoID = 0x01
	DAPInfoProductID             DAPInfoID = 0x02
	DAPInfoSerialNumber          DAPInfoID = 0x03
	DAPInfoFirmwareVersion       DAPInfoID = 0x04
	DAPInfoTargetVendor          DAPInfoID = 0x05
	DAPInfoTargetDeviceName      DAPInfoID = 0x06
	DAPInfoCapabilities          DAPInfoID = 0xf0
	DAPInfoTestDomainTimer       DAPInfoID = 0xf1
	DAPInfoTraceDomainManagement DAPInfoID = 0xf2
	DAPInfoSWOTraceBufferSize    DAPInfoID = 0xfd
	DAPInfoPacketCount           DAPInfoID = 0xfe
	DAPInfoPacketSize            DAPInfoID = 0xff
)

var dapInfoNames = map[DAPInfoID]string{
	DAPInfoVendorID:              "VendorID",
	DAPInfoProductID:             "ProductID",
	DAPInfoSerialNumber:          "Serial Number",
	DAPInfoFirmwareVersion:       "CMSIS-DAP FW Version",
	DAPInfoTargetVendor:          "Target Vendor",
	DAPInfoTargetDeviceName:      "Target Device Name",
	DAPInfoCapabilities:          "Capabilities",
	DAPInfoTestDomainTimer:       "Test Domain Timer",
	DAPInfoTraceDomainManagement: "Trace Domain Management",
	DAPInfoSWOTraceBufferSize:    "SWO Trace Buffer Size",
	DAPInfoPacketCount:           "Packet Count",
	DAPInfoPacketSize:            "Packet Size",
}

func (id DAPInfoID) String() string {
	if name, ok := dapInfoNames[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(id))
}

// DAPInfoRequest is the body of a DAP_Info request.
type DAPInfoRequest struct {
	layers.BaseLayer `json:"-"`
	ID               DAPInfoID
}

var DAPInfoRequestLayerType = gopacket.RegisterLayerType(DAPInfoRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_Info", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPInfoRequest{}, data, p)
	})})

func (i *DAPInfoRequest) LayerType() gopacket.LayerType {
	return DAPInfoRequestLayerType
}

func (i *DAPInfoRequest) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	r := wire.NewReader(data)
	id, err := r.ReadUint8()
	if err != nil {
		return truncated("DAP_Info", df, err)
	}
	i.ID = DAPInfoID(id)
	i.BaseLayer = layers.BaseLayer{Contents: data[:1], Payload: r.Rest()}
	return nil
}

func (i *DAPInfoRequest) Detail() string {
	return i.ID.String()
}

// DAPInfoValue is the value of a DAP_Info response: InfoByte, InfoShort or
// InfoText, chosen by the declared length alone.
type DAPInfoValue interface {
	String() string
}

// InfoByte is a one byte value.
type InfoByte uint8

func (v InfoByte) String() string {
	return strconv.Itoa(int(v))
}

// InfoShort is a little-endian two byte value.
type InfoShort uint16

func (v InfoShort) String() string {
	return strconv.Itoa(int(v))
}

// InfoText holds the raw bytes of a string value. They need not be valid
// text.
type InfoText []byte

// String returns the text without trailing NULs, or a hex dump if the
// bytes are not printable. Only an empty value renders as "".
func (v InfoText) String() string {
	if len(v) == 0 {
		return `""`
	}
	trimmed := bytes.TrimRight(v, "\x00")
	if len(trimmed) == 0 {
		return "0x" + hex.EncodeToString(v)
	}
	if !utf8.Valid(trimmed) {
		return "0x" + hex.EncodeToString(v)
	}
	for _, r := range string(trimmed) {
		if !unicode.IsPrint(r) {
			return "0x" + hex.EncodeToString(v)
		}
	}
	return string(trimmed)
}

func (v InfoText) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// DAPInfoResponse is the body of a DAP_Info response.
type DAPInfoResponse struct {
	layers.BaseLayer `json:"-"`
	Length           uint8
	Value            DAPInfoValue
}

var DAPInfoResponseLayerType = gopacket.RegisterLayerType(DAPInfoResponseLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_InfoResponse", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPInfoResponse{}, data, p)
	})})

func (i *DAPInfoResponse) LayerType() gopacket.LayerType {
	return DAPInfoResponseLayerType
}

// DecodeFromBytes reads the length byte and then the value it announces:
// 1 is a byte, 2 a little-endian short, anything else that many bytes of
// text (0 gives empty text).
func (i *DAPInfoResponse) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	r := wire.NewReader(data)
	n, err := r.ReadUint8()
	if err != nil {
		return truncated("DAP_InfoResponse", df, err)
	}
	i.Length = n
	switch n {
	case 1:
		v, err := r.ReadUint8()
		if err != nil {
			return truncated("DAP_InfoResponse", df, err)
		}
		i.Value = InfoByte(v)
	case 2:
		v, err := r.ReadUint16()
		if err != nil {
			return truncated("DAP_InfoResponse", df, err)
		}
		i.Value = InfoShort(v)
	default:
		v, err := r.ReadBytes(int(n))
		if err != nil {
			return truncated("DAP_InfoResponse", df, err)
		}
		i.Value = InfoText(v)
	}
	i.BaseLayer = layers.BaseLayer{Contents: data[:r.Offset()], Payload: r.Rest()}
	return nil
}

func (i *DAPInfoResponse) Detail() string {
	if i.Value == nil {
		return "?"
	}
	return i.Value.String()
}
