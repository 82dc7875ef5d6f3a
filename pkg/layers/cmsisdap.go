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

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"jinr.ru/greenlab/go-dapdebug/pkg/log"
)

// DAPCommand is the one-byte command id that starts every CMSIS-DAP packet.
// Requests and responses share the id space.
// https://arm-software.github.io/CMSIS_5/DAP/html/group__DAP__Commands__gr.html
type DAPCommand uint8

const (
	DAPCommandInfo              DAPCommand = 0x00
	DAPCommandHostStatus        DAPCommand = 0x01
	DAPCommandConnect           DAPCommand = 0x02
	DAPCommandDisconnect        DAPCommand = 0x03
	DAPCommandTransferConfigure DAPCommand = 0x04
	DAPCommandTransfer          DAPCommand = 0x05
	DAPCommandTransferBlock     DAPCommand = 0x06
	DAPCommandTransferAbort     DAPCommand = 0x07
	DAPCommandWriteAbort        DAPCommand = 0x08
	DAPCommandDelay             DAPCommand = 0x09
	DAPCommandResetTarget       DAPCommand = 0x0a
	DAPCommandSWJPins           DAPCommand = 0x10
	DAPCommandSWJClock          DAPCommand = 0x11
	DAPCommandSWJSequence       DAPCommand = 0x12
	DAPCommandSWDConfigure      DAPCommand = 0x13
	DAPCommandJTAGSequence      DAPCommand = 0x14
	DAPCommandJTAGConfigure     DAPCommand = 0x15
	DAPCommandJTAGIDCode        DAPCommand = 0x16
	DAPCommandVendor0           DAPCommand = 0x80
)

var dapCommandNames = map[DAPCommand]string{
	DAPCommandInfo:              "Info",
	DAPCommandHostStatus:        "HostStatus",
	DAPCommandConnect:           "Connect",
	DAPCommandDisconnect:        "Disconnect",
	DAPCommandTransferConfigure: "TransferConfigure",
	DAPCommandTransfer:          "Transfer",
	DAPCommandTransferBlock:     "TransferBlock",
	DAPCommandTransferAbort:     "TransferAbort",
	DAPCommandWriteAbort:        "WriteAbort",
	DAPCommandDelay:             "Delay",
	DAPCommandResetTarget:       "ResetTarget",
	DAPCommandSWJPins:           "SWJ_Pins",
	DAPCommandSWJClock:          "SWJ_Clock",
	DAPCommandSWJSequence:       "SWJ_Sequence",
	DAPCommandSWDConfigure:      "SWD_Configure",
	DAPCommandJTAGSequence:      "JTAG_Sequence",
	DAPCommandJTAGConfigure:     "JTAG_Configure",
	DAPCommandJTAGIDCode:        "JTAG_IDCODE",
	DAPCommandVendor0:           "Vendor0",
}

// String returns the command name, or its number when unnamed.
func (c DAPCommand) String() string {
	if name, ok := dapCommandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(c))
}

type DAPDirection uint8

const (
	DAPRequest DAPDirection = iota
	DAPResponse
)

func (d DAPDirection) String() string {
	if d == DAPResponse {
		return "res"
	}
	return "req"
}

// DAPBody is the command specific part of a CMSIS-DAP packet.
type DAPBody interface {
	gopacket.Layer
	Detailer
	DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error
}

// DAPBodyMetadata describes how a command body is decoded in one direction.
// A zero entry means the body is opaque.
type DAPBodyMetadata struct {
	Name      string
	LayerType gopacket.LayerType
	New       func() DAPBody
}

// DAPRequestMetadata and DAPResponseMetadata are indexed by command id.
// They are filled once in init and only read afterwards.
var (
	DAPRequestMetadata  [256]DAPBodyMetadata
	DAPResponseMetadata [256]DAPBodyMetadata
)

func init() {
	initDAPRequestBodies()
	initDAPResponseBodies()
}

func initDAPRequestBodies() {
	DAPRequestMetadata[DAPCommandInfo] = DAPBodyMetadata{Name: "DAP_Info", LayerType: DAPInfoRequestLayerType,
		New: func() DAPBody { return &DAPInfoRequest{} }}
	DAPRequestMetadata[DAPCommandHostStatus] = DAPBodyMetadata{Name: "DAP_HostStatus", LayerType: DAPHostStatusRequestLayerType,
		New: func() DAPBody { return &DAPHostStatusRequest{} }}
	DAPRequestMetadata[DAPCommandConnect] = DAPBodyMetadata{Name: "DAP_Connect", LayerType: DAPConnectRequestLayerType,
		New: func() DAPBody { return &DAPConnectRequest{} }}
	DAPRequestMetadata[DAPCommandTransferConfigure] = DAPBodyMetadata{Name: "DAP_TransferConfigure", LayerType: DAPTransferConfigureRequestLayerType,
		New: func() DAPBody { return &DAPTransferConfigureRequest{} }}
	DAPRequestMetadata[DAPCommandTransfer] = DAPBodyMetadata{Name: "DAP_Transfer", LayerType: DAPTransferRequestLayerType,
		New: func() DAPBody { return &DAPTransferRequest{} }}
	DAPRequestMetadata[DAPCommandWriteAbort] = DAPBodyMetadata{Name: "DAP_WriteAbort", LayerType: DAPWriteAbortRequestLayerType,
		New: func() DAPBody { return &DAPWriteAbortRequest{} }}
	DAPRequestMetadata[DAPCommandDelay] = DAPBodyMetadata{Name: "DAP_Delay", LayerType: DAPDelayRequestLayerType,
		New: func() DAPBody { return &DAPDelayRequest{} }}
	DAPRequestMetadata[DAPCommandSWJClock] = DAPBodyMetadata{Name: "DAP_SWJ_Clock", LayerType: DAPSWJClockRequestLayerType,
		New: func() DAPBody { return &DAPSWJClockRequest{} }}
	DAPRequestMetadata[DAPCommandSWDConfigure] = DAPBodyMetadata{Name: "DAP_SWD_Configure", LayerType: DAPSWDConfigureRequestLayerType,
		New: func() DAPBody { return &DAPSWDConfigureRequest{} }}
}

func initDAPResponseBodies() {
	DAPResponseMetadata[DAPCommandInfo] = DAPBodyMetadata{Name: "DAP_InfoResponse", LayerType: DAPInfoResponseLayerType,
		New: func() DAPBody { return &DAPInfoResponse{} }}
	DAPResponseMetadata[DAPCommandConnect] = DAPBodyMetadata{Name: "DAP_ConnectResponse", LayerType: DAPConnectResponseLayerType,
		New: func() DAPBody { return &DAPConnectResponse{} }}
	DAPResponseMetadata[DAPCommandResetTarget] = DAPBodyMetadata{Name: "DAP_ResetTargetResponse", LayerType: DAPResetTargetResponseLayerType,
		New: func() DAPBody { return &DAPResetTargetResponse{} }}

	for _, cmd := range []DAPCommand{
		DAPCommandHostStatus,
		DAPCommandDisconnect,
		DAPCommandTransferConfigure,
		DAPCommandTransferAbort,
		DAPCommandWriteAbort,
		DAPCommandDelay,
		DAPCommandSWJClock,
		DAPCommandSWJSequence,
		DAPCommandSWDConfigure,
		DAPCommandJTAGConfigure,
	} {
		DAPResponseMetadata[cmd] = DAPBodyMetadata{Name: "DAP_StatusResponse", LayerType: DAPStatusResponseLayerType,
			New: func() DAPBody { return &DAPStatusResponse{} }}
	}
}

func dapBodyMetadata(dir DAPDirection, cmd DAPCommand) DAPBodyMetadata {
	if dir == DAPResponse {
		return DAPResponseMetadata[cmd]
	}
	return DAPRequestMetadata[cmd]
}

// CMSISDAP is a CMSIS-DAP packet carried by an interrupt transfer.
// Body is nil when no decoder is registered for Command in Direction;
// LayerPayload then holds the opaque command bytes.
type CMSISDAP struct {
	layers.BaseLayer `json:"-"`
	Direction        DAPDirection
	Command          DAPCommand
	Body             DAPBody `json:",omitempty"`
}

var CMSISDAPRequestLayerType = gopacket.RegisterLayerType(CMSISDAPRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "CMSISDAPRequest", Decoder: gopacket.DecodeFunc(decodeCMSISDAPRequest)})

var CMSISDAPResponseLayerType = gopacket.RegisterLayerType(CMSISDAPResponseLayerNum,
	gopacket.LayerTypeMetadata{Name: "CMSISDAPResponse", Decoder: gopacket.DecodeFunc(decodeCMSISDAPResponse)})

func (m *CMSISDAP) LayerType() gopacket.LayerType {
	if m.Direction == DAPResponse {
		return CMSISDAPResponseLayerType
	}
	return CMSISDAPRequestLayerType
}

// NextLayerType returns the body layer type, or Payload for opaque commands.
func (m *CMSISDAP) NextLayerType() gopacket.LayerType {
	if m.Body != nil {
		return m.Body.LayerType()
	}
	return gopacket.LayerTypePayload
}

// DecodeFromBytes reads the command id and decodes the body registered for
// it in m.Direction. An unregistered command is not an error.
func (m *CMSISDAP) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 1 {
		df.SetTruncated()
		return ErrTruncated{Layer: "CMSIS-DAP", Want: 1, Have: 0}
	}
	m.Command = DAPCommand(data[0])
	m.BaseLayer = layers.BaseLayer{
		Contents: data[:1],
		Payload:  data[1:],
	}
	m.Body = nil

	meta := dapBodyMetadata(m.Direction, m.Command)
	if meta.New == nil {
		log.Debug("CMSIS-DAP %s: no body decoder for command %s", m.Direction, m.Command)
		return nil
	}
	body := meta.New()
	if err := body.DecodeFromBytes(data[1:], df); err != nil {
		return err
	}
	m.Body = body
	return nil
}

// Detail renders the command fragment of a record line.
func (m *CMSISDAP) Detail() string {
	return fmt.Sprintf("CMSIS-DAP %s %s", m.Direction, m.Command)
}

// DecodeDAPMessage decodes a CMSIS-DAP packet travelling in dir.
func DecodeDAPMessage(dir DAPDirection, data []byte) (*CMSISDAP, error) {
	m := &CMSISDAP{Direction: dir}
	if err := m.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeCMSISDAP(dir DAPDirection, data []byte, p gopacket.PacketBuilder) error {
	m := &CMSISDAP{Direction: dir}
	if err := m.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(m)
	if m.Body != nil {
		p.AddLayer(m.Body)
	}
	// opaque command bytes, or report padding after a decoded body
	return p.NextDecoder(gopacket.LayerTypePayload)
}

func decodeCMSISDAPRequest(data []byte, p gopacket.PacketBuilder) error {
	return decodeCMSISDAP(DAPRequest, data, p)
}

func decodeCMSISDAPResponse(data []byte, p gopacket.PacketBuilder) error {
	return decodeCMSISDAP(DAPResponse, data, p)
}

// decodeDAPBody is the gopacket entry point for a body decoded on its own.
func decodeDAPBody(body DAPBody, data []byte, p gopacket.PacketBuilder) error {
	if err := body.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(body)
	return p.NextDecoder(gopacket.LayerTypePayload)
}
