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
	"jinr.ru/greenlab/go-dapdebug/pkg/wire"
)

const (
	// LinkTypeUSBPcap is the pcap DLT written by USBPcap
	LinkTypeUSBPcap layers.LinkType = 249
	// USBPcapHeaderLength is the size of the fixed part of every USBPcap record header
	USBPcapHeaderLength = 27
)

func init() {
	layers.LinkTypeMetadata[LinkTypeUSBPcap] = layers.EnumMetadata{
		DecodeWith: gopacket.DecodeFunc(decodeUSBPcap),
		Name:       "USBPcap",
		LayerType:  USBPcapLayerType,
	}
}

type USBDirection uint8

const (
	USBDirectionOut USBDirection = iota
	USBDirectionIn
)

func (d USBDirection) String() string {
	if d == USBDirectionIn {
		return "IN"
	}
	return "OUT"
}

type USBTransferType uint8

const (
	USBTransferIsochronous USBTransferType = iota
	USBTransferInterrupt
	USBTransferControl
	USBTransferBulk
)

var usbTransferTypeNames = [...]string{"isochronous", "interrupt", "control", "bulk"}

func (t USBTransferType) String() string {
	if int(t) < len(usbTransferTypeNames) {
		return usbTransferTypeNames[t]
	}
	return fmt.Sprintf("transfer(%d)", uint8(t))
}

// USBControlStage is the first extra header byte of a control transfer record
type USBControlStage uint8

const (
	USBControlStageSetup USBControlStage = iota
	USBControlStageData
	USBControlStageStatus
	USBControlStageComplete
)

var usbControlStageNames = [...]string{"setup", "data", "status", "complete"}

func (s USBControlStage) String() string {
	if int(s) < len(usbControlStageNames) {
		return usbControlStageNames[s]
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// USBPcap is one record of a USBPcap capture (http://desowin.org/usbpcap/captureformat.html).
// Layout, little-endian:
//
//	headerLen:u16 irpId:u64 status:i32 function:u16 info:u8 bus:u16 device:u16
//	endpoint:u8 (bit7 direction) transfer:u8 bodyLength:u32
//
// followed by headerLen-27 transfer specific header bytes and bodyLength
// bytes of payload. Anything after the payload is capture padding.
type USBPcap struct {
	layers.BaseLayer `json:"-"`
	HeaderLength     uint16
	IRPID            uint64
	Status           int32
	Function         uint16
	Info             uint8
	Bus              uint16
	Device           uint16
	Direction        USBDirection
	Endpoint         uint8
	TransferType     USBTransferType
	BodyLength       uint32
	HeaderExtra      []byte          `json:",omitempty"`
	Stage            USBControlStage `json:",omitempty"`
	HasStage         bool            `json:",omitempty"`
}

var USBPcapLayerType = gopacket.RegisterLayerType(USBPcapLayerNum,
	gopacket.LayerTypeMetadata{Name: "USBPcap", Decoder: gopacket.DecodeFunc(decodeUSBPcap)})

func (u *USBPcap) LayerType() gopacket.LayerType {
	return USBPcapLayerType
}

func (u *USBPcap) CanDecode() gopacket.LayerClass {
	return USBPcapLayerType
}

// Body returns the transfer payload, exactly BodyLength bytes.
func (u *USBPcap) Body() []byte {
	return u.Payload
}

// EndpointAddress returns the endpoint byte as it appears on the wire.
func (u *USBPcap) EndpointAddress() uint8 {
	return uint8(u.Direction)<<7 | u.Endpoint
}

// NextLayerType selects the CMSIS-DAP layer for interrupt transfers: OUT
// carries requests, IN carries responses. Everything else is opaque.
func (u *USBPcap) NextLayerType() gopacket.LayerType {
	if u.TransferType != USBTransferInterrupt {
		return gopacket.LayerTypePayload
	}
	if u.Direction == USBDirectionIn {
		return CMSISDAPResponseLayerType
	}
	return CMSISDAPRequestLayerType
}

// DecodeFromBytes decodes one complete USBPcap record.
func (u *USBPcap) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < USBPcapHeaderLength {
		df.SetTruncated()
		return ErrTruncated{Layer: "USBPcap", Want: USBPcapHeaderLength, Have: len(data)}
	}
	r := wire.NewReader(data)
	var err error
	fail := func(err error) error {
		return truncated("USBPcap", df, err)
	}
	if u.HeaderLength, err = r.ReadUint16(); err != nil {
		return fail(err)
	}
	if u.IRPID, err = r.ReadUint64(); err != nil {
		return fail(err)
	}
	status, err := r.ReadUint32()
	if err != nil {
		return fail(err)
	}
	u.Status = int32(status)
	if u.Function, err = r.ReadUint16(); err != nil {
		return fail(err)
	}
	if u.Info, err = r.ReadUint8(); err != nil {
		return fail(err)
	}
	if u.Bus, err = r.ReadUint16(); err != nil {
		return fail(err)
	}
	if u.Device, err = r.ReadUint16(); err != nil {
		return fail(err)
	}
	if u.Endpoint, err = r.ReadBits(7); err != nil {
		return fail(err)
	}
	dir, err := r.ReadBits(1)
	if err != nil {
		return fail(err)
	}
	u.Direction = USBDirection(dir)
	transfer, err := r.ReadUint8()
	if err != nil {
		return fail(err)
	}
	u.TransferType = USBTransferType(transfer)
	if u.BodyLength, err = r.ReadUint32(); err != nil {
		return fail(err)
	}

	bodyStart := int(u.HeaderLength)
	if bodyStart < USBPcapHeaderLength {
		bodyStart = USBPcapHeaderLength
	}
	if uint64(len(data)) < uint64(bodyStart)+uint64(u.BodyLength) {
		df.SetTruncated()
		return ErrTruncated{Layer: "USBPcap", Offset: bodyStart, Want: int(u.BodyLength), Have: len(data) - bodyStart}
	}
	end := bodyStart + int(u.BodyLength)

	u.HeaderExtra = nil
	u.HasStage = false
	u.Stage = 0
	if bodyStart > USBPcapHeaderLength {
		u.HeaderExtra = data[USBPcapHeaderLength:bodyStart]
		if u.TransferType == USBTransferControl {
			u.Stage = USBControlStage(u.HeaderExtra[0])
			u.HasStage = true
		}
	}
	if end < len(data) {
		log.Debug("USBPcap: dropping %d bytes of capture padding", len(data)-end)
	}

	u.BaseLayer = layers.BaseLayer{
		Contents: data[:bodyStart],
		Payload:  data[bodyStart:end],
	}
	return nil
}

// Detail renders the capture fragment of a record line.
func (u *USBPcap) Detail() string {
	return fmt.Sprintf("USB ep=%d %s", u.Endpoint, u.Direction)
}

func decodeUSBPcap(data []byte, p gopacket.PacketBuilder) error {
	u := &USBPcap{}
	if err := u.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(u)
	return p.NextDecoder(u.NextLayerType())
}
