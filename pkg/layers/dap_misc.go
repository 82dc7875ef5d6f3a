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

	"jinr.ru/greenlab/go-dapdebug/pkg/wire"
)

// Fixed layout command bodies. Each one is a handful of little-endian
// fields read in order.

// DAPStatus is the status byte most responses start with.
type DAPStatus uint8

const (
	DAPStatusOK    DAPStatus = 0x00
	DAPStatusError DAPStatus = 0xff
)

func (s DAPStatus) String() string {
	switch s {
	case DAPStatusOK:
		return "OK"
	case DAPStatusError:
		return "ERROR"
	}
	return fmt.Sprintf("status(0x%02x)", uint8(s))
}

// DAPPort is the debug port mode of DAP_Connect.
type DAPPort uint8

const (
	DAPPortDefault DAPPort = iota
	DAPPortSWD
	DAPPortJTAG
)

func (p DAPPort) String() string {
	switch p {
	case DAPPortDefault:
		return "Default"
	case DAPPortSWD:
		return "SWD"
	case DAPPortJTAG:
		return "JTAG"
	}
	return fmt.Sprintf("port(%d)", uint8(p))
}

// fixedBody decodes fields in order and sets Contents/Payload of base.
func fixedBody(name string, base *layers.BaseLayer, data []byte, df gopacket.DecodeFeedback, read func(r *wire.Reader) error) error {
	r := wire.NewReader(data)
	if err := read(r); err != nil {
		return truncated(name, df, err)
	}
	*base = layers.BaseLayer{Contents: data[:r.Offset()], Payload: r.Rest()}
	return nil
}

type DAPHostStatusRequest struct {
	layers.BaseLayer `json:"-"`
	Type             uint8 // 0 connect LED, 1 running LED
	Status           uint8 // 0 off, 1 on
}

var DAPHostStatusRequestLayerType = gopacket.RegisterLayerType(DAPHostStatusRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_HostStatus", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPHostStatusRequest{}, data, p)
	})})

func (h *DAPHostStatusRequest) LayerType() gopacket.LayerType { return DAPHostStatusRequestLayerType }

func (h *DAPHostStatusRequest) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_HostStatus", &h.BaseLayer, data, df, func(r *wire.Reader) (err error) {
		if h.Type, err = r.ReadUint8(); err != nil {
			return err
		}
		h.Status, err = r.ReadUint8()
		return err
	})
}

func (h *DAPHostStatusRequest) Detail() string {
	led := "connect"
	if h.Type == 1 {
		led = "running"
	} else if h.Type != 0 {
		led = fmt.Sprintf("type(%d)", h.Type)
	}
	state := "off"
	if h.Status != 0 {
		state = "on"
	}
	return fmt.Sprintf("%s=%s", led, state)
}

type DAPConnectRequest struct {
	layers.BaseLayer `json:"-"`
	Port             DAPPort
}

var DAPConnectRequestLayerType = gopacket.RegisterLayerType(DAPConnectRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_Connect", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPConnectRequest{}, data, p)
	})})

func (c *DAPConnectRequest) LayerType() gopacket.LayerType { return DAPConnectRequestLayerType }

func (c *DAPConnectRequest) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_Connect", &c.BaseLayer, data, df, func(r *wire.Reader) error {
		port, err := r.ReadUint8()
		c.Port = DAPPort(port)
		return err
	})
}

func (c *DAPConnectRequest) Detail() string {
	return c.Port.String()
}

// DAPConnectResponse reports the port that was initialized; 0 means the
// connect failed.
type DAPConnectResponse struct {
	layers.BaseLayer `json:"-"`
	Port             DAPPort
}

var DAPConnectResponseLayerType = gopacket.RegisterLayerType(DAPConnectResponseLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_ConnectResponse", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPConnectResponse{}, data, p)
	})})

func (c *DAPConnectResponse) LayerType() gopacket.LayerType { return DAPConnectResponseLayerType }

func (c *DAPConnectResponse) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_ConnectResponse", &c.BaseLayer, data, df, func(r *wire.Reader) error {
		port, err := r.ReadUint8()
		c.Port = DAPPort(port)
		return err
	})
}

func (c *DAPConnectResponse) Detail() string {
	if c.Port == DAPPortDefault {
		return "failed"
	}
	return c.Port.String()
}

type DAPTransferConfigureRequest struct {
	layers.BaseLayer `json:"-"`
	IdleCycles       uint8
	WaitRetry        uint16
	MatchRetry       uint16
}

var DAPTransferConfigureRequestLayerType = gopacket.RegisterLayerType(DAPTransferConfigureRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_TransferConfigure", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPTransferConfigureRequest{}, data, p)
	})})

func (c *DAPTransferConfigureRequest) LayerType() gopacket.LayerType {
	return DAPTransferConfigureRequestLayerType
}

func (c *DAPTransferConfigureRequest) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_TransferConfigure", &c.BaseLayer, data, df, func(r *wire.Reader) (err error) {
		if c.IdleCycles, err = r.ReadUint8(); err != nil {
			return err
		}
		if c.WaitRetry, err = r.ReadUint16(); err != nil {
			return err
		}
		c.MatchRetry, err = r.ReadUint16()
		return err
	})
}

func (c *DAPTransferConfigureRequest) Detail() string {
	return fmt.Sprintf("idle=%d wait=%d match=%d", c.IdleCycles, c.WaitRetry, c.MatchRetry)
}

type DAPWriteAbortRequest struct {
	layers.BaseLayer `json:"-"`
	Index            uint8
	Abort            uint32
}

var DAPWriteAbortRequestLayerType = gopacket.RegisterLayerType(DAPWriteAbortRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_WriteAbort", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPWriteAbortRequest{}, data, p)
	})})

func (w *DAPWriteAbortRequest) LayerType() gopacket.LayerType { return DAPWriteAbortRequestLayerType }

func (w *DAPWriteAbortRequest) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_WriteAbort", &w.BaseLayer, data, df, func(r *wire.Reader) (err error) {
		if w.Index, err = r.ReadUint8(); err != nil {
			return err
		}
		w.Abort, err = r.ReadUint32()
		return err
	})
}

func (w *DAPWriteAbortRequest) Detail() string {
	return fmt.Sprintf("dap=%d abort=0x%08x", w.Index, w.Abort)
}

type DAPDelayRequest struct {
	layers.BaseLayer `json:"-"`
	Delay            uint16 // microseconds
}

var DAPDelayRequestLayerType = gopacket.RegisterLayerType(DAPDelayRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_Delay", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPDelayRequest{}, data, p)
	})})

func (d *DAPDelayRequest) LayerType() gopacket.LayerType { return DAPDelayRequestLayerType }

func (d *DAPDelayRequest) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_Delay", &d.BaseLayer, data, df, func(r *wire.Reader) (err error) {
		d.Delay, err = r.ReadUint16()
		return err
	})
}

func (d *DAPDelayRequest) Detail() string {
	return fmt.Sprintf("%dus", d.Delay)
}

type DAPSWJClockRequest struct {
	layers.BaseLayer `json:"-"`
	Clock            uint32 // Hz
}

var DAPSWJClockRequestLayerType = gopacket.RegisterLayerType(DAPSWJClockRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_SWJ_Clock", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPSWJClockRequest{}, data, p)
	})})

func (c *DAPSWJClockRequest) LayerType() gopacket.LayerType { return DAPSWJClockRequestLayerType }

func (c *DAPSWJClockRequest) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_SWJ_Clock", &c.BaseLayer, data, df, func(r *wire.Reader) (err error) {
		c.Clock, err = r.ReadUint32()
		return err
	})
}

func (c *DAPSWJClockRequest) Detail() string {
	return fmt.Sprintf("%dHz", c.Clock)
}

type DAPSWDConfigureRequest struct {
	layers.BaseLayer `json:"-"`
	Configuration    uint8
}

var DAPSWDConfigureRequestLayerType = gopacket.RegisterLayerType(DAPSWDConfigureRequestLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_SWD_Configure", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPSWDConfigureRequest{}, data, p)
	})})

func (c *DAPSWDConfigureRequest) LayerType() gopacket.LayerType {
	return DAPSWDConfigureRequestLayerType
}

func (c *DAPSWDConfigureRequest) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_SWD_Configure", &c.BaseLayer, data, df, func(r *wire.Reader) (err error) {
		c.Configuration, err = r.ReadUint8()
		return err
	})
}

// Turnaround returns the turnaround period in clock cycles (1..4).
func (c *DAPSWDConfigureRequest) Turnaround() int {
	return int(c.Configuration&0x03) + 1
}

// DataPhase reports whether a data phase is generated on WAIT/FAULT.
func (c *DAPSWDConfigureRequest) DataPhase() bool {
	return c.Configuration&0x04 != 0
}

func (c *DAPSWDConfigureRequest) Detail() string {
	return fmt.Sprintf("turnaround=%d dataphase=%t", c.Turnaround(), c.DataPhase())
}

// DAPStatusResponse is the body of every response that carries only a
// status byte.
type DAPStatusResponse struct {
	layers.BaseLayer `json:"-"`
	Status           DAPStatus
}

var DAPStatusResponseLayerType = gopacket.RegisterLayerType(DAPStatusResponseLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_StatusResponse", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPStatusResponse{}, data, p)
	})})

func (s *DAPStatusResponse) LayerType() gopacket.LayerType { return DAPStatusResponseLayerType }

func (s *DAPStatusResponse) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_StatusResponse", &s.BaseLayer, data, df, func(r *wire.Reader) error {
		status, err := r.ReadUint8()
		s.Status = DAPStatus(status)
		return err
	})
}

func (s *DAPStatusResponse) Detail() string {
	return s.Status.String()
}

type DAPResetTargetResponse struct {
	layers.BaseLayer `json:"-"`
	Status           DAPStatus
	Execute          uint8 // 1 if a device specific reset sequence is implemented
}

var DAPResetTargetResponseLayerType = gopacket.RegisterLayerType(DAPResetTargetResponseLayerNum,
	gopacket.LayerTypeMetadata{Name: "DAP_ResetTargetResponse", Decoder: gopacket.DecodeFunc(func(data []byte, p gopacket.PacketBuilder) error {
		return decodeDAPBody(&DAPResetTargetResponse{}, data, p)
	})})

func (t *DAPResetTargetResponse) LayerType() gopacket.LayerType {
	return DAPResetTargetResponseLayerType
}

func (t *DAPResetTargetResponse) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	return fixedBody("DAP_ResetTargetResponse", &t.BaseLayer, data, df, func(r *wire.Reader) error {
		status, err := r.ReadUint8()
		if err != nil {
			return err
		}
		t.Status = DAPStatus(status)
		t.Execute, err = r.ReadUint8()
		return err
	})
}

func (t *DAPResetTargetResponse) Detail() string {
	return fmt.Sprintf("%s execute=%d", t.Status, t.Execute)
}
