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

// Package usbpcaptest builds USBPcap records and pcap streams for tests.
package usbpcaptest

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const (
	TransferIsochronous uint8 = iota
	TransferInterrupt
	TransferControl
	TransferBulk
)

// Header holds the USBPcap header fields. Endpoint is the raw endpoint
// address including the direction bit.
type Header struct {
	IRPID    uint64
	Status   int32
	Function uint16
	Info     uint8
	Bus      uint16
	Device   uint16
	Endpoint uint8
	Transfer uint8
	Extra    []byte // transfer specific header bytes after the fixed 27
}

// Record encodes h and body as one USBPcap record.
func Record(h Header, body []byte) []byte {
	buf := make([]byte, 27+len(h.Extra)+len(body))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(27+len(h.Extra)))
	binary.LittleEndian.PutUint64(buf[2:10], h.IRPID)
	binary.LittleEndian.PutUint32(buf[10:14], uint32(h.Status))
	binary.LittleEndian.PutUint16(buf[14:16], h.Function)
	buf[16] = h.Info
	binary.LittleEndian.PutUint16(buf[17:19], h.Bus)
	binary.LittleEndian.PutUint16(buf[19:21], h.Device)
	buf[21] = h.Endpoint
	buf[22] = h.Transfer
	binary.LittleEndian.PutUint32(buf[23:27], uint32(len(body)))
	copy(buf[27:], h.Extra)
	copy(buf[27+len(h.Extra):], body)
	return buf
}

// Out returns an interrupt OUT record (host to probe) for device.
func Out(device uint16, endpoint uint8, body []byte) []byte {
	return Record(Header{Bus: 1, Device: device, Endpoint: endpoint & 0x7f, Transfer: TransferInterrupt}, body)
}

// In returns an interrupt IN record (probe to host) for device.
func In(device uint16, endpoint uint8, body []byte) []byte {
	return Record(Header{Bus: 1, Device: device, Endpoint: endpoint | 0x80, Transfer: TransferInterrupt}, body)
}

// Stream writes records into an in-memory pcap stream with the given link
// type.
func Stream(t testing.TB, linkType layers.LinkType, records ...[]byte) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	w := pcapgo.NewWriter(buf)
	if err := w.WriteFileHeader(65535, linkType); err != nil {
		t.Fatalf("writing pcap header: %s", err)
	}
	ts := time.Unix(1600000000, 0)
	for n, rec := range records {
		ci := gopacket.CaptureInfo{
			Timestamp:     ts.Add(time.Duration(n) * time.Millisecond),
			CaptureLength: len(rec),
			Length:        len(rec),
		}
		if err := w.WritePacket(ci, rec); err != nil {
			t.Fatalf("writing pcap record %d: %s", n, err)
		}
	}
	return buf
}
