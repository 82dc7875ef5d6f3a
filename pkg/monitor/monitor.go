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

// Package monitor reads a USBPcap capture stream and prints every
// CMSIS-DAP packet it carries.
package monitor

import (
	"context"
	"errors"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"

	"jinr.ru/greenlab/go-dapdebug/pkg/config"
	"jinr.ru/greenlab/go-dapdebug/pkg/decoder"
	"jinr.ru/greenlab/go-dapdebug/pkg/layers"
	"jinr.ru/greenlab/go-dapdebug/pkg/log"
)

// Stats counts the records seen by a Monitor.
type Stats struct {
	Records  int
	Printed  int
	Filtered int
	Skipped  int
}

type Monitor struct {
	*config.Config
	writer Writer
	stats  Stats
}

func NewMonitor(cfg *config.Config, out io.Writer) (*Monitor, error) {
	w, err := NewWriter(cfg, out)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		Config: cfg,
		writer: w,
	}, nil
}

func (m *Monitor) Stats() Stats {
	return m.stats
}

// Run reads a pcap stream from in until EOF or until ctx is done.
func (m *Monitor) Run(ctx context.Context, in io.Reader) error {
	r, err := pcapgo.NewReader(in)
	if err != nil {
		return err
	}
	if r.LinkType() != layers.LinkTypeUSBPcap {
		return ErrLinkType{LinkType: r.LinkType()}
	}
	log.Info("Reading USBPcap stream, snaplen %d", r.Snaplen())
	return m.RunSource(ctx, r)
}

// RunSource decodes records from src until it is exhausted or ctx is done.
// A record that fails to decode is logged and skipped.
func (m *Monitor) RunSource(ctx context.Context, src gopacket.PacketDataSource) error {
	source := gopacket.NewPacketSource(src, layers.LinkTypeUSBPcap)
	source.NoCopy = true
	defer func() {
		log.Info("Records: %d printed: %d filtered: %d skipped: %d",
			m.stats.Records, m.stats.Printed, m.stats.Filtered, m.stats.Skipped)
	}()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		packet, err := source.NextPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := m.handle(packet); err != nil {
			return err
		}
	}
}

func (m *Monitor) handle(packet gopacket.Packet) error {
	m.stats.Records++
	n := m.stats.Records
	rec, err := decoder.FromPacket(packet)
	if err != nil {
		m.stats.Skipped++
		log.Warning("Skipping record %d: %s", n, err)
		return nil
	}
	if !m.WantDevice(rec.Capture.Device) {
		m.stats.Filtered++
		return nil
	}
	if rec.Message == nil && !m.AllTransfers {
		m.stats.Filtered++
		log.Debug("Record %d: %s transfer not printed", n, rec.Capture.TransferType)
		return nil
	}
	entry := &Entry{
		Timestamp: packet.Metadata().Timestamp.UTC(),
		Length:    packet.Metadata().Length,
		Line:      decoder.Render(rec),
		Capture:   rec.Capture,
		Message:   rec.Message,
	}
	if m.Dump {
		entry.Dump = packet.Dump()
	}
	if err := m.writer.Write(rec, entry); err != nil {
		return err
	}
	m.stats.Printed++
	return nil
}
