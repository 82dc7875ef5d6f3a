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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-dapdebug/pkg/config"
	dlayers "jinr.ru/greenlab/go-dapdebug/pkg/layers"
	"jinr.ru/greenlab/go-dapdebug/pkg/usbpcaptest"
)

func testRecords() [][]byte {
	return [][]byte{
		usbpcaptest.Out(3, 1, []byte{0x00, 0xfe}),
		usbpcaptest.In(3, 1, []byte{0x00, 0x01, 0x04}),
		usbpcaptest.Record(usbpcaptest.Header{Device: 3, Endpoint: 0x02, Transfer: usbpcaptest.TransferBulk}, []byte{0xde, 0xad}),
		usbpcaptest.Out(3, 1, []byte{0x05, 0x02, 0x01}),
		usbpcaptest.Out(5, 1, []byte{0x7f, 0x01}),
	}
}

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Color = config.ColorNever
	return cfg
}

func run(t *testing.T, cfg *config.Config, records ...[]byte) (string, Stats) {
	t.Helper()
	out := &bytes.Buffer{}
	m, err := NewMonitor(cfg, out)
	require.NoError(t, err)
	require.NoError(t, m.Run(context.Background(), usbpcaptest.Stream(t, dlayers.LinkTypeUSBPcap, records...)))
	return out.String(), m.Stats()
}

func TestMonitorText(t *testing.T) {
	out, stats := run(t, testConfig(), testRecords()...)
	assert.Equal(t, strings.Join([]string{
		"USB ep=1 OUT | CMSIS-DAP req Info | Packet Count",
		"USB ep=1 IN | CMSIS-DAP res Info | 4",
		"USB ep=1 OUT | CMSIS-DAP req 0x7f",
		"",
	}, "\n"), out)
	assert.Equal(t, Stats{Records: 5, Printed: 3, Filtered: 1, Skipped: 1}, stats)
}

func TestMonitorDeviceFilter(t *testing.T) {
	cfg := testConfig()
	cfg.Devices = []uint16{5}
	out, stats := run(t, cfg, testRecords()...)
	assert.Equal(t, "USB ep=1 OUT | CMSIS-DAP req 0x7f\n", out)
	assert.Equal(t, 1, stats.Printed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 3, stats.Filtered)
}

func TestMonitorAllTransfers(t *testing.T) {
	cfg := testConfig()
	cfg.AllTransfers = true
	out, stats := run(t, cfg, testRecords()...)
	assert.Contains(t, out, "USB ep=2 OUT\n")
	assert.Equal(t, 4, stats.Printed)
	assert.Zero(t, stats.Filtered)
}

func TestMonitorEmptyInterrupt(t *testing.T) {
	out, stats := run(t, testConfig(), usbpcaptest.In(3, 1, nil))
	assert.Empty(t, out)
	assert.Equal(t, 1, stats.Filtered)
}

func TestMonitorLinkType(t *testing.T) {
	m, err := NewMonitor(testConfig(), io.Discard)
	require.NoError(t, err)
	err = m.Run(context.Background(), usbpcaptest.Stream(t, layers.LinkTypeEthernet, testRecords()...))
	var linkErr ErrLinkType
	require.ErrorAs(t, err, &linkErr)
	assert.Equal(t, layers.LinkTypeEthernet, linkErr.LinkType)
}

func TestMonitorNotPcap(t *testing.T) {
	m, err := NewMonitor(testConfig(), io.Discard)
	require.NoError(t, err)
	assert.Error(t, m.Run(context.Background(), strings.NewReader("not a capture")))
}

func TestMonitorTruncatedStream(t *testing.T) {
	stream := usbpcaptest.Stream(t, dlayers.LinkTypeUSBPcap, testRecords()...).Bytes()
	out := &bytes.Buffer{}
	m, err := NewMonitor(testConfig(), out)
	require.NoError(t, err)

	err = m.Run(context.Background(), bytes.NewReader(stream[:len(stream)-3]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
	assert.Equal(t, 4, m.Stats().Records)
}

func TestMonitorCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := NewMonitor(testConfig(), io.Discard)
	require.NoError(t, err)
	err = m.Run(ctx, usbpcaptest.Stream(t, dlayers.LinkTypeUSBPcap, testRecords()...))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, m.Stats().Records)
}

func TestMonitorJSON(t *testing.T) {
	cfg := testConfig()
	cfg.Format = config.FormatJSON
	out, _ := run(t, cfg, testRecords()[:2]...)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "USB ep=1 IN | CMSIS-DAP res Info | 4", entry["line"])
	assert.Equal(t, "2020-09-13T12:26:40.001Z", entry["timestamp"])

	capture := entry["capture"].(map[string]interface{})
	assert.EqualValues(t, 3, capture["Device"])
	assert.EqualValues(t, 1, capture["Endpoint"])

	message := entry["message"].(map[string]interface{})
	assert.EqualValues(t, dlayers.DAPCommandInfo, message["Command"])
	body := message["Body"].(map[string]interface{})
	assert.EqualValues(t, 1, body["Length"])
	assert.EqualValues(t, 4, body["Value"])
}

func TestMonitorYAML(t *testing.T) {
	cfg := testConfig()
	cfg.Format = config.FormatYAML
	out, _ := run(t, cfg, testRecords()...)

	docs := strings.Split(out, "---\n")
	require.Len(t, docs, 4)
	assert.Empty(t, docs[0])

	var entry struct {
		Line    string `json:"line"`
		Length  int    `json:"length"`
		Capture struct {
			Device uint16
		} `json:"capture"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(docs[1]), &entry))
	assert.Equal(t, "USB ep=1 OUT | CMSIS-DAP req Info | Packet Count", entry.Line)
	assert.Equal(t, uint16(3), entry.Capture.Device)
	assert.Equal(t, 29, entry.Length)
}

func TestMonitorDump(t *testing.T) {
	cfg := testConfig()
	cfg.Dump = true
	out, _ := run(t, cfg, testRecords()[0])
	assert.True(t, strings.HasPrefix(out, "USB ep=1 OUT | CMSIS-DAP req Info | Packet Count\n"))
	assert.Contains(t, out, "--- Layer 1 ---")
	assert.Contains(t, out, "USBPcap")
	assert.Contains(t, out, "DAP_Info")
}

func TestMonitorColor(t *testing.T) {
	cfg := testConfig()
	cfg.Color = config.ColorAlways
	out, _ := run(t, cfg, testRecords()[0])
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "CMSIS-DAP req Info")
}

func TestNewWriterFormat(t *testing.T) {
	cfg := testConfig()
	cfg.Format = "csv"
	_, err := NewMonitor(cfg, io.Discard)
	assert.ErrorAs(t, err, &config.ErrFormat{})
}
