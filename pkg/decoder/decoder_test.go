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

package decoder

import (
	"testing"

	"github.com/google/gopacket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-dapdebug/pkg/layers"
	"jinr.ru/greenlab/go-dapdebug/pkg/usbpcaptest"
)

func TestDecodeInfoRequest(t *testing.T) {
	rec, err := Decode(usbpcaptest.Out(3, 1, []byte{0x00, 0x00}))
	require.NoError(t, err)
	require.NotNil(t, rec.Message)
	assert.Equal(t, layers.DAPRequest, rec.Message.Direction)
	assert.Equal(t, layers.DAPCommandInfo, rec.Message.Command)
	info, ok := rec.Message.Body.(*layers.DAPInfoRequest)
	require.True(t, ok)
	assert.Equal(t, layers.DAPInfoID(0), info.ID)
	assert.Equal(t, "USB ep=1 OUT | CMSIS-DAP req Info | 0x00", Render(rec))
}

func TestDecodeInfoResponse(t *testing.T) {
	rec, err := Decode(usbpcaptest.In(3, 1, []byte{0x00, 0x02, 0xab, 0xcd}))
	require.NoError(t, err)
	require.NotNil(t, rec.Message)
	assert.Equal(t, layers.DAPResponse, rec.Message.Direction)
	info, ok := rec.Message.Body.(*layers.DAPInfoResponse)
	require.True(t, ok)
	assert.Equal(t, uint8(2), info.Length)
	assert.Equal(t, layers.InfoShort(0xcdab), info.Value)
	assert.Equal(t, "USB ep=1 IN | CMSIS-DAP res Info | 52651", Render(rec))
}

func TestDecodeTransfer(t *testing.T) {
	body := []byte{
		0x05, 0x00, 0x02,
		0x08, 0xff, 0x00, // DP write A=0x8
		0x1f, 0x34, 0x12, // AP read A=0xc with value match
	}
	rec, err := Decode(usbpcaptest.Out(3, 1, body))
	require.NoError(t, err)
	assert.Equal(t,
		"USB ep=1 OUT | CMSIS-DAP req Transfer | dap=0 n=2 [DP W A=0x8 0x00ff, AP R A=0xc match=0x1234]",
		Render(rec))
}

func TestDecodeTruncatedTransfer(t *testing.T) {
	rec, err := Decode(usbpcaptest.Out(3, 1, []byte{0x05, 0x02, 0x01}))
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.True(t, layers.IsTruncated(err))
}

func TestDecodeUnknownOpcode(t *testing.T) {
	for _, body := range [][]byte{{0x7f}, {0x7f, 0x01}, {0x7f, 0x01, 0x02, 0x03, 0x04}} {
		rec, err := Decode(usbpcaptest.Out(3, 1, body))
		require.NoError(t, err)
		require.NotNil(t, rec.Message)
		assert.Nil(t, rec.Message.Body)
		assert.Equal(t, "USB ep=1 OUT | CMSIS-DAP req 0x7f", Render(rec))
	}
}

func TestDecodeNotDispatched(t *testing.T) {
	tests := []struct {
		name   string
		record []byte
	}{
		{
			name:   "bulk",
			record: usbpcaptest.Record(usbpcaptest.Header{Endpoint: 0x02, Transfer: usbpcaptest.TransferBulk}, []byte{0x00, 0x00}),
		},
		{
			name: "control",
			record: usbpcaptest.Record(usbpcaptest.Header{Transfer: usbpcaptest.TransferControl, Extra: []byte{0x00}},
				[]byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x12, 0x00}),
		},
		{
			name:   "empty interrupt",
			record: usbpcaptest.In(3, 1, nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Decode(tt.record)
			require.NoError(t, err)
			assert.Nil(t, rec.Message)
			assert.NotContains(t, Render(rec), Separator)
		})
	}
}

func TestDecodeShortRecord(t *testing.T) {
	record := usbpcaptest.Out(3, 1, []byte{0x00, 0x00})
	for n := 0; n < len(record); n++ {
		_, err := Decode(record[:n])
		require.Error(t, err, "length %d", n)
		assert.True(t, layers.IsTruncated(err), "length %d", n)
	}
}

func TestShouldDispatch(t *testing.T) {
	for tt := layers.USBTransferType(0); tt < 8; tt++ {
		c := &layers.USBPcap{TransferType: tt}
		assert.Equal(t, tt == layers.USBTransferInterrupt, ShouldDispatch(c), tt.String())
	}
}

func TestDecodeBatch(t *testing.T) {
	frames := [][]byte{
		usbpcaptest.Out(3, 1, []byte{0x00, 0xff}),
		usbpcaptest.Out(3, 1, []byte{0x05, 0x02, 0x01}),
		{0x1b, 0x00},
		usbpcaptest.In(3, 1, []byte{0x00, 0x01, 0x40}),
	}
	results := DecodeBatch(frames)
	require.Len(t, results, len(frames))

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "USB ep=1 OUT | CMSIS-DAP req Info | Packet Size", Render(results[0].Record))

	assert.True(t, layers.IsTruncated(results[1].Err))
	assert.Nil(t, results[1].Record)

	assert.True(t, layers.IsTruncated(results[2].Err))

	assert.NoError(t, results[3].Err)
	assert.Equal(t, "USB ep=1 IN | CMSIS-DAP res Info | 64", Render(results[3].Record))
}

func TestRenderPlaceholder(t *testing.T) {
	assert.Equal(t, "?", Render(nil))
	assert.Equal(t, "?", Render(&Record{}))
	assert.Equal(t, "?", RenderMessage(nil))
}

func TestRenderMessage(t *testing.T) {
	m, err := layers.DecodeDAPMessage(layers.DAPResponse, []byte{0x02, 0x01})
	require.NoError(t, err)
	assert.Equal(t, "CMSIS-DAP res Connect | SWD", RenderMessage(m))

	m, err = layers.DecodeDAPMessage(layers.DAPResponse, []byte{0x05, 0x01, 0x01})
	require.NoError(t, err)
	assert.Equal(t, "CMSIS-DAP res Transfer", RenderMessage(m))
}

func TestRecordLayers(t *testing.T) {
	rec, err := Decode(usbpcaptest.Out(3, 1, []byte{0x00, 0x04}))
	require.NoError(t, err)
	ls := rec.Layers()
	require.Len(t, ls, 3)
	assert.Equal(t, layers.USBPcapLayerType, ls[0].LayerType())
	assert.Equal(t, layers.CMSISDAPRequestLayerType, ls[1].LayerType())
	assert.Equal(t, layers.DAPInfoRequestLayerType, ls[2].LayerType())
}

func TestFromPacket(t *testing.T) {
	data := usbpcaptest.In(3, 2, []byte{0x00, 0x04, 'v', '2', '.', '1', 0x00, 0x00})
	p := gopacket.NewPacket(data, layers.LinkTypeUSBPcap, gopacket.Default)
	rec, err := FromPacket(p)
	require.NoError(t, err)

	want, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Render(want), Render(rec))
	assert.Equal(t, "USB ep=2 IN | CMSIS-DAP res Info | v2.1", Render(rec))
}

func TestFromPacketErrors(t *testing.T) {
	p := gopacket.NewPacket(usbpcaptest.Out(3, 1, []byte{0x05, 0x02, 0x01}), layers.LinkTypeUSBPcap, gopacket.Default)
	_, err := FromPacket(p)
	require.Error(t, err)
	assert.True(t, layers.IsTruncated(err))

	p = gopacket.NewPacket([]byte{0x01, 0x02}, gopacket.LayerTypePayload, gopacket.Default)
	_, err = FromPacket(p)
	assert.ErrorAs(t, err, &ErrNoCapture{})
}
