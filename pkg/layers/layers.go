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
	"errors"
	"fmt"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-dapdebug/pkg/wire"
)

// Layer numbers of the layers registered by this package.
const (
	USBPcapLayerNum = 2000 + iota
	CMSISDAPRequestLayerNum
	CMSISDAPResponseLayerNum
	DAPInfoRequestLayerNum
	DAPInfoResponseLayerNum
	DAPTransferRequestLayerNum
	DAPHostStatusRequestLayerNum
	DAPConnectRequestLayerNum
	DAPConnectResponseLayerNum
	DAPTransferConfigureRequestLayerNum
	DAPWriteAbortRequestLayerNum
	DAPDelayRequestLayerNum
	DAPSWJClockRequestLayerNum
	DAPSWDConfigureRequestLayerNum
	DAPStatusResponseLayerNum
	DAPResetTargetResponseLayerNum
)

// Detailer is implemented by every layer that contributes a fragment to the
// one-line rendering of a record.
type Detailer interface {
	Detail() string
}

// ErrTruncated is returned when a buffer is shorter than a field or record
// requires. Offset is relative to the start of the layer. The record should
// be skipped.
type ErrTruncated struct {
	Layer  string
	Offset int
	Want   int
	Have   int
}

func (e ErrTruncated) Error() string {
	return fmt.Sprintf("%s truncated at offset %d: want %d bytes, have %d", e.Layer, e.Offset, e.Want, e.Have)
}

// IsTruncated reports whether err is (or wraps) an ErrTruncated.
func IsTruncated(err error) bool {
	var t ErrTruncated
	return errors.As(err, &t)
}

// truncated converts a cursor error into ErrTruncated for the named layer
// and flags the packet as truncated.
func truncated(layer string, df gopacket.DecodeFeedback, err error) error {
	var short wire.ErrShortRead
	if !errors.As(err, &short) {
		return err
	}
	if df != nil {
		df.SetTruncated()
	}
	return ErrTruncated{Layer: layer, Offset: short.Offset, Want: short.Want, Have: short.Have}
}
