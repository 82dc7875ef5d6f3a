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
	"fmt"

	"github.com/google/gopacket/layers"

	dlayers "jinr.ru/greenlab/go-dapdebug/pkg/layers"
)

// ErrLinkType returned when the capture stream is not a USBPcap capture
type ErrLinkType struct {
	LinkType layers.LinkType
}

func (e ErrLinkType) Error() string {
	return fmt.Sprintf("Capture link type %s (%d) is not USBPcap (%d)",
		e.LinkType, uint32(e.LinkType), uint32(dlayers.LinkTypeUSBPcap))
}
