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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dapdebug/pkg/config"
	"jinr.ru/greenlab/go-dapdebug/pkg/log"
	"jinr.ru/greenlab/go-dapdebug/pkg/monitor"
)

const (
	InputOptionName  = "input"
	DeviceOptionName = "device"
	FormatOptionName = "format"
	ColorOptionName  = "color"
	AllOptionName    = "all"
	DumpOptionName   = "dump"
)

const (
	monitorExample = `
Decode a capture file
# go-dapdebug monitor --input capture.pcap

Decode a live USBPcap stream for device 3 only
# USBPcapCMD.exe -d \\.\USBPcap1 -o - | go-dapdebug monitor --device 3
`
)

// NewCommand creates the monitor command. Flags override cfg.
func NewCommand(cfg *config.Config) *cobra.Command {
	var (
		input, format, color string
		devices              []uint
		all, dump            bool
	)
	cmd := &cobra.Command{
		Use:     "monitor",
		Short:   "Print CMSIS-DAP packets from a USBPcap stream",
		Example: monitorExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed(InputOptionName) {
				cfg.Input = input
			}
			if flags.Changed(DeviceOptionName) {
				cfg.Devices = nil
				for _, d := range devices {
					if d > 0xffff {
						return fmt.Errorf("Wrong device address %d", d)
					}
					cfg.Devices = append(cfg.Devices, uint16(d))
				}
			}
			if flags.Changed(FormatOptionName) {
				cfg.Format = config.Format(format)
			}
			if flags.Changed(ColorOptionName) {
				cfg.Color = config.Color(color)
			}
			if flags.Changed(AllOptionName) {
				cfg.AllTransfers = all
			}
			if flags.Changed(DumpOptionName) {
				cfg.Dump = dump
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			in, err := openInput(cfg.Input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m, err := monitor.NewMonitor(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			err = run(ctx, m, in)
			if errors.Is(err, context.Canceled) {
				log.Info("Interrupted")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&input, InputOptionName, "", fmt.Sprintf("Capture file or FIFO, - for stdin. Default %s", config.DefaultInput))
	cmd.Flags().UintSliceVar(&devices, DeviceOptionName, nil, "USB device address to monitor, may be repeated. Default all devices")
	cmd.Flags().StringVar(&format, FormatOptionName, "", fmt.Sprintf("Output format. %s", config.HelpFormats))
	cmd.Flags().StringVar(&color, ColorOptionName, "", fmt.Sprintf("Color text output. %s", config.HelpColors))
	cmd.Flags().BoolVar(&all, AllOptionName, false, "Also print records that are not CMSIS-DAP packets")
	cmd.Flags().BoolVar(&dump, DumpOptionName, false, "Print the layer dump after every record")
	return cmd
}

// run returns as soon as ctx is done, even while the monitor is blocked
// reading a pipe that cannot be interrupted, such as stdin.
func run(ctx context.Context, m *monitor.Monitor, in io.ReadCloser) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Run(ctx, in)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		// unblocks a pending read on a file or FIFO
		in.Close()
		return ctx.Err()
	}
}

func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == config.DefaultInput {
		return io.NopCloser(stdin), nil
	}
	log.Info("Reading capture from %s", path)
	return os.Open(path)
}
