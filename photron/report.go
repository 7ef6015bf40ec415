package photron

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/nasa-jpl/photron/pdc"
)

// Report writes a description of the camera to w.  details of 0 prints one
// line, 1 the identification and settings, and 2 or more the raw caches.
func (c *Camera) Report(w io.Writer, details int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(w, "Photron detector %s at %s, connected: %v\n", c.cfg.PortName, c.cfg.IPAddress, c.connected)
	if details < 1 {
		return
	}
	if c.connected {
		fmt.Fprintf(w, "  Device number:      %d\n", c.devNo)
		fmt.Fprintf(w, "  Model:              %s (code 0x%x)\n", c.info.deviceName, c.info.deviceCode)
		fmt.Fprintf(w, "  Serial number:      %d\n", c.info.individualID)
		fmt.Fprintf(w, "  Product ID:         %d\n", c.info.productID)
		fmt.Fprintf(w, "  Lot ID:             %d\n", c.info.lotID)
		fmt.Fprintf(w, "  Firmware version:   %.2f\n", float64(c.info.version)/100)
		fmt.Fprintf(w, "  Sensor:             %d x %d, %d bits\n", c.info.sensorWidth, c.info.sensorHeight, c.info.sensorBits)
		fmt.Fprintf(w, "  External ports:     %d in, %d out\n", c.info.inPorts, c.info.outPorts)
		fmt.Fprintf(w, "  Status:             %s\n", c.set.status)
		fmt.Fprintf(w, "  Record rate:        %d fps\n", c.set.rate)
		fmt.Fprintf(w, "  Shutter:            1/%d s\n", c.set.shutter)
		fmt.Fprintf(w, "  Resolution:         %d x %d\n", c.res.width, c.res.height)
		fmt.Fprintf(w, "  Max frames:         %d\n", c.set.maxFrames)
		fmt.Fprintf(w, "  Trigger mode:       %s\n", triggerName(trigModeToEPICS(c.set.trigger.Mode)))
		fmt.Fprintf(w, "  IRIG:               %v\n", c.set.irig == 1)
		fmt.Fprintf(w, "  Variable channel:   %d\n", c.set.varChannel)
		fmt.Fprintf(w, "  8 bit select:       %d\n", c.bitSel)
		if c.memory.Recorded > 0 {
			fmt.Fprintf(w, "  Memory:             frames %d to %d, trigger %d, %d fps\n",
				c.memory.Start, c.memory.End, c.memory.Trigger, c.memRate)
		}
	}
	buffers, free, mem := c.pool.Stats()
	fmt.Fprintf(w, "  Buffers:            %d (%d free, %d bytes)\n", buffers, free, mem)
	fmt.Fprintf(w, "  Plugins:            %v\n", c.pub.Plugins())
	fmt.Fprintf(w, "  Priority/stack:     %d / %d\n", c.cfg.Priority, c.cfg.StackSize)
	if details < 2 {
		return
	}
	var functions []pdc.Function
	for fn := pdc.Function(0); fn < pdc.MaxFunction; fn++ {
		if c.info.functions[fn] {
			functions = append(functions, fn)
		}
	}
	fmt.Fprintln(w, "  Functions available:", functions)
	fmt.Fprint(w, spew.Sdump(c.info, c.res, c.set))
}
