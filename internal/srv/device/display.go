package device

import (
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/jypelle/tempoled/internal/srv/config"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// Viewer shows presented frames somewhere else than on the OLED panel.
type Viewer interface {
	Invalidate()
	Close()
}

// Display is the engine canvas: a software frame buffer pushed to a SSD1306
// panel on Present, or to a Viewer in simulation mode.
type Display struct {
	*Frame

	oledLock    sync.Mutex
	oledDisplay *ssd1306.Dev
	busCloser   io.Closer

	lock           sync.RWMutex
	on             bool
	started        bool
	simulationMode bool
	lastImg        *image.RGBA
	viewer         Viewer

	param config.DisplayParam
	state *config.ServerState
}

func NewDisplay(param config.DisplayParam, state *config.ServerState, simulationMode bool) *Display {
	return &Display{
		Frame:          NewFrame(param.Width, param.Height),
		simulationMode: simulationMode,
		param:          param,
		state:          state,
		lastImg:        image.NewRGBA(image.Rect(0, 0, param.Width, param.Height)),
	}
}

// SetViewer must be called before Start.
func (d *Display) SetViewer(viewer Viewer) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.viewer = viewer
}

func (d *Display) Start() error {
	logrus.Infof("Start display device")

	d.lock.Lock()
	defer d.lock.Unlock()

	d.on = d.state == nil || d.state.DisplayOn()

	if !d.simulationMode {
		if err := d.openOled(); err != nil {
			return err
		}
	}
	d.started = true
	return nil
}

func (d *Display) openOled() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("unable to initialize host drivers: %w", err)
	}

	opts := ssd1306.DefaultOpts
	opts.W = d.param.Width
	opts.H = d.param.Height
	opts.Rotated = d.param.Rotated

	if d.param.RstPin != "" {
		rst := gpioreg.ByName(d.param.RstPin)
		if rst == nil {
			return fmt.Errorf("unknown reset pin %s", d.param.RstPin)
		}
		if err := resetPanel(rst); err != nil {
			return fmt.Errorf("unable to reset oled display: %w", err)
		}
	}

	switch d.param.Bus {
	case "spi":
		dc := gpioreg.ByName(d.param.DcPin)
		if dc == nil {
			return fmt.Errorf("unknown data/command pin %q", d.param.DcPin)
		}
		port, err := spireg.Open(d.param.SpiPort)
		if err != nil {
			return fmt.Errorf("unable to open spi port: %w", err)
		}
		d.oledDisplay, err = ssd1306.NewSPI(port, dc, &opts)
		if err != nil {
			port.Close()
			return fmt.Errorf("unable to initialize oled display: %w", err)
		}
		d.busCloser = port
	default:
		bus, err := i2creg.Open(d.param.I2cBus)
		if err != nil {
			return fmt.Errorf("unable to open i2c bus: %w", err)
		}
		var oledBus i2c.Bus = bus
		if d.param.I2cAddr != 0 && d.param.I2cAddr != defaultI2cAddr {
			oledBus = &addressedBus{Bus: bus, addr: d.param.I2cAddr}
		}
		d.oledDisplay, err = ssd1306.NewI2C(oledBus, &opts)
		if err != nil {
			bus.Close()
			return fmt.Errorf("unable to initialize oled display: %w", err)
		}
		d.busCloser = bus
	}

	if err := d.oledDisplay.SetContrast(d.param.Contrast); err != nil {
		logrus.Warnf("Unable to set oled contrast: %v", err)
	}
	if !d.on {
		d.oledDisplay.Halt()
	}
	return nil
}

const defaultI2cAddr = 0x3c

// addressedBus redirects the transactions sent to the default address, for
// panels strapped on 0x3d.
type addressedBus struct {
	i2c.Bus
	addr uint16
}

func (b *addressedBus) Tx(addr uint16, w, r []byte) error {
	if addr == defaultI2cAddr {
		addr = b.addr
	}
	return b.Bus.Tx(addr, w, r)
}

// resetPanel pulses the active low reset line.
func resetPanel(rst gpio.PinOut) error {
	if err := rst.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err := rst.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	d.lock.Lock()
	defer d.lock.Unlock()

	d.started = false
	if d.viewer != nil {
		d.viewer.Close()
	}
	if d.busCloser != nil {
		d.oledLock.Lock()
		d.busCloser.Close()
		d.oledLock.Unlock()
		d.busCloser = nil
		d.oledDisplay = nil
	}
}

// Present publishes the frame buffer.
func (d *Display) Present() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.Frame.CopyTo(d.lastImg)
	if !d.on || !d.started {
		return nil
	}
	return d.show()
}

func (d *Display) show() error {
	if d.simulationMode {
		if d.viewer != nil {
			d.viewer.Invalidate()
		}
		return nil
	}
	if d.oledDisplay == nil {
		return nil
	}
	d.oledLock.Lock()
	defer d.oledLock.Unlock()
	return d.oledDisplay.Draw(d.oledDisplay.Bounds(), d.lastImg, image.Point{})
}

// PowerOff blanks the panel without touching the saved on/off preference.
func (d *Display) PowerOff() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.on = false
	return d.halt()
}

func (d *Display) halt() error {
	if d.simulationMode {
		if d.viewer != nil {
			d.viewer.Invalidate()
		}
		return nil
	}
	if d.oledDisplay == nil {
		return nil
	}
	d.oledLock.Lock()
	defer d.oledLock.Unlock()
	return d.oledDisplay.Halt()
}

func (d *Display) SetOff() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.setOff()
}

func (d *Display) setOff() {
	d.on = false
	if d.state != nil {
		d.state.SetDisplayOn(false)
	}
	if err := d.halt(); err != nil {
		logrus.Warnf("Unable to switch display off: %v", err)
	}
}

func (d *Display) SetOn() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.setOn()
}

func (d *Display) setOn() {
	d.on = true
	if d.state != nil {
		d.state.SetDisplayOn(true)
	}
	if !d.simulationMode && d.oledDisplay != nil {
		d.oledLock.Lock()
		d.oledDisplay.SetContrast(d.param.Contrast) // Hack to force display on (calling Draw() is not enough)
		d.oledLock.Unlock()
	}
	if d.started {
		if err := d.show(); err != nil {
			logrus.Warnf("Unable to switch display on: %v", err)
		}
	}
}

func (d *Display) Switch() bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.on {
		d.setOff()
	} else {
		d.setOn()
	}

	return d.on
}

func (d *Display) IsOn() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.on
}

// LastImage returns a copy of the last presented frame. Switched off, the
// panel shows black.
func (d *Display) LastImage() image.Image {
	d.lock.RLock()
	defer d.lock.RUnlock()

	img := image.NewRGBA(d.lastImg.Bounds())
	if d.on {
		copy(img.Pix, d.lastImg.Pix)
	} else {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
	}
	return img
}
