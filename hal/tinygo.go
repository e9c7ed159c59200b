//go:build tinygo && baremetal

package hal

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ili9341"
)

type tinyGoHAL struct {
	logger    *usbLogger
	display   *ili9341.Device
	input     *pinInput
	buzzer    *pwmBuzzer
	backlight *machinePin
	t         *tinyGoTime
	serial    *uartSerial
}

// New returns a Wio Terminal HAL implementation.
//
// Panel: ILI9341 on SPI3, landscape. Sensor: UART1 on the header, 9600 8N1.
// Logs: USB CDC.
func New() HAL {
	machine.SPI3.Configure(machine.SPIConfig{
		SCK:       machine.LCD_SCK_PIN,
		SDO:       machine.LCD_SDO_PIN,
		SDI:       machine.LCD_SDI_PIN,
		Frequency: 40000000,
	})
	display := ili9341.NewSPI(machine.SPI3, machine.LCD_DC, machine.LCD_SS_PIN, machine.LCD_RESET)
	display.Configure(ili9341.Config{})
	display.SetRotation(ili9341.Rotation270)
	display.FillScreen(color.RGBA{0, 0, 0, 255})

	backlight := newMachinePin("LCD_BACKLIGHT", machine.LCD_BACKLIGHT, GPIOCapOutput)
	_ = backlight.Configure(GPIOModeOutput, GPIOPullNone)
	_ = backlight.Write(true)

	uart := machine.UART1
	uart.Configure(machine.UARTConfig{
		BaudRate: 9600,
		TX:       machine.UART_TX_PIN,
		RX:       machine.UART_RX_PIN,
	})

	return &tinyGoHAL{
		logger:  &usbLogger{},
		display: display,
		input: newPinInput(
			newMachinePin("WIO_KEY_C", machine.WIO_KEY_C, GPIOCapInput|GPIOCapPullUp),
			newMachinePin("WIO_KEY_B", machine.WIO_KEY_B, GPIOCapInput|GPIOCapPullUp),
			newMachinePin("WIO_KEY_A", machine.WIO_KEY_A, GPIOCapInput|GPIOCapPullUp),
		),
		buzzer:    newPWMBuzzer(machine.WIO_BUZZER),
		backlight: backlight,
		t:         newTinyGoTime(),
		serial:    &uartSerial{uart: uart},
	}
}

func (h *tinyGoHAL) Logger() Logger     { return h.logger }
func (h *tinyGoHAL) Display() Display   { return h.display }
func (h *tinyGoHAL) Input() Input       { return h.input }
func (h *tinyGoHAL) Buzzer() Buzzer     { return h.buzzer }
func (h *tinyGoHAL) Backlight() GPIOPin { return h.backlight }
func (h *tinyGoHAL) Serial() Serial     { return h.serial }
func (h *tinyGoHAL) Time() Time         { return h.t }
