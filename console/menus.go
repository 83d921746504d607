package console

// Literal text sent over the wire. Line endings are \r\n because the peer is
// a serial terminal.

const welcomeBanner = "\r\n\r\n" +
	"****************************************\r\n" +
	"*                                      *\r\n" +
	"*     LED Pattern Control Console      *\r\n" +
	"*        Serial Menu Interface         *\r\n" +
	"*                                      *\r\n" +
	"****************************************\r\n"

const mainMenu = "\r\n========================================\r\n" +
	"              MAIN MENU\r\n" +
	"========================================\r\n" +
	"  1 - LED Patterns\r\n" +
	"  2 - Exit Application\r\n" +
	"========================================\r\n" +
	"Enter selection: "

const ledPatternsMenu = "\r\n========================================\r\n" +
	"        LED Pattern Selection\r\n" +
	"========================================\r\n" +
	"  0 - Return to main menu\r\n" +
	"  1 - All LEDs ON\r\n" +
	"  2 - Different Frequency Blinking\r\n" +
	"  3 - Same Frequency Blinking\r\n" +
	"  4 - All LEDs OFF\r\n" +
	"========================================\r\n" +
	"Enter selection: "

const (
	msgInvalidOption  = "\r\nInvalid option. Please try again.\r\n"
	msgQueueFull      = "\r\nError: Command queue full!\r\n"
	msgBufferOverflow = "\r\nError: Buffer overflow!\r\n"
	msgExited         = "\r\nApplication exited. All LEDs turned OFF.\r\n"
	msgAllOff         = "\r\nAll LEDs turned OFF\r\n"
	eraseSeq          = "\b \b"
)
