package exposure

// Preset shutter speeds, label to exposure time in microseconds. Fixed at
// compile time; the UI renders them in Order.
var Presets = map[string]int{
	"1":      1000000,
	"1/2":    500000,
	"1/4":    250000,
	"1/15":   66667,
	"1/30":   33333,
	"1/60":   16667,
	"1/125":  8000,
	"1/250":  4000,
	"1/500":  2000,
	"1/1000": 1000,
}

// Order lists the presets from slowest to fastest shutter.
var Order = []string{
	"1", "1/2", "1/4", "1/15", "1/30", "1/60", "1/125", "1/250", "1/500", "1/1000",
}
