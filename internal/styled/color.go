package styled

import "github.com/fatih/color"

// DimmedColor returns a dimmed *color.Color to print secondary information.
func DimmedColor() *color.Color {
	return color.RGB(128, 128, 128)
}

// SuccessColor is used for completed operations.
func SuccessColor() *color.Color {
	return color.New(color.FgGreen)
}

// ErrorColor is used for failures printed on the error stream.
func ErrorColor() *color.Color {
	return color.New(color.FgRed, color.Bold)
}
