package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by every styled status string this package renders.
const (
	Green     = lipgloss.Color("42")
	Amber     = lipgloss.Color("214")
	Blue      = lipgloss.Color("39")
	Red       = lipgloss.Color("203")
	LightGray = lipgloss.Color("245")
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(Blue)
	warnStyle    = lipgloss.NewStyle().Foreground(Amber)
	errorStyle   = lipgloss.NewStyle().Foreground(Red).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(Green)
	debugStyle   = lipgloss.NewStyle().Foreground(LightGray).Italic(true)
)

func Info(format string, args ...any) {
	fmt.Println(infoStyle.Render(fmt.Sprintf(format, args...)))
}

func Warn(format string, args ...any) {
	fmt.Println(warnStyle.Render(fmt.Sprintf(format, args...)))
}

func Error(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf(format, args...)))
}

func Success(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

func Debug(format string, args ...any) {
	fmt.Println(debugStyle.Render(fmt.Sprintf(format, args...)))
}
