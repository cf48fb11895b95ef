package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	headerFmt  = color.New(color.FgMagenta, color.Bold).SprintFunc()
	successFmt = color.New(color.FgGreen).SprintFunc()
	infoFmt    = color.New(color.FgCyan).SprintFunc()
	warnFmt    = color.New(color.FgYellow).SprintFunc()
	errorFmt   = color.New(color.FgRed).SprintFunc()
)

func printHeader(format string, args ...any) {
	line := strings.Repeat("=", 60)
	fmt.Println()
	fmt.Println(headerFmt(line))
	fmt.Println(headerFmt(centered(fmt.Sprintf(format, args...), 60)))
	fmt.Println(headerFmt(line))
	fmt.Println()
}

func centered(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(s)-pad)
}

func printSuccess(format string, args ...any) {
	fmt.Println(successFmt("✓ " + fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(infoFmt("ℹ " + fmt.Sprintf(format, args...)))
}

func printWarn(format string, args ...any) {
	fmt.Println(warnFmt(fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Println(errorFmt("✗ " + fmt.Sprintf(format, args...)))
}
