//go:build windows

// Package windows provides the Windows backend: UI Automation through COM
// (go-ole), synthetic input through SendInput and window enumeration through
// user32 with gopsutil for process names.
package windows
