//go:build windows

package main

import _ "github.com/mj1618/desktop-intent/internal/platform/windows"
