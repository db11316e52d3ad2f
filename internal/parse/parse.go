// Package parse classifies the text output of IOS show commands.
package parse

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CDPDisabledMarker = "CDP is not enabled"
	CDPNeighborMarker = "Device ID:"

	// PingSuccessMarker is five consecutive successful echo replies.
	PingSuccessMarker = "!!!!!"

	NTPUnsyncMarker = "unsynchronized"
	NTPSyncMarker   = "Clock is synchronized"
)

const (
	NTPNotSync   = "NTP not sync"
	ClockInSync  = "Clock in sync"
	ClockNotSync = "Clock not sync"
)

const (
	ImageTypeNPE = "NPE"
	ImageTypePE  = "PE"
)

var ErrNoImage = errors.New("no system image line found")

// CDPSummary reports whether CDP is running and how many neighbors it sees.
func CDPSummary(text string) string {
	if strings.Contains(text, CDPDisabledMarker) {
		return "CDP is OFF, 0 peers"
	}
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, CDPNeighborMarker) {
			count++
		}
	}
	return fmt.Sprintf("CDP is ON, %d peers", count)
}

func PingSucceeded(text string) bool {
	return strings.Contains(text, PingSuccessMarker)
}

// NTPStatus maps "show ntp status" output to one of NTPNotSync, ClockInSync
// or ClockNotSync. "unsynchronized" wins when both markers appear.
func NTPStatus(text string) string {
	switch {
	case strings.Contains(text, NTPUnsyncMarker):
		return NTPNotSync
	case strings.Contains(text, NTPSyncMarker):
		return ClockInSync
	default:
		return ClockNotSync
	}
}

// Facts are the software details extracted from "show version".
type Facts struct {
	Image     string
	Model     string
	ImageType string
}

// Version scans "show version" output line by line. Each line is matched
// against the prefixes in order and the first match applies; across lines the
// last match wins, so a later model line overwrites an earlier one.
func Version(text string) (Facts, error) {
	var f Facts
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		fields := strings.Fields(line)
		switch {
		case strings.HasPrefix(line, "System image file is"):
			if len(fields) < 5 {
				continue
			}
			if name := imageName(fields[len(fields)-1]); name != "" {
				f.Image = name
				found = true
			}
		case strings.HasPrefix(line, "cisco"):
			if len(fields) > 1 {
				f.Model = fields[1]
			}
		case strings.HasPrefix(line, "Cisco") && strings.Contains(line, "processor"):
			if len(fields) > 1 {
				f.Model = fields[1]
			}
		case strings.HasPrefix(line, "Cisco") && strings.Contains(line, "memory"):
			if len(fields) > 1 {
				f.Model = fields[1]
			}
		}
	}
	if !found {
		return Facts{}, ErrNoImage
	}
	f.ImageType = ImageType(f.Image)
	return f, nil
}

// ImageType is NPE for no-payload-encryption images, PE otherwise.
func ImageType(image string) string {
	if strings.Contains(strings.ToLower(image), "npe") {
		return ImageTypeNPE
	}
	return ImageTypePE
}

// imageName strips quotes and the filesystem prefix from an image path:
// "flash:/c2960-npe.bin" becomes c2960-npe.bin.
func imageName(raw string) string {
	name := strings.Trim(raw, `"`)
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "/")
}
