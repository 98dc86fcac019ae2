// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package audit

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Exporter renders events for external systems.
type Exporter interface {
	Export(events []SecurityEvent) ([]byte, error)
	ContentType() string
}

// JSONExporter exports events in JSON format.
type JSONExporter struct{}

// Export exports events to JSON format.
func (e *JSONExporter) Export(events []SecurityEvent) ([]byte, error) {
	if events == nil {
		events = []SecurityEvent{}
	}
	return json.MarshalIndent(events, "", "  ")
}

// ContentType returns the MIME type of the export.
func (e *JSONExporter) ContentType() string {
	return "application/json"
}

// CEFExporter exports events in Common Event Format (for SIEM integration).
type CEFExporter struct {
	DeviceVendor  string
	DeviceProduct string
	DeviceVersion string
}

// NewCEFExporter creates a new CEF exporter with defaults.
func NewCEFExporter() *CEFExporter {
	return &CEFExporter{
		DeviceVendor:  "Gatehouse",
		DeviceProduct: "AccessControl",
		DeviceVersion: "1.0",
	}
}

// ContentType returns the MIME type of the export.
func (e *CEFExporter) ContentType() string {
	return "text/plain"
}

// Export exports events to CEF format.
// CEF Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func (e *CEFExporter) Export(events []SecurityEvent) ([]byte, error) {
	lines := make([]string, 0, len(events))

	for idx := range events {
		event := &events[idx]

		name := event.Action + " " + string(event.Decision)
		if event.Reason != "" {
			name += ": " + string(event.Reason)
		}

		line := fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
			e.escapeHeader(e.DeviceVendor),
			e.escapeHeader(e.DeviceProduct),
			e.escapeHeader(e.DeviceVersion),
			e.escapeHeader(event.Action),
			e.escapeHeader(name),
			e.cefSeverity(event.Severity),
			e.buildExtension(event),
		)

		lines = append(lines, line)
	}

	return []byte(strings.Join(lines, "\n")), nil
}

// cefSeverity maps our severity to CEF severity (0-10).
func (e *CEFExporter) cefSeverity(severity Severity) int {
	switch severity {
	case SeverityDebug:
		return 0
	case SeverityInfo:
		return 3
	case SeverityWarning:
		return 5
	case SeverityError:
		return 7
	case SeverityCritical:
		return 10
	default:
		return 0
	}
}

// buildExtension builds the CEF extension string.
func (e *CEFExporter) buildExtension(event *SecurityEvent) string {
	parts := []string{
		fmt.Sprintf("rt=%d", event.Timestamp.UnixMilli()),
		"suid=" + e.escapeExtension(event.Actor()),
	}

	if event.Source.IPAddress != "" {
		parts = append(parts, "src="+e.escapeExtension(event.Source.IPAddress))
	}
	if event.ResourceType != "" {
		parts = append(parts, "cs1Label=resourceType", "cs1="+e.escapeExtension(event.ResourceType))
	}
	if event.ResourceID != "" {
		parts = append(parts, "cs2Label=resourceId", "cs2="+e.escapeExtension(event.ResourceID))
	}
	if event.Reason != "" {
		parts = append(parts, "reason="+e.escapeExtension(string(event.Reason)))
	}

	parts = append(parts, "act="+e.escapeExtension(event.Action))
	parts = append(parts, "outcome="+e.escapeExtension(string(event.Decision)))

	if event.RequestID != "" {
		parts = append(parts, "externalId="+e.escapeExtension(event.RequestID))
	}

	return strings.Join(parts, " ")
}

// escapeHeader escapes header fields, where only pipe and backslash are special.
func (e *CEFExporter) escapeHeader(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}

// escapeExtension escapes extension values, where equals and backslash are special.
func (e *CEFExporter) escapeExtension(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "=", "\\=")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
