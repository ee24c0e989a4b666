package serialmon

import (
	"fmt"
	"github.com/albenik/go-serial/v2/enumerator"
	"io"
	"sort"
)

type PortInfo struct {
	Device      string
	Description string
}

// ListPorts returns the serial ports attached to this host, sorted by device name.
// No ports is an empty slice, not an error.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Device:      d.Name,
			Description: describe(d.IsUSB, d.VID, d.PID, d.SerialNumber),
		})
	}
	sort.Slice(ports, func(i, j int) bool {
		return ports[i].Device < ports[j].Device
	})
	return ports, nil
}

func describe(isUSB bool, vid string, pid string, serialNumber string) string {
	if !isUSB {
		return "n/a"
	}
	desc := fmt.Sprintf("USB VID:PID=%s:%s", vid, pid)
	if serialNumber != "" {
		desc += " SER=" + serialNumber
	}
	return desc
}

func Devices(ports []PortInfo) []string {
	devices := make([]string, 0, len(ports))
	for _, p := range ports {
		devices = append(devices, p.Device)
	}
	return devices
}

func PrintPorts(w io.Writer, ports []PortInfo) {
	fmt.Fprintln(w, "\n=== Available COM Ports ===")
	for _, p := range ports {
		fmt.Fprintf(w, "  %s: %s\n", p.Device, p.Description)
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "  No COM ports found!")
	}
}
