package hal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/autopeer-io/transitpanel/internal/panel/core"
)

// ErrRadioInactive is returned when associating while the radio is powered down.
var ErrRadioInactive = errors.New("radio is not active")

// commandTimeout bounds a single nmcli invocation.
const commandTimeout = 5 * time.Second

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, bytes.TrimSpace(out))
	}
	return out, nil
}

var _ core.Radio = (*NmcliRadio)(nil)

// NmcliRadio drives a wireless interface through NetworkManager.
type NmcliRadio struct {
	iface string
	run   Runner
}

// NewNmcliRadio returns a radio bound to iface. A nil run uses os/exec.
func NewNmcliRadio(iface string, run Runner) *NmcliRadio {
	if run == nil {
		run = execRunner
	}
	return &NmcliRadio{iface: iface, run: run}
}

func (r *NmcliRadio) nmcli(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return r.run(ctx, "nmcli", args...)
}

func (r *NmcliRadio) SetActive(active bool) error {
	state := "off"
	if active {
		state = "on"
	}
	_, err := r.nmcli("radio", "wifi", state)
	return err
}

// Associate asks NetworkManager to connect without waiting for the result.
func (r *NmcliRadio) Associate(ssid, password string) error {
	args := []string{"--wait", "0", "device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", r.iface)
	_, err := r.nmcli(args...)
	return err
}

func (r *NmcliRadio) Disassociate() error {
	_, err := r.nmcli("device", "disconnect", r.iface)
	return err
}

func (r *NmcliRadio) IsConnected() bool {
	out, err := r.nmcli("-t", "-f", "GENERAL.STATE", "device", "show", r.iface)
	if err != nil {
		return false
	}
	return parseDeviceState(out)
}

func (r *NmcliRadio) Address() (string, bool) {
	ifi, err := net.InterfaceByName(r.iface)
	if err != nil {
		return "", false
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return "", false
	}
	return firstIPv4(addrs)
}

// parseDeviceState reads "GENERAL.STATE:100 (connected)" style output.
func parseDeviceState(out []byte) bool {
	for _, line := range strings.Split(string(out), "\n") {
		value, ok := strings.CutPrefix(strings.TrimSpace(line), "GENERAL.STATE:")
		if !ok {
			continue
		}
		code, _, _ := strings.Cut(value, " ")
		return code == "100"
	}
	return false
}

func firstIPv4(addrs []net.Addr) (string, bool) {
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4.String(), true
		}
	}
	return "", false
}
