package netmode

// The daemon runs as an unprivileged user; every network tool goes through
// sudo with an absolute path so the sudoers whitelist stays narrow.

const (
	rfkillBin    = "/usr/sbin/rfkill"
	nmcliBin     = "/usr/bin/nmcli"
	systemctlBin = "/bin/systemctl"
	shutdownBin  = "/sbin/shutdown"

	unitDnsmasq = "dnsmasq"
	unitNmbd    = "nmbd"
	unitSmbd    = "smbd"
)

func rfkillCmd(action string) []string {
	return []string{"sudo", rfkillBin, action, "wifi"}
}

func systemctlCmd(verb, unit string) []string {
	return []string{"sudo", systemctlBin, verb, unit}
}

func nmcliConnectionCmd(verb, name string) []string {
	return []string{"sudo", nmcliBin, "connection", verb, name}
}

func nmcliHotspotCmd(iface, conName, ssid, password string) []string {
	return []string{
		"sudo", nmcliBin, "device", "wifi", "hotspot",
		"ifname", iface, "con-name", conName,
		"ssid", ssid, "password", password,
	}
}

func shutdownCmd() []string {
	return []string{"sudo", shutdownBin, "-h", "now"}
}
