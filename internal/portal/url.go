// ===== internal/portal/url.go =====
package portal

import (
	"strings"
)

// Fixed login parameters sent by the gateway's own web page
const (
	callback     = "dr1005"
	loginMethod  = "1"
	userMAC      = "000000000000"
	jsVersion    = "4.1.3"
	terminalType = "1"

	accountPrefix = "%2C0%2C"   // ",0,"
	accountSuffix = "%40unicom" // "@unicom"
)

// BuildLoginURL composes the login URL. Every argument except base must
// already be percent-encoded; values are concatenated as given and empty
// ones are kept as empty query values.
func BuildLoginURL(base, accountEncoded, passwordEncoded, ipv4, ipv6Encoded string) string {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("?callback=" + callback)
	sb.WriteString("&login_method=" + loginMethod)
	sb.WriteString("&user_account=" + accountPrefix + accountEncoded + accountSuffix)
	sb.WriteString("&user_password=" + passwordEncoded)
	sb.WriteString("&wlan_user_ip=" + ipv4)
	sb.WriteString("&wlan_user_ipv6=" + ipv6Encoded)
	sb.WriteString("&wlan_user_mac=" + userMAC)
	sb.WriteString("&wlan_ac_ip=")
	sb.WriteString("&wlan_ac_name=")
	sb.WriteString("&jsVersion=" + jsVersion)
	sb.WriteString("&terminal_type=" + terminalType)
	return sb.String()
}
