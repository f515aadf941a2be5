package routing

import "strings"

// whatsappSuffix is the JID domain UAZAPI appends to individual senders.
const whatsappSuffix = "@s.whatsapp.net"

// SenderID turns a WhatsApp JID into the phone number used both as the
// conversation key and as the delivery target.
func SenderID(jid string) string {
	return strings.TrimSpace(strings.ReplaceAll(jid, whatsappSuffix, ""))
}
