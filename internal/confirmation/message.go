package confirmation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rowncoffee/rown-backend/pkg/config"
	"github.com/rowncoffee/rown-backend/pkg/enums"
)

// componentEscaper turns url.QueryEscape output into encodeURIComponent output.
var componentEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// Messenger renders the merchant chat message for a confirmed order.
type Messenger struct {
	storeName string
	host      string
	number    string
}

func NewMessenger(cfg config.MessagingConfig) Messenger {
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(cfg.Host), "https://"), "/")
	if host == "" {
		host = "wa.me"
	}
	storeName := strings.TrimSpace(cfg.StoreName)
	if storeName == "" {
		storeName = "Rown Coffee"
	}
	return Messenger{
		storeName: storeName,
		host:      host,
		number:    strings.TrimSpace(cfg.MerchantNumber),
	}
}

// Message is the plain order text.
func (m Messenger) Message(s Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s, saya %s, mau pesan:\n", m.storeName, s.CustomerName)
	for _, item := range s.Items {
		fmt.Fprintf(&b, "- %dx %s\n", item.Quantity, item.Name)
	}
	fmt.Fprintf(&b, "Alamat: %s\n", s.CustomerAddress)
	fmt.Fprintf(&b, "HP: %s\n", s.CustomerPhone)

	if s.PaymentMethod == enums.PaymentMethodCash {
		b.WriteString("Pembayaran: Cash (Bayar di Tempat).")
	} else {
		b.WriteString("Pembayaran: Lunas (via QRIS).")
		if s.HasPaymentProof {
			b.WriteString(" Bukti bayar sudah diupload.")
		}
	}
	return b.String()
}

// FormatMessage returns the message percent-encoded for use as a query value.
func (m Messenger) FormatMessage(s Snapshot) string {
	return EncodeComponent(m.Message(s))
}

// Link is the chat deep link that opens a conversation with the merchant.
func (m Messenger) Link(s Snapshot) string {
	return fmt.Sprintf("https://%s/%s?text=%s", m.host, m.number, m.FormatMessage(s))
}

// EncodeComponent percent-encodes value the way encodeURIComponent does:
// spaces become %20 and the marks !'()* stay literal.
func EncodeComponent(value string) string {
	return componentEscaper.Replace(url.QueryEscape(value))
}
