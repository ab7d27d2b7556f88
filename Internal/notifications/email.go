package notifications

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tradelab/fvgscanner/Internal/strategy/signals"
	"github.com/tradelab/fvgscanner/Internal/types"
	"github.com/tradelab/fvgscanner/Internal/utils/config"
	"github.com/tradelab/fvgscanner/pkg/logger"
)

// Notifier sends signal alerts over SMTP. The sender password comes
// from the SMTP_PASSWORD environment variable, never from config files.
type Notifier struct {
	Enabled        bool
	SMTPServer     string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	RecipientEmail string
}

func NewNotifier(cfg config.EmailConfig) *Notifier {
	n := &Notifier{
		Enabled:        cfg.Enabled,
		SMTPServer:     cfg.SMTPServer,
		SMTPPort:       cfg.SMTPPort,
		SenderEmail:    cfg.SenderEmail,
		SenderPassword: os.Getenv("SMTP_PASSWORD"),
		RecipientEmail: cfg.RecipientEmail,
	}

	if n.Enabled {
		logger.Info("email notifications enabled",
			zap.String("sender", n.SenderEmail),
			zap.String("recipient", n.RecipientEmail))
	} else {
		logger.Info("email notifications disabled")
	}
	return n
}

// SendSignalNotification emails one trading signal as text plus HTML.
// Returns false without error when notifications are disabled.
func (n *Notifier) SendSignalNotification(signal types.Signal) (bool, error) {
	if !n.Enabled {
		logger.Debug("email notifications disabled, skipping")
		return false, nil
	}

	subject := fmt.Sprintf("Trading Signal: %s %s (%s)",
		strings.ToUpper(signal.Direction), signal.Symbol, signal.Timeframe)
	textBody := signals.FormatSignalNotification(signal)

	msg := n.buildMessage(subject, textBody, formatHTML(signal))
	if err := n.send(msg); err != nil {
		logger.Error("failed to send signal notification",
			zap.String("symbol", signal.Symbol), zap.Error(err))
		return false, err
	}

	logger.Info("email notification sent",
		zap.String("symbol", signal.Symbol),
		zap.String("direction", signal.Direction))
	return true, nil
}

// SendSummaryNotification emails a periodic digest of generated signals.
func (n *Notifier) SendSummaryNotification(summary types.SignalSummary) (bool, error) {
	if !n.Enabled {
		return false, nil
	}

	subject := fmt.Sprintf("Trading Summary - %s", time.Now().UTC().Format("2006-01-02"))
	body := fmt.Sprintf(`SIGNAL SUMMARY

Total Signals: %d
Long: %d
Short: %d
Total Risk: $%.2f
Symbols: %s
`, summary.Total, summary.Long, summary.Short, summary.TotalRisk, strings.Join(summary.Symbols, ", "))

	msg := n.buildMessage(subject, body, "")
	if err := n.send(msg); err != nil {
		logger.Error("failed to send summary notification", zap.Error(err))
		return false, err
	}
	return true, nil
}

func (n *Notifier) buildMessage(subject, textBody, htmlBody string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", n.SenderEmail)
	fmt.Fprintf(&b, "To: %s\r\n", n.RecipientEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	if htmlBody == "" {
		b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(textBody)
		return []byte(b.String())
	}

	const boundary = "signal-boundary"
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(textBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

func (n *Notifier) send(msg []byte) error {
	addr := fmt.Sprintf("%s:%d", n.SMTPServer, n.SMTPPort)
	auth := smtp.PlainAuth("", n.SenderEmail, n.SenderPassword, n.SMTPServer)
	return smtp.SendMail(addr, auth, n.SenderEmail, []string{n.RecipientEmail}, msg)
}

func formatHTML(signal types.Signal) string {
	color := "#2e7d32"
	if signal.Direction == types.DirectionShort {
		color = "#c62828"
	}

	var tps strings.Builder
	fmt.Fprintf(&tps, "<li>TP1: %.8f (R/R %.2f)</li>", signal.TakeProfit1, signal.RiskRewardRatio)
	if signal.TakeProfit2 != nil {
		fmt.Fprintf(&tps, "<li>TP2: %.8f</li>", *signal.TakeProfit2)
	}
	if signal.TakeProfit3 != nil {
		fmt.Fprintf(&tps, "<li>TP3: %.8f</li>", *signal.TakeProfit3)
	}

	return fmt.Sprintf(`<html>
<body>
<h2 style="color:%s">%s %s (%s)</h2>
<table>
<tr><td>Entry</td><td>%.8f</td></tr>
<tr><td>Stop Loss</td><td>%.8f</td></tr>
<tr><td>Position Size</td><td>%.4f</td></tr>
<tr><td>Risk Amount</td><td>$%.2f</td></tr>
</table>
<ul>%s</ul>
<p>%s</p>
<p>Valid until %s</p>
</body>
</html>`,
		color, strings.ToUpper(signal.Direction), signal.Symbol, signal.Timeframe,
		signal.EntryPrice, signal.StopLoss, signal.PositionSize, signal.RiskAmount,
		tps.String(), signal.Notes, signal.ValidUntil.Format(time.RFC1123))
}
