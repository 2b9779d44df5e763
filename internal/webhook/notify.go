package webhook

import (
	"context"
	"fmt"

	"github.com/nattw/harnkan/internal/line"
	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/service"
)

// LineNotifier pushes settlement confirmations to the receiver. It
// implements reconcile.Notifier.
type LineNotifier struct {
	messenger Messenger
}

// NewLineNotifier creates a LineNotifier.
func NewLineNotifier(messenger Messenger) *LineNotifier {
	return &LineNotifier{messenger: messenger}
}

// SettlementVerified tells the receiver their money arrived. Receivers
// without a linked chat account are silently skipped.
func (n *LineNotifier) SettlementVerified(ctx context.Context, receiver *models.Member, s *models.Settlement) error {
	if receiver.LineUserID == "" {
		return nil
	}
	alt := fmt.Sprintf("%s โอนเงิน %s บาทให้คุณแล้ว", s.From, baht(s.Amount))
	return n.messenger.Push(ctx, receiver.LineUserID, line.NewFlex(alt, paymentReceivedBubble(s)))
}

// LineReportSender pushes monthly summaries. It implements
// service.ReportSender.
type LineReportSender struct {
	messenger Messenger
}

// NewLineReportSender creates a LineReportSender.
func NewLineReportSender(messenger Messenger) *LineReportSender {
	return &LineReportSender{messenger: messenger}
}

// SendMonthlyReport pushes the member's summary for the month.
func (r *LineReportSender) SendMonthlyReport(ctx context.Context, member *models.Member, summary *service.Summary) error {
	return r.messenger.Push(ctx, member.LineUserID, line.NewText(summaryText(summary)))
}
