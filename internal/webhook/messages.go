package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nattw/harnkan/internal/line"
	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/service"
)

// Icons shown on the entry-flow prompts.
const (
	iconNewEntry     = "https://img.icons8.com/color/96/create-new.png"
	iconAmount       = "https://img.icons8.com/color/96/money-bag-baht.png"
	iconPaymentType  = "https://img.icons8.com/color/96/card-exchange.png"
	iconInstallments = "https://img.icons8.com/color/96/calendar--v1.png"
	iconPayer        = "https://img.icons8.com/color/96/user-male-circle--v1.png"
	iconSplit        = "https://img.icons8.com/color/96/conference-call.png"
)

var thaiMonths = []string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

// iconBubble is the shared prompt layout: hero icon, bold title, grey
// detail line.
func iconBubble(title, text, iconURL string) *line.Bubble {
	b := line.NewBubble()
	b.Hero = &line.FlexImage{
		Type:        "image",
		URL:         iconURL,
		Size:        "full",
		AspectRatio: "20:13",
		AspectMode:  "cover",
	}
	b.Body = line.NewBox("vertical",
		&line.Text{Type: "text", Text: title, Weight: "bold", Size: "xl", Color: "#1e293b"},
		&line.Text{Type: "text", Text: text, Size: "md", Color: "#64748b", Margin: "sm", Wrap: true},
	)
	return b
}

// baht formats an amount with thousands separators.
func baht(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	var out strings.Builder
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
		out.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	if frac != "" {
		out.WriteByte('.')
		out.WriteString(frac)
	}
	return out.String()
}

// thaiSlipDate renders a "20060102" slip date in Thai short form with
// the Buddhist-era year. Unparseable input is returned as-is.
func thaiSlipDate(dateStr string) string {
	if len(dateStr) != 8 {
		return dateStr
	}
	year, err1 := strconv.Atoi(dateStr[:4])
	month, err2 := strconv.Atoi(dateStr[4:6])
	day, err3 := strconv.Atoi(dateStr[6:8])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 {
		return dateStr
	}
	return fmt.Sprintf("%d %s %d", day, thaiMonths[month-1], year+543)
}

// memberActions builds quick-reply buttons for picking a member.
func memberActions(members []string) []line.QuickReplyItem {
	items := make([]line.QuickReplyItem, 0, len(members))
	for _, m := range members {
		items = append(items, line.NewMessageAction(m, m))
	}
	return items
}

// splitActions builds the participant-selection buttons, with a check
// mark on already-selected members.
func splitActions(members, selected []string) []line.QuickReplyItem {
	selectedSet := make(map[string]bool, len(selected))
	for _, s := range selected {
		selectedSet[s] = true
	}

	items := []line.QuickReplyItem{
		line.NewMessageAction("✅ ยืนยัน", textConfirm),
		line.NewMessageAction("👥 ทุกคน", textEveryone),
	}
	for _, m := range members {
		label := m
		if selectedSet[m] {
			label = "✔️ " + m
		}
		items = append(items, line.NewMessageAction(label, m))
	}
	return items
}

// summaryText renders a member's month summary the way the chat shows
// it: the transfers they must send, then the ones they are waiting on.
func summaryText(s *service.Summary) string {
	if !s.HasExpenses {
		return fmt.Sprintf("เดือน %s ยังไม่มีรายการค่าใช้จ่ายครับ", s.Month)
	}
	if s.Cleared() {
		return fmt.Sprintf("🎉 ยอดเดือน %s ของคุณ %s เคลียร์หมดแล้วครับ (0 บาท)", s.Month, s.Member)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 สรุปยอดเดือน %s ของ %s\n", s.Month, s.Member)

	if len(s.ToPay) > 0 {
		b.WriteString("\n🔴 ต้องโอนจ่าย:\n")
		for _, t := range s.ToPay {
			fmt.Fprintf(&b, "- โอนให้ %s: %s บาท\n", t.To, baht(t.Amount))
		}
	}
	if len(s.ToReceive) > 0 {
		b.WriteString("\n🟢 รอรับเงิน:\n")
		for _, t := range s.ToReceive {
			fmt.Fprintf(&b, "- จาก %s: %s บาท\n", t.From, baht(t.Amount))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// slipDetailRow is one label/value baseline row in a slip bubble.
func slipDetailRow(label, value, valueColor, valueSize, valueWeight string) line.Component {
	return &line.Box{
		Type:    "box",
		Layout:  "baseline",
		Spacing: "sm",
		Contents: []line.Component{
			&line.Text{Type: "text", Text: label, Color: "#aaaaaa", Size: "sm", Flex: 2},
			&line.Text{Type: "text", Text: value, Color: valueColor, Size: valueSize, Weight: valueWeight, Flex: 3, Wrap: true},
		},
	}
}

// slipSuccessBubble confirms a verified transfer back to the payer.
func slipSuccessBubble(s *models.Settlement) *line.Bubble {
	b := line.NewBubble()
	b.Size = "kilo"
	b.Header = &line.Box{
		Type:   "box",
		Layout: "vertical",
		Contents: []line.Component{
			&line.Text{Type: "text", Text: "✅ ยืนยันการโอนเงินสำเร็จ", Weight: "bold", Color: "#ffffff", Size: "sm"},
		},
		BackgroundColor: "#10b981",
		PaddingAll:      "15px",
	}
	b.Body = &line.Box{
		Type:   "box",
		Layout: "vertical",
		Contents: []line.Component{
			&line.Text{Type: "text", Text: "ข้อมูลการโอนเงิน", Weight: "bold", Size: "lg"},
			&line.Box{
				Type:    "box",
				Layout:  "vertical",
				Margin:  "lg",
				Spacing: "sm",
				Contents: []line.Component{
					slipDetailRow("จำนวนเงิน", baht(s.Slip.Amount)+" บาท", "#10b981", "md", "bold"),
					slipDetailRow("ผู้โอน", s.Slip.SenderDisplay, "#666666", "sm", ""),
					slipDetailRow("ผู้รับ", s.Slip.ReceiverDisplay, "#666666", "sm", ""),
					slipDetailRow("วันที่", thaiSlipDate(s.Slip.TransDate), "#666666", "sm", ""),
					slipDetailRow("เวลา", s.Slip.TransTime, "#666666", "sm", ""),
				},
			},
		},
	}
	return b
}

// paymentReceivedBubble tells the receiver their money arrived.
func paymentReceivedBubble(s *models.Settlement) *line.Bubble {
	b := line.NewBubble()
	b.Size = "kilo"
	b.Header = &line.Box{
		Type:   "box",
		Layout: "vertical",
		Contents: []line.Component{
			&line.Text{Type: "text", Text: "✅ ยืนยันการโอนเงิน", Weight: "bold", Color: "#ffffff", Size: "sm"},
		},
		BackgroundColor: "#10b981",
		PaddingAll:      "15px",
	}
	b.Body = &line.Box{
		Type:   "box",
		Layout: "vertical",
		Contents: []line.Component{
			&line.Text{Type: "text", Text: fmt.Sprintf("%s โอนเงินให้คุณแล้ว", s.From), Weight: "bold", Size: "lg"},
			&line.Box{
				Type:    "box",
				Layout:  "vertical",
				Margin:  "lg",
				Spacing: "sm",
				Contents: []line.Component{
					slipDetailRow("จำนวนเงิน", baht(s.Slip.Amount)+" บาท", "#10b981", "md", "bold"),
					slipDetailRow("วันที่", thaiSlipDate(s.Slip.TransDate), "#666666", "sm", ""),
					slipDetailRow("เวลา", s.Slip.TransTime, "#666666", "sm", ""),
				},
			},
			&line.Box{
				Type:   "box",
				Layout: "vertical",
				Margin: "lg",
				Contents: []line.Component{
					&line.Text{Type: "text", Text: "💡 ยอดของเดือนนี้ได้รับการอัปเดตแล้ว", Size: "xs", Color: "#999999", Wrap: true},
				},
			},
		},
	}
	return b
}
