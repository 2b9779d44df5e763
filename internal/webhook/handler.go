// Package webhook handles Messaging API events: the multi-step
// expense-entry conversation for text messages and the slip
// verification flow for image messages.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nattw/harnkan/internal/ledger"
	"github.com/nattw/harnkan/internal/line"
	"github.com/nattw/harnkan/internal/metrics"
	"github.com/nattw/harnkan/internal/models"
	"github.com/nattw/harnkan/internal/reconcile"
	"github.com/nattw/harnkan/internal/service"
	"github.com/nattw/harnkan/internal/session"
	"github.com/nattw/harnkan/internal/slipok"
	"github.com/nattw/harnkan/internal/storage"
)

// Chat commands and button texts.
const (
	textConfirm  = "ตกลง"
	textEveryone = "ทุกคน"
)

// Messenger is the slice of the chat client the handler needs.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
	Push(ctx context.Context, to string, messages ...line.Message) error
	GetMessageContent(ctx context.Context, messageID string) ([]byte, error)
}

// SlipVerifier submits a slip image for verification.
type SlipVerifier interface {
	VerifyImage(ctx context.Context, image []byte, expectedAmount float64) (*slipok.Slip, error)
}

// Handler processes webhook deliveries.
type Handler struct {
	store     storage.Store
	expenses  *service.ExpenseService
	summaries *service.SummaryService
	matcher   *reconcile.Matcher
	verifier  SlipVerifier
	messenger Messenger
	now       func() time.Time
}

// New creates a webhook Handler.
func New(
	store storage.Store,
	expenses *service.ExpenseService,
	summaries *service.SummaryService,
	matcher *reconcile.Matcher,
	verifier SlipVerifier,
	messenger Messenger,
) *Handler {
	return &Handler{
		store:     store,
		expenses:  expenses,
		summaries: summaries,
		matcher:   matcher,
		verifier:  verifier,
		messenger: messenger,
		now:       time.Now,
	}
}

// ServeHTTP accepts a webhook delivery and processes its events. The
// platform retries non-200 responses, so event-level failures are
// reported to the user and logged rather than returned.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	for _, ev := range payload.Events {
		if err := h.handleEvent(r.Context(), ev); err != nil {
			slog.Error("event handling failed", "type", ev.Type, "user_id", ev.Source.UserID, "error", err)
			if ev.ReplyToken != "" {
				replyErr := h.messenger.Reply(r.Context(), ev.ReplyToken,
					line.NewText("❌ เกิดข้อผิดพลาด กรุณาลองใหม่อีกครั้ง"))
				if replyErr != nil {
					slog.Warn("error reply failed", "error", replyErr)
				}
			}
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) handleEvent(ctx context.Context, ev Event) error {
	if ev.Type != "message" {
		return nil
	}
	switch ev.Message.Type {
	case "text":
		metrics.WebhookEvents.WithLabelValues("text").Inc()
		return h.handleText(ctx, ev)
	case "image":
		metrics.WebhookEvents.WithLabelValues("image").Inc()
		return h.handleImage(ctx, ev)
	default:
		metrics.WebhookEvents.WithLabelValues("other").Inc()
		return nil
	}
}

func (h *Handler) handleText(ctx context.Context, ev Event) error {
	text := strings.TrimSpace(ev.Message.Text)
	userID := ev.Source.UserID

	if strings.Contains(text, "ดูยอด") || strings.Contains(text, "ต้องการดูค่าใช้จ่ายของเดือนนี้") {
		return h.handleSummary(ctx, ev)
	}

	if text == "เริ่มต้นจดบันทึก" || text == "จด" {
		if err := h.store.DeleteSession(ctx, userID); err != nil {
			return err
		}
		if err := h.store.PutSession(ctx, session.New(userID)); err != nil {
			return err
		}
		flex := iconBubble("จดรายการใหม่ 📝", "พิมพ์ชื่อรายการมาได้เลยครับ", iconNewEntry)
		return h.messenger.Reply(ctx, ev.ReplyToken, line.NewFlex("เริ่มจดบันทึก", flex))
	}

	switch strings.ToLower(text) {
	case "ยกเลิก", "cancel", "พอ":
		if err := h.store.DeleteSession(ctx, userID); err != nil {
			return err
		}
		return h.messenger.Reply(ctx, ev.ReplyToken, line.NewText("รับทราบ ยกเลิกรายการให้แล้วครับ"))
	}

	sess, err := h.store.GetSession(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			if strings.Contains(text, "หวัดดี") || strings.Contains(strings.ToLower(text), "hi") {
				return h.messenger.Reply(ctx, ev.ReplyToken,
					line.NewText("สวัสดีครับ พิมพ์ 'เริ่มต้นจดบันทึก' เพื่อเริ่มใช้งานได้เลย"))
			}
			return nil
		}
		return err
	}

	return h.continueEntry(ctx, ev, sess, text)
}

// continueEntry advances the entry conversation one step.
func (h *Handler) continueEntry(ctx context.Context, ev Event, sess *session.Session, text string) error {
	switch sess.Step {
	case session.StepAskDescription:
		sess.Draft.Description = text
		sess.Advance(session.StepAskAmount)
		if err := h.store.PutSession(ctx, sess); err != nil {
			return err
		}
		flex := iconBubble("ราคาเท่าไหร่?", "รายการ: "+text, iconAmount)
		return h.messenger.Reply(ctx, ev.ReplyToken, line.NewFlex("ระบุราคา", flex))

	case session.StepAskAmount:
		amount, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil || amount <= 0 {
			return h.messenger.Reply(ctx, ev.ReplyToken,
				line.NewText("⚠️ ขอเป็นตัวเลขนะครับ\nราคาเท่าไหร่ครับ?"))
		}
		sess.Draft.Amount = amount
		sess.Advance(session.StepAskPaymentType)
		if err := h.store.PutSession(ctx, sess); err != nil {
			return err
		}
		flex := iconBubble("รูปแบบการจ่าย?", fmt.Sprintf("ยอดเงิน %s บาท", baht(amount)), iconPaymentType)
		msg := line.NewFlex("เลือกรูปแบบการจ่าย", flex).WithQuickReply(
			line.NewMessageAction("ชำระเต็มจำนวน", "ชำระเต็ม"),
			line.NewMessageAction("ผ่อนชำระ", "ผ่อนชำระ"),
		)
		return h.messenger.Reply(ctx, ev.ReplyToken, msg)

	case session.StepAskPaymentType:
		if strings.Contains(text, "ผ่อน") {
			sess.Draft.PaymentType = models.PaymentInstallment
			sess.Advance(session.StepAskInstallments)
			if err := h.store.PutSession(ctx, sess); err != nil {
				return err
			}
			flex := iconBubble("ผ่อนกี่เดือน?", "ระบุจำนวนงวด (2-24)", iconInstallments)
			return h.messenger.Reply(ctx, ev.ReplyToken, line.NewFlex("ระบุจำนวนงวด", flex))
		}
		sess.Draft.PaymentType = models.PaymentNormal
		sess.Draft.Installments = 1
		sess.Advance(session.StepAskPayer)
		if err := h.store.PutSession(ctx, sess); err != nil {
			return err
		}
		return h.askPayer(ctx, ev, fmt.Sprintf("ยอดเงิน %s บาท (จ่ายเต็ม)", baht(sess.Draft.Amount)))

	case session.StepAskInstallments:
		n, err := strconv.Atoi(text)
		if err != nil || n < 2 {
			n = 2
		}
		if n > 24 {
			n = 24
		}
		sess.Draft.Installments = n
		sess.Advance(session.StepAskPayer)
		if err := h.store.PutSession(ctx, sess); err != nil {
			return err
		}
		perMonth := sess.Draft.Amount / float64(n)
		return h.askPayer(ctx, ev, fmt.Sprintf("ผ่อน %d เดือน (%s ฿/ด)", n, baht(perMonth)))

	case session.StepAskPayer:
		payer := models.MemberKey(text)
		members, err := h.store.ListMemberKeys(ctx)
		if err != nil {
			return err
		}
		if !slices.Contains(members, payer) {
			return h.messenger.Reply(ctx, ev.ReplyToken,
				line.NewText(fmt.Sprintf("⚠️ ไม่รู้จักชื่อ \"%s\" ครับ\nลองเลือกจากรายการด้านล่างครับ", payer)))
		}
		sess.Draft.Payer = payer
		sess.Draft.Participants = nil
		sess.Advance(session.StepAskSplit)
		if err := h.store.PutSession(ctx, sess); err != nil {
			return err
		}
		flex := iconBubble("ใครหารบ้าง?", "กดเลือกรายชื่อ (กดซ้ำเพื่อยกเลิก)\nแล้วกด 'ยืนยัน'", iconSplit)
		msg := line.NewFlex("เลือกคนหาร", flex).WithQuickReply(splitActions(members, nil)...)
		return h.messenger.Reply(ctx, ev.ReplyToken, msg)

	case session.StepAskSplit:
		return h.handleSplitStep(ctx, ev, sess, text)
	}

	return fmt.Errorf("unknown session step %q", sess.Step)
}

// askPayer prompts for the payer with one quick-reply button per
// member; detail recaps the amount chosen so far.
func (h *Handler) askPayer(ctx context.Context, ev Event, detail string) error {
	members, err := h.store.ListMemberKeys(ctx)
	if err != nil {
		return err
	}
	flex := iconBubble("ใครจ่าย?", detail, iconPayer)
	msg := line.NewFlex("เลือกคนจ่าย", flex).WithQuickReply(memberActions(members)...)
	return h.messenger.Reply(ctx, ev.ReplyToken, msg)
}

func (h *Handler) handleSplitStep(ctx context.Context, ev Event, sess *session.Session, text string) error {
	members, err := h.store.ListMemberKeys(ctx)
	if err != nil {
		return err
	}

	if text == textEveryone {
		sess.Draft.Participants = members
		return h.saveEntry(ctx, ev, sess)
	}

	if text == textConfirm || text == "ยืนยัน" {
		if len(sess.Draft.Participants) == 0 {
			return h.messenger.Reply(ctx, ev.ReplyToken,
				line.NewText("⚠️ กรุณาเลือกอย่างน้อย 1 คนครับ"))
		}
		return h.saveEntry(ctx, ev, sess)
	}

	if key := models.MemberKey(text); slices.Contains(members, key) {
		sess.ToggleParticipant(key)
	}
	if err := h.store.PutSession(ctx, sess); err != nil {
		return err
	}

	detail := "ยังไม่ได้เลือกใคร"
	if len(sess.Draft.Participants) > 0 {
		detail = "เลือกแล้ว: " + strings.Join(sess.Draft.Participants, ", ")
	}
	flex := iconBubble("ใครหารบ้าง?", detail, iconSplit)
	msg := line.NewFlex("เลือกคนหาร", flex).WithQuickReply(splitActions(members, sess.Draft.Participants)...)
	return h.messenger.Reply(ctx, ev.ReplyToken, msg)
}

func (h *Handler) saveEntry(ctx context.Context, ev Event, sess *session.Session) error {
	expenses, err := h.expenses.SaveFromDraft(ctx, sess.Draft, h.now())
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidInput) {
			return h.messenger.Reply(ctx, ev.ReplyToken,
				line.NewText("⚠️ ข้อมูลไม่ครบถ้วน กรุณาเริ่มจดใหม่อีกครั้งครับ"))
		}
		return err
	}
	if err := h.store.DeleteSession(ctx, ev.Source.UserID); err != nil {
		return err
	}
	metrics.ExpensesCreated.WithLabelValues(expenses[0].PaymentType).Add(float64(len(expenses)))

	d := sess.Draft
	installmentNote := ""
	if len(expenses) > 1 {
		installmentNote = fmt.Sprintf(" (ผ่อน %d เดือน)", len(expenses))
	}
	msg := fmt.Sprintf("✅ บันทึกเรียบร้อย!%s\nรายการ: %s\nยอดรวม: %s บาท\nคนจ่าย: %s\nหาร: %s",
		installmentNote, d.Description, baht(d.Amount), d.Payer, strings.Join(d.Participants, ", "))
	return h.messenger.Reply(ctx, ev.ReplyToken, line.NewText(msg))
}

func (h *Handler) handleSummary(ctx context.Context, ev Event) error {
	member, err := h.store.GetMemberByLineID(ctx, ev.Source.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return h.messenger.Reply(ctx, ev.ReplyToken,
				line.NewText("⚠️ ไม่พบข้อมูลบัญชีของคุณ\nกรุณา Login หน้าเว็บเพื่อผูกบัญชี LINE ก่อนครับ"))
		}
		return err
	}

	month := h.now().Format("2006-01")
	summary, err := h.summaries.MonthSummary(ctx, member.Key, month)
	if err != nil {
		return err
	}
	return h.messenger.Reply(ctx, ev.ReplyToken, line.NewText(summaryText(summary)))
}

// handleImage runs the slip flow: download the image, verify it, match
// it to an open transfer and report the outcome. The reply token is
// spent on an acknowledgement up front, so outcomes are pushed.
func (h *Handler) handleImage(ctx context.Context, ev Event) error {
	start := h.now()
	userID := ev.Source.UserID

	member, err := h.store.GetMemberByLineID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return h.messenger.Reply(ctx, ev.ReplyToken,
				line.NewText("❌ ไม่พบข้อมูลสมาชิก กรุณาลงทะเบียนก่อนใช้งาน"))
		}
		return err
	}

	if err := h.messenger.Reply(ctx, ev.ReplyToken, line.NewText("🔍 กำลังตรวจสอบสลิป...")); err != nil {
		slog.Warn("acknowledgement reply failed", "error", err)
	}

	image, err := h.messenger.GetMessageContent(ctx, ev.Message.ID)
	if err != nil {
		metrics.SlipVerifications.WithLabelValues(metrics.OutcomeError).Inc()
		return h.messenger.Push(ctx, userID,
			line.NewText("❌ ไม่สามารถดึงรูปภาพได้ กรุณาลองใหม่อีกครั้ง"))
	}

	slip, err := h.verifier.VerifyImage(ctx, image, 0)
	if err != nil {
		var apiErr *slipok.APIError
		if errors.As(err, &apiErr) {
			metrics.SlipVerifications.WithLabelValues(metrics.OutcomeRejected).Inc()
			return h.messenger.Push(ctx, userID,
				line.NewText(fmt.Sprintf("❌ %s\n\nรหัสข้อผิดพลาด: %d", apiErr.UserMessage(), apiErr.Code)))
		}
		metrics.SlipVerifications.WithLabelValues(metrics.OutcomeError).Inc()
		return h.messenger.Push(ctx, userID,
			line.NewText("❌ ไม่สามารถเชื่อมต่อระบบตรวจสอบสลิปได้ กรุณาลองใหม่ภายหลัง"))
	}

	payment := reconcile.Payment{
		PayerKey:        member.Key,
		Amount:          slip.Amount,
		ReceiverDisplay: slip.Receiver.DisplayName,
		ReceiverName:    slip.Receiver.Name,
		TransRef:        slip.TransRef,
		TransDate:       slip.TransDate,
		TransTime:       slip.TransTime,
		SenderDisplay:   slip.Sender.DisplayName,
		SenderName:      slip.Sender.Name,
		SendingBank:     slip.SendingBank,
		ReceivingBank:   slip.ReceivingBank,
	}

	settlement, err := h.matcher.Match(ctx, payment, reconcile.Scope{SearchAll: true})
	if err != nil {
		return h.pushMatchFailure(ctx, userID, slip, err)
	}

	metrics.SlipVerifications.WithLabelValues(metrics.OutcomeVerified).Inc()
	metrics.SlipVerificationDuration.Observe(h.now().Sub(start).Seconds())
	return h.messenger.Push(ctx, userID,
		line.NewFlex("✅ ยืนยันการโอนเงินสำเร็จ", slipSuccessBubble(settlement)))
}

func (h *Handler) pushMatchFailure(ctx context.Context, userID string, slip *slipok.Slip, err error) error {
	switch {
	case errors.Is(err, reconcile.ErrDuplicatePayment):
		metrics.SlipVerifications.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return h.messenger.Push(ctx, userID,
			line.NewText("⚠️ สลิปนี้เคยใช้ยืนยันการโอนเงินแล้ว"))

	case errors.Is(err, reconcile.ErrReceiverNotConfigured):
		metrics.SlipVerifications.WithLabelValues(metrics.OutcomeError).Inc()
		return h.messenger.Push(ctx, userID,
			line.NewText("⚠️ ผู้รับยังไม่ได้ตั้งค่าชื่อจริง\nกรุณาแจ้งให้ตั้งค่าในหน้า Settings ก่อน"))

	case errors.Is(err, reconcile.ErrReceiverMismatch):
		metrics.SlipVerifications.WithLabelValues(metrics.OutcomeMismatch).Inc()
		expected := "ผู้รับที่ลงทะเบียนไว้"
		var mismatch *reconcile.MismatchError
		if errors.As(err, &mismatch) {
			if m, err := h.store.GetMember(ctx, mismatch.Receiver); err == nil && m.RealName != "" {
				expected = m.RealName
			}
		}
		return h.messenger.Push(ctx, userID,
			line.NewText(fmt.Sprintf("❌ ชื่อผู้รับไม่ตรงกัน\n\n🎯 คาดหวัง: %s\n📄 ในสลิป: %s\n\nกรุณาตรวจสอบว่าโอนให้ถูกคนหรือไม่",
				expected, slip.Receiver.DisplayName)))

	case errors.Is(err, reconcile.ErrNoMatchingTransfer):
		metrics.SlipVerifications.WithLabelValues(metrics.OutcomeNoMatch).Inc()
		return h.messenger.Push(ctx, userID,
			line.NewText(fmt.Sprintf("⚠️ ไม่พบรายการที่ตรงกับจำนวนเงิน %s บาท\n\nกรุณาตรวจสอบว่าคุณมียอดค้างชำระจำนวนนี้หรือไม่", baht(slip.Amount))))

	default:
		metrics.SlipVerifications.WithLabelValues(metrics.OutcomeError).Inc()
		slog.Error("slip matching failed", "user_id", userID, "error", err)
		return h.messenger.Push(ctx, userID,
			line.NewText("❌ เกิดข้อผิดพลาดในการบันทึก กรุณาลองใหม่อีกครั้ง"))
	}
}
