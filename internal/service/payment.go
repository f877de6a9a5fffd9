package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"shopapi/internal/metrics"
	"shopapi/internal/model"
	"shopapi/internal/payment"
	"shopapi/internal/payment/zenopay"
	"shopapi/internal/repository"
	"shopapi/internal/sqlerr"
)

const (
	idempotencyConstraint = "payment_sessions_idempotency_key_key"
	orderNumberConstraint = "orders_order_number_key"
)

// Reconcile outcomes.
const (
	OutcomeCompleted        = "completed"
	OutcomeFailed           = "failed"
	OutcomeExpired          = "expired"
	OutcomePending          = "pending"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeRefundRequired   = "refund_required"
)

// Webhook outcomes.
const (
	WebhookIgnored      = "ignored"
	WebhookAcknowledged = "acknowledged"
)

// Gateway is the subset of the ZenoPay client used by payments.
type Gateway interface {
	CreateOrder(ctx context.Context, in zenopay.CreateOrderRequest) (*zenopay.CreateOrderResponse, error)
	OrderStatus(ctx context.Context, orderID string) (*zenopay.OrderStatus, error)
}

// PaymentConfig holds the tunables of the checkout flow.
type PaymentConfig struct {
	WebhookURL     string
	WebhookAPIKey  string
	Currency       string
	ShippingFee    decimal.Decimal
	SessionTTL     time.Duration
	PollInterval   time.Duration
	ReconcileDelay time.Duration
}

// InitiateInput is a checkout request for the caller's current cart.
type InitiateInput struct {
	Phone          string
	AddressID      string
	BuyerName      string
	BuyerEmail     string
	IdempotencyKey string
}

// InitiateResult is returned to the storefront after a checkout request.
type InitiateResult struct {
	OrderID     string              `json:"order_id"`
	OrderNumber string              `json:"order_number"`
	SessionID   string              `json:"session_id"`
	Status      model.SessionStatus `json:"status"`
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Reused      bool                `json:"reused"`
}

// Confirmation is the gateway's proof of a successful payment.
type Confirmation struct {
	Reference     string
	TransactionID string
	Channel       string
	Payload       []byte
}

// ReconcileResult is the state of a session after bringing it in line with the gateway.
type ReconcileResult struct {
	Session *model.PaymentSession `json:"session"`
	Outcome string                `json:"outcome"`
}

// WebhookResult is acknowledged to the gateway.
type WebhookResult struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
}

// RecoverOptions selects the pending sessions a recovery sweep reconciles.
type RecoverOptions struct {
	OlderThan time.Duration
	Limit     int
	DryRun    bool
	Source    string
}

type PaymentService interface {
	Initiate(ctx context.Context, userID string, in InitiateInput) (*InitiateResult, error)
	// GetStatus returns the caller's session, checking the gateway first when a pending session is due.
	GetStatus(ctx context.Context, userID, sessionID string) (*model.PaymentSession, error)
	HandleWebhook(ctx context.Context, apiKey string, body []byte) (*WebhookResult, error)

	Complete(ctx context.Context, sessionID string, c Confirmation, source string) (*repository.TransitionResult, error)
	Fail(ctx context.Context, sessionID, reason, source string, payload []byte) (*repository.TransitionResult, error)
	Expire(ctx context.Context, sessionID, source string) (*repository.TransitionResult, error)
	Reconcile(ctx context.Context, sessionID, source string) (*ReconcileResult, error)

	RecoverStuck(ctx context.Context, opts RecoverOptions) (*model.SweepReport, error)
	ExpireSessions(ctx context.Context, limit int, source string) (*model.SweepReport, error)

	ListSessions(ctx context.Context, status string, limit, offset int) (*ListResult[model.PaymentSession], error)
	GetSession(ctx context.Context, id string) (*model.PaymentSession, error)
	ListLogs(ctx context.Context, sessionID string) ([]model.PaymentLog, error)
}

type paymentService struct {
	payments  repository.PaymentRepository
	carts     repository.CartRepository
	addresses repository.AddressRepository
	users     repository.UserRepository
	gateway   Gateway
	queue     TaskQueue
	metrics   *metrics.Payments
	cfg       PaymentConfig
	now       Clock
	log       zerolog.Logger
}

// PaymentDeps groups the collaborators of the payment service.
type PaymentDeps struct {
	Payments  repository.PaymentRepository
	Carts     repository.CartRepository
	Addresses repository.AddressRepository
	Users     repository.UserRepository
	Gateway   Gateway
	Queue     TaskQueue
	Metrics   *metrics.Payments
	Clock     Clock
	Logger    zerolog.Logger
}

func NewPaymentService(d PaymentDeps, cfg PaymentConfig) PaymentService {
	now := d.Clock
	if now == nil {
		now = utcNow
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 15 * time.Minute
	}
	if cfg.Currency == "" {
		cfg.Currency = "TZS"
	}
	return &paymentService{
		payments:  d.Payments,
		carts:     d.Carts,
		addresses: d.Addresses,
		users:     d.Users,
		gateway:   d.Gateway,
		queue:     d.Queue,
		metrics:   d.Metrics,
		cfg:       cfg,
		now:       now,
		log:       componentLogger(d.Logger, "payments"),
	}
}

func (s *paymentService) Initiate(ctx context.Context, userID string, in InitiateInput) (*InitiateResult, error) {
	phone, err := payment.NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(in.AddressID); err != nil {
		return nil, ErrAddressNotFound
	}
	addr, err := s.addresses.FindByID(ctx, userID, in.AddressID)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}

	name, email := strings.TrimSpace(in.BuyerName), strings.TrimSpace(in.BuyerEmail)
	if name == "" || email == "" {
		u, err := s.users.FindByID(ctx, userID)
		if err != nil && !sqlerr.IsNoRows(err) {
			return nil, err
		}
		if u != nil {
			if name == "" {
				name = u.FullName()
			}
			if email == "" {
				email = u.Email
			}
		}
	}
	if name == "" {
		name = addr.FullName
	}
	if email == "" {
		return nil, ErrBuyerEmail
	}

	items, err := s.carts.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range items {
		if !it.IsActive || it.Quantity > it.Stock {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, it.ProductName)
		}
	}

	now := s.now()
	cart := model.NewCart(items)
	order := &model.Order{
		UserID:          userID,
		Subtotal:        cart.Subtotal,
		ShippingFee:     s.cfg.ShippingFee,
		Total:           cart.Subtotal.Add(s.cfg.ShippingFee),
		Currency:        s.cfg.Currency,
		ShippingAddress: model.SnapshotAddress(addr),
		CartFingerprint: cart.Fingerprint(),
		BuyerName:       name,
		BuyerEmail:      email,
		BuyerPhone:      phone,
		Items:           model.OrderItemsFromCart(cart.Items),
	}
	checkout := repository.CheckoutInput{
		UserID: userID,
		Order:  order,
		Session: &model.PaymentSession{
			Gateway:        model.GatewayZenoPay,
			GatewayOrderID: uuid.NewString(),
			Phone:          phone,
			ExpiresAt:      now.Add(s.cfg.SessionTTL),
		},
		Now: now,
	}
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		checkout.IdempotencyKey = &key
	}

	res, err := s.createCheckout(ctx, checkout)
	if err != nil {
		return nil, err
	}
	if res.Session.UserID != userID {
		return nil, ErrIdempotencyKey
	}
	if res.Reused {
		s.log.Info().Str("session_id", res.Session.ID).Str("order_number", res.Order.OrderNumber).Msg("checkout reused existing session")
		return initiateResult(res), nil
	}

	_, err = s.gateway.CreateOrder(ctx, zenopay.CreateOrderRequest{
		OrderID:    res.Session.GatewayOrderID,
		BuyerEmail: res.Order.BuyerEmail,
		BuyerName:  res.Order.BuyerName,
		BuyerPhone: phone,
		Amount:     res.Session.Amount,
		WebhookURL: s.cfg.WebhookURL,
	})
	s.metrics.GatewayCall("create_order", err)
	if err != nil {
		s.recordGatewayError(ctx, res.Session, err)
		var apiErr *zenopay.APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			s.log.Error().Err(err).Str("session_id", res.Session.ID).Msg("gateway rejected checkout")
			if _, cerr := s.close(ctx, res.Session.ID, model.SessionFailed, "gateway error", model.SourceCheckout, nil); cerr != nil {
				s.log.Error().Err(cerr).Str("session_id", res.Session.ID).Msg("failed to close session after gateway error")
			}
			return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
		}
		// The push may still have reached the buyer. Reconciliation or expiry settles the session.
		s.log.Warn().Err(err).Str("session_id", res.Session.ID).Msg("gateway outcome unknown, session left pending")
	}

	if err := s.queue.EnqueueReconcile(ctx, res.Session.ID, s.cfg.ReconcileDelay); err != nil {
		// The recovery sweep still picks the session up.
		s.log.Warn().Err(err).Str("session_id", res.Session.ID).Msg("failed to enqueue reconcile task")
	}
	s.log.Info().
		Str("session_id", res.Session.ID).
		Str("order_number", res.Order.OrderNumber).
		Str("amount", res.Session.Amount.String()).
		Msg("payment initiated")
	return initiateResult(res), nil
}

// createCheckout retries on the rare order number collision.
func (s *paymentService) createCheckout(ctx context.Context, in repository.CheckoutInput) (*repository.CheckoutResult, error) {
	for attempt := 0; ; attempt++ {
		in.Order.OrderNumber = newOrderNumber(in.Now)
		res, err := s.payments.CreatePendingCheckout(ctx, in)
		switch {
		case err == nil:
			return res, nil
		case sqlerr.IsUniqueViolation(err, idempotencyConstraint):
			return nil, ErrIdempotencyKey
		case sqlerr.IsUniqueViolation(err, orderNumberConstraint) && attempt < 2:
			continue
		default:
			return nil, err
		}
	}
}

func initiateResult(res *repository.CheckoutResult) *InitiateResult {
	return &InitiateResult{
		OrderID:     res.Order.ID,
		OrderNumber: res.Order.OrderNumber,
		SessionID:   res.Session.ID,
		Status:      res.Session.Status,
		Amount:      res.Session.Amount,
		Currency:    res.Session.Currency,
		ExpiresAt:   res.Session.ExpiresAt,
		Reused:      res.Reused,
	}
}

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newOrderNumber returns ORD-YYYYMMDD-XXXXXX.
func newOrderNumber(now time.Time) string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = orderNumberAlphabet[int(b[i])%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), b)
}

func (s *paymentService) recordGatewayError(ctx context.Context, sess *model.PaymentSession, gwErr error) {
	payload, _ := json.Marshal(map[string]string{"error": gwErr.Error()})
	if err := s.payments.AppendLog(ctx, &model.PaymentLog{
		SessionID: &sess.ID,
		OrderID:   &sess.OrderID,
		Event:     model.LogGatewayError,
		Source:    model.SourceCheckout,
		Payload:   payload,
	}); err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("failed to write payment log")
	}
}

func (s *paymentService) GetStatus(ctx context.Context, userID, sessionID string) (*model.PaymentSession, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if !sess.DueForCheck(s.now(), s.cfg.PollInterval) {
		return sess, nil
	}
	res, err := s.Reconcile(ctx, sessionID, model.SourcePoll)
	if err != nil {
		// A gateway hiccup must not break polling; report what is stored.
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("status check failed")
		return sess, nil
	}
	return res.Session, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, apiKey string, body []byte) (*WebhookResult, error) {
	if !zenopay.VerifyAPIKey(s.cfg.WebhookAPIKey, apiKey) {
		s.metrics.Webhook("unauthorized")
		return nil, ErrWebhookKey
	}

	hook, err := zenopay.ParseWebhook(body)
	if err != nil {
		s.appendLog(ctx, &model.PaymentLog{Event: model.LogWebhook, Source: model.SourceWebhook, Payload: body})
		s.metrics.Webhook("invalid")
		return nil, fmt.Errorf("%w: %v", ErrWebhookPayload, err)
	}

	sess, err := s.payments.FindSessionByGatewayOrderID(ctx, hook.OrderID)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			s.appendLog(ctx, &model.PaymentLog{Event: model.LogWebhook, Source: model.SourceWebhook, Payload: body})
			s.metrics.Webhook(WebhookIgnored)
			s.log.Warn().Str("gateway_order_id", hook.OrderID).Msg("webhook for unknown order ignored")
			return &WebhookResult{Status: WebhookIgnored}, nil
		}
		return nil, err
	}
	s.appendLog(ctx, &model.PaymentLog{
		SessionID: &sess.ID,
		OrderID:   &sess.OrderID,
		Event:     model.LogWebhook,
		Source:    model.SourceWebhook,
		Payload:   body,
	})

	out := &WebhookResult{Status: WebhookAcknowledged, SessionID: sess.ID}
	switch hook.PaymentStatus {
	case zenopay.StatusCompleted:
		s.checkAmount(sess, hook.Amount, model.SourceWebhook)
		res, err := s.Complete(ctx, sess.ID, Confirmation{
			Reference:     hook.Reference,
			TransactionID: hook.TransID,
			Channel:       hook.Channel,
			Payload:       body,
		}, model.SourceWebhook)
		if err != nil {
			return nil, err
		}
		out.Status = transitionOutcome(res, OutcomeCompleted)
	case zenopay.StatusFailed, zenopay.StatusCancelled:
		res, err := s.Fail(ctx, sess.ID, "gateway reported "+strings.ToLower(hook.PaymentStatus), model.SourceWebhook, body)
		if err != nil {
			return nil, err
		}
		out.Status = transitionOutcome(res, OutcomeFailed)
	}
	s.metrics.Webhook(out.Status)
	return out, nil
}

func transitionOutcome(res *repository.TransitionResult, done string) string {
	if res.RefundRequired {
		return OutcomeRefundRequired
	}
	if res.AlreadyProcessed {
		return OutcomeAlreadyProcessed
	}
	return done
}

func (s *paymentService) Complete(ctx context.Context, sessionID string, c Confirmation, source string) (*repository.TransitionResult, error) {
	res, err := s.payments.CompleteSession(ctx, repository.CompleteInput{
		SessionID:        sessionID,
		GatewayReference: c.Reference,
		TransactionID:    c.TransactionID,
		Channel:          c.Channel,
		Source:           source,
		Payload:          c.Payload,
		Now:              s.now(),
	})
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if res.RefundRequired {
		s.metrics.Transition(OutcomeRefundRequired, source)
		s.log.Warn().Str("session_id", sessionID).Str("order_id", res.Session.OrderID).Str("source", source).
			Str("amount", res.Session.Amount.String()).Msg("payment captured for a closed session or cancelled order, refund required")
		return res, nil
	}
	if res.AlreadyProcessed {
		s.log.Info().Str("session_id", sessionID).Str("status", string(res.Session.Status)).Str("source", source).
			Msg("session already processed")
		return res, nil
	}

	s.metrics.Transition(string(model.SessionCompleted), source)
	s.log.Info().Str("session_id", sessionID).Str("order_id", res.Session.OrderID).Str("source", source).Msg("payment completed")
	if err := s.queue.EnqueueOrderPaid(ctx, res.Session.OrderID); err != nil {
		s.log.Error().Err(err).Str("order_id", res.Session.OrderID).Msg("failed to enqueue order emails")
	}
	return res, nil
}

func (s *paymentService) Fail(ctx context.Context, sessionID, reason, source string, payload []byte) (*repository.TransitionResult, error) {
	return s.close(ctx, sessionID, model.SessionFailed, reason, source, payload)
}

func (s *paymentService) Expire(ctx context.Context, sessionID, source string) (*repository.TransitionResult, error) {
	return s.close(ctx, sessionID, model.SessionExpired, "session expired", source, nil)
}

func (s *paymentService) close(ctx context.Context, sessionID string, status model.SessionStatus, reason, source string, payload []byte) (*repository.TransitionResult, error) {
	res, err := s.payments.CloseSession(ctx, repository.CloseInput{
		SessionID: sessionID,
		Status:    status,
		Reason:    reason,
		Source:    source,
		Payload:   payload,
		Now:       s.now(),
	})
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !res.AlreadyProcessed {
		s.metrics.Transition(string(status), source)
		s.log.Info().Str("session_id", sessionID).Str("status", string(status)).Str("source", source).Str("reason", reason).
			Msg("payment closed")
	}
	return res, nil
}

func (s *paymentService) Reconcile(ctx context.Context, sessionID, source string) (*ReconcileResult, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsTerminal() {
		return &ReconcileResult{Session: sess, Outcome: OutcomeAlreadyProcessed}, nil
	}

	st, gwErr := s.gateway.OrderStatus(ctx, sess.GatewayOrderID)
	s.metrics.GatewayCall("order_status", gwErr)
	now := s.now()
	if err := s.payments.TouchSession(ctx, sess.ID, now); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to record status check")
	}
	s.appendLog(ctx, statusCheckLog(sess, source, st, gwErr))

	if gwErr != nil && !errors.Is(gwErr, zenopay.ErrOrderNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, gwErr)
	}

	var res *repository.TransitionResult
	outcome := OutcomePending
	switch {
	case st != nil && st.PaymentStatus == zenopay.StatusCompleted:
		s.checkAmount(sess, st.Amount, source)
		payload, _ := json.Marshal(st)
		res, err = s.Complete(ctx, sess.ID, Confirmation{
			Reference:     st.Reference,
			TransactionID: st.TransID,
			Channel:       st.Channel,
			Payload:       payload,
		}, source)
		outcome = OutcomeCompleted
	case st != nil && (st.PaymentStatus == zenopay.StatusFailed || st.PaymentStatus == zenopay.StatusCancelled):
		payload, _ := json.Marshal(st)
		res, err = s.Fail(ctx, sess.ID, "gateway reported "+strings.ToLower(st.PaymentStatus), source, payload)
		outcome = OutcomeFailed
	case sess.Expired(now):
		res, err = s.Expire(ctx, sess.ID, source)
		outcome = OutcomeExpired
	default:
		sess.Attempts++
		sess.LastCheckedAt = &now
		return &ReconcileResult{Session: sess, Outcome: OutcomePending}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ReconcileResult{Session: res.Session, Outcome: transitionOutcome(res, outcome)}, nil
}

func (s *paymentService) checkAmount(sess *model.PaymentSession, reported, source string) {
	if amountMismatch(sess, reported) {
		s.log.Warn().Str("session_id", sess.ID).Str("source", source).Str("expected", sess.Amount.String()).
			Str("reported", reported).Msg("gateway reported a different amount")
	}
}

// amountMismatch compares a gateway amount with the whole shillings that were requested.
// An empty amount is not a mismatch since the gateway omits it from some payloads.
func amountMismatch(sess *model.PaymentSession, reported string) bool {
	reported = strings.TrimSpace(reported)
	if reported == "" {
		return false
	}
	amt, err := decimal.NewFromString(reported)
	return err != nil || !amt.Equal(sess.Amount.Round(0))
}

func statusCheckLog(sess *model.PaymentSession, source string, st *zenopay.OrderStatus, gwErr error) *model.PaymentLog {
	var payload []byte
	if gwErr != nil {
		payload, _ = json.Marshal(map[string]string{"error": gwErr.Error()})
	} else {
		payload, _ = json.Marshal(st)
	}
	return &model.PaymentLog{
		SessionID: &sess.ID,
		OrderID:   &sess.OrderID,
		Event:     model.LogStatusCheck,
		Source:    source,
		Payload:   payload,
	}
}

func (s *paymentService) appendLog(ctx context.Context, l *model.PaymentLog) {
	if err := s.payments.AppendLog(ctx, l); err != nil {
		s.log.Error().Err(err).Str("event", l.Event).Msg("failed to write payment log")
	}
}

func (s *paymentService) RecoverStuck(ctx context.Context, opts RecoverOptions) (*model.SweepReport, error) {
	if opts.OlderThan <= 0 {
		opts.OlderThan = 10 * time.Minute
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Source == "" {
		opts.Source = model.SourceSweep
	}
	sessions, err := s.payments.ListPendingCreatedBefore(ctx, s.now().Add(-opts.OlderThan), opts.Limit)
	if err != nil {
		return nil, err
	}
	report := s.sweep(ctx, sessions, opts.Source, opts.DryRun)
	s.metrics.Swept("recover", report.Checked)
	return report, nil
}

func (s *paymentService) ExpireSessions(ctx context.Context, limit int, source string) (*model.SweepReport, error) {
	if limit <= 0 {
		limit = 100
	}
	if source == "" {
		source = model.SourceSweep
	}
	sessions, err := s.payments.ListExpiredPending(ctx, s.now(), limit)
	if err != nil {
		return nil, err
	}
	// Reconcile rather than expire blindly: a late payment must still complete.
	report := s.sweep(ctx, sessions, source, false)
	s.metrics.Swept("expire", report.Checked)
	return report, nil
}

func (s *paymentService) sweep(ctx context.Context, sessions []model.PaymentSession, source string, dryRun bool) *model.SweepReport {
	report := &model.SweepReport{DryRun: dryRun, SessionIDs: make([]string, 0, len(sessions))}
	for _, sess := range sessions {
		if ctx.Err() != nil {
			break
		}
		report.SessionIDs = append(report.SessionIDs, sess.ID)
		report.Checked++
		if dryRun {
			continue
		}
		res, err := s.Reconcile(ctx, sess.ID, source)
		if err != nil {
			report.Errors++
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("sweep reconcile failed")
			continue
		}
		switch res.Outcome {
		case OutcomeCompleted:
			report.Completed++
		case OutcomeFailed:
			report.Failed++
		case OutcomeExpired:
			report.Expired++
		case OutcomePending:
			report.Pending++
		}
	}
	s.log.Info().
		Int("checked", report.Checked).
		Int("completed", report.Completed).
		Int("failed", report.Failed).
		Int("expired", report.Expired).
		Int("errors", report.Errors).
		Bool("dry_run", dryRun).
		Str("source", source).
		Msg("payment sweep finished")
	return report
}

func (s *paymentService) ListSessions(ctx context.Context, status string, limit, offset int) (*ListResult[model.PaymentSession], error) {
	if status != "" && !model.SessionStatus(status).Valid() {
		return nil, ErrInvalidStatus
	}
	pq := pageQuery(limit, offset)
	res, err := s.payments.ListSessions(ctx, repository.SessionFilter{Status: status, PageQuery: pq})
	if err != nil {
		return nil, err
	}
	return listResult(res, pq), nil
}

func (s *paymentService) GetSession(ctx context.Context, id string) (*model.PaymentSession, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	sess, err := s.payments.FindSession(ctx, id)
	if err != nil {
		if sqlerr.IsNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

func (s *paymentService) ListLogs(ctx context.Context, sessionID string) ([]model.PaymentLog, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.payments.ListLogs(ctx, sessionID)
}
